package images

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdDecoder(t *testing.T) {
	dir := t.TempDir()
	dec := StdDecoder{}
	ctx := context.Background()

	t.Run("png", func(t *testing.T) {
		dims, err := dec.Decode(ctx, writePNG(t, dir, 40, 30))
		require.NoError(t, err)
		assert.Equal(t, Dimensions{Width: 40, Height: 30}, dims)
	})

	t.Run("jpeg", func(t *testing.T) {
		path := filepath.Join(dir, "photo.jpg")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, jpeg.Encode(f, gradient(16, 9), nil))
		require.NoError(t, f.Close())

		dims, err := dec.Decode(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, Dimensions{Width: 16, Height: 9}, dims)
	})

	t.Run("garbage is not an image", func(t *testing.T) {
		path := filepath.Join(dir, "fake.png")
		require.NoError(t, os.WriteFile(path, []byte("definitely not a png"), 0o644))

		_, err := dec.Decode(ctx, path)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("truncated body is not an image", func(t *testing.T) {
		full, err := os.ReadFile(writePNG(t, dir, 64, 64))
		require.NoError(t, err)
		path := filepath.Join(dir, "truncated.png")
		require.NoError(t, os.WriteFile(path, full[:60], 0o644))

		_, err = dec.Decode(ctx, path)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("missing file is not classified as format error", func(t *testing.T) {
		_, err := dec.Decode(ctx, filepath.Join(dir, "missing.png"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotImage)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := dec.Decode(canceled, writePNG(t, dir, 2, 2))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestComputeBlurHash(t *testing.T) {
	dir := t.TempDir()

	hash, err := ComputeBlurHash(writePNG(t, dir, 300, 120))
	require.NoError(t, err)
	// 4x3 components: size flag, max AC, 4 char DC, 2 chars per AC component.
	assert.Len(t, hash, 6+2*(4*3-1))

	again, err := ComputeBlurHash(writePNG(t, dir, 300, 120))
	require.NoError(t, err)
	assert.Equal(t, hash, again, "hash is deterministic")

	_, err = ComputeBlurHash(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestThumbnail(t *testing.T) {
	small := gradient(10, 5)
	assert.Same(t, image.Image(small), thumbnail(small, 64))

	wide := thumbnail(gradient(640, 160), 64).Bounds()
	assert.Equal(t, 64, wide.Dx())
	assert.Equal(t, 16, wide.Dy())

	tall := thumbnail(gradient(10, 1000), 64).Bounds()
	assert.Equal(t, 1, tall.Dx())
	assert.Equal(t, 64, tall.Dy())
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / max(w, 1)), G: uint8(y * 255 / max(h, 1)), B: 128, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	f, err := os.CreateTemp(dir, "img-*.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, gradient(w, h)))
	require.NoError(t, f.Close())
	return f.Name()
}
