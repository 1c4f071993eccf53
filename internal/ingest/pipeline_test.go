package ingest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
)

// memoryCommitter records committed assets.
type memoryCommitter struct {
	mu     sync.Mutex
	assets []domain.Asset
}

func (c *memoryCommitter) Commit(_ context.Context, a domain.Asset) (domain.Asset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets = append(c.assets, a)
	return a, nil
}

type mockCommitter struct {
	mock.Mock
}

func (m *mockCommitter) Commit(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(domain.Asset), args.Error(1)
}

// failingReader returns some bytes and then an error.
type failingReader struct {
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("device unplugged")
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	storage   *images.Storage
	committer *memoryCommitter
	clock     *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	storage, err := images.NewStorage(t.TempDir())
	require.NoError(t, err)
	return &fixture{
		storage:   storage,
		committer: &memoryCommitter{},
		clock:     clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func (f *fixture) pipeline(decoder images.Decoder, opts Options) *Pipeline {
	if decoder == nil {
		decoder = images.StdDecoder{}
	}
	opts.Clock = f.clock
	return New(f.storage, decoder, f.committer, logger.Discard(), opts)
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()
	files, err := f.storage.List()
	require.NoError(t, err)
	return files
}

func TestIngest_Success(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(nil, Options{})

	res := p.Ingest(context.Background(), BytesSource("Beach.PNG", pngBytes(t, 40, 20)))
	require.True(t, res.OK(), "unexpected error: %v", res.Err)

	a := res.Asset
	assert.True(t, a.Valid())
	assert.Equal(t, "Beach.PNG", a.FileName)
	assert.Equal(t, 40, a.Width)
	assert.Equal(t, 20, a.Height)
	assert.Equal(t, ".png", filepath.Ext(a.StoragePath))
	assert.Equal(t, f.clock.Now(), a.CreatedAt)
	assert.Empty(t, a.Placeholder)
	assert.True(t, f.storage.Exists(a.StoragePath))

	info, err := os.Stat(a.StoragePath)
	require.NoError(t, err)
	assert.InDelta(t, float64(info.Size())/domain.BytesPerMB, a.SizeMB, 1e-12)

	require.Len(t, f.committer.assets, 1)
	assert.Equal(t, a.ID, f.committer.assets[0].ID)
}

func TestIngest_Placeholder(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(nil, Options{Placeholders: images.NewPlaceholders(logger.Discard())})

	res := p.Ingest(context.Background(), BytesSource("a.png", pngBytes(t, 32, 32)))
	require.True(t, res.OK())
	assert.NotEmpty(t, res.Asset.Placeholder)
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	f := newFixture(t)
	decoder := images.DecoderFunc(func(context.Context, string) (images.Dimensions, error) {
		t.Fatal("decoder must not run")
		return images.Dimensions{}, nil
	})
	p := f.pipeline(decoder, Options{})

	for _, name := range []string{"photo.gif", "photo", "archive.png.zip", "notes.txt"} {
		res := p.Ingest(context.Background(), BytesSource(name, []byte("data")))
		require.False(t, res.OK())
		assert.Equal(t, KindUnsupportedExtension, res.Err.Kind, name)
	}
	assert.Empty(t, f.files(t))
	assert.Empty(t, f.committer.assets)
}

func TestIngest_ExtensionCaseInsensitive(t *testing.T) {
	assert.True(t, IsSupported("a.JPEG"))
	assert.True(t, IsSupported("b.Jpg"))
	assert.False(t, IsSupported("c.webp"))
}

func TestIngest_CopyFailed(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(nil, Options{})

	res := p.Ingest(context.Background(), ReaderSource("broken.jpg", &failingReader{}))
	require.False(t, res.OK())
	assert.Equal(t, KindCopyFailed, res.Err.Kind)
	assert.ErrorContains(t, res.Err, "device unplugged")
	assert.Empty(t, f.files(t))

	res = p.Ingest(context.Background(), FileSource(filepath.Join(t.TempDir(), "missing.jpg")))
	assert.Equal(t, KindCopyFailed, res.Err.Kind)
	assert.Empty(t, f.files(t))
}

func TestIngest_EmptyFile(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(nil, Options{})

	res := p.Ingest(context.Background(), BytesSource("empty.jpg", nil))
	require.False(t, res.OK())
	assert.Equal(t, KindEmptyFile, res.Err.Kind)
	assert.Empty(t, f.files(t))
}

func TestIngest_DecodeFailedIsNotRetried(t *testing.T) {
	f := newFixture(t)
	calls := 0
	decoder := images.DecoderFunc(func(ctx context.Context, path string) (images.Dimensions, error) {
		calls++
		return images.StdDecoder{}.Decode(ctx, path)
	})
	p := f.pipeline(decoder, Options{})

	res := p.Ingest(context.Background(), BytesSource("corrupt.png", []byte("not really a png")))
	require.False(t, res.OK())
	assert.Equal(t, KindDecodeFailed, res.Err.Kind)
	assert.ErrorIs(t, res.Err, images.ErrNotImage)
	assert.Equal(t, 1, calls)
	assert.Empty(t, f.files(t))
}

func TestIngest_TruncatedImageIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(images.StdDecoder{}, Options{})

	full := pngBytes(t, 64, 64)
	require.Greater(t, len(full), 60)

	res := p.Ingest(context.Background(), BytesSource("broken.png", full[:60]))
	require.False(t, res.OK())
	assert.Equal(t, KindDecodeFailed, res.Err.Kind)
	assert.ErrorIs(t, res.Err, images.ErrNotImage)
	assert.Empty(t, f.files(t))
	assert.Empty(t, f.committer.assets)
}

func TestNew_RetryDefaults(t *testing.T) {
	f := newFixture(t)

	p := f.pipeline(nil, Options{})
	assert.Equal(t, DefaultRetryAttempts, p.attempts)
	assert.Zero(t, p.delay, "zero delay retries immediately")

	p = f.pipeline(nil, Options{RetryAttempts: -2, RetryDelay: -time.Second})
	assert.Equal(t, DefaultRetryAttempts, p.attempts)
	assert.Equal(t, DefaultRetryDelay, p.delay)
}

func TestIngest_TransientDecodeRetries(t *testing.T) {
	f := newFixture(t)
	calls := 0
	decoder := images.DecoderFunc(func(context.Context, string) (images.Dimensions, error) {
		calls++
		if calls < 3 {
			return images.Dimensions{}, errors.New("file in use")
		}
		return images.Dimensions{Width: 10, Height: 10}, nil
	})
	p := f.pipeline(decoder, Options{RetryAttempts: 3})

	res := p.Ingest(context.Background(), BytesSource("a.jpg", []byte("bytes")))
	require.True(t, res.OK())
	assert.Equal(t, 3, calls)
}

func TestIngest_FileLocked(t *testing.T) {
	f := newFixture(t)
	calls := 0
	decoder := images.DecoderFunc(func(context.Context, string) (images.Dimensions, error) {
		calls++
		return images.Dimensions{}, errors.New("sharing violation")
	})
	p := New(f.storage, decoder, f.committer, logger.Discard(), Options{RetryDelay: time.Millisecond})

	start := time.Now()
	res := p.Ingest(context.Background(), BytesSource("a.jpeg", []byte("bytes")))
	require.False(t, res.OK())
	assert.Equal(t, KindFileLocked, res.Err.Kind)
	assert.Equal(t, DefaultRetryAttempts, calls)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond, "waits between attempts")
	assert.Empty(t, f.files(t))
}

func TestIngest_InvalidDimensions(t *testing.T) {
	f := newFixture(t)
	decoder := images.DecoderFunc(func(context.Context, string) (images.Dimensions, error) {
		return images.Dimensions{Width: 0, Height: 12}, nil
	})
	p := f.pipeline(decoder, Options{})

	res := p.Ingest(context.Background(), BytesSource("a.png", []byte("bytes")))
	require.False(t, res.OK())
	assert.Equal(t, KindInvalidDimensions, res.Err.Kind)
	assert.Empty(t, f.files(t))
}

func TestIngest_CommitFailed(t *testing.T) {
	f := newFixture(t)
	committer := &mockCommitter{}
	committer.On("Commit", mock.Anything, mock.AnythingOfType("domain.Asset")).
		Return(domain.Asset{}, errors.New("disk full")).Once()

	p := New(f.storage, images.StdDecoder{}, committer, logger.Discard(), Options{Clock: f.clock})

	res := p.Ingest(context.Background(), BytesSource("a.png", pngBytes(t, 4, 4)))
	require.False(t, res.OK())
	assert.Equal(t, KindCommitFailed, res.Err.Kind)
	assert.True(t, IsKind(res.Err, KindCommitFailed))
	assert.Empty(t, f.files(t))
	committer.AssertExpectations(t)
}

func TestIngest_SameBytesTwiceAreDistinct(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(nil, Options{})
	data := pngBytes(t, 8, 8)

	first := p.Ingest(context.Background(), BytesSource("dup.png", data))
	second := p.Ingest(context.Background(), BytesSource("dup.png", data))
	require.True(t, first.OK())
	require.True(t, second.OK())

	assert.NotEqual(t, first.Asset.ID, second.Asset.ID)
	assert.NotEqual(t, first.Asset.StoragePath, second.Asset.StoragePath)
	assert.Len(t, f.files(t), 2)
}

func TestIngestBatch_ContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(nil, Options{})

	var progress []int
	report := p.IngestBatch(context.Background(), []Source{
		BytesSource("one.png", pngBytes(t, 10, 10)),
		BytesSource("two.jpg", nil),
		BytesSource("three.png", pngBytes(t, 20, 10)),
	}, func(done, total int, _ Result) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})

	require.Len(t, report.Results, 3)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Zero(t, report.Abandoned)

	imported := report.Imported()
	require.Len(t, imported, 2)
	assert.Equal(t, "one.png", imported[0].FileName)
	assert.Equal(t, "three.png", imported[1].FileName)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, KindEmptyFile, failures[0].Kind)
	assert.Equal(t, "two.jpg", failures[0].FileName)

	assert.Len(t, f.committer.assets, 2)

	known := map[string]bool{}
	for _, a := range imported {
		known[a.StoragePath] = true
	}
	orphans, err := f.storage.Orphans(known)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestIngestBatch_CancelAbandonsRemaining(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	report := p.IngestBatch(ctx, []Source{
		BytesSource("a.png", pngBytes(t, 2, 2)),
		BytesSource("b.png", pngBytes(t, 2, 2)),
		BytesSource("c.png", pngBytes(t, 2, 2)),
	}, func(done, _ int, _ Result) {
		if done == 1 {
			cancel()
		}
	})

	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].OK(), "current item completes")
	assert.Equal(t, 2, report.Abandoned)
	assert.Len(t, f.files(t), 1)
}

func TestReaderSource_SingleUse(t *testing.T) {
	src := ReaderSource("a.png", bytes.NewReader([]byte("x")))

	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	_, err = src.Open(context.Background())
	assert.ErrorIs(t, err, ErrSourceConsumed)
}

func TestImportError(t *testing.T) {
	err := &ImportError{Kind: KindFileLocked, FileName: "a.png", Err: errors.New("busy")}
	assert.Equal(t, `import "a.png": file_locked: busy`, err.Error())
	assert.Equal(t, "kind(99)", Kind(99).String())

	text, mErr := KindDecodeFailed.MarshalText()
	require.NoError(t, mErr)
	assert.Equal(t, "decode_failed", string(text))
}

func TestKind_Text(t *testing.T) {
	b, err := KindDecodeFailed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "decode_failed", string(b))

	var k Kind
	require.NoError(t, k.UnmarshalText(b))
	assert.Equal(t, KindDecodeFailed, k)

	assert.Error(t, k.UnmarshalText([]byte("melted")))
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".jpeg", ".jpg", ".png"}, SupportedExtensions())
	assert.True(t, IsSupported("IMG_0001.JPG"))
	assert.False(t, IsSupported("clip.mov"))
}
