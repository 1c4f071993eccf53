package images

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"os"
)

// ErrNotImage marks content that was read completely but is not a
// decodable image. Any other decode error is treated as transient.
var ErrNotImage = errors.New("not an image")

// Dimensions are pixel dimensions reported by a Decoder.
type Dimensions struct {
	Width  int
	Height int
}

// Decoder reports the pixel dimensions of an image file.
type Decoder interface {
	Decode(ctx context.Context, path string) (Dimensions, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, path string) (Dimensions, error)

func (f DecoderFunc) Decode(ctx context.Context, path string) (Dimensions, error) {
	return f(ctx, path)
}

// StdDecoder decodes the whole image so a valid header over a truncated or
// corrupt body is rejected.
type StdDecoder struct{}

// Decode returns the dimensions of the PNG or JPEG at path. Failures to
// open or read the file are returned as is; malformed content, including a
// body that ends early, wraps ErrNotImage.
func (StdDecoder) Decode(ctx context.Context, path string) (Dimensions, error) {
	if err := ctx.Err(); err != nil {
		return Dimensions{}, err
	}

	f, err := os.Open(path) //#nosec G304 -- managed storage path
	if err != nil {
		return Dimensions{}, fmt.Errorf("open for decode: %w", err)
	}
	defer f.Close()

	rr := &readRecorder{r: f}
	img, _, err := image.Decode(rr)
	if err != nil {
		if rr.err != nil {
			return Dimensions{}, fmt.Errorf("read for decode: %w", rr.err)
		}
		return Dimensions{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	b := img.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}

// readRecorder remembers the first I/O error from the underlying reader so
// read failures can be told apart from format errors.
type readRecorder struct {
	r   io.Reader
	err error
}

func (rr *readRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}
