package images

import (
	"fmt"
	"image"
	"os"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// placeholderSize bounds the thumbnail the hash is computed from; the hash
// is a low-frequency summary, so more pixels only cost time.
const placeholderSize = 64

// ComputeBlurHash returns a 4x3 component BlurHash for the image at path.
func ComputeBlurHash(path string) (string, error) {
	f, err := os.Open(path) //#nosec G304 -- managed storage path
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := blurhash.Encode(4, 3, thumbnail(img, placeholderSize))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnail scales img so its longer side is at most limit, keeping aspect.
func thumbnail(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}

	dw, dh := limit, limit
	if w > h {
		dh = max(1, h*limit/w)
	} else {
		dw = max(1, w*limit/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
