package loaders

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/material"
)

// LoadTexture decodes an image file (PNG, JPEG, or BMP, by content/extension)
// into a material.ImageTexture of linear-space pixels. flipVertically mirrors
// the image top-to-bottom before storage, for cube-map faces authored with
// the opposite v convention.
func LoadTexture(path string, flipVertically bool) (*material.ImageTexture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loaders: opening texture %q", path)
	}
	defer f.Close()

	img, _, err := decodeImage(f, path)
	if err != nil {
		return nil, errors.Wrapf(err, "loaders: decoding texture %q", path)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]core.Vec3, w*h)
	for y := 0; y < h; y++ {
		srcY := y
		if flipVertically {
			srcY = h - 1 - y
		}
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+srcY).RGBA()
			pixels[y*w+x] = core.NewVec3(
				srgbToLinear(float64(r)/65535.0),
				srgbToLinear(float64(g)/65535.0),
				srgbToLinear(float64(b)/65535.0),
			)
		}
	}
	return material.NewImageTexture(w, h, pixels), nil
}

func decodeImage(f *os.File, path string) (image.Image, string, error) {
	if isBMP(path) {
		img, err := bmp.Decode(f)
		return img, "bmp", err
	}
	return image.Decode(f)
}

func isBMP(path string) bool {
	n := len(path)
	return n >= 4 && (path[n-4:] == ".bmp" || path[n-4:] == ".BMP")
}

// srgbToLinear decodes an 8-bit sRGB sample (already normalized to [0,1])
// into linear radiance, per the standard piecewise sRGB transfer function's
// inverse.
func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}
