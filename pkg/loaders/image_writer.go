package loaders

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"github.com/jpeterson/pathtracer/pkg/renderer"
)

const jpegQuality = 95

// WriteImage writes a post-processed (already gamma-corrected, [0,1]-clamped)
// image to path, choosing PNG, JPEG, BMP, or TGA by the file extension
// (spec.md §6). Pixels are written 8-bit, no metadata.
func WriteImage(img *renderer.Image, path string) error {
	rgba := toRGBA(img)

	ext := strings.ToLower(extensionOf(path))
	switch ext {
	case ".png":
		return writeWith(path, func(w *bufio.Writer) error { return png.Encode(w, rgba) })
	case ".jpg", ".jpeg":
		return writeWith(path, func(w *bufio.Writer) error {
			return jpeg.Encode(w, rgba, &jpeg.Options{Quality: jpegQuality})
		})
	case ".bmp":
		return writeWith(path, func(w *bufio.Writer) error { return bmp.Encode(w, rgba) })
	case ".tga":
		return writeWith(path, func(w *bufio.Writer) error { return encodeTGA(w, rgba) })
	default:
		return errors.Errorf("loaders: unsupported output extension %q", ext)
	}
}

func extensionOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

func writeWith(path string, encode func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "loaders: creating output file %q", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := encode(w); err != nil {
		return errors.Wrapf(err, "loaders: encoding output file %q", path)
	}
	return errors.Wrapf(w.Flush(), "loaders: flushing output file %q", path)
}

// toRGBA converts the linear-but-already-gamma-corrected image (whose
// components are in [0,1]) to 8-bit sRGB NRGBA, by direct quantization: the
// post-processing pass already applied gamma/sRGB encoding, so this is a
// plain scale-and-round, not a second color transform.
func toRGBA(img *renderer.Image) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: to8(c.X),
				G: to8(c.Y),
				B: to8(c.Z),
				A: 255,
			})
		}
	}
	return out
}

func to8(c float64) uint8 {
	v := int(c*255.0 + 0.5)
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}

// encodeTGA writes an uncompressed 24-bit BGR TGA image (type 2), the one
// format the standard library and x/image have no encoder for.
func encodeTGA(w *bufio.Writer, img *image.NRGBA) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	header := make([]byte, 18)
	header[2] = 2 // uncompressed, true-color
	binary.LittleEndian.PutUint16(header[12:], uint16(width))
	binary.LittleEndian.PutUint16(header[14:], uint16(height))
	header[16] = 24 // bits per pixel
	header[17] = 0x20 // origin top-left

	if _, err := w.Write(header); err != nil {
		return err
	}

	row := make([]byte, width*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			row[x*3+0] = c.B
			row[x*3+1] = c.G
			row[x*3+2] = c.R
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
