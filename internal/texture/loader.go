package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for payloads that are not a supported raster image.
var ErrUnsupportedFormat = errors.New("texture: unsupported format")

// Sniff identifies the image format of an upload by its magic number.
// TGA has no magic number and is accepted by file extension only.
func Sniff(data []byte, name string) (string, error) {
	kind, _ := filetype.Match(data)
	if kind == filetype.Unknown {
		if strings.EqualFold(filepath.Ext(name), ".tga") && len(data) > 18 {
			return "tga", nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if !filetype.IsImage(data) {
		return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedFormat, name, kind.MIME.Value)
	}
	switch kind.Extension {
	case "png", "jpg", "gif", "webp", "bmp":
		return kind.Extension, nil
	}
	return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedFormat, name, kind.MIME.Value)
}

// Decode sniffs and decodes an uploaded image into an NRGBA image with its
// origin at (0, 0).
func Decode(data []byte, name string) (*image.NRGBA, error) {
	format, err := Sniff(data, name)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(data)
	var img image.Image
	switch format {
	case "png":
		img, err = png.Decode(r)
	case "jpg":
		img, err = jpeg.Decode(r)
	case "gif":
		img, err = gif.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	case "tga":
		img, err = tga.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s (%s): %w", name, format, err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("texture: decode %s: empty image", name)
	}
	return toNRGBA(img), nil
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	return Decode(raw, path)
}

// toNRGBA converts any image to NRGBA format with a zero origin.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
