package renderer

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ImageFormat names an encoding for rendered images
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

// ErrUnknownFormat is returned for image formats that cannot be encoded
var ErrUnknownFormat = errors.New("renderer: unknown image format")

// ParseImageFormat returns the format with the given name, ignoring case.
// "tif" is accepted for TIFF.
func ParseImageFormat(name string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatForPath picks the image format from a file extension
func FormatForPath(path string) (ImageFormat, error) {
	return ParseImageFormat(filepath.Ext(path))
}

// WriteImage encodes the framebuffer to w
func WriteImage(w io.Writer, fb *Framebuffer, format ImageFormat) error {
	img := fb.Image()

	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return nil
}
