package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Framebuffer is a packed 8-bit RGB image, row-major from the top left.
// Distinct pixels may be written concurrently.
type Framebuffer struct {
	width  int
	height int
	Bits   []byte
}

// NewFramebuffer creates a black framebuffer
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		Bits:   make([]byte, width*height*3),
	}
}

// Width returns the width in pixels
func (f *Framebuffer) Width() int {
	return f.width
}

// Height returns the height in pixels
func (f *Framebuffer) Height() int {
	return f.height
}

// SetPixel stores a color with components in [0, 1]; values outside are clamped
func (f *Framebuffer) SetPixel(x, y int, c core.Vec3) {
	c = c.Clamp(0, 1)
	offset := (y*f.width + x) * 3
	f.Bits[offset] = toByte(c.X)
	f.Bits[offset+1] = toByte(c.Y)
	f.Bits[offset+2] = toByte(c.Z)
}

// Pixel returns the stored color of a pixel
func (f *Framebuffer) Pixel(x, y int) core.Vec3 {
	offset := (y*f.width + x) * 3
	return core.NewVec3(
		float64(f.Bits[offset])/255,
		float64(f.Bits[offset+1])/255,
		float64(f.Bits[offset+2])/255,
	)
}

// Clear sets every pixel to black
func (f *Framebuffer) Clear() {
	clear(f.Bits)
}

// Image copies the framebuffer into an opaque RGBA image
func (f *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			offset := (y*f.width + x) * 3
			img.SetRGBA(x, y, color.RGBA{R: f.Bits[offset], G: f.Bits[offset+1], B: f.Bits[offset+2], A: 255})
		}
	}
	return img
}

// ToneMap compresses radiance into displayable color with rad/(rad+1) per
// component. Negative and non-finite components map to black.
func ToneMap(radiance core.Vec3) core.Vec3 {
	return core.NewVec3(toneMap(radiance.X), toneMap(radiance.Y), toneMap(radiance.Z))
}

func toneMap(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if math.IsInf(v, 1) {
		return 1
	}
	return v / (v + 1)
}

func toByte(v float64) byte {
	if math.IsNaN(v) {
		return 0
	}
	return byte(math.Round(v * 255))
}
