package material

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// NewCheckerboardTexture creates a procedural checkerboard pattern texture
func NewCheckerboardTexture(width, height, checkSize int, color1, color2 core.Vec3) *ImageTexture {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Alternate colors based on check position
			if (x/checkSize+y/checkSize)%2 == 0 {
				pixels[y*width+x] = color1
			} else {
				pixels[y*width+x] = color2
			}
		}
	}

	return NewImageTexture(width, height, pixels)
}

// NewGradientTexture creates a vertical gradient from color1 (top) to color2 (bottom)
func NewGradientTexture(width, height int, color1, color2 core.Vec3) *ImageTexture {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		t := float64(y) / float64(max(height-1, 1))
		color := color1.Multiply(1.0 - t).Add(color2.Multiply(t))

		for x := 0; x < width; x++ {
			pixels[y*width+x] = color
		}
	}

	return NewImageTexture(width, height, pixels)
}

// NewRippleHeightTexture creates a height field of concentric ripples around
// the texture center, with heights in [0, 1]
func NewRippleHeightTexture(size int, rings float64) *ImageTexture {
	pixels := make([]core.Vec3, size*size)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			u := (float64(x)+0.5)/float64(size) - 0.5
			v := (float64(y)+0.5)/float64(size) - 0.5
			h := 0.5 + 0.5*math.Cos(2*math.Pi*rings*math.Hypot(u, v))
			pixels[y*size+x] = core.Splat(h)
		}
	}

	return NewImageTexture(size, size, pixels)
}
