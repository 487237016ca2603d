package material

import (
	"image"
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// mipLevel is one resolution level of a texture
type mipLevel struct {
	width  int
	height int
	pixels []core.Vec3 // Row-major: pixels[y*width + x]
}

func (l *mipLevel) at(x, y int) core.Vec3 {
	return l.pixels[y*l.width+x]
}

// bilinear samples the level with wrapping addressing
func (l *mipLevel) bilinear(uv core.Vec2) core.Vec3 {
	fx := uv.X*float64(l.width) - 0.5
	fy := uv.Y*float64(l.height) - 0.5
	x0f, y0f := math.Floor(fx), math.Floor(fy)
	dx, dy := fx-x0f, fy-y0f

	x0 := wrap(int(x0f), l.width)
	y0 := wrap(int(y0f), l.height)
	x1 := wrap(x0+1, l.width)
	y1 := wrap(y0+1, l.height)

	return l.at(x0, y0).Multiply((1 - dx) * (1 - dy)).
		Add(l.at(x1, y0).Multiply(dx * (1 - dy))).
		Add(l.at(x0, y1).Multiply((1 - dx) * dy)).
		Add(l.at(x1, y1).Multiply(dx * dy))
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// ImageTexture is a mipmapped RGB texture sampled with trilinear filtering
type ImageTexture struct {
	levels []mipLevel
}

// NewImageTexture creates a texture from row-major pixels and builds its mip chain
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	t := &ImageTexture{levels: []mipLevel{{width: width, height: height, pixels: pixels}}}
	t.generateMipmaps()
	return t
}

// NewImageTextureFromImage converts a decoded image to a texture with channels in [0, 1]
func NewImageTextureFromImage(img image.Image) *ImageTexture {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]core.Vec3, 0, width*height)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pixels = append(pixels, core.NewVec3(float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff))
		}
	}
	return NewImageTexture(width, height, pixels)
}

// generateMipmaps box-filters each level down until it is one pixel across
func (t *ImageTexture) generateMipmaps() {
	for {
		last := &t.levels[len(t.levels)-1]
		if last.width <= 1 && last.height <= 1 {
			return
		}

		width := max(last.width/2, 1)
		height := max(last.height/2, 1)
		pixels := make([]core.Vec3, width*height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				x0, y0 := min(2*x, last.width-1), min(2*y, last.height-1)
				x1, y1 := min(2*x+1, last.width-1), min(2*y+1, last.height-1)
				sum := last.at(x0, y0).Add(last.at(x1, y0)).Add(last.at(x0, y1)).Add(last.at(x1, y1))
				pixels[y*width+x] = sum.Divide(4)
			}
		}
		t.levels = append(t.levels, mipLevel{width: width, height: height, pixels: pixels})
	}
}

// Levels returns the number of mip levels
func (t *ImageTexture) Levels() int {
	return len(t.levels)
}

// selectLevel picks a fractional mip level matching the footprint size
func (t *ImageTexture) selectLevel(projection core.Bivec2) float64 {
	size := math.Sqrt(min(projection.U.X*projection.U.X+projection.U.Y*projection.U.Y,
		projection.V.X*projection.V.X+projection.V.Y*projection.V.Y))

	top := float64(len(t.levels) - 1)
	if size <= 0 {
		return 0
	}
	return max(0, min(top, top+math.Log2(size)))
}

// Sample returns the texture value at uv, blending the two mip levels nearest the footprint
func (t *ImageTexture) Sample(uv core.Vec2, projection core.Bivec2) core.Vec3 {
	lf := t.selectLevel(projection)
	l := int(math.Floor(lf))
	dl := lf - float64(l)

	value := t.levels[l].bilinear(uv).Multiply(1 - dl)
	if dl > 0 {
		next := min(l+1, len(t.levels)-1)
		value = value.Add(t.levels[next].bilinear(uv).Multiply(dl))
	}
	return value
}
