package material

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// NormalMap perturbs shading normals using the gradient of a height texture
type NormalMap struct {
	gradient *ImageTexture // X and Y hold the negated height derivatives
}

// NewNormalMap converts a height texture into a normal map. The height is the
// mean of the three channels; magnitude scales the bump strength.
func NewNormalMap(height *ImageTexture, magnitude float64) *NormalMap {
	base := height.levels[0]
	pixels := make([]core.Vec3, base.width*base.height)

	mean := func(c core.Vec3) float64 { return (c.X + c.Y + c.Z) / 3 }
	for y := 0; y < base.height; y++ {
		for x := 0; x < base.width; x++ {
			s := mean(base.at(x, y))
			su := mean(base.at(wrap(x+1, base.width), y))
			sv := mean(base.at(x, wrap(y+1, base.height)))

			pixels[y*base.width+x] = core.NewVec3(
				-(su-s)*float64(base.width)*magnitude,
				-(sv-s)*float64(base.height)*magnitude,
				0,
			)
		}
	}

	return &NormalMap{gradient: NewImageTexture(base.width, base.height, pixels)}
}

// Perturb offsets the normal along the surface tangents by the filtered height gradient
func (n *NormalMap) Perturb(surfacePoint core.Vec2, projection core.Bivec2, normal core.Vec3, tangent core.Bivec3) core.Vec3 {
	value := n.gradient.Sample(surfacePoint, projection)
	offset := tangent.Apply(core.NewVec2(value.X, value.Y))
	return normal.Add(offset).Normalize()
}
