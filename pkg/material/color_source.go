package material

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// SolidColor provides uniform albedo
type SolidColor struct {
	Value core.Vec3
}

// NewSolidColor creates a new solid albedo
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Value: color}
}

// Color returns the solid color regardless of surface point
func (s *SolidColor) Color(surfacePoint core.Vec2, projection core.Bivec2) core.Vec3 {
	return s.Value
}

// TexturedColor provides albedo from an image texture
type TexturedColor struct {
	Texture *ImageTexture
	Scale   core.Vec2 // Repeat count along each surface axis
}

// NewTexturedColor creates a textured albedo repeated scale times across the surface
func NewTexturedColor(texture *ImageTexture, scale core.Vec2) *TexturedColor {
	return &TexturedColor{Texture: texture, Scale: scale}
}

// Color samples the texture, scaling the footprint along with the surface coordinates
func (c *TexturedColor) Color(surfacePoint core.Vec2, projection core.Bivec2) core.Vec3 {
	uv := core.NewVec2(surfacePoint.X*c.Scale.X, surfacePoint.Y*c.Scale.Y)
	scaled := core.NewBivec2(
		core.NewVec2(projection.U.X*c.Scale.X, projection.U.Y*c.Scale.Y),
		core.NewVec2(projection.V.X*c.Scale.X, projection.V.Y*c.Scale.Y),
	)
	return c.Texture.Sample(uv, scaled)
}
