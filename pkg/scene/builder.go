package scene

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// Builder accumulates primitives and lights for a scene
type Builder struct {
	primitives  []*Primitive
	pointLights []PointLight
}

// Add adds a primitive
func (b *Builder) Add(shape geometry.Shape, surface *material.Surface) *Builder {
	b.primitives = append(b.primitives, NewPrimitive(shape, surface))
	return b
}

// AddQuadLight adds an emissive quad
func (b *Builder) AddQuadLight(corner, u, v, radiance core.Vec3) *Builder {
	return b.Add(geometry.NewQuad(corner, u, v), material.NewEmissiveSurface(radiance))
}

// AddSphereLight adds an emissive sphere
func (b *Builder) AddSphereLight(center core.Vec3, radius float64, radiance core.Vec3) *Builder {
	return b.Add(geometry.NewSphere(center, radius), material.NewEmissiveSurface(radiance))
}

// AddPointLight adds a point light
func (b *Builder) AddPointLight(position, radiance core.Vec3) *Builder {
	b.pointLights = append(b.pointLights, NewPointLight(position, radiance))
	return b
}

// AddBox adds an axis-aligned box as six quads
func (b *Builder) AddBox(minCorner, maxCorner core.Vec3, surface *material.Surface) *Builder {
	d := maxCorner.Subtract(minCorner)
	dx := core.NewVec3(d.X, 0, 0)
	dy := core.NewVec3(0, d.Y, 0)
	dz := core.NewVec3(0, 0, d.Z)

	b.Add(geometry.NewQuad(minCorner, dx, dy), surface)
	b.Add(geometry.NewQuad(minCorner.Add(dz), dy, dx), surface)
	b.Add(geometry.NewQuad(minCorner, dy, dz), surface)
	b.Add(geometry.NewQuad(minCorner.Add(dx), dz, dy), surface)
	b.Add(geometry.NewQuad(minCorner, dz, dx), surface)
	b.Add(geometry.NewQuad(minCorner.Add(dy), dx, dz), surface)
	return b
}

// Build creates the scene
func (b *Builder) Build(camera *Camera, skyRadiance core.Vec3) *Scene {
	return New(camera, b.primitives, b.pointLights, skyRadiance)
}

// NewGroundQuad creates a large horizontal quad centered at the given point
func NewGroundQuad(center core.Vec3, size float64) *geometry.Quad {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	return geometry.NewQuad(corner, core.NewVec3(0, 0, size), core.NewVec3(size, 0, 0))
}
