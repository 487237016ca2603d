package scene

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// Primitive pairs a shape with its surface. Primitives are never modified
// after construction.
type Primitive struct {
	Shape   geometry.Shape
	Surface *material.Surface
	Volume  core.BoundingVolume
}

// NewPrimitive creates a primitive and precomputes its bounding volume
func NewPrimitive(shape geometry.Shape, surface *material.Surface) *Primitive {
	return &Primitive{
		Shape:   shape,
		Surface: surface,
		Volume:  shape.BoundingVolume(),
	}
}

// PointLight is an infinitesimal isotropic emitter
type PointLight struct {
	Position core.Vec3
	Radiance core.Vec3
}

// NewPointLight creates a point light
func NewPointLight(position, radiance core.Vec3) PointLight {
	return PointLight{Position: position, Radiance: radiance}
}
