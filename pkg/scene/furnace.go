package scene

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// NewFurnaceScene creates a diffuse sphere inside a uniform white sky. A convex
// diffuser never sees itself, so every pixel on the sphere converges to the albedo.
func NewFurnaceScene(albedo float64) *Scene {
	camera := NewCameraFromConfig(CameraConfig{
		Center: core.NewVec3(0, 0, 4),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		Fov:    45,
	})

	b := &Builder{}
	b.Add(geometry.NewSphere(core.Vec3{}, 1), material.NewDiffuseSurface(core.Splat(albedo)))
	return b.Build(camera, core.Splat(1))
}
