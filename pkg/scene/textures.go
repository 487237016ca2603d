package scene

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// NewTextureScene creates a scene demonstrating filtered textures and a bump
// mapped sphere
func NewTextureScene() *Scene {
	camera := NewCameraFromConfig(CameraConfig{
		Center: core.NewVec3(0, 2, 8),
		LookAt: core.NewVec3(0, 1, 0),
		Up:     core.NewVec3(0, 1, 0),
		Fov:    60,
	})

	checkerboard := material.NewCheckerboardTexture(256, 256, 32,
		core.NewVec3(0.9, 0.9, 0.9), // White
		core.NewVec3(0.2, 0.2, 0.8), // Blue
	)
	gradient := material.NewGradientTexture(64, 64,
		core.NewVec3(1.0, 0.2, 0.2), // Red (top)
		core.NewVec3(0.2, 1.0, 0.2), // Green (bottom)
	)
	ripples := material.NewNormalMap(material.NewRippleHeightTexture(256, 12), 0.02)

	b := &Builder{}

	// The floor repeats the checkerboard so distant cells fall to coarse mip levels
	b.Add(NewGroundQuad(core.NewVec3(0, 0, 0), 40), material.NewSurface(
		material.NewTexturedColor(checkerboard, core.NewVec2(10, 10)),
		[]material.Brdf{material.NewLambert(1)},
		1, core.Vec3{}, nil,
	))

	b.Add(geometry.NewSphere(core.NewVec3(-2, 1, 0), 1), material.NewSurface(
		material.NewTexturedColor(gradient, core.NewVec2(1, 1)),
		[]material.Brdf{material.NewLambert(1)},
		1, core.Vec3{}, nil,
	))

	b.Add(geometry.NewSphere(core.NewVec3(2, 1, 0), 1), material.NewSurface(
		material.NewSolidColor(core.NewVec3(0.7, 0.7, 0.75)),
		[]material.Brdf{material.NewPhong(0.5, 60), material.NewLambert(0.5)},
		1, core.Vec3{}, ripples,
	))

	b.AddSphereLight(core.NewVec3(0, 8, 4), 1.5, core.Splat(8))

	return b.Build(camera, core.NewVec3(0.4, 0.5, 0.7))
}
