package scene

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// NewTriangleMeshScene creates a rolling height-field terrain with a
// tetrahedron resting on it, lit by a quad light and a point light
func NewTriangleMeshScene(resolution int) (*Scene, error) {
	camera := NewCameraFromConfig(CameraConfig{
		Center: core.NewVec3(0, 3, 7),
		LookAt: core.NewVec3(0, 0.5, 0),
		Up:     core.NewVec3(0, 1, 0),
		Fov:    55,
	})

	terrain, err := geometry.NewGridMesh(
		core.NewVec3(-5, 0, -5),
		core.NewVec3(0, 0, 10),
		core.NewVec3(10, 0, 0),
		resolution,
		func(u, v float64) float64 {
			return 0.25 * math.Sin(4*math.Pi*u) * math.Cos(3*math.Pi*v)
		},
	)
	if err != nil {
		return nil, err
	}

	tetrahedron, err := geometry.NewTriangleMesh(
		[]core.Vec3{
			core.NewVec3(-0.8, 0.2, 0.6),
			core.NewVec3(0.8, 0.2, 0.6),
			core.NewVec3(0, 0.2, -0.8),
			core.NewVec3(0, 1.6, 0),
		},
		[]int{0, 2, 1, 0, 1, 3, 1, 2, 3, 2, 0, 3},
		nil,
	)
	if err != nil {
		return nil, err
	}

	b := &Builder{}
	b.Add(terrain, material.NewSurface(
		material.NewSolidColor(core.NewVec3(0.35, 0.55, 0.3)),
		[]material.Brdf{material.NewOrenNayar(1, 0.3)},
		1, core.Vec3{}, nil,
	))
	b.Add(tetrahedron, material.NewSurface(
		material.NewSolidColor(core.NewVec3(0.8, 0.6, 0.2)),
		[]material.Brdf{material.NewTorranceSparrow(0.6, 0.15, 1.8), material.NewLambert(1)},
		1, core.Vec3{}, nil,
	))
	b.AddQuadLight(core.NewVec3(-1.5, 5, -1.5), core.NewVec3(3, 0, 0), core.NewVec3(0, 0, 3), core.Splat(6))
	b.AddPointLight(core.NewVec3(4, 3, 4), core.Splat(30))

	return b.Build(camera, core.NewVec3(0.05, 0.05, 0.08)), nil
}
