package scene

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// NewCornellScene creates a classic Cornell box with quad walls, a ceiling
// light, two blocks and a glossy sphere
func NewCornellScene() *Scene {
	camera := NewCameraFromConfig(CameraConfig{
		Center: core.NewVec3(278, 278, -800), // Outside the box looking in
		LookAt: core.NewVec3(278, 278, 0),
		Up:     core.NewVec3(0, 1, 0),
		Fov:    40,
	})

	white := material.NewDiffuseSurface(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewDiffuseSurface(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewDiffuseSurface(core.NewVec3(0.12, 0.45, 0.15))

	// Cornell box dimensions (standard 555x555x555 units)
	boxSize := 555.0
	x := core.NewVec3(boxSize, 0, 0)
	y := core.NewVec3(0, boxSize, 0)
	z := core.NewVec3(0, 0, boxSize)

	b := &Builder{}
	b.Add(geometry.NewQuad(core.Vec3{}, z, x), white) // floor
	b.Add(geometry.NewQuad(y, x, z), white)           // ceiling
	b.Add(geometry.NewQuad(z, y, x), white)           // back
	b.Add(geometry.NewQuad(core.Vec3{}, y, z), red)   // left
	b.Add(geometry.NewQuad(x, z, y), green)           // right

	lightSize := 130.0
	lightOffset := (boxSize - lightSize) / 2
	b.AddQuadLight(
		core.NewVec3(lightOffset, boxSize-1, lightOffset), // slightly below the ceiling
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
		core.NewVec3(15, 15, 15),
	)

	b.AddBox(core.NewVec3(130, 0, 65), core.NewVec3(295, 165, 230), white)
	b.AddBox(core.NewVec3(265, 0, 295), core.NewVec3(430, 330, 460), white)

	glossy := material.NewSurface(
		material.NewSolidColor(core.NewVec3(0.8, 0.8, 0.9)),
		[]material.Brdf{material.NewPhong(0.3, 200), material.NewLambert(0.7)},
		1, core.Vec3{}, nil,
	)
	b.Add(geometry.NewSphere(core.NewVec3(212, 225, 147), 60), glossy)

	return b.Build(camera, core.Vec3{})
}
