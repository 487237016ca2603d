package scene

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// oklchToRGB converts an OKLCH color (lightness 0-1, chroma, hue in degrees)
// to linear RGB clamped to [0, 1]
func oklchToRGB(l, c, h float64) core.Vec3 {
	a := c * math.Cos(h*math.Pi/180)
	b := c * math.Sin(h*math.Pi/180)

	lc := math.Pow(l+0.3963377774*a+0.2158037573*b, 3)
	mc := math.Pow(l-0.1055613458*a-0.0638541728*b, 3)
	sc := math.Pow(l-0.0894841775*a-1.2914855480*b, 3)

	return core.NewVec3(
		4.0767416621*lc-3.3077115913*mc+0.2309699292*sc,
		-1.2684380046*lc+2.6097574011*mc-0.3413193965*sc,
		-0.0041960863*lc-0.7034186147*mc+1.7076147010*sc,
	).Clamp(0, 1)
}

// NewSphereGridScene creates a grid of spheres on a ground quad. Hue varies
// across the grid, and the material cycles through diffuse, rough diffuse,
// glossy and glass.
func NewSphereGridScene(gridSize int) *Scene {
	camera := NewCameraFromConfig(CameraConfig{
		Center:   core.NewVec3(4.5, 6, 18),
		LookAt:   core.NewVec3(4.5, 0.8, 4.5),
		Up:       core.NewVec3(0, 1, 0),
		Fov:      45,
		Aperture: 0.02,
	})

	b := &Builder{}
	b.Add(NewGroundQuad(core.NewVec3(4.5, 0, 4.5), 60), material.NewDiffuseSurface(core.Splat(0.5)))
	b.AddSphereLight(core.NewVec3(20, 25, 20), 8, core.NewVec3(12, 11.5, 10))
	b.AddPointLight(core.NewVec3(-5, 10, 10), core.Splat(400))

	// Fit the grid into the same visual area regardless of its size
	targetArea := 9.0
	spacing := targetArea / float64(max(gridSize-1, 1))
	radius := max(0.02, min(0.35, spacing*0.35))

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			position := core.NewVec3(
				float64(i)*spacing-targetArea/2+4.5,
				radius,
				float64(j)*spacing-targetArea/2+4.5,
			)

			t := float64(i) / float64(max(gridSize-1, 1))
			s := float64(j) / float64(max(gridSize-1, 1))
			color := oklchToRGB(0.65+0.1*math.Sin(float64(i+j)*0.5), 0.05+0.2*s, 360*t)

			b.Add(geometry.NewSphere(position, radius), sphereSurface((i+j)%4, color))
		}
	}

	return b.Build(camera, core.NewVec3(0.5, 0.7, 1))
}

func sphereSurface(kind int, color core.Vec3) *material.Surface {
	albedo := material.NewSolidColor(color)
	switch kind {
	case 0:
		return material.NewSurface(albedo, []material.Brdf{material.NewLambert(1)}, 1, core.Vec3{}, nil)
	case 1:
		return material.NewSurface(albedo, []material.Brdf{material.NewOrenNayar(1, 0.5)}, 1, core.Vec3{}, nil)
	case 2:
		return material.NewSurface(albedo, []material.Brdf{material.NewPhong(0.4, 80), material.NewLambert(0.6)}, 1, core.Vec3{}, nil)
	default:
		return material.NewSurface(albedo, []material.Brdf{material.NewTorranceSparrow(1, 0.05, 1.5)}, 1.5, core.Vec3{}, nil)
	}
}
