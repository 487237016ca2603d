package integrator

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/executor"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// SurfaceOffset is how far secondary rays start from the surface they leave
const SurfaceOffset = 0.01

// MaxGenerations bounds the number of bounces a path may take
const MaxGenerations = 10

// Lighter computes the radiance leaving an intersection back along its ray.
// Implementations are safe for concurrent use; the sampler is per-goroutine.
type Lighter interface {
	Light(isect *scene.Intersection, sampler core.Sampler) core.Vec3
}

// Canvas receives preview pixels while a lighter prepares its data
type Canvas interface {
	Width() int
	Height() int
	SetPixel(x, y int, color core.Vec3)
}

// Prerenderer is implemented by lighters that need a pass over the image
// before the first sample is taken
type Prerenderer interface {
	PrerenderJobs(s *scene.Scene, canvas Canvas) []executor.Job
}

// offsetRay creates a beam leaving point along direction, lifted off the surface along normal
func offsetRay(point, normal, direction core.Vec3) core.Beam {
	origin := point.Add(normal.Multiply(SurfaceOffset))
	return core.NewBeam(core.NewRay(origin, direction), core.Bivec3{}, core.Bivec3{})
}

// directLight estimates the light reaching an intersection straight from
// every emitter and reflected toward the ray origin. Each area light
// contributes one sample of its surface. With mis set, area samples are
// weighted by the power heuristic against the surface's own sampling, for
// use together with emitter hits found by following the surface's samples.
func directLight(isect *scene.Intersection, shading material.Shading, sampler core.Sampler, mis bool) core.Vec3 {
	s := isect.Scene()
	surface := isect.Surface()
	facing := shading.FacingNormal
	origin := isect.Point().Add(facing.Multiply(SurfaceOffset))

	var rad core.Vec3
	for _, index := range s.AreaLights {
		light := s.Primitives[index]
		lightPoint, lightNormal, pdf, ok := light.Shape.Sample(sampler)
		if !ok || pdf <= 0 {
			continue
		}

		dirIn := lightPoint.Subtract(origin)
		d := dirIn.Length()
		if d == 0 {
			continue
		}
		dirIn = dirIn.Divide(d)

		dot := dirIn.Dot(facing)
		if dot <= 0 {
			continue
		}

		// The light is visible if it is the first thing along the ray
		shadow := s.Intersect(core.NewBeam(core.NewRay(origin, dirIn), core.Bivec3{}, core.Bivec3{}), math.Inf(1), true)
		if !shadow.Valid() || shadow.PrimitiveIndex() != index {
			continue
		}

		dot2 := math.Abs(dirIn.Dot(lightNormal))
		irradiance := light.Surface.Radiance.Multiply(dot2 * dot / (d * d))
		weight := 1.0
		if mis {
			pdfBrdf := surface.Pdf(shading, dirIn) * dot2 / (d * d)
			weight = pdf * pdf / (pdf*pdf + pdfBrdf*pdfBrdf)
		}
		rad = rad.Add(irradiance.MultiplyVec(surface.Reflected(shading, dirIn)).Multiply(weight / pdf))
	}

	for _, light := range s.PointLights {
		dirIn := light.Position.Subtract(origin)
		d := dirIn.Length()
		if d == 0 {
			continue
		}
		dirIn = dirIn.Divide(d)

		dot := dirIn.Dot(facing)
		if dot <= 0 || s.Occluded(core.NewRay(origin, dirIn), d, -1) {
			continue
		}

		irradiance := light.Radiance.Multiply(dot / (d * d))
		rad = rad.Add(irradiance.MultiplyVec(surface.Reflected(shading, dirIn)))
	}

	return rad
}
