package integrator

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// UniPath is a unidirectional path tracer. At every vertex it samples the
// emitters directly and continues the path by sampling the surface; emitter
// hits found by continuation are combined with the direct samples by
// multiple importance sampling.
type UniPath struct{}

// NewUniPath creates a path tracing lighter
func NewUniPath() *UniPath {
	return &UniPath{}
}

// Light traces a path starting at the intersection
func (u *UniPath) Light(isect *scene.Intersection, sampler core.Sampler) core.Vec3 {
	s := isect.Scene()
	rad := isect.Surface().Radiance
	throughput := core.Splat(1)

	current := isect
	for generation := 0; generation < MaxGenerations; generation++ {
		surface := current.Surface()
		shading := current.Shading()
		facing := shading.FacingNormal

		rad = rad.Add(throughput.MultiplyVec(directLight(current, shading, sampler, true)))

		sample := surface.Sample(shading, sampler)
		reverse := 1.0
		if sample.Direction.Dot(facing) < 0 {
			reverse = -1
		}
		dot := sample.Direction.Dot(facing) * reverse
		if dot <= 0 || sample.Pdf <= 0 {
			break
		}

		// The first bounce always continues; later ones survive in proportion to the path's throughput
		threshold := 1.0
		roulette := sampler.Get1D()
		if generation > 0 {
			threshold = min(1, throughput.MaxComponent())
		}
		if roulette >= threshold {
			break
		}
		throughput = throughput.MultiplyVec(sample.Reflected).Multiply(dot / (sample.Pdf * threshold))

		next := s.Intersect(offsetRay(current.Point(), facing.Multiply(reverse), sample.Direction), math.Inf(1), true)
		if !next.Valid() {
			rad = rad.Add(throughput.MultiplyVec(s.SkyRadiance))
			break
		}

		if emitted := next.Surface().Radiance; !emitted.IsZero() {
			weight := 1.0
			if !sample.Delta {
				dot2 := -next.FacingNormal().Dot(sample.Direction)
				pdfArea := sample.Pdf * dot2 / (next.Distance() * next.Distance())
				pdfLight := next.Primitive().Shape.SamplePdf(next.Point())
				if denominator := pdfArea*pdfArea + pdfLight*pdfLight; denominator > 0 {
					weight = pdfArea * pdfArea / denominator
				}
			}
			rad = rad.Add(throughput.MultiplyVec(emitted).Multiply(weight))
		}

		current = &next
	}

	return rad
}
