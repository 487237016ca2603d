package renderer

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/executor"
	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// ReSTIRSettings configures the reservoir resampling renderer
type ReSTIRSettings struct {
	Width           int
	Height          int
	Samples         int // Samples per pixel
	IndirectSamples int // Indirect reservoirs resampled per pixel
	Radius          int // Pixel radius candidates are drawn from
	Candidates      int // Neighbor reservoirs combined per pixel
	Workers         int // Executor workers, 0 for one per CPU
}

// DirectSample is a point on an area light
type DirectSample struct {
	Radiance       core.Vec3
	Point          core.Vec3
	Normal         core.Vec3
	PrimitiveIndex int
}

// IndirectSample is the first bounce of a path and the light it gathered
type IndirectSample struct {
	Point    core.Vec3
	Normal   core.Vec3
	Radiance core.Vec3 // Reflected light at Point, without its emission
}

// ReSTIR renders in three passes per sample: each pixel draws one direct and
// one indirect candidate into its reservoirs, then direct and indirect light
// are estimated by resampling the reservoirs of random neighbors.
type ReSTIR struct {
	base

	scene    *scene.Scene
	settings ReSTIRSettings
	indirect integrator.Lighter

	primaryHits        *Raster[scene.FlatIntersection]
	directReservoirs   *Raster[Reservoir[DirectSample]]
	indirectReservoirs *Raster[Reservoir[IndirectSample]]
	totalRadiance      *Raster[core.Vec3]

	sample int // Sample index of the passes in flight
}

type restirLocal struct {
	sampler  core.Sampler
	indirect []Reservoir[IndirectSample]
}

// NewReSTIR creates a reservoir resampling renderer. Indirect candidates are
// lit by a path tracer.
func NewReSTIR(s *scene.Scene, settings ReSTIRSettings) (*ReSTIR, error) {
	if s == nil {
		return nil, ErrNoScene
	}
	if err := validateSize(settings.Width, settings.Height); err != nil {
		return nil, err
	}
	settings.Samples = max(settings.Samples, 1)
	settings.IndirectSamples = max(settings.IndirectSamples, 1)
	settings.Radius = max(settings.Radius, 0)
	settings.Candidates = max(settings.Candidates, 1)

	w, h := settings.Width, settings.Height
	return &ReSTIR{
		base:               newBase("restir", w, h, settings.Workers),
		scene:              s,
		settings:           settings,
		indirect:           integrator.NewUniPath(),
		primaryHits:        NewRaster[scene.FlatIntersection](w, h),
		directReservoirs:   NewRaster[Reservoir[DirectSample]](w, h),
		indirectReservoirs: NewRaster[Reservoir[IndirectSample]](w, h),
		totalRadiance:      NewRaster[core.Vec3](w, h),
	}, nil
}

// Start begins rendering
func (r *ReSTIR) Start(listener Listener) error {
	if err := r.begin(listener); err != nil {
		return err
	}

	r.framebuffer.Clear()
	r.totalRadiance.Reset()
	r.sample = 0
	r.runInitialSampleJob()
	return nil
}

func (r *ReSTIR) newLocal() *restirLocal {
	return &restirLocal{
		sampler:  core.NewHaltonSampler(r.settings.Width, r.settings.Height),
		indirect: make([]Reservoir[IndirectSample], r.settings.IndirectSamples),
	}
}

func (r *ReSTIR) rasterJob(pixel func(x, y int, local *restirLocal)) executor.Job {
	return executor.NewRasterJob(r.settings.Width, r.settings.Height, 1, r.newLocal,
		func(x, y, _ int, local *restirLocal) { pixel(x, y, local) }, nil)
}

func (r *ReSTIR) runInitialSampleJob() {
	logger.Debugf("restir: sample %d", r.sample)
	r.run(r.rasterJob(func(x, y int, local *restirLocal) {
		r.initialSamplePixel(x, y, local.sampler)
	}), r.runDirectIlluminateJob)
}

func (r *ReSTIR) runDirectIlluminateJob() {
	r.run(r.rasterJob(func(x, y int, local *restirLocal) {
		r.addRadiance(x, y, r.directIlluminatePixel(x, y, local.sampler))
	}), r.runIndirectIlluminateJob)
}

func (r *ReSTIR) runIndirectIlluminateJob() {
	r.run(r.rasterJob(func(x, y int, local *restirLocal) {
		r.addRadiance(x, y, r.indirectIlluminatePixel(x, y, local.sampler, local.indirect))
	}), r.sampleDone)
}

func (r *ReSTIR) sampleDone() {
	r.sample++
	if r.sample < r.settings.Samples {
		r.runInitialSampleJob()
		return
	}
	r.finish(uniformStats(r.settings.Width, r.settings.Height, r.settings.Samples))
}

// initialSamplePixel traces the primary ray of a pixel, fills its reservoirs
// with one candidate each and adds the emitted radiance it sees
func (r *ReSTIR) initialSamplePixel(x, y int, sampler core.Sampler) {
	s := r.scene

	sampler.StartPixelSample(x, y, r.sample)
	imagePoint := core.NewVec2(float64(x), float64(y)).Add(sampler.Get2D())
	aperturePoint := sampler.Get2D()
	beam := s.Camera.CreatePixelBeam(imagePoint, r.settings.Width, r.settings.Height, aperturePoint)
	isect := s.Intersect(beam, math.Inf(1), true)

	r.primaryHits.Set(x, y, isect.Flatten())
	direct := r.directReservoirs.At(x, y)
	direct.Clear()
	indirect := r.indirectReservoirs.At(x, y)
	indirect.Clear()

	if !isect.Valid() {
		r.addRadiance(x, y, s.SkyRadiance)
		return
	}

	shading := isect.Shading()
	surface := isect.Surface()
	facing := shading.FacingNormal
	origin := isect.Point().Add(facing.Multiply(integrator.SurfaceOffset))

	if lights := len(s.AreaLights); lights > 0 {
		index := s.AreaLights[min(int(sampler.Get1D()*float64(lights)), lights-1)]
		light := s.Primitives[index]

		if point, normal, pdf, ok := light.Shape.Sample(sampler); ok {
			sample := DirectSample{
				Radiance:       light.Surface.Radiance,
				Point:          point,
				Normal:         normal,
				PrimitiveIndex: index,
			}
			if q := directTarget(surface, shading, origin, sample); q > 0 {
				direct.AddSample(sample, q, pdf/float64(lights), sampler)
			}
		}
	}

	bounce := surface.Sample(shading, sampler)
	reverse := 1.0
	if bounce.Direction.Dot(facing) < 0 {
		reverse = -1
	}
	if bounce.Direction.Dot(facing)*reverse > 0 {
		start := isect.Point().Add(facing.Multiply(integrator.SurfaceOffset * reverse))
		ray := core.NewBeam(core.NewRay(start, bounce.Direction), core.Bivec3{}, core.Bivec3{})
		if isect2 := s.Intersect(ray, math.Inf(1), true); isect2.Valid() {
			sample := IndirectSample{
				Point:    isect2.Point(),
				Normal:   isect2.FacingNormal(),
				Radiance: r.indirect.Light(&isect2, sampler).Subtract(isect2.Surface().Radiance),
			}
			indirect.AddSample(sample, sample.Radiance.Length(), bounce.Pdf, sampler)
		}
	}

	r.addRadiance(x, y, surface.Radiance)
}

// directContribution returns the unshadowed light a direct sample reflects
// from origin toward the viewer, the unit direction to the sample and its
// distance. ok is false when the sample lies behind the surface.
func directContribution(surface *material.Surface, shading material.Shading, origin core.Vec3, sample DirectSample) (rad, dirIn core.Vec3, d float64, ok bool) {
	dirIn = sample.Point.Subtract(origin)
	d = dirIn.Length()
	if d == 0 {
		return core.Vec3{}, core.Vec3{}, 0, false
	}
	dirIn = dirIn.Divide(d)

	dot := dirIn.Dot(shading.FacingNormal)
	if dot <= 0 {
		return core.Vec3{}, dirIn, d, false
	}
	dot2 := math.Abs(dirIn.Dot(sample.Normal))
	irradiance := sample.Radiance.Multiply(dot2 * dot / (d * d))
	return irradiance.MultiplyVec(surface.Reflected(shading, dirIn)), dirIn, d, true
}

// directTarget is the target density of a direct sample: the magnitude of
// the light it reflects, ignoring visibility
func directTarget(surface *material.Surface, shading material.Shading, origin core.Vec3, sample DirectSample) float64 {
	rad, _, _, ok := directContribution(surface, shading, origin, sample)
	if !ok {
		return 0
	}
	return rad.Length()
}

// neighbor picks a random pixel within the candidate radius of (x, y)
func (r *ReSTIR) neighbor(x, y int, sampler core.Sampler) (int, int) {
	radius := float64(r.settings.Radius)
	offset := sampler.Get2D()
	sx := int(math.Floor(float64(x) + offset.X*2*radius - radius))
	sy := int(math.Floor(float64(y) + offset.Y*2*radius - radius))
	return sx, sy
}

// resampleDirect combines the direct reservoirs of random neighbors,
// retargeted to the given intersection
func (r *ReSTIR) resampleDirect(x, y int, isect *scene.Intersection, sampler core.Sampler) Reservoir[DirectSample] {
	shading := isect.Shading()
	surface := isect.Surface()
	origin := isect.Point().Add(shading.FacingNormal.Multiply(integrator.SurfaceOffset))

	var res Reservoir[DirectSample]
	for i := 0; i < r.settings.Candidates; i++ {
		sx, sy := r.neighbor(x, y, sampler)
		if !r.directReservoirs.Contains(sx, sy) {
			continue
		}

		candidate := r.directReservoirs.Get(sx, sy)
		if candidate.Q == 0 {
			continue
		}
		q := directTarget(surface, shading, origin, candidate.Sample)
		res.AddReservoir(candidate, q, 1, sampler)
	}
	return res
}

// directIlluminatePixel estimates direct light at a pixel's primary hit from
// the resampled reservoir, checking the surviving sample's visibility
func (r *ReSTIR) directIlluminatePixel(x, y int, sampler core.Sampler) core.Vec3 {
	hit := r.primaryHits.At(x, y)
	if !hit.Valid {
		return core.Vec3{}
	}
	isect := hit.Expand(r.scene)

	res := r.resampleDirect(x, y, &isect, sampler)
	if res.W <= 0 {
		return core.Vec3{}
	}

	shading := isect.Shading()
	origin := isect.Point().Add(shading.FacingNormal.Multiply(integrator.SurfaceOffset))
	rad, dirIn, _, ok := directContribution(isect.Surface(), shading, origin, res.Sample)
	if !ok {
		return core.Vec3{}
	}

	shadow := r.scene.Intersect(core.NewBeam(core.NewRay(origin, dirIn), core.Bivec3{}, core.Bivec3{}), math.Inf(1), true)
	if !shadow.Valid() || shadow.PrimitiveIndex() != res.Sample.PrimitiveIndex {
		return core.Vec3{}
	}
	return rad.Multiply(res.W)
}

// indirectJacobian converts a sample's density from the solid angle seen by
// the pixel that drew it (at there) to the one seen from here
func indirectJacobian(sample IndirectSample, here, there core.Vec3) float64 {
	toHere := sample.Point.Subtract(here)
	toThere := sample.Point.Subtract(there)
	denominator := sample.Normal.Dot(toThere) * toHere.LengthSquared()
	if denominator == 0 {
		return 0
	}
	return math.Abs(sample.Normal.Dot(toHere) * toThere.LengthSquared() / denominator)
}

// resampleIndirect feeds the indirect reservoirs of random neighbors into
// every reservoir of the given slice
func (r *ReSTIR) resampleIndirect(x, y int, point core.Vec3, sampler core.Sampler, reservoirs []Reservoir[IndirectSample]) {
	for i := range reservoirs {
		reservoirs[i].Clear()
	}

	for i := 0; i < r.settings.Candidates; i++ {
		sx, sy := r.neighbor(x, y, sampler)
		if !r.indirectReservoirs.Contains(sx, sy) {
			continue
		}

		neighborHit := r.primaryHits.At(sx, sy)
		candidate := r.indirectReservoirs.Get(sx, sy)
		if !neighborHit.Valid || candidate.Q == 0 {
			continue
		}

		jacobian := indirectJacobian(candidate.Sample, point, neighborHit.Point)
		if jacobian == 0 || math.IsInf(jacobian, 0) || math.IsNaN(jacobian) {
			continue
		}
		for j := range reservoirs {
			reservoirs[j].AddReservoir(candidate, candidate.Q, jacobian, sampler)
		}
	}
}

// indirectIlluminatePixel estimates indirect light at a pixel's primary hit
// as the average over its resampled indirect reservoirs
func (r *ReSTIR) indirectIlluminatePixel(x, y int, sampler core.Sampler, reservoirs []Reservoir[IndirectSample]) core.Vec3 {
	hit := r.primaryHits.At(x, y)
	if !hit.Valid {
		return core.Vec3{}
	}
	isect := hit.Expand(r.scene)
	shading := isect.Shading()
	surface := isect.Surface()

	r.resampleIndirect(x, y, isect.Point(), sampler, reservoirs)

	var rad core.Vec3
	for _, res := range reservoirs {
		if res.W <= 0 {
			continue
		}
		dirIn := res.Sample.Point.Subtract(isect.Point()).Normalize()
		dot := dirIn.Dot(shading.FacingNormal)
		if dot <= 0 {
			continue
		}
		reflected := surface.Reflected(shading, dirIn)
		rad = rad.Add(res.Sample.Radiance.MultiplyVec(reflected).Multiply(dot * res.W))
	}
	return rad.Divide(float64(len(reservoirs)))
}

// addRadiance accumulates radiance at a pixel and displays the running mean.
// Only the worker owning the pixel in the current pass calls it.
func (r *ReSTIR) addRadiance(x, y int, rad core.Vec3) {
	if !rad.IsFinite() {
		return
	}
	total := r.totalRadiance.At(x, y)
	*total = total.Add(rad.ClampNonNegative())
	r.framebuffer.SetPixel(x, y, ToneMap(total.Divide(float64(r.sample+1))))
}
