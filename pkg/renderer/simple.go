package renderer

import (
	"math"
	"sync/atomic"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/executor"
	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// maxSamplesPerPass caps how many samples a pixel takes in one pass
const maxSamplesPerPass = 100

// SimpleSettings configures the raster renderer
type SimpleSettings struct {
	Width           int
	Height          int
	MinSamples      int     // Samples every pixel takes before convergence is tested
	MaxSamples      int     // Samples after which a pixel stops regardless of convergence
	SampleThreshold float64 // A pixel converges once its recent colors deviate less than this
	Workers         int     // Executor workers, 0 for one per CPU
}

// Simple renders pixel by pixel with a lighter. Pixels are sampled in
// passes that double in size until each pixel has converged or reached the
// sample limit. Without a lighter the surface albedo is rendered.
type Simple struct {
	base

	scene    *scene.Scene
	settings SimpleSettings
	lighter  integrator.Lighter

	pixels       *Raster[PixelStats]
	sampleStatus *Framebuffer

	jobs        []executor.Job
	passSamples int
	passes      int
	needRepeat  atomic.Bool
}

type simpleLocal struct {
	sampler core.Sampler
}

// NewSimple creates a raster renderer. lighter may be nil to render albedo only.
func NewSimple(s *scene.Scene, settings SimpleSettings, lighter integrator.Lighter) (*Simple, error) {
	if s == nil {
		return nil, ErrNoScene
	}
	if err := validateSize(settings.Width, settings.Height); err != nil {
		return nil, err
	}
	settings.MaxSamples = max(settings.MaxSamples, 1)
	settings.MinSamples = min(max(settings.MinSamples, 1), settings.MaxSamples)

	return &Simple{
		base:         newBase("simple", settings.Width, settings.Height, settings.Workers),
		scene:        s,
		settings:     settings,
		lighter:      lighter,
		pixels:       NewRaster[PixelStats](settings.Width, settings.Height),
		sampleStatus: NewFramebuffer(settings.Width, settings.Height),
	}, nil
}

// SampleStatus returns an image of when each pixel converged, from red for
// early to white for late. Pixels still sampling are grey.
func (r *Simple) SampleStatus() *Framebuffer {
	return r.sampleStatus
}

// Start begins rendering. Prerender jobs of the lighter run first.
func (r *Simple) Start(listener Listener) error {
	if err := r.begin(listener); err != nil {
		return err
	}

	r.framebuffer.Clear()
	r.pixels.Reset()
	for y := 0; y < r.settings.Height; y++ {
		for x := 0; x < r.settings.Width; x++ {
			r.sampleStatus.SetPixel(x, y, core.Splat(0.25))
		}
	}

	r.jobs = nil
	if prerenderer, ok := r.lighter.(integrator.Prerenderer); ok {
		r.jobs = prerenderer.PrerenderJobs(r.scene, r.framebuffer)
	}
	r.passSamples = 1
	r.passes = 0

	r.runNextJob()
	return nil
}

// runNextJob runs the remaining prerender jobs in order, then the sampling passes
func (r *Simple) runNextJob() {
	if len(r.jobs) > 0 {
		job := r.jobs[0]
		r.jobs = r.jobs[1:]
		logger.Debugf("simple: running prerender job, %d left", len(r.jobs))
		r.run(job, r.runNextJob)
		return
	}
	r.runPass()
}

func (r *Simple) runPass() {
	r.needRepeat.Store(false)
	r.passes++
	logger.Debugf("simple: pass %d with %d samples per pixel", r.passes, r.passSamples)

	job := executor.NewRasterJob(r.settings.Width, r.settings.Height, 1,
		func() *simpleLocal {
			return &simpleLocal{sampler: core.NewHaltonSampler(r.settings.Width, r.settings.Height)}
		},
		func(x, y, _ int, local *simpleLocal) {
			r.renderPixel(x, y, local.sampler)
		},
		nil,
	)
	r.run(job, r.passDone)
}

// passDone runs on the single worker that completed a pass
func (r *Simple) passDone() {
	if !r.needRepeat.Load() {
		r.finish(newRenderStats(r.passes, r.sampleCounts))
		return
	}
	r.passSamples = min(r.passSamples*2, maxSamplesPerPass)
	r.runPass()
}

func (r *Simple) sampleCounts(yield func(int) bool) {
	for y := 0; y < r.settings.Height; y++ {
		for x := 0; x < r.settings.Width; x++ {
			if !yield(r.pixels.At(x, y).SampleCount) {
				return
			}
		}
	}
}

// renderPixel takes this pass's samples at one pixel. Each pixel is visited
// by exactly one worker per pass, so its stats need no locking.
func (r *Simple) renderPixel(x, y int, sampler core.Sampler) {
	ps := r.pixels.At(x, y)
	if ps.Done {
		return
	}

	var color core.Vec3
	done := false
	for i := 0; i < r.passSamples; i++ {
		sampler.StartPixelSample(x, y, ps.SampleCount)
		imagePoint := core.NewVec2(float64(x), float64(y)).Add(sampler.Get2D())
		aperturePoint := sampler.Get2D()
		beam := r.scene.Camera.CreatePixelBeam(imagePoint, r.settings.Width, r.settings.Height, aperturePoint)
		isect := r.scene.Intersect(beam, math.Inf(1), true)

		if r.lighter != nil {
			rad := r.scene.SkyRadiance
			if isect.Valid() {
				rad = r.lighter.Light(&isect, sampler)
			}
			if !rad.IsFinite() {
				rad = core.Vec3{}
			}
			color = ToneMap(ps.AddSample(rad.ClampNonNegative()))
		} else {
			var albedo core.Vec3
			if isect.Valid() {
				albedo = isect.Albedo()
			}
			color = ps.AddSample(albedo)
		}
		ps.Record(color)

		if ps.SampleCount >= r.settings.MaxSamples {
			done = true
			break
		}
		threshold := r.settings.SampleThreshold
		if ps.SampleCount > r.settings.MinSamples && ps.Variance(color) < threshold*threshold {
			done = true
			break
		}
	}

	r.framebuffer.SetPixel(x, y, color)

	if !done {
		r.needRepeat.Store(true)
		return
	}
	ps.Done = true

	// Red, then yellow, then white as convergence takes longer
	m := 3 * float64(ps.SampleCount) / (float64(ps.SampleCount) + 9*float64(r.settings.MinSamples))
	r.sampleStatus.SetPixel(x, y, core.NewVec3(min(m, 1), min(max(m-1, 0), 1), max(m-2, 0)))
}
