package renderer

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/executor"
	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// QueuedItems is the number of path samples in flight in a queued render
const QueuedItems = 10000

// QueuedSettings configures the wavefront renderer
type QueuedSettings struct {
	Width   int
	Height  int
	Samples int // Samples per pixel
	Workers int // Executor workers, 0 for one per CPU
}

// queuedItem is the state of one path sample as it moves between stages
type queuedItem struct {
	x, y       int
	generation int
	beam       core.Beam
	isect      scene.Intersection

	lightIndex  int     // Area or point light chosen for the current vertex
	pdf         float64 // Solid-angle density of the bounce that produced beam
	deltaBounce bool

	radiance   core.Vec3
	throughput core.Vec3
}

// Queued is a wavefront path tracer. Each path sample is an item keyed into
// a fixed array, and stages move keys between work queues instead of
// recursing. Stages run one at a time over all work queued for them:
//
//	generate → intersect → direct light (area, point) → extend → commit → generate
//
// Extended paths return to the intersect queue for the next cycle. The render
// is done when generation finds no more samples to take.
type Queued struct {
	base

	scene    *scene.Scene
	settings QueuedSettings
	items    []queuedItem

	generate   *executor.WorkQueue
	intersect  *executor.WorkQueue
	areaLight  *executor.WorkQueue
	pointLight *executor.WorkQueue
	extend     *executor.WorkQueue
	commit     *executor.WorkQueue

	nextPixel atomic.Int64
	seed      atomic.Int64
	cycles    int

	mu            sync.Mutex
	totalRadiance *Raster[core.Vec3]
	totalSamples  *Raster[int]
}

type queuedLocal struct {
	sampler core.Sampler
}

// NewQueued creates a wavefront renderer
func NewQueued(s *scene.Scene, settings QueuedSettings) (*Queued, error) {
	if s == nil {
		return nil, ErrNoScene
	}
	if err := validateSize(settings.Width, settings.Height); err != nil {
		return nil, err
	}
	settings.Samples = max(settings.Samples, 1)

	newQueue := func() *executor.WorkQueue { return executor.NewWorkQueue(QueuedItems + 1) }
	return &Queued{
		base:          newBase("queued", settings.Width, settings.Height, settings.Workers),
		scene:         s,
		settings:      settings,
		items:         make([]queuedItem, QueuedItems),
		generate:      newQueue(),
		intersect:     newQueue(),
		areaLight:     newQueue(),
		pointLight:    newQueue(),
		extend:        newQueue(),
		commit:        newQueue(),
		totalRadiance: NewRaster[core.Vec3](settings.Width, settings.Height),
		totalSamples:  NewRaster[int](settings.Width, settings.Height),
	}, nil
}

// Start begins rendering
func (r *Queued) Start(listener Listener) error {
	if err := r.begin(listener); err != nil {
		return err
	}

	r.framebuffer.Clear()
	r.totalRadiance.Reset()
	r.totalSamples.Reset()
	r.nextPixel.Store(0)
	r.cycles = 0
	for _, queue := range []*executor.WorkQueue{r.generate, r.intersect, r.areaLight, r.pointLight, r.extend, r.commit} {
		queue.Reset()
	}
	for key := 0; key < QueuedItems; key++ {
		r.generate.Add(executor.Key(key))
	}

	r.runGenerate()
	return nil
}

func (r *Queued) newLocal() *queuedLocal {
	return &queuedLocal{sampler: core.NewSeededRandomSampler(r.seed.Add(1))}
}

func (r *Queued) stage(queue *executor.WorkQueue, work func(key executor.Key, local *queuedLocal)) executor.Job {
	return executor.NewWorkQueueJob(r.newLocal, executor.Stage[queuedLocal]{Queue: queue, Work: work})
}

func (r *Queued) runGenerate() {
	r.run(r.stage(r.generate, r.generateCameraRay), func() {
		if r.intersect.Len() == 0 {
			samples := r.settings.Width * r.settings.Height * r.settings.Samples
			logger.Debugf("queued: %d samples in %d cycles", samples, r.cycles)
			r.finish(uniformStats(r.settings.Width, r.settings.Height, r.settings.Samples))
			return
		}
		r.cycles++
		r.runIntersect()
	})
}

func (r *Queued) runIntersect() {
	r.run(r.stage(r.intersect, r.intersectRay), r.runAreaLight)
}

func (r *Queued) runAreaLight() {
	r.run(r.stage(r.areaLight, r.directLightArea), r.runPointLight)
}

func (r *Queued) runPointLight() {
	r.run(r.stage(r.pointLight, r.directLightPoint), r.runExtend)
}

func (r *Queued) runExtend() {
	r.run(r.stage(r.extend, r.extendPath), r.runCommit)
}

func (r *Queued) runCommit() {
	r.run(r.stage(r.commit, r.commitRadiance), r.runGenerate)
}

// generateCameraRay starts the next pixel sample in the item, or retires the
// item once every sample has been handed out
func (r *Queued) generateCameraRay(key executor.Key, local *queuedLocal) {
	pixels := int64(r.settings.Width) * int64(r.settings.Height)
	pixel := r.nextPixel.Add(1) - 1
	if pixel/pixels >= int64(r.settings.Samples) {
		return
	}

	item := &r.items[key]
	item.x = int(pixel % int64(r.settings.Width))
	item.y = int((pixel / int64(r.settings.Width)) % int64(r.settings.Height))

	sampler := local.sampler
	imagePoint := core.NewVec2(float64(item.x), float64(item.y)).Add(sampler.Get2D())
	aperturePoint := sampler.Get2D()
	item.beam = r.scene.Camera.CreatePixelBeam(imagePoint, r.settings.Width, r.settings.Height, aperturePoint)
	item.generation = 0
	item.deltaBounce = false
	item.pdf = 0
	item.radiance = core.Vec3{}
	item.throughput = core.Splat(1)

	r.intersect.Add(key)
}

// numLights is the number of lights a vertex chooses one from
func (r *Queued) numLights() int {
	return len(r.scene.AreaLights) + len(r.scene.PointLights)
}

// intersectRay adds the emission the item's beam finds and picks a light to
// sample at the new vertex
func (r *Queued) intersectRay(key executor.Key, local *queuedLocal) {
	item := &r.items[key]
	s := r.scene

	item.isect = s.Intersect(item.beam, math.Inf(1), true)
	isect := &item.isect
	if !isect.Valid() {
		item.radiance = item.radiance.Add(item.throughput.MultiplyVec(s.SkyRadiance))
		r.commit.Add(key)
		return
	}

	lights := r.numLights()
	if emitted := isect.Surface().Radiance; !emitted.IsZero() {
		weight := 1.0
		if item.generation > 0 && !item.deltaBounce {
			dot2 := -isect.FacingNormal().Dot(isect.Ray().Direction)
			pdfArea := item.pdf * dot2 / (isect.Distance() * isect.Distance())
			pdfLight := isect.Primitive().Shape.SamplePdf(isect.Point()) / float64(lights)
			if denominator := pdfArea*pdfArea + pdfLight*pdfLight; denominator > 0 {
				weight = pdfArea * pdfArea / denominator
			}
		}
		item.radiance = item.radiance.Add(item.throughput.MultiplyVec(emitted).Multiply(weight))
	}

	if item.generation >= integrator.MaxGenerations {
		r.commit.Add(key)
		return
	}
	if lights == 0 {
		r.extend.Add(key)
		return
	}

	index := min(int(local.sampler.Get1D()*float64(lights)), lights-1)
	if index < len(s.AreaLights) {
		item.lightIndex = index
		r.areaLight.Add(key)
	} else {
		item.lightIndex = index - len(s.AreaLights)
		r.pointLight.Add(key)
	}
}

// directLightArea samples the chosen area light, weighted against bounce
// sampling because emitters found by bounces are counted too
func (r *Queued) directLightArea(key executor.Key, local *queuedLocal) {
	item := &r.items[key]
	s := r.scene
	isect := &item.isect
	shading := isect.Shading()
	surface := isect.Surface()
	origin := isect.Point().Add(shading.FacingNormal.Multiply(integrator.SurfaceOffset))

	index := s.AreaLights[item.lightIndex]
	light := s.Primitives[index]
	if point, normal, pdf, ok := light.Shape.Sample(local.sampler); ok && pdf > 0 {
		// Choosing this light among all of them is part of the sample's density
		pdf /= float64(r.numLights())
		sample := DirectSample{Radiance: light.Surface.Radiance, Point: point, Normal: normal, PrimitiveIndex: index}
		if rad, dirIn, d, ok := directContribution(surface, shading, origin, sample); ok {
			shadow := s.Intersect(core.NewBeam(core.NewRay(origin, dirIn), core.Bivec3{}, core.Bivec3{}), math.Inf(1), true)
			if shadow.Valid() && shadow.PrimitiveIndex() == index {
				dot2 := math.Abs(dirIn.Dot(normal))
				pdfBrdf := surface.Pdf(shading, dirIn) * dot2 / (d * d)
				weight := pdf * pdf / (pdf*pdf + pdfBrdf*pdfBrdf)
				item.radiance = item.radiance.Add(item.throughput.MultiplyVec(rad).Multiply(weight / pdf))
			}
		}
	}

	r.extend.Add(key)
}

// directLightPoint adds the light from the chosen point light if it is visible
func (r *Queued) directLightPoint(key executor.Key, local *queuedLocal) {
	item := &r.items[key]
	s := r.scene
	isect := &item.isect
	shading := isect.Shading()
	origin := isect.Point().Add(shading.FacingNormal.Multiply(integrator.SurfaceOffset))

	light := s.PointLights[item.lightIndex]
	dirIn := light.Position.Subtract(origin)
	d := dirIn.Length()
	if d > 0 {
		dirIn = dirIn.Divide(d)
		dot := dirIn.Dot(shading.FacingNormal)
		if dot > 0 && !s.Occluded(core.NewRay(origin, dirIn), d, -1) {
			irradiance := light.Radiance.Multiply(dot / (d * d) * float64(r.numLights()))
			rad := irradiance.MultiplyVec(isect.Surface().Reflected(shading, dirIn))
			item.radiance = item.radiance.Add(item.throughput.MultiplyVec(rad))
		}
	}

	r.extend.Add(key)
}

// extendPath samples the surface for the next bounce, ending the path by
// Russian roulette after the first bounce
func (r *Queued) extendPath(key executor.Key, local *queuedLocal) {
	item := &r.items[key]
	isect := &item.isect
	shading := isect.Shading()
	facing := shading.FacingNormal

	sample := isect.Surface().Sample(shading, local.sampler)
	reverse := 1.0
	if sample.Direction.Dot(facing) < 0 {
		reverse = -1
	}
	dot := sample.Direction.Dot(facing) * reverse
	if dot <= 0 || sample.Pdf <= 0 {
		r.commit.Add(key)
		return
	}

	threshold := 1.0
	roulette := local.sampler.Get1D()
	if item.generation > 0 {
		threshold = min(1, item.throughput.MaxComponent())
	}
	if roulette >= threshold {
		r.commit.Add(key)
		return
	}

	item.throughput = item.throughput.MultiplyVec(sample.Reflected).Multiply(dot / (sample.Pdf * threshold))
	origin := isect.Point().Add(facing.Multiply(integrator.SurfaceOffset * reverse))
	item.beam = core.NewBeam(core.NewRay(origin, sample.Direction), core.Bivec3{}, core.Bivec3{})
	item.pdf = sample.Pdf
	item.deltaBounce = sample.Delta
	item.generation++

	r.intersect.Add(key)
}

// commitRadiance adds the item's finished sample to its pixel and frees the item
func (r *Queued) commitRadiance(key executor.Key, _ *queuedLocal) {
	item := &r.items[key]
	rad := item.radiance
	if !rad.IsFinite() {
		rad = core.Vec3{}
	}

	r.mu.Lock()
	total := r.totalRadiance.At(item.x, item.y)
	*total = total.Add(rad.ClampNonNegative())
	samples := r.totalSamples.At(item.x, item.y)
	*samples++
	r.framebuffer.SetPixel(item.x, item.y, ToneMap(total.Divide(float64(*samples))))
	r.mu.Unlock()

	r.generate.Add(key)
}
