package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/log"
	"github.com/df07/go-wavefront-raytracer/pkg/proxy"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

var logger = log.New("gpu")

// Renderer is the wavefront path tracer with its stages run as device
// kernels. The host keeps the work queues: after each dispatch it reads
// the stage every item asked for next and queues the item's key there.
// Committing finished samples to the image happens on the host.
type Renderer struct {
	device   Device
	settings renderer.QueuedSettings
	items    int
	args     Args

	framebuffer   *renderer.Framebuffer
	totalRadiance *renderer.Raster[core.Vec3]
	totalSamples  *renderer.Raster[int]

	running  atomic.Bool
	stopping atomic.Bool
	seed     atomic.Int64

	mu    sync.Mutex
	done  chan struct{}
	stats renderer.RenderStats
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer uploads the scene to the device and allocates the item buffers
func NewRenderer(device Device, s *scene.Scene, settings renderer.QueuedSettings) (*Renderer, error) {
	if s == nil {
		return nil, renderer.ErrNoScene
	}
	if settings.Width <= 0 || settings.Height <= 0 {
		return nil, renderer.ErrInvalidSize
	}
	settings.Samples = max(settings.Samples, 1)

	data, err := proxy.EncodeScene(s)
	if err != nil {
		return nil, fmt.Errorf("gpu: encoding scene: %w", err)
	}

	r := &Renderer{
		device:        device,
		settings:      settings,
		items:         renderer.QueuedItems,
		framebuffer:   renderer.NewFramebuffer(settings.Width, settings.Height),
		totalRadiance: renderer.NewRaster[core.Vec3](settings.Width, settings.Height),
		totalSamples:  renderer.NewRaster[int](settings.Width, settings.Height),
	}

	buffers := []struct {
		buffer **SharedBuffer
		name   string
		size   int
	}{
		{&r.args.Scene, "scene", len(data)},
		{&r.args.Settings, "settings", proxy.SettingsSize},
		{&r.args.Items, "items", proxy.ItemBufferSize(r.items)},
		{&r.args.Random, "random", r.items * RandomsPerItem * 4},
		{&r.args.Keys, "keys", r.items * 4},
	}
	for _, b := range buffers {
		if *b.buffer, err = device.Allocate(b.name, b.size); err != nil {
			r.release()
			return nil, fmt.Errorf("gpu: allocating %s buffer: %w", b.name, err)
		}
	}

	copy(r.args.Scene.Bytes(), data)
	proxy.Settings{
		Width:   int32(settings.Width),
		Height:  int32(settings.Height),
		Samples: int32(settings.Samples),
	}.Put(r.args.Settings.Bytes())
	for _, b := range r.args.buffers() {
		b.Unmap()
	}

	logger.Infof("scene uploaded to %s: %d bytes", device.Name(), len(data))
	return r, nil
}

// Start begins rendering on a background goroutine
func (r *Renderer) Start(listener renderer.Listener) error {
	if !r.running.CompareAndSwap(false, true) {
		return renderer.ErrAlreadyRunning
	}
	r.stopping.Store(false)
	r.framebuffer.Clear()
	r.totalRadiance.Reset()
	r.totalSamples.Reset()

	done := make(chan struct{})
	r.mu.Lock()
	r.done = done
	r.mu.Unlock()

	logger.Infof("gpu render started on %s", r.device.Name())
	go r.loop(listener, done)
	return nil
}

// loop runs cycles until every sample has been committed
func (r *Renderer) loop(listener renderer.Listener, done chan struct{}) {
	defer close(done)

	start := time.Now()
	cycles, err := r.render()
	elapsed := time.Since(start)
	r.running.Store(false)

	switch {
	case err == nil:
		pixels := r.settings.Width * r.settings.Height
		r.mu.Lock()
		r.stats = renderer.RenderStats{
			Duration:       elapsed,
			Passes:         r.settings.Samples,
			TotalPixels:    pixels,
			TotalSamples:   pixels * r.settings.Samples,
			AverageSamples: float64(r.settings.Samples),
			MinSamplesUsed: r.settings.Samples,
			MaxSamplesUsed: r.settings.Samples,
		}
		r.mu.Unlock()
		logger.Noticef("gpu render done in %.3fs over %d cycles", elapsed.Seconds(), cycles)
		if listener != nil {
			listener.OnRendererDone(elapsed.Seconds())
		}
	default:
		if errors.Is(err, renderer.ErrStopped) {
			logger.Infof("gpu render stopped")
		} else {
			err = fmt.Errorf("gpu: %w", err)
			logger.Errorf("gpu render failed: %v", err)
		}
		if l, ok := listener.(renderer.ErrorListener); ok {
			l.OnRendererError(err)
		}
	}
}

// queues holds the keys waiting for each stage
type queues [proxy.NumStages][]int32

func (q *queues) take(stage proxy.Stage) []int32 {
	keys := q[stage]
	q[stage] = nil
	return keys
}

// render runs the stage cycle and returns how many cycles it took
func (r *Renderer) render() (int, error) {
	pixels := int64(r.settings.Width) * int64(r.settings.Height)
	total := pixels * int64(r.settings.Samples)
	sampler := core.NewSeededRandomSampler(r.seed.Add(1))

	var q queues
	for key := 0; key < r.items; key++ {
		q[proxy.StageGenerate] = append(q[proxy.StageGenerate], int32(key))
	}

	var next int64
	cycles := 0
	for {
		if r.stopping.Load() {
			return cycles, renderer.ErrStopped
		}

		// Hand out pixel samples to free items
		r.args.Items.Map()
		items := proxy.NewItemBuffer(r.args.Items.Bytes())
		var generate []int32
		for _, key := range q.take(proxy.StageGenerate) {
			if next >= total {
				continue
			}
			pixel := next % pixels
			items.SetPixel(int(key), int32(pixel%int64(r.settings.Width)), int32(pixel/int64(r.settings.Width)))
			generate = append(generate, key)
			next++
		}
		r.args.Items.Unmap()

		if err := r.dispatch(KernelGenerateCameraRays, generate, &q, sampler); err != nil {
			return cycles, err
		}
		if len(q[proxy.StageIntersect]) == 0 {
			return cycles, nil
		}
		cycles++

		for _, kernel := range []struct {
			kernel Kernel
			stage  proxy.Stage
		}{
			{KernelIntersectRays, proxy.StageIntersect},
			{KernelDirectLightArea, proxy.StageAreaLight},
			{KernelDirectLightPoint, proxy.StagePointLight},
			{KernelExtendPath, proxy.StageExtend},
		} {
			if err := r.dispatch(kernel.kernel, q.take(kernel.stage), &q, sampler); err != nil {
				return cycles, err
			}
		}

		r.commit(q.take(proxy.StageCommit), &q)
	}
}

// dispatch runs the kernel over the keys and queues each item for the
// stage it chose
func (r *Renderer) dispatch(kernel Kernel, keys []int32, q *queues, sampler core.Sampler) error {
	if len(keys) == 0 {
		return nil
	}

	r.args.Keys.Map()
	r.args.Random.Map()
	keyData, random := r.args.Keys.Bytes(), r.args.Random.Bytes()
	for i, key := range keys {
		proxy.PutInt32(keyData, i, key)
		for slot := 0; slot < RandomsPerItem; slot++ {
			proxy.PutFloat32(random, int(key)*RandomsPerItem+slot, float32(sampler.Get1D()))
		}
	}
	r.args.Keys.Unmap()
	r.args.Random.Unmap()

	if err := r.device.Dispatch(kernel, len(keys), r.args); err != nil {
		return fmt.Errorf("dispatching %v: %w", kernel, err)
	}

	r.args.Items.Map()
	defer r.args.Items.Unmap()
	items := proxy.NewItemBuffer(r.args.Items.Bytes())
	for _, key := range keys {
		stage := items.Next(int(key))
		if stage < 0 || stage >= proxy.NumStages || stage == proxy.StageRetired {
			return fmt.Errorf("%v sent item %d to invalid stage %d", kernel, key, stage)
		}
		q[stage] = append(q[stage], key)
	}
	return nil
}

// commit adds finished samples to their pixels and frees the items
func (r *Renderer) commit(keys []int32, q *queues) {
	r.args.Items.Map()
	defer r.args.Items.Unmap()
	items := proxy.NewItemBuffer(r.args.Items.Bytes())

	var item proxy.Item
	for _, key := range keys {
		items.ReadItem(int(key), &item)
		rad := core.NewVec3(float64(item.Radiance[0]), float64(item.Radiance[1]), float64(item.Radiance[2]))
		if !rad.IsFinite() {
			rad = core.Vec3{}
		}
		x, y := int(item.X), int(item.Y)
		sum := r.totalRadiance.At(x, y)
		*sum = sum.Add(rad.ClampNonNegative())
		samples := r.totalSamples.At(x, y)
		*samples++
		r.framebuffer.SetPixel(x, y, renderer.ToneMap(sum.Divide(float64(*samples))))

		q[proxy.StageGenerate] = append(q[proxy.StageGenerate], key)
	}
}

// Stop cancels the render in progress and waits for its loop to return.
// It must not be called from a listener callback.
func (r *Renderer) Stop() {
	r.stopping.Store(true)
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether a render is in progress
func (r *Renderer) Running() bool {
	return r.running.Load()
}

// Framebuffer returns the image being rendered
func (r *Renderer) Framebuffer() *renderer.Framebuffer {
	return r.framebuffer
}

// Stats describes the last completed render
func (r *Renderer) Stats() renderer.RenderStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Close stops any render and releases the device buffers
func (r *Renderer) Close() {
	r.Stop()
	r.release()
}

func (r *Renderer) release() {
	for _, b := range r.args.buffers() {
		if b != nil {
			b.Release()
		}
	}
}
