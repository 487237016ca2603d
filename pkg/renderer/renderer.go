package renderer

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/executor"
	"github.com/df07/go-wavefront-raytracer/pkg/log"
)

var logger = log.New("renderer")

// Renderer produces an image of a scene into its framebuffer in the background
type Renderer interface {
	// Start begins a render and returns immediately. The listener is
	// notified exactly once when the render completes.
	Start(listener Listener) error

	// Stop cancels the render in progress and waits for the workers to leave it.
	// It must not be called from a listener callback.
	Stop()

	// Running reports whether a render is in progress
	Running() bool

	// Framebuffer returns the image being rendered
	Framebuffer() *Framebuffer

	// Stats describes the last completed render
	Stats() RenderStats

	// Close stops any render and releases the workers
	Close()
}

// Listener is notified when a render completes
type Listener interface {
	OnRendererDone(seconds float64)
}

// ErrorListener is a Listener that also receives the error ending a failed
// or stopped render
type ErrorListener interface {
	Listener
	OnRendererError(err error)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(seconds float64)

// OnRendererDone calls f
func (f ListenerFunc) OnRendererDone(seconds float64) {
	f(seconds)
}

// base holds the state shared by the CPU renderers: the executor running
// their jobs and the bookkeeping of a single render
type base struct {
	name        string
	executor    *executor.Executor
	framebuffer *Framebuffer

	running  atomic.Bool
	stopping atomic.Bool
	listener Listener
	start    time.Time

	mu    sync.Mutex
	stats RenderStats
}

func newBase(name string, width, height, workers int) base {
	return base{
		name:        name,
		executor:    executor.New(workers),
		framebuffer: NewFramebuffer(width, height),
	}
}

// begin marks a render as started
func (b *base) begin(listener Listener) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	b.stopping.Store(false)
	b.listener = listener
	b.start = time.Now()
	logger.Infof("%s render started with %d workers", b.name, b.executor.NumWorkers())
	return nil
}

// run submits a job unless the render is being stopped
func (b *base) run(job executor.Job, done func()) {
	if b.stopping.Load() {
		return
	}
	b.executor.RunJob(job, done)
}

// finish records the stats of a completed render and notifies the listener
func (b *base) finish(stats RenderStats) {
	if !b.running.CompareAndSwap(true, false) {
		return
	}

	elapsed := time.Since(b.start)
	stats.Duration = elapsed
	b.mu.Lock()
	b.stats = stats
	b.mu.Unlock()

	logger.Noticef("%s render done in %.3fs", b.name, elapsed.Seconds())
	if b.listener != nil {
		b.listener.OnRendererDone(elapsed.Seconds())
	}
}

// fail ends the render with an error
func (b *base) fail(err error) {
	if !b.running.CompareAndSwap(true, false) {
		return
	}

	if !errors.Is(err, ErrStopped) {
		logger.Errorf("%s render failed: %v", b.name, err)
	}
	if l, ok := b.listener.(ErrorListener); ok {
		l.OnRendererError(err)
	}
}

// Stop cancels the render in progress
func (b *base) Stop() {
	b.stopping.Store(true)
	b.executor.Stop()
	b.executor.Wait()
	if b.running.Load() {
		logger.Infof("%s render stopped", b.name)
		b.fail(ErrStopped)
	}
}

// Running reports whether a render is in progress
func (b *base) Running() bool {
	return b.running.Load()
}

// Framebuffer returns the image being rendered
func (b *base) Framebuffer() *Framebuffer {
	return b.framebuffer
}

// Stats describes the last completed render
func (b *base) Stats() RenderStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Close stops any render and releases the workers
func (b *base) Close() {
	b.Stop()
	b.executor.Close()
}

func validateSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	return nil
}
