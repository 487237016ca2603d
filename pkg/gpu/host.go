package gpu

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/df07/go-wavefront-raytracer/pkg/proxy"
)

// minInvocationsPerWorker keeps small dispatches on few goroutines
const minInvocationsPerWorker = 64

// HostDevice runs kernels on the CPU, splitting each dispatch across
// goroutines the way a GPU splits it across workgroups
type HostDevice struct {
	workers int
	closed  atomic.Bool
}

// NewHostDevice creates a device dispatching on the given number of
// goroutines, 0 for one per CPU
func NewHostDevice(workers int) *HostDevice {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &HostDevice{workers: workers}
}

// Name describes the device
func (d *HostDevice) Name() string {
	return fmt.Sprintf("host (%d workers)", d.workers)
}

// Allocate creates a zeroed, mapped buffer
func (d *HostDevice) Allocate(name string, size int) (*SharedBuffer, error) {
	if d.closed.Load() {
		return nil, ErrDeviceClosed
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: buffer %s has negative size", ErrInvalidArgs, name)
	}
	return newSharedBuffer(name, size), nil
}

// Dispatch runs n invocations of the kernel and waits for them
func (d *HostDevice) Dispatch(kernel Kernel, n int, args Args) error {
	if d.closed.Load() {
		return ErrDeviceClosed
	}
	run, ok := kernels[kernel]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownKernel, kernel)
	}

	env, err := newKernelEnv(args, n)
	if err != nil {
		return fmt.Errorf("%v: %w", kernel, err)
	}
	if n == 0 {
		return nil
	}

	workers := min(d.workers, (n+minInvocationsPerWorker-1)/minInvocationsPerWorker)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			var item proxy.Item
			for i := start; i < end; i++ {
				key := int(proxy.Int32At(env.keys, i))
				env.items.ReadItem(key, &item)
				run(env, key, &item)
				env.items.SetItem(key, &item)
			}
		}()
	}
	wg.Wait()
	return nil
}

// Close stops the device from accepting work
func (d *HostDevice) Close() error {
	d.closed.Store(true)
	return nil
}

// newKernelEnv checks the argument buffers of an n-invocation dispatch
func newKernelEnv(args Args, n int) (*kernelEnv, error) {
	var data [5][]byte
	for i, b := range args.buffers() {
		bytes, err := b.deviceBytes()
		if err != nil {
			return nil, err
		}
		data[i] = bytes
	}

	view, err := proxy.NewSceneView(data[0])
	if err != nil {
		return nil, err
	}
	settings, err := proxy.DecodeSettings(data[1])
	if err != nil {
		return nil, err
	}
	env := &kernelEnv{
		scene:    view,
		header:   view.Header(),
		settings: settings,
		items:    proxy.NewItemBuffer(data[2]),
		random:   data[3],
		keys:     data[4],
	}

	items := env.items.Len()
	if n < 0 || len(env.keys) < n*4 {
		return nil, fmt.Errorf("%w: %d keys for %d invocations", ErrInvalidArgs, len(env.keys)/4, n)
	}
	if len(env.random) < items*RandomsPerItem*4 {
		return nil, fmt.Errorf("%w: random buffer too small for %d items", ErrInvalidArgs, items)
	}
	for i := 0; i < n; i++ {
		if key := proxy.Int32At(env.keys, i); key < 0 || int(key) >= items {
			return nil, fmt.Errorf("%w: key %d out of range", ErrInvalidArgs, key)
		}
	}
	return env, nil
}
