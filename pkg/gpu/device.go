// Package gpu runs the wavefront path tracer as kernels dispatched to a
// command-queue device over flat proxy buffers.
package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrBufferMapped   = errors.New("gpu: buffer is mapped for host access")
	ErrBufferReleased = errors.New("gpu: buffer was released")
	ErrUnknownKernel  = errors.New("gpu: unknown kernel")
	ErrDeviceClosed   = errors.New("gpu: device is closed")
	ErrInvalidArgs    = errors.New("gpu: invalid kernel arguments")
)

// Kernel names a device program
type Kernel int

const (
	KernelGenerateCameraRays Kernel = iota
	KernelIntersectRays
	KernelDirectLightArea
	KernelDirectLightPoint
	KernelExtendPath
)

func (k Kernel) String() string {
	switch k {
	case KernelGenerateCameraRays:
		return "generateCameraRays"
	case KernelIntersectRays:
		return "intersectRays"
	case KernelDirectLightArea:
		return "directLightArea"
	case KernelDirectLightPoint:
		return "directLightPoint"
	case KernelExtendPath:
		return "extendPath"
	}
	return fmt.Sprintf("kernel(%d)", int(k))
}

// RandomsPerItem is how many uniform numbers the random buffer holds per
// item. The host refills them before every dispatch.
const RandomsPerItem = 8

// Args are the buffers every kernel is dispatched with. Kernel invocation i
// works on the item whose index is element i of Keys.
type Args struct {
	Scene    *SharedBuffer // proxy.EncodeScene output
	Settings *SharedBuffer // proxy.Settings record
	Items    *SharedBuffer // proxy.Item records
	Random   *SharedBuffer // RandomsPerItem float32 per item
	Keys     *SharedBuffer // int32 item indices
}

func (a Args) buffers() []*SharedBuffer {
	return []*SharedBuffer{a.Scene, a.Settings, a.Items, a.Random, a.Keys}
}

// Device is a command queue that runs kernels over shared buffers.
// Dispatch blocks until the kernel has finished.
type Device interface {
	Name() string
	Allocate(name string, size int) (*SharedBuffer, error)
	Dispatch(kernel Kernel, n int, args Args) error
	Close() error
}

// SharedBuffer is memory visible to both the host and a device. The host
// may only touch it while mapped, and a device may only use it while
// unmapped. Buffers are mapped when allocated.
type SharedBuffer struct {
	name     string
	data     []byte
	mapped   atomic.Bool
	released atomic.Bool
}

func newSharedBuffer(name string, size int) *SharedBuffer {
	b := &SharedBuffer{name: name, data: make([]byte, size)}
	b.mapped.Store(true)
	return b
}

// Name returns the name the buffer was allocated with
func (b *SharedBuffer) Name() string {
	return b.name
}

// Size returns the buffer size in bytes
func (b *SharedBuffer) Size() int {
	return len(b.data)
}

// Map gives the host access to the buffer
func (b *SharedBuffer) Map() {
	b.mapped.Store(true)
}

// Unmap hands the buffer back to the device
func (b *SharedBuffer) Unmap() {
	b.mapped.Store(false)
}

// Mapped reports whether the host has access
func (b *SharedBuffer) Mapped() bool {
	return b.mapped.Load()
}

// Bytes returns the buffer's memory for host access. It panics if the
// buffer is not mapped.
func (b *SharedBuffer) Bytes() []byte {
	if !b.mapped.Load() {
		panic(fmt.Sprintf("gpu: host access to unmapped buffer %q", b.name))
	}
	return b.data
}

// Release frees the buffer
func (b *SharedBuffer) Release() {
	if b.released.CompareAndSwap(false, true) {
		b.data = nil
	}
}

// deviceBytes returns the memory a kernel works on
func (b *SharedBuffer) deviceBytes() ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: missing buffer", ErrInvalidArgs)
	}
	if b.released.Load() {
		return nil, fmt.Errorf("%w: %s", ErrBufferReleased, b.name)
	}
	if b.mapped.Load() {
		return nil, fmt.Errorf("%w: %s", ErrBufferMapped, b.name)
	}
	return b.data, nil
}
