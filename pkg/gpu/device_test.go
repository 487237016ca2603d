package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/proxy"
)

func TestSharedBufferMapping(t *testing.T) {
	d := NewHostDevice(2)
	b, err := d.Allocate("test", 16)
	require.NoError(t, err)

	assert.True(t, b.Mapped())
	assert.Len(t, b.Bytes(), 16)

	b.Unmap()
	assert.Panics(t, func() { b.Bytes() })
	data, err := b.deviceBytes()
	require.NoError(t, err)
	assert.Len(t, data, 16)

	b.Map()
	_, err = b.deviceBytes()
	assert.ErrorIs(t, err, ErrBufferMapped)

	b.Release()
	_, err = b.deviceBytes()
	assert.ErrorIs(t, err, ErrBufferReleased)
}

// testArgs allocates unmapped buffers for n items of the given scene data
func testArgs(t *testing.T, d Device, sceneData []byte, n int) Args {
	t.Helper()
	alloc := func(name string, size int) *SharedBuffer {
		b, err := d.Allocate(name, size)
		require.NoError(t, err)
		return b
	}
	args := Args{
		Scene:    alloc("scene", len(sceneData)),
		Settings: alloc("settings", proxy.SettingsSize),
		Items:    alloc("items", proxy.ItemBufferSize(n)),
		Random:   alloc("random", n*RandomsPerItem*4),
		Keys:     alloc("keys", n*4),
	}
	copy(args.Scene.Bytes(), sceneData)
	proxy.Settings{Width: 4, Height: 4, Samples: 1}.Put(args.Settings.Bytes())
	for i := 0; i < n; i++ {
		proxy.PutInt32(args.Keys.Bytes(), i, int32(i))
	}
	for _, b := range args.buffers() {
		b.Unmap()
	}
	return args
}

func TestHostDeviceDispatchErrors(t *testing.T) {
	data, err := proxy.EncodeScene(testScene())
	require.NoError(t, err)

	d := NewHostDevice(2)
	args := testArgs(t, d, data, 4)

	require.NoError(t, d.Dispatch(KernelGenerateCameraRays, 4, args))
	assert.ErrorIs(t, d.Dispatch(Kernel(99), 4, args), ErrUnknownKernel)
	assert.ErrorIs(t, d.Dispatch(KernelIntersectRays, 5, args), ErrInvalidArgs)

	args.Keys.Map()
	proxy.PutInt32(args.Keys.Bytes(), 0, 7)
	assert.ErrorIs(t, d.Dispatch(KernelIntersectRays, 1, args), ErrBufferMapped)
	args.Keys.Unmap()
	assert.ErrorIs(t, d.Dispatch(KernelIntersectRays, 1, args), ErrInvalidArgs)

	missing := args
	missing.Random = nil
	assert.ErrorIs(t, d.Dispatch(KernelIntersectRays, 1, missing), ErrInvalidArgs)

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Dispatch(KernelIntersectRays, 1, args), ErrDeviceClosed)
	_, err = d.Allocate("late", 4)
	assert.ErrorIs(t, err, ErrDeviceClosed)
}

func TestGenerateCameraRays(t *testing.T) {
	s := testScene()
	data, err := proxy.EncodeScene(s)
	require.NoError(t, err)

	d := NewHostDevice(1)
	args := testArgs(t, d, data, 1)
	args.Items.Map()
	items := proxy.NewItemBuffer(args.Items.Bytes())
	items.SetPixel(0, 2, 1)
	args.Items.Unmap()

	require.NoError(t, d.Dispatch(KernelGenerateCameraRays, 1, args))

	args.Items.Map()
	item := items.Item(0)
	assert.Equal(t, proxy.StageIntersect, item.Next)
	assert.Equal(t, int32(2), item.X)
	assert.Equal(t, int32(1), item.Y)
	assert.Equal(t, int32(-1), item.PrimitiveIndex)
	assert.InDelta(t, 1.0, length(item.Direction), 1e-5)

	// Zero randoms put the sample at the pixel corner and the lens center
	want := s.Camera.CreatePixelBeam(core.NewVec2(2, 1), 4, 4, core.NewVec2(0, 0)).Ray
	assert.InDelta(t, want.Origin.X, float64(item.Origin[0]), 1e-5)
	assert.InDelta(t, want.Direction.X, float64(item.Direction[0]), 1e-5)
	assert.InDelta(t, want.Direction.Y, float64(item.Direction[1]), 1e-5)
	assert.InDelta(t, want.Direction.Z, float64(item.Direction[2]), 1e-5)
}
