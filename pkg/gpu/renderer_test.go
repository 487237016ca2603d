package gpu

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
	"github.com/df07/go-wavefront-raytracer/pkg/proxy"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

func downCamera(h, fov float64) *scene.Camera {
	return scene.NewCameraFromConfig(scene.CameraConfig{
		Center: core.NewVec3(0, h, 0),
		LookAt: core.Vec3{},
		Up:     core.NewVec3(0, 0, -1),
		Fov:    fov,
	})
}

// testScene is a floor with a sphere lit by a square light and a point light
func testScene() *scene.Scene {
	b := &scene.Builder{}
	b.Add(scene.NewGroundQuad(core.Vec3{}, 100), material.NewDiffuseSurface(core.Splat(0.5)))
	b.Add(geometry.NewSphere(core.NewVec3(0.5, 0.4, 0), 0.4), material.NewDiffuseSurface(core.NewVec3(0.8, 0.4, 0.2)))
	b.AddQuadLight(core.NewVec3(-0.5, 2, -0.5), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), core.Splat(5))
	b.AddPointLight(core.NewVec3(-1, 1.5, 1), core.Splat(2))
	return b.Build(downCamera(4, 60), core.Splat(0.2))
}

type waitListener struct {
	done chan float64
	errs chan error
}

func newWaitListener() *waitListener {
	return &waitListener{done: make(chan float64, 1), errs: make(chan error, 1)}
}

func (l *waitListener) OnRendererDone(seconds float64) { l.done <- seconds }
func (l *waitListener) OnRendererError(err error)      { l.errs <- err }

// wait returns the error the render ended with
func (l *waitListener) wait(t *testing.T) error {
	t.Helper()
	select {
	case <-l.done:
		return nil
	case err := <-l.errs:
		return err
	case <-time.After(60 * time.Second):
		t.Fatal("Expected the render to finish")
		return nil
	}
}

func render(t *testing.T, r *Renderer) {
	t.Helper()
	l := newWaitListener()
	require.NoError(t, r.Start(l))
	require.NoError(t, l.wait(t))
	assert.False(t, r.Running())
}

func meanRadiance(r *Renderer) core.Vec3 {
	var total core.Vec3
	for y := 0; y < r.settings.Height; y++ {
		for x := 0; x < r.settings.Width; x++ {
			total = total.Add(r.totalRadiance.Get(x, y).Divide(float64(r.totalSamples.Get(x, y))))
		}
	}
	return total.Divide(float64(r.settings.Width * r.settings.Height))
}

func TestTraceMatchesScene(t *testing.T) {
	s := testScene()
	data, err := proxy.EncodeScene(s)
	require.NoError(t, err)
	view, err := proxy.NewSceneView(data)
	require.NoError(t, err)

	random := rand.New(rand.NewSource(4))
	mismatches := 0
	const rays = 2000
	for i := 0; i < rays; i++ {
		origin := core.NewVec3(random.Float64()*4-2, random.Float64()*3+0.1, random.Float64()*4-2)
		target := core.NewVec3(random.Float64()*2-1, random.Float64(), random.Float64()*2-1)
		dir := target.Subtract(origin).Normalize()

		want := s.Intersect(core.NewBeam(core.NewRay(origin, dir), core.Bivec3{}, core.Bivec3{}), math.Inf(1), true)
		got, ok := trace(view, proxy.Vec(origin), proxy.Vec(dir), float32(math.Inf(1)), true)
		if ok != want.Valid() || (ok && got.primitive != want.PrimitiveIndex()) {
			mismatches++
			continue
		}
		if ok {
			assert.InDelta(t, want.Distance(), float64(got.distance), 1e-3)
		}
	}
	// Rays grazing an edge may land on either side in single precision
	assert.LessOrEqual(t, mismatches, rays/100)
}

func TestNewRendererValidation(t *testing.T) {
	settings := renderer.QueuedSettings{Width: 4, Height: 4, Samples: 1}
	d := NewHostDevice(1)

	_, err := NewRenderer(d, nil, settings)
	assert.ErrorIs(t, err, renderer.ErrNoScene)

	_, err = NewRenderer(d, testScene(), renderer.QueuedSettings{Width: 0, Height: 4})
	assert.ErrorIs(t, err, renderer.ErrInvalidSize)

	_, err = NewRenderer(d, scene.NewTextureScene(), settings)
	assert.ErrorIs(t, err, proxy.ErrUnsupportedAlbedo)
}

func TestFloorUnderUniformSky(t *testing.T) {
	b := &scene.Builder{}
	b.Add(scene.NewGroundQuad(core.Vec3{}, 100), material.NewDiffuseSurface(core.Splat(0.5)))
	s := b.Build(downCamera(3, 60), core.Splat(1))

	r, err := NewRenderer(NewHostDevice(0), s, renderer.QueuedSettings{Width: 8, Height: 8, Samples: 16})
	require.NoError(t, err)
	defer r.Close()
	render(t, r)

	// One diffuse bounce always escapes to the unit sky
	mean := meanRadiance(r)
	assert.InDelta(t, 0.5, mean.X, 1e-3)
	assert.InDelta(t, 0.5, mean.Y, 1e-3)

	stats := r.Stats()
	assert.Equal(t, 64, stats.TotalPixels)
	assert.Equal(t, 64*16, stats.TotalSamples)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, 16, r.totalSamples.Get(x, y))
		}
	}
}

// rectangleFormFactor returns the form factor from a differential area to a
// parallel rectangle of size x×y at height h whose corner is directly above it
func rectangleFormFactor(x, y, h float64) float64 {
	a := x / h
	b := y / h
	sa := math.Sqrt(1 + a*a)
	sb := math.Sqrt(1 + b*b)
	return (a/sa*math.Atan(b/sa) + b/sb*math.Atan(a/sb)) / (2 * math.Pi)
}

func TestFloorBelowQuadLightConverges(t *testing.T) {
	const albedo, side, h, radiance = 0.5, 1.0, 1.0, 10.0
	b := &scene.Builder{}
	b.Add(scene.NewGroundQuad(core.Vec3{}, 100), material.NewDiffuseSurface(core.Splat(albedo)))
	b.AddQuadLight(core.NewVec3(-side/2, h, -side/2), core.NewVec3(side, 0, 0), core.NewVec3(0, 0, side), core.Splat(radiance))
	s := b.Build(downCamera(0.5, 1), core.Vec3{})

	r, err := NewRenderer(NewHostDevice(0), s, renderer.QueuedSettings{Width: 1, Height: 1, Samples: 20000})
	require.NoError(t, err)
	defer r.Close()
	render(t, r)

	expected := albedo * radiance * 4 * rectangleFormFactor(side/2, side/2, h-integrator.SurfaceOffset)
	got := meanRadiance(r)
	assert.InEpsilon(t, expected, got.X, 0.03, "Expected %v, got %v", expected, got.X)
}

func TestRendersAgain(t *testing.T) {
	r, err := NewRenderer(NewHostDevice(2), testScene(), renderer.QueuedSettings{Width: 6, Height: 6, Samples: 4})
	require.NoError(t, err)
	defer r.Close()

	render(t, r)
	first := r.Stats()
	render(t, r)
	assert.Equal(t, first.TotalSamples, r.Stats().TotalSamples)
	assert.True(t, meanRadiance(r).IsFinite())
}

func TestStartWhileRunningAndStop(t *testing.T) {
	r, err := NewRenderer(NewHostDevice(2), testScene(), renderer.QueuedSettings{Width: 64, Height: 64, Samples: 4096})
	require.NoError(t, err)
	defer r.Close()

	l := newWaitListener()
	require.NoError(t, r.Start(l))
	assert.ErrorIs(t, r.Start(newWaitListener()), renderer.ErrAlreadyRunning)

	r.Stop()
	assert.ErrorIs(t, l.wait(t), renderer.ErrStopped)
	assert.False(t, r.Running())
	assert.Empty(t, l.done)
}

// failingDevice fails one kernel and runs the rest on the host
type failingDevice struct {
	*HostDevice
	kernel Kernel
	err    error
}

func (d *failingDevice) Dispatch(kernel Kernel, n int, args Args) error {
	if kernel == d.kernel {
		return d.err
	}
	return d.HostDevice.Dispatch(kernel, n, args)
}

func TestDeviceErrorEndsRender(t *testing.T) {
	boom := errors.New("device lost")
	d := &failingDevice{HostDevice: NewHostDevice(1), kernel: KernelExtendPath, err: boom}
	r, err := NewRenderer(d, testScene(), renderer.QueuedSettings{Width: 4, Height: 4, Samples: 2})
	require.NoError(t, err)
	defer r.Close()

	l := newWaitListener()
	require.NoError(t, r.Start(l))
	err = l.wait(t)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "extendPath")
	assert.False(t, r.Running())
}
