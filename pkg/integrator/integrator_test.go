package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/executor"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

func testCamera() *scene.Camera {
	return scene.NewCameraFromConfig(scene.CameraConfig{
		Center: core.NewVec3(0, 3, 5),
		LookAt: core.Vec3{},
		Up:     core.NewVec3(0, 1, 0),
		Fov:    60,
	})
}

// quadLightScene is a diffuse floor at y = 0 lit by a square emitter of the
// given side centered at height h above the origin
func quadLightScene(albedo, side, h, radiance float64) *scene.Scene {
	b := &scene.Builder{}
	b.Add(scene.NewGroundQuad(core.Vec3{}, 100), material.NewDiffuseSurface(core.Splat(albedo)))
	b.AddQuadLight(core.NewVec3(-side/2, h, -side/2), core.NewVec3(side, 0, 0), core.NewVec3(0, 0, side), core.Splat(radiance))
	return b.Build(testCamera(), core.Vec3{})
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

// floorHit intersects the floor at the origin from above
func floorHit(t *testing.T, s *scene.Scene) scene.Intersection {
	ray := core.NewRay(core.NewVec3(0, 0.5, 0), core.NewVec3(0, -1, 0))
	isect := s.Intersect(core.NewBeam(ray, core.Bivec3{}, core.Bivec3{}), math.Inf(1), true)
	require.True(t, isect.Valid())
	require.Equal(t, 0, isect.PrimitiveIndex())
	return isect
}

func averageLight(lighter Lighter, isect *scene.Intersection, samples int, seed int64) core.Vec3 {
	sampler := core.NewSeededRandomSampler(seed)
	var total core.Vec3
	for i := 0; i < samples; i++ {
		total = total.Add(lighter.Light(isect, sampler))
	}
	return total.Divide(float64(samples))
}

func TestFloorBelowQuadLightConverges(t *testing.T) {
	const albedo, side, h, radiance = 0.5, 1.0, 1.0, 10.0
	s := quadLightScene(albedo, side, h, radiance)
	isect := floorHit(t, s)

	// Four corner rectangles make up the centered square. Light is gathered
	// from just above the floor.
	expected := albedo * radiance * 4 * rectangleFormFactor(side/2, side/2, h-SurfaceOffset)

	lighters := []struct {
		name    string
		lighter Lighter
	}{
		{"Direct", NewDirect()},
		{"UniPath", NewUniPath()},
	}

	for _, tt := range lighters {
		t.Run(tt.name, func(t *testing.T) {
			got := averageLight(tt.lighter, &isect, 20000, 3)
			assert.InEpsilon(t, expected, got.X, 0.03, "Expected %v, got %v", expected, got.X)
			assert.InDelta(t, got.X, got.Y, 1e-9)
			assert.InDelta(t, got.X, got.Z, 1e-9)
		})
	}
}

func TestUniPathErrorShrinksWithSamples(t *testing.T) {
	const albedo, side, h, radiance = 0.5, 1.0, 1.0, 10.0
	s := quadLightScene(albedo, side, h, radiance)
	isect := floorHit(t, s)
	expected := albedo * radiance * 4 * rectangleFormFactor(side/2, side/2, h-SurfaceOffset)

	meanError := func(samples int) float64 {
		total := 0.0
		for seed := int64(0); seed < 8; seed++ {
			total += math.Abs(averageLight(NewUniPath(), &isect, samples, seed).X - expected)
		}
		return total / 8
	}

	assert.Less(t, meanError(4000), meanError(40))
}

func TestDirectWithoutLightsReturnsEmission(t *testing.T) {
	random := rand.New(rand.NewSource(11))
	b := &scene.Builder{}
	diffuse := material.NewSurface(material.NewSolidColor(core.Splat(0.5)), []material.Brdf{material.NewLambert(1)}, 1, core.Vec3{}, nil)
	for i := 0; i < 20; i++ {
		center := core.NewVec3(random.Float64()*6-3, random.Float64()*6-3, random.Float64()*6-3)
		b.Add(geometry.NewSphere(center, 0.3+random.Float64()*0.5), diffuse)
	}
	s := b.Build(testCamera(), core.Splat(1))
	require.Empty(t, s.AreaLights)

	sampler := core.NewSeededRandomSampler(5)
	direct := NewDirect()
	hits := 0
	for i := 0; i < 2000; i++ {
		dir := core.SampleOnUnitSphere(sampler.Get2D())
		isect := s.Intersect(core.NewBeam(core.NewRay(core.NewVec3(0, 0, 8).Add(dir), dir.Negate()), core.Bivec3{}, core.Bivec3{}), math.Inf(1), true)
		if !isect.Valid() {
			continue
		}
		hits++
		rad := direct.Light(&isect, sampler)
		if rad != isect.Surface().Radiance {
			t.Fatalf("Expected emitted radiance %v, got %v", isect.Surface().Radiance, rad)
		}
	}
	assert.Positive(t, hits)
}

func TestUniPathFurnace(t *testing.T) {
	s := scene.NewFurnaceScene(0.5)
	beam := s.Camera.CreatePixelBeam(core.NewVec2(50, 50), 100, 100, core.Vec2{})
	isect := s.Intersect(beam, math.Inf(1), true)
	require.True(t, isect.Valid())

	// One diffuse bounce always escapes to the unit sky
	sampler := core.NewSeededRandomSampler(9)
	lighter := NewUniPath()
	for i := 0; i < 500; i++ {
		rad := lighter.Light(&isect, sampler)
		require.InDelta(t, 0.5, rad.X, 1e-9)
	}
}

func TestUniPathStopsAtPassThroughSurface(t *testing.T) {
	// A surface with no lobes lets light through unchanged
	b := &scene.Builder{}
	b.Add(scene.NewGroundQuad(core.Vec3{}, 10), material.NewSurface(material.NewSolidColor(core.Splat(1)), nil, 1, core.Vec3{}, nil))
	s := b.Build(testCamera(), core.Splat(2))

	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))
	isect := s.Intersect(core.NewBeam(ray, core.Bivec3{}, core.Bivec3{}), math.Inf(1), true)
	require.True(t, isect.Valid())

	rad := NewUniPath().Light(&isect, core.NewSeededRandomSampler(1))
	assert.InDelta(t, 2.0, rad.X, 1e-9)
}

func TestPointLightIsOccluded(t *testing.T) {
	b := &scene.Builder{}
	b.Add(scene.NewGroundQuad(core.Vec3{}, 10), material.NewDiffuseSurface(core.Splat(1)))
	b.AddPointLight(core.NewVec3(0, 2, 0), core.Splat(4))
	open := b.Build(testCamera(), core.Vec3{})

	isect := floorHit(t, open)
	// L·cos/d² reflected by a white lambertian
	want := 4.0 / (2 - SurfaceOffset) / (2 - SurfaceOffset) / math.Pi
	got := NewDirect().Light(&isect, core.NewSeededRandomSampler(1))
	assert.InDelta(t, want, got.X, 1e-3)

	b.Add(geometry.NewQuad(core.NewVec3(-1, 1, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2)), material.NewDiffuseSurface(core.Splat(1)))
	blocked := b.Build(testCamera(), core.Vec3{})
	isect = floorHit(t, blocked)
	assert.Equal(t, core.Vec3{}, NewDirect().Light(&isect, core.NewSeededRandomSampler(1)))
}

type testCanvas struct {
	width, height int
	pixels        []core.Vec3
}

func newTestCanvas(width, height int) *testCanvas {
	return &testCanvas{width: width, height: height, pixels: make([]core.Vec3, width*height)}
}

func (c *testCanvas) Width() int  { return c.width }
func (c *testCanvas) Height() int { return c.height }
func (c *testCanvas) SetPixel(x, y int, color core.Vec3) {
	c.pixels[y*c.width+x] = color
}

func TestIrradianceCachedPrerender(t *testing.T) {
	s := scene.NewCornellScene()
	lighter := NewIrradianceCached(IrradianceCachedSettings{IndirectSamples: 16, CacheThreshold: 0.3})
	canvas := newTestCanvas(24, 24)

	e := executor.New(4)
	defer e.Close()
	for _, job := range lighter.PrerenderJobs(s, canvas) {
		e.RunJob(job, nil)
		e.Wait()
	}

	white := 0
	for _, pixel := range canvas.pixels {
		if pixel == core.Splat(1) {
			white++
		}
	}
	require.Positive(t, lighter.Cache().Len())
	assert.Equal(t, lighter.Cache().Len(), white)

	// Indirect light is added on top of the identical direct estimate
	direct := NewDirect()
	checked := 0
	for y := 0; y < 24; y += 3 {
		for x := 0; x < 24; x += 3 {
			beam := s.Camera.CreatePixelBeam(core.NewVec2(float64(x)+0.5, float64(y)+0.5), 24, 24, core.Vec2{})
			isect := s.Intersect(beam, math.Inf(1), true)
			if !isect.Valid() || isect.Surface().Lambert() == 0 {
				continue
			}
			cached := lighter.Light(&isect, core.NewSeededRandomSampler(int64(x*100+y)))
			base := direct.Light(&isect, core.NewSeededRandomSampler(int64(x*100+y)))
			indirect := cached.Subtract(base)

			require.True(t, cached.IsFinite())
			assert.GreaterOrEqual(t, indirect.X, -1e-9)
			assert.GreaterOrEqual(t, indirect.Y, -1e-9)
			assert.GreaterOrEqual(t, indirect.Z, -1e-9)
			checked++
		}
	}
	assert.Positive(t, checked)
}

func TestIrradianceCachedWithEmptyCacheIsDirect(t *testing.T) {
	s := quadLightScene(0.5, 1, 1, 10)
	isect := floorHit(t, s)

	lighter := NewIrradianceCached(IrradianceCachedSettings{IndirectSamples: 4, CacheThreshold: 0.5})
	got := lighter.Light(&isect, core.NewSeededRandomSampler(2))
	want := NewDirect().Light(&isect, core.NewSeededRandomSampler(2))
	assert.Equal(t, want, got)
}
