package scene

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

func randomScene(random *rand.Rand, count int) *Scene {
	b := &Builder{}
	diffuse := material.NewDiffuseSurface(core.Splat(0.5))
	point := func() core.Vec3 {
		return core.NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
	}

	for i := 0; i < count; i++ {
		if i%2 == 0 {
			b.Add(geometry.NewSphere(point(), 0.2+random.Float64()), diffuse)
		} else {
			side1 := core.NewVec3(random.Float64()*2, random.Float64()*2, 0)
			side2 := core.NewVec3(0, random.Float64()*2, random.Float64()*2)
			b.Add(geometry.NewQuad(point(), side1, side2), diffuse)
		}
	}
	b.AddQuadLight(core.NewVec3(-1, 12, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2), core.Splat(5))
	return b.Build(newTestCamera(0), core.Vec3{})
}

func beamFromRay(ray core.Ray) core.Beam {
	return core.NewBeam(ray, core.Bivec3{}, core.Bivec3{})
}

func TestSceneIntersectMatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	s := randomScene(random, 200)

	for i := 0; i < 1000; i++ {
		origin := core.NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
		direction := core.SampleOnUnitSphere(core.NewVec2(random.Float64(), random.Float64()))
		ray := core.NewRay(origin, direction)

		bruteIndex, bruteDistance := -1, math.MaxFloat64
		for index, primitive := range s.Primitives {
			if hit, ok := primitive.Shape.Intersect(ray, bruteDistance, true); ok {
				bruteIndex, bruteDistance = index, hit.Distance
			}
		}

		for name, isect := range map[string]Intersection{
			"bvh":    s.Intersect(beamFromRay(ray), math.MaxFloat64, true),
			"linear": s.IntersectLinear(beamFromRay(ray), math.MaxFloat64, true),
		} {
			if isect.Valid() != (bruteIndex >= 0) {
				t.Fatalf("%s ray %d: expected valid=%v, got %v", name, i, bruteIndex >= 0, isect.Valid())
			}
			if !isect.Valid() {
				continue
			}
			if isect.PrimitiveIndex() != bruteIndex || math.Abs(isect.Distance()-bruteDistance) > 1e-9 {
				t.Fatalf("%s ray %d: expected primitive %d at %f, got %d at %f",
					name, i, bruteIndex, bruteDistance, isect.PrimitiveIndex(), isect.Distance())
			}
		}
	}
}

func TestSceneAnyHitWithinDistance(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	s := randomScene(random, 100)

	for i := 0; i < 500; i++ {
		origin := core.NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
		direction := core.SampleOnUnitSphere(core.NewVec2(random.Float64(), random.Float64()))
		beam := beamFromRay(core.NewRay(origin, direction))
		maxDistance := random.Float64() * 20

		closest := s.Intersect(beam, maxDistance, true)
		anyHit := s.Intersect(beam, maxDistance, false)
		if closest.Valid() != anyHit.Valid() {
			t.Fatalf("ray %d: expected any-hit validity %v, got %v", i, closest.Valid(), anyHit.Valid())
		}
		if anyHit.Valid() && anyHit.Distance() >= maxDistance {
			t.Fatalf("ray %d: expected hit before %f, got %f", i, maxDistance, anyHit.Distance())
		}
	}
}

func TestSceneAreaLights(t *testing.T) {
	s := NewCornellScene()
	if len(s.AreaLights) != 1 {
		t.Fatalf("Expected 1 area light, got %d", len(s.AreaLights))
	}
	if !s.Primitives[s.AreaLights[0]].Surface.IsEmissive() {
		t.Error("Expected area light primitive to be emissive")
	}
}

func TestEmptyScene(t *testing.T) {
	s := New(newTestCamera(0), nil, nil, core.Splat(1))
	isect := s.Intersect(beamFromRay(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1))), math.MaxFloat64, true)
	if isect.Valid() {
		t.Error("Expected no intersection in an empty scene")
	}
	if s.Radius() != 0 {
		t.Errorf("Expected zero radius, got %f", s.Radius())
	}
}

// countingAlbedo records how many times it is evaluated
type countingAlbedo struct {
	calls int
	color core.Vec3
}

func (c *countingAlbedo) Color(surfacePoint core.Vec2, projection core.Bivec2) core.Vec3 {
	c.calls++
	return c.color
}

func TestIntersectionDerivedQuantities(t *testing.T) {
	albedo := &countingAlbedo{color: core.NewVec3(0.2, 0.4, 0.6)}
	surface := material.NewSurface(albedo, []material.Brdf{material.NewLambert(1)}, 1, core.Vec3{}, nil)

	b := &Builder{}
	b.Add(geometry.NewQuad(core.NewVec3(-1, -1, 5), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0)), surface)
	s := b.Build(newTestCamera(0), core.Vec3{})

	beam := s.Camera.CreatePixelBeam(core.NewVec2(50, 25), 100, 50, core.Vec2{})
	isect := s.Intersect(beam, math.MaxFloat64, true)
	if !isect.Valid() {
		t.Fatal("Expected the quad to be hit")
	}

	if isect.Point().Subtract(core.NewVec3(0, 0, 5)).Length() > 1e-9 {
		t.Errorf("Expected hit point (0,0,5), got %v", isect.Point())
	}
	if isect.FacingNormal().Dot(beam.Ray.Direction) >= 0 {
		t.Errorf("Expected facing normal against the ray, got %v", isect.FacingNormal())
	}

	for i := 0; i < 3; i++ {
		if got := isect.Albedo(); got != albedo.color {
			t.Errorf("Expected albedo %v, got %v", albedo.color, got)
		}
	}
	if albedo.calls != 1 {
		t.Errorf("Expected albedo evaluated once, got %d", albedo.calls)
	}

	// A pixel footprint on a 2x2 quad five units away spans a small fraction of the surface
	projection := isect.SurfaceProjection()
	if projection.U.Length() <= 0 || projection.U.Length() > 0.1 {
		t.Errorf("Expected small positive surface footprint, got %v", projection)
	}

	flat := isect.Flatten()
	expanded := flat.Expand(s)
	if expanded.Albedo() != albedo.color || albedo.calls != 1 {
		t.Errorf("Expected expanded intersection to reuse cached albedo, calls=%d", albedo.calls)
	}
	if expanded.PrimitiveIndex() != isect.PrimitiveIndex() || expanded.Point() != isect.Point() {
		t.Error("Expected expanded intersection to match the original")
	}

	shading := isect.Shading()
	if shading.DirOut != beam.Ray.Direction.Negate() {
		t.Errorf("Expected outgoing direction back along the ray, got %v", shading.DirOut)
	}
}

func TestIntersectionNormalMap(t *testing.T) {
	pixels := make([]core.Vec3, 16)
	for i := range pixels {
		pixels[i] = core.Splat(float64(i%4) / 4)
	}
	bumps := material.NewNormalMap(material.NewImageTexture(4, 4, pixels), 0.5)
	surface := material.NewSurface(material.NewSolidColor(core.Splat(1)), []material.Brdf{material.NewLambert(1)}, 1, core.Vec3{}, bumps)

	b := &Builder{}
	b.Add(geometry.NewQuad(core.NewVec3(-1, -1, 5), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0)), surface)
	s := b.Build(newTestCamera(0), core.Vec3{})

	isect := s.Intersect(beamFromRay(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1))), math.MaxFloat64, true)
	geometric := isect.ShapeIntersection().Normal
	if isect.Normal().Subtract(geometric).Length() < 1e-6 {
		t.Errorf("Expected perturbed normal to differ from %v", geometric)
	}
	if math.Abs(isect.Normal().Length()-1) > 1e-9 {
		t.Errorf("Expected unit shading normal, got length %f", isect.Normal().Length())
	}
}

func TestBuiltinScenes(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("Expected built-in scenes")
	}

	for _, name := range names {
		s, err := Build(name)
		if err != nil {
			t.Fatalf("Build(%q) failed: %v", name, err)
		}
		if len(s.Primitives) == 0 || s.Camera == nil {
			t.Errorf("Expected %q to have primitives and a camera", name)
		}
	}

	if _, err := Build("missing"); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}
