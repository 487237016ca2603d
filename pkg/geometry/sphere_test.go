package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

func TestSphere_Intersect(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, -5), 1)

	tests := []struct {
		name     string
		ray      core.Ray
		hit      bool
		distance float64
	}{
		{"Front hit", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), true, 4},
		{"Unnormalized direction", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -2)), true, 2},
		{"From inside", core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 1, 0)), true, 1},
		{"Miss", core.NewRay(core.NewVec3(0, 2, 0), core.NewVec3(0, 0, -1)), false, 0},
		{"Behind", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := sphere.Intersect(tt.ray, math.MaxFloat64, true)
			if isHit != tt.hit {
				t.Fatalf("Expected hit=%v, got %v", tt.hit, isHit)
			}
			if !isHit {
				return
			}
			if math.Abs(hit.Distance-tt.distance) > 1e-9 {
				t.Errorf("Expected distance %f, got %f", tt.distance, hit.Distance)
			}
			point := tt.ray.At(hit.Distance)
			expectedNormal := point.Subtract(sphere.Center)
			if hit.Normal.Subtract(expectedNormal).Length() > 1e-9 {
				t.Errorf("Expected normal %v, got %v", expectedNormal, hit.Normal)
			}
			if hit.SurfacePoint.X < 0 || hit.SurfacePoint.X > 1 || hit.SurfacePoint.Y < 0 || hit.SurfacePoint.Y > 1 {
				t.Errorf("Expected surface point in [0,1]², got %v", hit.SurfacePoint)
			}
		})
	}
}

func TestSphere_MaxDistance(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, -5), 1)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	// the near root is past max distance, and so is the far root
	if _, isHit := sphere.Intersect(ray, 3.5, true); isHit {
		t.Error("Expected miss when both roots exceed max distance")
	}
}

func TestSphere_TangentIsPerpendicularToNormal(t *testing.T) {
	sphere := NewSphere(core.NewVec3(1, 2, 3), 2)
	sampler := core.NewSeededRandomSampler(11)

	for i := 0; i < 50; i++ {
		dir := core.SampleOnUnitSphere(sampler.Get2D())
		ray := core.NewRay(sphere.Center.Add(dir.Multiply(10)), dir.Negate())
		hit, isHit := sphere.Intersect(ray, math.MaxFloat64, true)
		if !isHit {
			t.Fatalf("Expected ray toward center to hit")
		}
		if math.Abs(hit.Tangent.U.Dot(hit.Normal)) > 1e-9 || math.Abs(hit.Tangent.V.Dot(hit.Normal)) > 1e-9 {
			t.Errorf("Expected tangents perpendicular to normal %v, got %v", hit.Normal, hit.Tangent)
		}
	}
}

func TestSphere_Sample(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 1, 0), 0.5)
	sampler := core.NewSeededRandomSampler(3)
	expectedPdf := 1 / (4 * math.Pi * 0.25)

	for i := 0; i < 100; i++ {
		point, normal, pdf, ok := sphere.Sample(sampler)
		if !ok {
			t.Fatal("Expected sample to succeed")
		}
		if math.Abs(point.Subtract(sphere.Center).Length()-0.5) > 1e-9 {
			t.Errorf("Expected point on surface, got distance %f", point.Subtract(sphere.Center).Length())
		}
		if normal.Subtract(point.Subtract(sphere.Center).Divide(0.5)).Length() > 1e-9 {
			t.Errorf("Expected outward normal, got %v", normal)
		}
		if math.Abs(pdf-expectedPdf) > 1e-12 {
			t.Errorf("Expected pdf %f, got %f", expectedPdf, pdf)
		}
	}
}

func TestSphere_BoundingVolume(t *testing.T) {
	sphere := NewSphere(core.NewVec3(1, 2, 3), 0.5)
	volume := sphere.BoundingVolume()

	expectedMins := [3]float64{0.5, 1.5, 2.5}
	expectedMaxes := [3]float64{1.5, 2.5, 3.5}
	if volume.Mins != expectedMins || volume.Maxes != expectedMaxes {
		t.Errorf("Expected mins %v maxes %v, got %v %v", expectedMins, expectedMaxes, volume.Mins, volume.Maxes)
	}
}
