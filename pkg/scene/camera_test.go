package scene

import (
	"math"
	"testing"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

func newTestCamera(aperture float64) *Camera {
	return NewCamera(core.Vec3{}, core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0), 90, 5, aperture)
}

func TestCameraCenterBeam(t *testing.T) {
	camera := newTestCamera(0)
	beam := camera.CreatePixelBeam(core.NewVec2(50, 25), 100, 50, core.Vec2{})

	if beam.Ray.Origin != (core.Vec3{}) {
		t.Errorf("Expected pinhole origin at camera position, got %v", beam.Ray.Origin)
	}
	if beam.Ray.Direction.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-12 {
		t.Errorf("Expected center beam along camera direction, got %v", beam.Ray.Direction)
	}
}

func TestCameraImageAxes(t *testing.T) {
	camera := newTestCamera(0)
	width, height := 100, 50

	tests := []struct {
		name   string
		point  core.Vec2
		check  func(d core.Vec3) bool
		expect string
	}{
		{"right edge", core.NewVec2(100, 25), func(d core.Vec3) bool { return d.X > 0 && math.Abs(d.Y) < 1e-12 }, "+x"},
		{"left edge", core.NewVec2(0, 25), func(d core.Vec3) bool { return d.X < 0 && math.Abs(d.Y) < 1e-12 }, "-x"},
		{"top edge", core.NewVec2(50, 0), func(d core.Vec3) bool { return d.Y > 0 && math.Abs(d.X) < 1e-12 }, "+y"},
		{"bottom edge", core.NewVec2(50, 50), func(d core.Vec3) bool { return d.Y < 0 && math.Abs(d.X) < 1e-12 }, "-y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := camera.CreatePixelBeam(tt.point, width, height, core.Vec2{}).Ray.Direction
			if !tt.check(d) {
				t.Errorf("Expected direction toward %s, got %v", tt.expect, d)
			}
		})
	}
}

func TestCameraFieldOfView(t *testing.T) {
	camera := newTestCamera(0)

	// With a 90 degree horizontal field of view the right edge is 45 degrees off axis
	d := camera.CreatePixelBeam(core.NewVec2(100, 25), 100, 50, core.Vec2{}).Ray.Direction
	angle := math.Acos(d.Dot(camera.Direction)) * 180 / math.Pi
	if math.Abs(angle-45) > 1e-9 {
		t.Errorf("Expected 45 degrees at the image edge, got %f", angle)
	}
}

func TestCameraApertureKeepsFocus(t *testing.T) {
	camera := newTestCamera(0.5)
	sampler := core.NewSeededRandomSampler(9)
	focus := core.NewVec3(0, 0, 5)

	for i := 0; i < 50; i++ {
		beam := camera.CreatePixelBeam(core.NewVec2(50, 25), 100, 50, sampler.Get2D())
		if beam.Ray.Origin.Length() > 0.5+1e-12 {
			t.Fatalf("Expected lens point within the aperture, got %v", beam.Ray.Origin)
		}

		// Every lens ray through the center pixel passes through the focal point
		toFocus := focus.Subtract(beam.Ray.Origin).Normalize()
		if toFocus.Dot(beam.Ray.Direction) < 1-1e-9 {
			t.Fatalf("Expected ray toward the focal point, got %v from %v", beam.Ray.Direction, beam.Ray.Origin)
		}
	}
}

func TestCameraPixelFootprint(t *testing.T) {
	camera := newTestCamera(0)
	width := 100
	beam := camera.CreatePixelBeam(core.NewVec2(50, 25), width, 50, core.Vec2{})

	// The beam widens by one pixel per unit distance, matching ProjectSize
	footprint := beam.DirectionDifferential.U.Length()
	expected := camera.ProjectSize(2/float64(width), 1)
	if math.Abs(footprint-expected) > 1e-12 {
		t.Errorf("Expected footprint %f, got %f", expected, footprint)
	}
}

func TestCameraFromConfigFocus(t *testing.T) {
	camera := NewCameraFromConfig(CameraConfig{
		Center: core.NewVec3(0, 0, -10),
		LookAt: core.Vec3{},
		Up:     core.NewVec3(0, 1, 0),
		Fov:    40,
	})
	if math.Abs(camera.FocalLength-10) > 1e-12 {
		t.Errorf("Expected focus on the look-at point at 10, got %f", camera.FocalLength)
	}
	if camera.Direction.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-12 {
		t.Errorf("Expected normalized direction, got %v", camera.Direction)
	}
}
