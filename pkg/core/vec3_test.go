package core

import (
	"math"
	"testing"
)

func TestVec3_Reflect(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		axis     Vec3
		expected Vec3
	}{
		{
			name:     "Along axis",
			vector:   NewVec3(0, 0, 1),
			axis:     NewVec3(0, 0, 1),
			expected: NewVec3(0, 0, 1),
		},
		{
			name:     "Perpendicular to axis",
			vector:   NewVec3(1, 0, 0),
			axis:     NewVec3(0, 0, 1),
			expected: NewVec3(-1, 0, 0),
		},
		{
			name:     "Diagonal",
			vector:   NewVec3(1, 0, 1).Normalize(),
			axis:     NewVec3(0, 0, 1),
			expected: NewVec3(-1, 0, 1).Normalize(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.vector.Reflect(tt.axis)

			const tolerance = 1e-9
			if result.Subtract(tt.expected).Length() > tolerance {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_NormalizeZero(t *testing.T) {
	if n := (Vec3{}).Normalize(); !n.IsZero() {
		t.Errorf("Expected zero vector, got %v", n)
	}
}

func TestVec3_ComponentHelpers(t *testing.T) {
	v := NewVec3(-1, 2, 0.5)

	if v.MaxComponent() != 2 {
		t.Errorf("Expected max component 2, got %f", v.MaxComponent())
	}
	if c := v.ClampNonNegative(); c != NewVec3(0, 2, 0.5) {
		t.Errorf("Expected (0, 2, 0.5), got %v", c)
	}
	for i, expected := range []float64{-1, 2, 0.5} {
		if v.Component(i) != expected {
			t.Errorf("Expected component %d = %f, got %f", i, expected, v.Component(i))
		}
	}
	if !v.IsFinite() {
		t.Error("Expected finite vector")
	}
	if NewVec3(math.NaN(), 0, 0).IsFinite() {
		t.Error("Expected NaN vector to be reported as not finite")
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(1, 2, 3), NewVec3(0, 0, -1))
	if p := ray.At(2); p != NewVec3(1, 2, 1) {
		t.Errorf("Expected (1, 2, 1), got %v", p)
	}
}
