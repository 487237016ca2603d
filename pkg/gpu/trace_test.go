package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/math/f32"

	"github.com/df07/go-wavefront-raytracer/pkg/proxy"
)

func TestIntersectSkewedQuad(t *testing.T) {
	quad := &proxy.Primitive{
		Type:   proxy.ShapeQuad,
		Side1:  f32.Vec3{1, 0, 0},
		Side2:  f32.Vec3{1, 1, 0},
		Normal: f32.Vec3{0, 0, 1},
	}
	down := f32.Vec3{0, 0, -1}

	tests := []struct {
		name string
		x, y float32
		hit  bool
	}{
		{"inside near far corner", 1.8, 0.9, true},
		{"inside near origin", 0.5, 0.25, true},
		{"left of slanted edge", 0.2, 0.6, false},
		{"right of slanted edge", 1.9, 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			distance, normal, ok := intersectPrimitive(quad, f32.Vec3{tt.x, tt.y, 1}, down, 10)
			assert.Equal(t, tt.hit, ok)
			if tt.hit {
				assert.InDelta(t, 1, distance, 1e-6)
				assert.Equal(t, quad.Normal, normal)
			}
		})
	}
}
