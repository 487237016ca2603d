package gpu

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

func add(a, b f32.Vec3) f32.Vec3 {
	return f32.Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub(a, b f32.Vec3) f32.Vec3 {
	return f32.Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale(a f32.Vec3, s float32) f32.Vec3 {
	return f32.Vec3{a[0] * s, a[1] * s, a[2] * s}
}

func mul(a, b f32.Vec3) f32.Vec3 {
	return f32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func dot(a, b f32.Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b f32.Vec3) f32.Vec3 {
	return f32.Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func length(a f32.Vec3) float32 {
	return math32.Sqrt(dot(a, a))
}

func normalize(a f32.Vec3) f32.Vec3 {
	l := length(a)
	if l == 0 {
		return a
	}
	return scale(a, 1/l)
}

func maxComponent(a f32.Vec3) float32 {
	return math32.Max(a[0], math32.Max(a[1], a[2]))
}

func isZero(a f32.Vec3) bool {
	return a[0] == 0 && a[1] == 0 && a[2] == 0
}

// basis returns two unit vectors completing n to an orthonormal frame
func basis(n f32.Vec3) (f32.Vec3, f32.Vec3) {
	sign := math32.Copysign(1, n[2])
	a := -1 / (sign + n[2])
	b := n[0] * n[1] * a
	x := f32.Vec3{1 + sign*n[0]*n[0]*a, sign * b, -sign * n[0]}
	y := f32.Vec3{b, sign + n[1]*n[1]*a, -n[1]}
	return x, y
}
