package core

import "math"

// OrthonormalBasis is a right-handed frame whose Z axis is a given unit vector
type OrthonormalBasis struct {
	X, Y, Z Vec3
}

// NewOrthonormalBasis builds a basis around the unit vector z without branching on its direction
func NewOrthonormalBasis(z Vec3) OrthonormalBasis {
	sign := math.Copysign(1, z.Z)
	a := -1 / (sign + z.Z)
	b := z.X * z.Y * a

	x := Vec3{1 + sign*z.X*z.X*a, sign * b, -sign * z.X}
	y := Vec3{b, sign + z.Y*z.Y*a, -z.Y}
	return OrthonormalBasis{X: x, Y: y, Z: z}
}

// LocalToWorld transforms a vector expressed in the basis into world space
func (b OrthonormalBasis) LocalToWorld(local Vec3) Vec3 {
	return b.X.Multiply(local.X).Add(b.Y.Multiply(local.Y)).Add(b.Z.Multiply(local.Z))
}

// WorldToLocal expresses a world-space vector in the basis
func (b OrthonormalBasis) WorldToLocal(world Vec3) Vec3 {
	return Vec3{world.Dot(b.X), world.Dot(b.Y), world.Dot(b.Z)}
}

// SphericalDirection returns the unit vector with azimuth phi and elevation
// above the XY plane
func SphericalDirection(phi, elevation float64) Vec3 {
	cosElevation := math.Cos(elevation)
	return Vec3{
		X: math.Cos(phi) * cosElevation,
		Y: math.Sin(phi) * cosElevation,
		Z: math.Sin(elevation),
	}
}
