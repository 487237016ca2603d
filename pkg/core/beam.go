package core

// Bivec3 is a pair of 3D vectors, typically the partial derivatives of a
// quantity with respect to the two image-plane coordinates.
type Bivec3 struct {
	U, V Vec3
}

// NewBivec3 creates a new Bivec3
func NewBivec3(u, v Vec3) Bivec3 {
	return Bivec3{U: u, V: v}
}

// Add returns the component-wise sum
func (b Bivec3) Add(other Bivec3) Bivec3 {
	return Bivec3{b.U.Add(other.U), b.V.Add(other.V)}
}

// Subtract returns the component-wise difference
func (b Bivec3) Subtract(other Bivec3) Bivec3 {
	return Bivec3{b.U.Subtract(other.U), b.V.Subtract(other.V)}
}

// Multiply scales both vectors
func (b Bivec3) Multiply(scalar float64) Bivec3 {
	return Bivec3{b.U.Multiply(scalar), b.V.Multiply(scalar)}
}

// Divide divides both vectors by a scalar
func (b Bivec3) Divide(scalar float64) Bivec3 {
	return Bivec3{b.U.Divide(scalar), b.V.Divide(scalar)}
}

// Apply evaluates the linear combination U*p.X + V*p.Y
func (b Bivec3) Apply(p Vec2) Vec3 {
	return b.U.Multiply(p.X).Add(b.V.Multiply(p.Y))
}

// Bivec2 is a pair of 2D vectors, the footprint of a beam in surface coordinates
type Bivec2 struct {
	U, V Vec2
}

// NewBivec2 creates a new Bivec2
func NewBivec2(u, v Vec2) Bivec2 {
	return Bivec2{U: u, V: v}
}

// Beam is a ray extended with origin and direction differentials
type Beam struct {
	Ray                   Ray
	OriginDifferential    Bivec3
	DirectionDifferential Bivec3
}

// NewBeam creates a new beam
func NewBeam(ray Ray, originDifferential, directionDifferential Bivec3) Beam {
	return Beam{Ray: ray, OriginDifferential: originDifferential, DirectionDifferential: directionDifferential}
}

// Project returns the footprint of the beam on the plane with the given
// normal, at the given distance along the ray.
func (b Beam) Project(distance float64, normal Vec3) Bivec3 {
	a := b.OriginDifferential.Add(b.DirectionDifferential.Multiply(distance))
	d := b.Ray.Direction
	den := normal.Dot(d)
	if den == 0 {
		return a
	}

	dt := Bivec3{
		U: d.Multiply(a.U.Dot(normal) / den),
		V: d.Multiply(a.V.Dot(normal) / den),
	}
	return a.Subtract(dt)
}
