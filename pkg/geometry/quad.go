package geometry

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Quad represents a parallelogram defined by a corner and two edge vectors
type Quad struct {
	Position core.Vec3 // One corner of the quad
	Side1    core.Vec3 // First edge vector
	Side2    core.Vec3 // Second edge vector
	Normal   core.Vec3 // Unit normal (Side1 × Side2)
	w        core.Vec3 // Side1 × Side2 over its squared length, for parallelogram coordinates
	area     float64
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(position, side1, side2 core.Vec3) *Quad {
	cross := side1.Cross(side2)
	return &Quad{
		Position: position,
		Side1:    side1,
		Side2:    side2,
		Normal:   cross.Normalize(),
		w:        cross.Multiply(1 / cross.LengthSquared()),
		area:     cross.Length(),
	}
}

// Intersect tests if a ray intersects with the quad
func (q *Quad) Intersect(ray core.Ray, maxDistance float64, closest bool) (ShapeIntersection, bool) {
	// Distance to the plane; a parallel ray produces an infinite or NaN distance and is rejected
	distance := ray.Origin.Subtract(q.Position).Dot(q.Normal) / ray.Direction.Dot(q.Normal.Negate())
	if !(distance >= 0 && distance < maxDistance) {
		return ShapeIntersection{}, false
	}

	// Solve offset = u·Side1 + v·Side2 in the quad's plane
	offset := ray.At(distance).Subtract(q.Position)
	u := q.w.Dot(offset.Cross(q.Side2))
	v := q.w.Dot(q.Side1.Cross(offset))
	if !(u >= 0 && u <= 1 && v >= 0 && v <= 1) {
		return ShapeIntersection{}, false
	}

	return ShapeIntersection{
		Distance:     distance,
		Normal:       q.Normal,
		Tangent:      core.NewBivec3(q.Side1, q.Side2),
		SurfacePoint: core.NewVec2(u, v),
	}, true
}

// BoundingVolume returns the volume spanned by the four corners
func (q *Quad) BoundingVolume() core.BoundingVolume {
	volume := core.NewBoundingVolume()
	volume.IncludePoint(q.Position)
	volume.IncludePoint(q.Position.Add(q.Side1))
	volume.IncludePoint(q.Position.Add(q.Side2))
	volume.IncludePoint(q.Position.Add(q.Side1).Add(q.Side2))
	return volume
}

// Sample draws a uniform point on the quad
func (q *Quad) Sample(sampler core.Sampler) (core.Vec3, core.Vec3, float64, bool) {
	if q.area == 0 {
		return core.Vec3{}, core.Vec3{}, 0, false
	}

	uv := sampler.Get2D()
	point := q.Position.Add(q.Side1.Multiply(uv.X)).Add(q.Side2.Multiply(uv.Y))
	return point, q.Normal, 1 / q.area, true
}

// SamplePdf returns the uniform area density
func (q *Quad) SamplePdf(point core.Vec3) float64 {
	if q.area == 0 {
		return 0
	}
	return 1 / q.area
}

// Area returns the surface area of the quad
func (q *Quad) Area() float64 {
	return q.area
}
