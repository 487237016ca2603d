package geometry

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Triangle represents a single flat triangle
type Triangle struct {
	V0, V1, V2 core.Vec3
	Normal     core.Vec3
	area       float64
}

// NewTriangle creates a triangle from three vertices in counter-clockwise order
func NewTriangle(v0, v1, v2 core.Vec3) *Triangle {
	cross := v1.Subtract(v0).Cross(v2.Subtract(v0))
	return &Triangle{V0: v0, V1: v1, V2: v2, Normal: cross.Normalize(), area: cross.Length() / 2}
}

// intersectTriangle runs the Möller–Trumbore test, returning the distance and
// barycentric coordinates of the hit relative to p.
func intersectTriangle(ray core.Ray, p, pu, pv core.Vec3, maxDistance float64) (float64, core.Vec2, bool) {
	e1 := pu.Subtract(p)
	e2 := pv.Subtract(p)
	pp := ray.Direction.Cross(e2)

	den := pp.Dot(e1)
	if den > -1e-10 && den < 1e-10 {
		return 0, core.Vec2{}, false
	}

	iden := 1 / den
	t := ray.Origin.Subtract(p)
	u := pp.Dot(t) * iden
	if u < 0 || u > 1 {
		return 0, core.Vec2{}, false
	}

	q := t.Cross(e1)
	v := q.Dot(ray.Direction) * iden
	if v < 0 || u+v > 1 {
		return 0, core.Vec2{}, false
	}

	d := q.Dot(e2) * iden
	if d < 0 || d >= maxDistance {
		return 0, core.Vec2{}, false
	}

	return d, core.NewVec2(u, v), true
}

// Intersect tests if a ray intersects with the triangle
func (tr *Triangle) Intersect(ray core.Ray, maxDistance float64, closest bool) (ShapeIntersection, bool) {
	d, uv, ok := intersectTriangle(ray, tr.V0, tr.V1, tr.V2, maxDistance)
	if !ok {
		return ShapeIntersection{}, false
	}

	return ShapeIntersection{
		Distance:     d,
		Normal:       tr.Normal,
		Tangent:      core.NewBivec3(tr.V1.Subtract(tr.V0), tr.V2.Subtract(tr.V0)),
		SurfacePoint: uv,
	}, true
}

// BoundingVolume returns the volume containing the three vertices
func (tr *Triangle) BoundingVolume() core.BoundingVolume {
	volume := core.NewBoundingVolume()
	volume.IncludePoint(tr.V0)
	volume.IncludePoint(tr.V1)
	volume.IncludePoint(tr.V2)
	return volume
}

// Sample draws a uniform point on the triangle
func (tr *Triangle) Sample(sampler core.Sampler) (core.Vec3, core.Vec3, float64, bool) {
	if tr.area == 0 {
		return core.Vec3{}, core.Vec3{}, 0, false
	}
	return sampleTriangle(tr.V0, tr.V1, tr.V2, sampler.Get2D()), tr.Normal, 1 / tr.area, true
}

// SamplePdf returns the uniform area density
func (tr *Triangle) SamplePdf(point core.Vec3) float64 {
	if tr.area == 0 {
		return 0
	}
	return 1 / tr.area
}

// sampleTriangle maps a unit square sample uniformly onto a triangle
func sampleTriangle(v0, v1, v2 core.Vec3, sample core.Vec2) core.Vec3 {
	u, v := sample.X, sample.Y
	if u+v > 1 {
		u, v = 1-u, 1-v
	}
	return v0.Add(v1.Subtract(v0).Multiply(u)).Add(v2.Subtract(v0).Multiply(v))
}
