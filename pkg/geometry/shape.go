package geometry

import "github.com/df07/go-wavefront-raytracer/pkg/core"

// ShapeIntersection describes where a ray meets a shape's surface
type ShapeIntersection struct {
	Distance     float64     // Distance along the ray
	Normal       core.Vec3   // Geometric surface normal, not necessarily facing the ray
	Tangent      core.Bivec3 // Surface derivatives with respect to SurfacePoint
	SurfacePoint core.Vec2   // Surface parameterization at the hit
}

// Shape is the geometry of a primitive
type Shape interface {
	// Intersect finds a hit in [0, maxDistance). When closest is false any hit may be returned.
	Intersect(ray core.Ray, maxDistance float64, closest bool) (ShapeIntersection, bool)

	// BoundingVolume returns a volume containing the whole shape
	BoundingVolume() core.BoundingVolume

	// Sample draws a point uniformly over the shape's area. The pdf is with respect to area.
	Sample(sampler core.Sampler) (point, normal core.Vec3, pdf float64, ok bool)

	// SamplePdf returns the area density Sample would produce for a point on the shape
	SamplePdf(point core.Vec3) float64
}
