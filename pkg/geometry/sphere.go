package geometry

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Sphere represents a sphere given by its center and radius
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Intersect solves the ray/sphere quadratic and returns the nearest root in range
func (s *Sphere) Intersect(ray core.Ray, maxDistance float64, closest bool) (ShapeIntersection, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.LengthSquared()
	b := 2 * oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	disc := b*b - 4*a*c
	if disc < 0 || a == 0 {
		return ShapeIntersection{}, false
	}

	sqrtDisc := math.Sqrt(disc)
	for _, distance := range [2]float64{(-b - sqrtDisc) / (2 * a), (-b + sqrtDisc) / (2 * a)} {
		if distance >= 0 && distance < maxDistance {
			normal := ray.At(distance).Subtract(s.Center).Divide(s.Radius)
			surfacePoint, tangent := s.parameterize(normal)
			return ShapeIntersection{
				Distance:     distance,
				Normal:       normal,
				Tangent:      tangent,
				SurfacePoint: surfacePoint,
			}, true
		}
	}

	return ShapeIntersection{}, false
}

// parameterize maps a unit normal to longitude/latitude coordinates in [0,1]²
// and their surface derivatives
func (s *Sphere) parameterize(normal core.Vec3) (core.Vec2, core.Bivec3) {
	phi := math.Atan2(normal.Y, normal.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := math.Acos(max(-1, min(1, normal.Z)))

	sinTheta := math.Sin(theta)
	du := core.NewVec3(-normal.Y, normal.X, 0).Multiply(2 * math.Pi * s.Radius)
	dv := core.NewVec3(normal.Z*math.Cos(phi), normal.Z*math.Sin(phi), -sinTheta).Multiply(math.Pi * s.Radius)

	return core.NewVec2(phi/(2*math.Pi), theta/math.Pi), core.NewBivec3(du, dv)
}

// BoundingVolume returns the center projection ± radius along each axis
func (s *Sphere) BoundingVolume() core.BoundingVolume {
	var mins, maxes [core.BoundingVolumeAxes]float64
	for i, axis := range core.ProjectionAxes {
		x := s.Center.Dot(axis)
		y := s.Radius * axis.Length()
		mins[i] = x - y
		maxes[i] = x + y
	}
	return core.NewBoundingVolumeFromExtents(mins, maxes)
}

// Sample draws a uniform point on the sphere's surface
func (s *Sphere) Sample(sampler core.Sampler) (core.Vec3, core.Vec3, float64, bool) {
	if s.Radius <= 0 {
		return core.Vec3{}, core.Vec3{}, 0, false
	}

	normal := core.SampleOnUnitSphere(sampler.Get2D())
	point := s.Center.Add(normal.Multiply(s.Radius))
	return point, normal, s.SamplePdf(point), true
}

// SamplePdf returns the uniform area density 1/(4πr²)
func (s *Sphere) SamplePdf(point core.Vec3) float64 {
	if s.Radius <= 0 {
		return 0
	}
	return 1 / (4 * math.Pi * s.Radius * s.Radius)
}
