package scene

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// derived holds the quantities computed on first use. Entries are filled at
// most once and live exactly as long as the Intersection that owns them.
type derived struct {
	hasProjection bool
	projection    core.Bivec2

	hasNormal    bool
	normal       core.Vec3
	facingNormal core.Vec3

	hasAlbedo bool
	albedo    core.Vec3
}

// Intersection is the record of a beam hitting a primitive. The zero value is
// an invalid intersection (the beam escaped the scene).
type Intersection struct {
	scene          *Scene
	primitiveIndex int
	valid          bool
	beam           core.Beam
	shape          geometry.ShapeIntersection
	point          core.Vec3

	cache derived
}

func newIntersection(scene *Scene, primitiveIndex int, beam core.Beam, shape geometry.ShapeIntersection) Intersection {
	return Intersection{
		scene:          scene,
		primitiveIndex: primitiveIndex,
		valid:          true,
		beam:           beam,
		shape:          shape,
		point:          beam.Ray.At(shape.Distance),
	}
}

// Valid reports whether the beam hit anything
func (i *Intersection) Valid() bool {
	return i.valid
}

// Scene returns the scene that was intersected
func (i *Intersection) Scene() *Scene {
	return i.scene
}

// PrimitiveIndex returns the index of the hit primitive in the scene
func (i *Intersection) PrimitiveIndex() int {
	return i.primitiveIndex
}

// Primitive returns the hit primitive
func (i *Intersection) Primitive() *Primitive {
	return i.scene.Primitives[i.primitiveIndex]
}

// Surface returns the surface of the hit primitive
func (i *Intersection) Surface() *material.Surface {
	return i.Primitive().Surface
}

// Beam returns the incident beam
func (i *Intersection) Beam() core.Beam {
	return i.beam
}

// Ray returns the incident ray
func (i *Intersection) Ray() core.Ray {
	return i.beam.Ray
}

// ShapeIntersection returns the raw shape hit
func (i *Intersection) ShapeIntersection() geometry.ShapeIntersection {
	return i.shape
}

// Distance returns the distance along the ray to the hit
func (i *Intersection) Distance() float64 {
	return i.shape.Distance
}

// Point returns the hit point
func (i *Intersection) Point() core.Vec3 {
	return i.point
}

// SurfaceProjection returns the beam footprint in surface coordinates
func (i *Intersection) SurfaceProjection() core.Bivec2 {
	if !i.cache.hasProjection {
		i.cache.projection = i.computeProjection()
		i.cache.hasProjection = true
	}
	return i.cache.projection
}

func (i *Intersection) computeProjection() core.Bivec2 {
	projection := i.beam.Project(i.shape.Distance, i.shape.Normal)
	tu, tv := i.shape.Tangent.U, i.shape.Tangent.V

	vv := tu.Cross(tv)
	mag2 := vv.LengthSquared()
	if mag2 == 0 {
		return core.Bivec2{}
	}
	v := vv.Divide(mag2)

	du := core.NewVec2(projection.U.Cross(tv).Dot(v), tu.Cross(projection.U).Dot(v))
	dv := core.NewVec2(projection.V.Cross(tv).Dot(v), tu.Cross(projection.V).Dot(v))
	return core.NewBivec2(du, dv)
}

// Normal returns the shading normal, perturbed by the surface's normal map if any
func (i *Intersection) Normal() core.Vec3 {
	i.computeNormals()
	return i.cache.normal
}

// FacingNormal returns the shading normal flipped toward the ray origin
func (i *Intersection) FacingNormal() core.Vec3 {
	i.computeNormals()
	return i.cache.facingNormal
}

func (i *Intersection) computeNormals() {
	if i.cache.hasNormal {
		return
	}

	normal := i.shape.Normal
	if normalMap := i.Surface().NormalMap; normalMap != nil {
		normal = normalMap.Perturb(i.shape.SurfacePoint, i.SurfaceProjection(), normal, i.shape.Tangent)
	}

	facing := normal
	if normal.Dot(i.beam.Ray.Direction) > 0 {
		facing = normal.Negate()
	}

	i.cache.normal = normal
	i.cache.facingNormal = facing
	i.cache.hasNormal = true
}

// Albedo returns the surface albedo filtered over the beam footprint
func (i *Intersection) Albedo() core.Vec3 {
	if !i.cache.hasAlbedo {
		i.cache.albedo = i.Surface().Albedo.Color(i.shape.SurfacePoint, i.SurfaceProjection())
		i.cache.hasAlbedo = true
	}
	return i.cache.albedo
}

// Shading returns the local frame the surface needs for evaluation and sampling
func (i *Intersection) Shading() material.Shading {
	return material.Shading{
		Normal:       i.Normal(),
		FacingNormal: i.FacingNormal(),
		DirOut:       i.beam.Ray.Direction.Negate(),
		Albedo:       i.Albedo(),
	}
}

// FlatIntersection is a self-contained copy of an intersection with every
// derived quantity resolved, suitable for storing in per-pixel buffers
type FlatIntersection struct {
	Valid          bool
	PrimitiveIndex int
	Beam           core.Beam
	Shape          geometry.ShapeIntersection
	Point          core.Vec3
	Normal         core.Vec3
	FacingNormal   core.Vec3
	Albedo         core.Vec3
}

// Flatten resolves all derived quantities into a FlatIntersection
func (i *Intersection) Flatten() FlatIntersection {
	if !i.valid {
		return FlatIntersection{}
	}
	return FlatIntersection{
		Valid:          true,
		PrimitiveIndex: i.primitiveIndex,
		Beam:           i.beam,
		Shape:          i.shape,
		Point:          i.point,
		Normal:         i.Normal(),
		FacingNormal:   i.FacingNormal(),
		Albedo:         i.Albedo(),
	}
}

// Expand rebuilds a full intersection from a flat one, with its derived
// quantities already cached
func (f FlatIntersection) Expand(scene *Scene) Intersection {
	if !f.Valid {
		return Intersection{scene: scene}
	}

	isect := newIntersection(scene, f.PrimitiveIndex, f.Beam, f.Shape)
	isect.point = f.Point
	isect.cache = derived{
		hasNormal:    true,
		normal:       f.Normal,
		facingNormal: f.FacingNormal,
		hasAlbedo:    true,
		albedo:       f.Albedo,
	}
	return isect
}
