package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// ErrInvalidMesh is returned when mesh face indices are malformed
var ErrInvalidMesh = errors.New("geometry: invalid triangle mesh")

// TriangleMesh represents a collection of triangles with efficient ray intersection.
// It uses an internal BVH over triangle centroids for fast intersection tests.
type TriangleMesh struct {
	vertices []core.Vec3
	normals  []core.Vec3 // Optional per-vertex normals for smooth shading
	faces    [][3]int
	bvh      *core.BVH

	cumulativeArea []float64 // Running sum of triangle areas, for area sampling
	totalArea      float64
}

// TriangleMeshOptions contains optional parameters for triangle mesh creation
type TriangleMeshOptions struct {
	Normals []core.Vec3 // Optional per-vertex normals, same length as the vertices
}

// NewTriangleMesh creates a new triangle mesh from vertices and face indices.
// Each group of 3 indices forms a triangle.
func NewTriangleMesh(vertices []core.Vec3, indices []int, options *TriangleMeshOptions) (*TriangleMesh, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a positive multiple of 3", ErrInvalidMesh, len(indices))
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(vertices) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidMesh, idx)
		}
	}

	mesh := &TriangleMesh{vertices: vertices}
	if options != nil && options.Normals != nil {
		if len(options.Normals) != len(vertices) {
			return nil, fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidMesh, len(options.Normals), len(vertices))
		}
		mesh.normals = options.Normals
	}

	numTriangles := len(indices) / 3
	mesh.faces = make([][3]int, numTriangles)
	mesh.cumulativeArea = make([]float64, numTriangles)
	centroids := make([]core.Vec3, numTriangles)

	for i := range mesh.faces {
		face := [3]int{indices[3*i], indices[3*i+1], indices[3*i+2]}
		mesh.faces[i] = face

		v0, v1, v2 := vertices[face[0]], vertices[face[1]], vertices[face[2]]
		centroids[i] = v0.Add(v1).Add(v2).Divide(3)

		mesh.totalArea += v1.Subtract(v0).Cross(v2.Subtract(v0)).Length() / 2
		mesh.cumulativeArea[i] = mesh.totalArea
	}

	mesh.bvh = core.NewBVH(centroids, mesh.triangleVolume)
	return mesh, nil
}

func (m *TriangleMesh) triangleVolume(index int) core.BoundingVolume {
	volume := core.NewBoundingVolume()
	for _, idx := range m.faces[index] {
		volume.IncludePoint(m.vertices[idx])
	}
	return volume
}

// NumTriangles returns the number of triangles in the mesh
func (m *TriangleMesh) NumTriangles() int {
	return len(m.faces)
}

// Intersect walks the mesh BVH and tests candidate triangles
func (m *TriangleMesh) Intersect(ray core.Ray, maxDistance float64, closest bool) (ShapeIntersection, bool) {
	hitFace := -1
	var hitUV core.Vec2

	data := core.NewRayData(ray)
	distance := maxDistance
	m.bvh.Intersect(data, maxDistance, closest, func(index int, maxDist float64) (float64, bool) {
		face := m.faces[index]
		d, uv, ok := intersectTriangle(ray, m.vertices[face[0]], m.vertices[face[1]], m.vertices[face[2]], maxDist)
		if !ok {
			return 0, false
		}
		hitFace, hitUV, distance = index, uv, d
		return d, true
	})

	if hitFace < 0 {
		return ShapeIntersection{}, false
	}

	face := m.faces[hitFace]
	v0, v1, v2 := m.vertices[face[0]], m.vertices[face[1]], m.vertices[face[2]]
	e1, e2 := v1.Subtract(v0), v2.Subtract(v0)

	normal := e1.Cross(e2).Normalize()
	if m.normals != nil {
		// Interpolate vertex normals with the barycentric coordinates
		w := 1 - hitUV.X - hitUV.Y
		n := m.normals[face[0]].Multiply(w).
			Add(m.normals[face[1]].Multiply(hitUV.X)).
			Add(m.normals[face[2]].Multiply(hitUV.Y))
		if !n.IsZero() {
			normal = n.Normalize()
		}
	}

	return ShapeIntersection{
		Distance:     distance,
		Normal:       normal,
		Tangent:      core.NewBivec3(e1, e2),
		SurfacePoint: hitUV,
	}, true
}

// BoundingVolume returns the root volume of the mesh BVH
func (m *TriangleMesh) BoundingVolume() core.BoundingVolume {
	return m.bvh.Volume()
}

// Sample picks a triangle proportionally to its area, then a uniform point on it
func (m *TriangleMesh) Sample(sampler core.Sampler) (core.Vec3, core.Vec3, float64, bool) {
	if m.totalArea == 0 {
		return core.Vec3{}, core.Vec3{}, 0, false
	}

	target := sampler.Get1D() * m.totalArea
	index := sort.SearchFloat64s(m.cumulativeArea, target)
	index = min(index, len(m.faces)-1)

	face := m.faces[index]
	v0, v1, v2 := m.vertices[face[0]], m.vertices[face[1]], m.vertices[face[2]]
	normal := v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	return sampleTriangle(v0, v1, v2, sampler.Get2D()), normal, 1 / m.totalArea, true
}

// SamplePdf returns the uniform area density over the whole mesh
func (m *TriangleMesh) SamplePdf(point core.Vec3) float64 {
	if m.totalArea == 0 {
		return 0
	}
	return 1 / m.totalArea
}

// NewGridMesh builds a height-field mesh over [0,1]² scaled into the given
// corner and edge vectors, displaced along their normal by height(u, v).
func NewGridMesh(position, side1, side2 core.Vec3, resolution int, height func(u, v float64) float64) (*TriangleMesh, error) {
	if resolution < 1 {
		return nil, fmt.Errorf("%w: grid resolution %d", ErrInvalidMesh, resolution)
	}
	normal := side1.Cross(side2).Normalize()

	n := resolution + 1
	vertices := make([]core.Vec3, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			u := float64(i) / float64(resolution)
			v := float64(j) / float64(resolution)
			h := 0.0
			if height != nil {
				h = height(u, v)
			}
			if math.IsNaN(h) {
				h = 0
			}
			p := position.Add(side1.Multiply(u)).Add(side2.Multiply(v)).Add(normal.Multiply(h))
			vertices = append(vertices, p)
		}
	}

	indices := make([]int, 0, resolution*resolution*6)
	for j := 0; j < resolution; j++ {
		for i := 0; i < resolution; i++ {
			a := j*n + i
			b := a + 1
			c := a + n
			d := c + 1
			indices = append(indices, a, b, d, a, d, c)
		}
	}

	return NewTriangleMesh(vertices, indices, nil)
}
