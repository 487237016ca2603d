package proxy

import (
	"fmt"

	"golang.org/x/image/math/f32"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// Vec converts a vector to its float32 form
func Vec(v core.Vec3) f32.Vec3 {
	return f32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func encodePrimitive(p *scene.Primitive) (Primitive, error) {
	var out Primitive
	switch shape := p.Shape.(type) {
	case *geometry.Quad:
		out.Type = ShapeQuad
		out.Position = Vec(shape.Position)
		out.Side1 = Vec(shape.Side1)
		out.Side2 = Vec(shape.Side2)
		out.Normal = Vec(shape.Normal)
	case *geometry.Sphere:
		out.Type = ShapeSphere
		out.Position = Vec(shape.Center)
		out.Radius = float32(shape.Radius)
	default:
		return Primitive{}, fmt.Errorf("%w: %T", ErrUnsupportedShape, p.Shape)
	}

	solid, ok := p.Surface.Albedo.(*material.SolidColor)
	if !ok {
		return Primitive{}, fmt.Errorf("%w: %T", ErrUnsupportedAlbedo, p.Surface.Albedo)
	}
	out.Albedo = Vec(solid.Value.Multiply(p.Surface.Lambert()))
	out.Radiance = Vec(p.Surface.Radiance)
	return out, nil
}

func encodeCamera(c *scene.Camera) Camera {
	plane := c.ImagePlane()
	return Camera{
		Position:    Vec(c.Position),
		Direction:   Vec(c.Direction),
		ImageU:      Vec(plane.U),
		ImageV:      Vec(plane.V),
		ImageSize:   float32(c.ImageSize()),
		FocalLength: float32(c.FocalLength),
		Aperture:    float32(c.Aperture),
	}
}

// EncodeScene lays out a scene as a header followed by its primitive,
// area light index, point light and hierarchy arrays. Surfaces are reduced
// to their diffuse part. Scenes with shapes other than quads and spheres, or
// with textured albedos, are rejected.
func EncodeScene(s *scene.Scene) ([]byte, error) {
	primitives := make([]Primitive, len(s.Primitives))
	for i, p := range s.Primitives {
		out, err := encodePrimitive(p)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		primitives[i] = out
	}
	nodes := s.BVH().Nodes()

	h := SceneHeader{
		NumPrimitives:  int32(len(primitives)),
		NumAreaLights:  int32(len(s.AreaLights)),
		NumPointLights: int32(len(s.PointLights)),
		NumBVHNodes:    int32(len(nodes)),
		SkyRadiance:    Vec(s.SkyRadiance),
		Camera:         encodeCamera(s.Camera),
	}

	offset := SceneHeaderSize
	h.PrimitivesOffset = int32(offset)
	offset = align(offset + len(primitives)*PrimitiveSize)
	h.AreaLightsOffset = int32(offset)
	offset = align(offset + len(s.AreaLights)*4)
	h.PointLightsOffset = int32(offset)
	offset = align(offset + len(s.PointLights)*PointLightSize)
	h.BVHOffset = int32(offset)
	offset = align(offset + len(nodes)*BVHNodeSize)

	b := make([]byte, offset)
	h.put(b)
	for i, p := range primitives {
		p.put(b[int(h.PrimitivesOffset)+i*PrimitiveSize:])
	}
	for i, index := range s.AreaLights {
		PutInt32(b[h.AreaLightsOffset:], i, int32(index))
	}
	for i, light := range s.PointLights {
		PointLight{Position: Vec(light.Position), Radiance: Vec(light.Radiance)}.put(b[int(h.PointLightsOffset)+i*PointLightSize:])
	}
	for i, node := range nodes {
		BVHNode{
			Min:   f32.Vec3{float32(node.Volume.Mins[0]), float32(node.Volume.Mins[1]), float32(node.Volume.Mins[2])},
			Max:   f32.Vec3{float32(node.Volume.Maxes[0]), float32(node.Volume.Maxes[1]), float32(node.Volume.Maxes[2])},
			Index: int32(node.Index),
		}.put(b[int(h.BVHOffset)+i*BVHNodeSize:])
	}
	return b, nil
}

// SceneView reads the records of an encoded scene in place
type SceneView struct {
	data   []byte
	header SceneHeader
}

// NewSceneView checks that every array named by the header lies inside data
func NewSceneView(data []byte) (*SceneView, error) {
	if len(data) < SceneHeaderSize {
		return nil, ErrTruncated
	}
	h := readSceneHeader(data)

	arrays := []struct {
		count, offset int32
		size          int
	}{
		{h.NumPrimitives, h.PrimitivesOffset, PrimitiveSize},
		{h.NumAreaLights, h.AreaLightsOffset, 4},
		{h.NumPointLights, h.PointLightsOffset, PointLightSize},
		{h.NumBVHNodes, h.BVHOffset, BVHNodeSize},
	}
	for _, a := range arrays {
		if a.count < 0 || a.offset < SceneHeaderSize || int(a.offset)%Alignment != 0 {
			return nil, ErrCorrupt
		}
		if int(a.offset)+int(a.count)*a.size > len(data) {
			return nil, ErrTruncated
		}
	}
	for i := 0; i < int(h.NumAreaLights); i++ {
		if index := Int32At(data[h.AreaLightsOffset:], i); index < 0 || index >= h.NumPrimitives {
			return nil, ErrCorrupt
		}
	}
	return &SceneView{data: data, header: h}, nil
}

// Header returns the scene header
func (v *SceneView) Header() SceneHeader {
	return v.header
}

// Primitive reads primitive i
func (v *SceneView) Primitive(i int) Primitive {
	return readPrimitive(v.data[int(v.header.PrimitivesOffset)+i*PrimitiveSize:])
}

// AreaLight returns the primitive index of area light i
func (v *SceneView) AreaLight(i int) int {
	return int(Int32At(v.data[v.header.AreaLightsOffset:], i))
}

// PointLight reads point light i
func (v *SceneView) PointLight(i int) PointLight {
	return readPointLight(v.data[int(v.header.PointLightsOffset)+i*PointLightSize:])
}

// BVHNode reads hierarchy node i
func (v *SceneView) BVHNode(i int) BVHNode {
	return readBVHNode(v.data[int(v.header.BVHOffset)+i*BVHNodeSize:])
}
