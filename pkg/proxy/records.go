package proxy

import (
	"golang.org/x/image/math/f32"
)

// ShapeType tags the shape held by a primitive record
type ShapeType int32

const (
	ShapeNone ShapeType = iota
	ShapeQuad
	ShapeSphere
)

// Primitive is a shape with a diffuse, possibly emissive surface.
// Quads use Position as a corner with Side1, Side2 and the unit Normal;
// spheres use Position as the center and Radius.
//
//	0   type int32, radius float32, pad
//	16  position
//	32  side1
//	48  side2
//	64  normal
//	80  radiance
//	96  albedo
type Primitive struct {
	Type     ShapeType
	Position f32.Vec3
	Side1    f32.Vec3
	Side2    f32.Vec3
	Normal   f32.Vec3
	Radius   float32
	Radiance f32.Vec3
	Albedo   f32.Vec3 // Diffuse reflectance with the lambert weight applied
}

func (p Primitive) put(b []byte) {
	clear(b[:PrimitiveSize])
	putI32(b, 0, int32(p.Type))
	putF32(b, 4, p.Radius)
	putVec(b, 16, p.Position)
	putVec(b, 32, p.Side1)
	putVec(b, 48, p.Side2)
	putVec(b, 64, p.Normal)
	putVec(b, 80, p.Radiance)
	putVec(b, 96, p.Albedo)
}

func readPrimitive(b []byte) Primitive {
	return Primitive{
		Type:     ShapeType(getI32(b, 0)),
		Radius:   getF32(b, 4),
		Position: getVec(b, 16),
		Side1:    getVec(b, 32),
		Side2:    getVec(b, 48),
		Normal:   getVec(b, 64),
		Radiance: getVec(b, 80),
		Albedo:   getVec(b, 96),
	}
}

// PointLight is an isotropic point emitter
type PointLight struct {
	Position f32.Vec3
	Radiance f32.Vec3
}

func (l PointLight) put(b []byte) {
	putVec(b, 0, l.Position)
	putVec(b, 16, l.Radiance)
}

func readPointLight(b []byte) PointLight {
	return PointLight{Position: getVec(b, 0), Radiance: getVec(b, 16)}
}

// Camera is a thin lens camera
//
//	0   position
//	16  direction
//	32  image plane u
//	48  image plane v
//	64  image size, focal length, aperture float32, pad
type Camera struct {
	Position    f32.Vec3
	Direction   f32.Vec3
	ImageU      f32.Vec3
	ImageV      f32.Vec3
	ImageSize   float32
	FocalLength float32
	Aperture    float32
}

func (c Camera) put(b []byte) {
	putVec(b, 0, c.Position)
	putVec(b, 16, c.Direction)
	putVec(b, 32, c.ImageU)
	putVec(b, 48, c.ImageV)
	putF32(b, 64, c.ImageSize)
	putF32(b, 68, c.FocalLength)
	putF32(b, 72, c.Aperture)
	putF32(b, 76, 0)
}

func readCamera(b []byte) Camera {
	return Camera{
		Position:    getVec(b, 0),
		Direction:   getVec(b, 16),
		ImageU:      getVec(b, 32),
		ImageV:      getVec(b, 48),
		ImageSize:   getF32(b, 64),
		FocalLength: getF32(b, 68),
		Aperture:    getF32(b, 72),
	}
}

// SceneHeader starts every encoded scene. Offsets are in bytes from the
// start of the buffer.
//
//	0   counts and offsets, 8 int32
//	32  sky radiance
//	48  camera
type SceneHeader struct {
	NumPrimitives     int32
	PrimitivesOffset  int32
	NumAreaLights     int32
	AreaLightsOffset  int32
	NumPointLights    int32
	PointLightsOffset int32
	NumBVHNodes       int32
	BVHOffset         int32
	SkyRadiance       f32.Vec3
	Camera            Camera
}

func (h SceneHeader) put(b []byte) {
	putI32(b, 0, h.NumPrimitives)
	putI32(b, 4, h.PrimitivesOffset)
	putI32(b, 8, h.NumAreaLights)
	putI32(b, 12, h.AreaLightsOffset)
	putI32(b, 16, h.NumPointLights)
	putI32(b, 20, h.PointLightsOffset)
	putI32(b, 24, h.NumBVHNodes)
	putI32(b, 28, h.BVHOffset)
	putVec(b, 32, h.SkyRadiance)
	h.Camera.put(b[48:])
}

func readSceneHeader(b []byte) SceneHeader {
	return SceneHeader{
		NumPrimitives:     getI32(b, 0),
		PrimitivesOffset:  getI32(b, 4),
		NumAreaLights:     getI32(b, 8),
		AreaLightsOffset:  getI32(b, 12),
		NumPointLights:    getI32(b, 16),
		PointLightsOffset: getI32(b, 20),
		NumBVHNodes:       getI32(b, 24),
		BVHOffset:         getI32(b, 28),
		SkyRadiance:       getVec(b, 32),
		Camera:            readCamera(b[48:]),
	}
}

// BVHNode is a node of the flattened hierarchy. An internal node's first
// child follows it and its second child is at Index; a leaf holds primitive
// -Index.
//
//	0   min xyz, index int32
//	16  max xyz, pad
type BVHNode struct {
	Min   f32.Vec3
	Max   f32.Vec3
	Index int32
}

// IsLeaf reports whether the node refers to a primitive
func (n BVHNode) IsLeaf() bool {
	return n.Index <= 0
}

func (n BVHNode) put(b []byte) {
	putVec(b, 0, n.Min)
	putI32(b, 12, n.Index)
	putVec(b, 16, n.Max)
}

func readBVHNode(b []byte) BVHNode {
	return BVHNode{Min: getVec(b, 0), Index: getI32(b, 12), Max: getVec(b, 16)}
}

// Settings describes the image being rendered
type Settings struct {
	Width   int32
	Height  int32
	Samples int32
}

// Encode returns the settings record
func (s Settings) Encode() []byte {
	b := make([]byte, SettingsSize)
	s.Put(b)
	return b
}

// Put writes the settings record into b
func (s Settings) Put(b []byte) {
	putI32(b, 0, s.Width)
	putI32(b, 4, s.Height)
	putI32(b, 8, s.Samples)
	putI32(b, 12, 0)
}

// DecodeSettings reads a settings record
func DecodeSettings(b []byte) (Settings, error) {
	if len(b) < SettingsSize {
		return Settings{}, ErrTruncated
	}
	return Settings{Width: getI32(b, 0), Height: getI32(b, 4), Samples: getI32(b, 8)}, nil
}
