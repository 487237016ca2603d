package proxy

import (
	"golang.org/x/image/math/f32"
)

// Stage names the pipeline stage an item goes to next
type Stage int32

const (
	StageGenerate Stage = iota
	StageIntersect
	StageAreaLight
	StagePointLight
	StageExtend
	StageCommit
	StageRetired // The item has no more samples to take
	NumStages
)

func (s Stage) String() string {
	switch s {
	case StageGenerate:
		return "generate"
	case StageIntersect:
		return "intersect"
	case StageAreaLight:
		return "area light"
	case StagePointLight:
		return "point light"
	case StageExtend:
		return "extend"
	case StageCommit:
		return "commit"
	case StageRetired:
		return "retired"
	}
	return "unknown"
}

// Item is the state of one path sample between pipeline stages.
// PrimitiveIndex is -1 when the last beam missed the scene.
//
//	0   ray origin, ray direction
//	32  origin differential u, v
//	64  direction differential u, v
//	96  distance float32, primitive index int32, pad
//	112 facing normal
//	128 hit point
//	144 generation, light index int32, pdf float32, delta bounce int32
//	160 throughput
//	176 radiance
//	192 x, y, next stage int32, pad
type Item struct {
	Origin                f32.Vec3
	Direction             f32.Vec3
	OriginDifferential    [2]f32.Vec3
	DirectionDifferential [2]f32.Vec3

	Distance       float32
	PrimitiveIndex int32
	FacingNormal   f32.Vec3
	Point          f32.Vec3

	Generation  int32
	LightIndex  int32
	Pdf         float32
	DeltaBounce bool

	Throughput f32.Vec3
	Radiance   f32.Vec3

	X, Y int32
	Next Stage
}

func (it *Item) put(b []byte) {
	putVec(b, 0, it.Origin)
	putVec(b, 16, it.Direction)
	putVec(b, 32, it.OriginDifferential[0])
	putVec(b, 48, it.OriginDifferential[1])
	putVec(b, 64, it.DirectionDifferential[0])
	putVec(b, 80, it.DirectionDifferential[1])
	putF32(b, 96, it.Distance)
	putI32(b, 100, it.PrimitiveIndex)
	putI32(b, 104, 0)
	putI32(b, 108, 0)
	putVec(b, 112, it.FacingNormal)
	putVec(b, 128, it.Point)
	putI32(b, 144, it.Generation)
	putI32(b, 148, it.LightIndex)
	putF32(b, 152, it.Pdf)
	putBool(b, 156, it.DeltaBounce)
	putVec(b, 160, it.Throughput)
	putVec(b, 176, it.Radiance)
	putI32(b, 192, it.X)
	putI32(b, 196, it.Y)
	putI32(b, 200, int32(it.Next))
	putI32(b, 204, 0)
}

func (it *Item) read(b []byte) {
	it.Origin = getVec(b, 0)
	it.Direction = getVec(b, 16)
	it.OriginDifferential = [2]f32.Vec3{getVec(b, 32), getVec(b, 48)}
	it.DirectionDifferential = [2]f32.Vec3{getVec(b, 64), getVec(b, 80)}
	it.Distance = getF32(b, 96)
	it.PrimitiveIndex = getI32(b, 100)
	it.FacingNormal = getVec(b, 112)
	it.Point = getVec(b, 128)
	it.Generation = getI32(b, 144)
	it.LightIndex = getI32(b, 148)
	it.Pdf = getF32(b, 152)
	it.DeltaBounce = getBool(b, 156)
	it.Throughput = getVec(b, 160)
	it.Radiance = getVec(b, 176)
	it.X = getI32(b, 192)
	it.Y = getI32(b, 196)
	it.Next = Stage(getI32(b, 200))
}

// ItemBuffer is an array of item records over shared memory
type ItemBuffer struct {
	data []byte
}

// NewItemBuffer wraps memory holding whole item records
func NewItemBuffer(data []byte) ItemBuffer {
	return ItemBuffer{data: data}
}

// ItemBufferSize is the number of bytes n items take
func ItemBufferSize(n int) int {
	return n * ItemSize
}

// Len returns the number of items in the buffer
func (ib ItemBuffer) Len() int {
	return len(ib.data) / ItemSize
}

// Item reads item i
func (ib ItemBuffer) Item(i int) Item {
	var it Item
	it.read(ib.data[i*ItemSize:])
	return it
}

// ReadItem reads item i into it without allocating
func (ib ItemBuffer) ReadItem(i int, it *Item) {
	it.read(ib.data[i*ItemSize:])
}

// SetItem writes item i
func (ib ItemBuffer) SetItem(i int, it *Item) {
	it.put(ib.data[i*ItemSize : (i+1)*ItemSize])
}

// Next reads the stage item i goes to without decoding the rest of it
func (ib ItemBuffer) Next(i int) Stage {
	return Stage(getI32(ib.data, i*ItemSize+200))
}

// SetPixel assigns item i to a pixel and sends it to the generate kernel
func (ib ItemBuffer) SetPixel(i int, x, y int32) {
	off := i * ItemSize
	putI32(ib.data, off+192, x)
	putI32(ib.data, off+196, y)
	putI32(ib.data, off+200, int32(StageGenerate))
}
