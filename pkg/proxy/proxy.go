// Package proxy lays out scenes and path state as flat little-endian records
// addressed by byte offset. Records hold no pointers, so the same bytes can
// be read on the host and by device kernels. Three-component vectors take
// 16 bytes, and every array starts on a 16-byte boundary.
package proxy

import (
	"encoding/binary"
	"errors"
	"math"

	"golang.org/x/image/math/f32"
)

// Record sizes in bytes
const (
	VecSize         = 16
	PrimitiveSize   = 112
	PointLightSize  = 32
	CameraSize      = 80
	SceneHeaderSize = 128
	BVHNodeSize     = 32
	SettingsSize    = 16
	ItemSize        = 208

	Alignment = 16
)

var (
	ErrUnsupportedShape  = errors.New("proxy: shape has no proxy form")
	ErrUnsupportedAlbedo = errors.New("proxy: albedo has no proxy form")
	ErrTruncated         = errors.New("proxy: buffer too small")
	ErrCorrupt           = errors.New("proxy: invalid scene header")
)

// align rounds offset up to the next array boundary
func align(offset int) int {
	return (offset + Alignment - 1) / Alignment * Alignment
}

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

func getF32(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func putI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:], uint32(v))
}

func getI32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off:]))
}

func putBool(b []byte, off int, v bool) {
	var i int32
	if v {
		i = 1
	}
	putI32(b, off, i)
}

func getBool(b []byte, off int) bool {
	return getI32(b, off) != 0
}

// putVec writes x, y, z and a zero pad word
func putVec(b []byte, off int, v f32.Vec3) {
	putF32(b, off, v[0])
	putF32(b, off+4, v[1])
	putF32(b, off+8, v[2])
	putF32(b, off+12, 0)
}

func getVec(b []byte, off int) f32.Vec3 {
	return f32.Vec3{getF32(b, off), getF32(b, off+4), getF32(b, off+8)}
}

// Int32At reads element i of an int32 array
func Int32At(b []byte, i int) int32 {
	return getI32(b, i*4)
}

// PutInt32 writes element i of an int32 array
func PutInt32(b []byte, i int, v int32) {
	putI32(b, i*4, v)
}

// Float32At reads element i of a float32 array
func Float32At(b []byte, i int) float32 {
	return getF32(b, i*4)
}

// PutFloat32 writes element i of a float32 array
func PutFloat32(b []byte, i int, v float32) {
	putF32(b, i*4, v)
}
