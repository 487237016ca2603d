package core

import (
	"math"
	"math/rand"
)

// Sampler provides sample values in [0, 1) for rendering algorithms.
// Low-discrepancy implementations use the start calls to select which point of
// their sequence subsequent values are drawn from; each Get call advances one
// dimension.
type Sampler interface {
	StartSample(index int)
	StartPixelSample(x, y, sample int)
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator. The start calls are no-ops.
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededRandomSampler creates a sampler with its own deterministic generator
func NewSeededRandomSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// StartSample is a no-op for independent random samples
func (r *RandomSampler) StartSample(index int) {}

// StartPixelSample is a no-op for independent random samples
func (r *RandomSampler) StartPixelSample(x, y, sample int) {}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// SampleCosineHemisphere generates a cosine-weighted direction in the hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	phi := 2 * math.Pi * sample.X
	theta := math.Asin(math.Sqrt(sample.Y))

	basis := NewOrthonormalBasis(normal)
	return basis.LocalToWorld(SphericalDirection(phi, math.Pi/2-theta))
}

// SampleOnUnitSphere generates a uniform direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X // z ∈ [-1, 1]
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SamplePointInUnitDisk maps a square sample to the unit disk using polar coordinates
func SamplePointInUnitDisk(sample Vec2) Vec2 {
	r := math.Sqrt(sample.X)
	phi := 2 * math.Pi * sample.Y
	return NewVec2(r*math.Cos(phi), r*math.Sin(phi))
}
