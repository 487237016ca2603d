package material

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Lambert represents a perfectly diffuse lobe
type Lambert struct {
	Strength float64
}

// NewLambert creates a new lambert lobe
func NewLambert(strength float64) *Lambert {
	return &Lambert{Strength: strength}
}

// Reflected is constant: albedo * strength / π
func (l *Lambert) Reflected(dirIn, normal, dirOut, albedo core.Vec3) core.Vec3 {
	return albedo.Multiply(l.Strength / math.Pi)
}

// Transmitted is zero; nothing passes below a diffuse lobe
func (l *Lambert) Transmitted(dirIn, normal, albedo core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// Lambert returns the diffuse strength
func (l *Lambert) Lambert() float64 {
	return l.Strength
}

// Opaque returns true
func (l *Lambert) Opaque() bool {
	return true
}

// Sample generates a cosine-weighted direction around the normal
func (l *Lambert) Sample(sampler core.Sampler, normal, dirOut core.Vec3) core.Vec3 {
	return core.SampleCosineHemisphere(normal, sampler.Get2D())
}

// Pdf is cos(θ) / π
func (l *Lambert) Pdf(dirIn, normal, dirOut core.Vec3) float64 {
	return max(dirIn.Dot(normal), 0) / math.Pi
}
