package material

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// OrenNayar represents a rough diffuse lobe using the qualitative A/B model
type OrenNayar struct {
	Strength  float64
	Roughness float64 // Standard deviation of facet slope angles, in radians
}

// NewOrenNayar creates a new Oren-Nayar lobe
func NewOrenNayar(strength, roughness float64) *OrenNayar {
	return &OrenNayar{Strength: strength, Roughness: roughness}
}

// Reflected evaluates the Oren-Nayar approximation
func (o *OrenNayar) Reflected(dirIn, normal, dirOut, albedo core.Vec3) core.Vec3 {
	cosThetaI := dirIn.Dot(normal)
	sinThetaI := math.Sqrt(max(0, 1-cosThetaI*cosThetaI))
	tanThetaI := sinThetaI / cosThetaI

	cosThetaR := dirOut.Dot(normal)
	sinThetaR := math.Sqrt(max(0, 1-cosThetaR*cosThetaR))
	tanThetaR := sinThetaR / cosThetaR

	// Cosine of the azimuth between the two directions
	cosPhi := 1.0
	if sinThetaI >= 0.001 && sinThetaR >= 0.001 {
		projectedIn := dirIn.Subtract(normal.Multiply(cosThetaI)).Divide(sinThetaI)
		projectedOut := dirOut.Subtract(normal.Multiply(cosThetaR)).Divide(sinThetaR)
		cosPhi = projectedIn.Dot(projectedOut)
	}

	sigma2 := o.Roughness * o.Roughness
	a := 1 - 0.5*sigma2/(sigma2+0.33)
	b := 0.45 * sigma2 / (sigma2 + 0.09)

	sinAlpha := max(sinThetaI, sinThetaR)
	tanBeta := min(tanThetaI, tanThetaR)

	return albedo.Multiply(o.Strength * (a + b*max(cosPhi, 0)*sinAlpha*tanBeta) / math.Pi)
}

// Transmitted is zero
func (o *OrenNayar) Transmitted(dirIn, normal, albedo core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// Lambert returns the diffuse strength
func (o *OrenNayar) Lambert() float64 {
	return o.Strength
}

// Opaque returns true
func (o *OrenNayar) Opaque() bool {
	return true
}

// Sample generates a cosine-weighted direction around the normal
func (o *OrenNayar) Sample(sampler core.Sampler, normal, dirOut core.Vec3) core.Vec3 {
	return core.SampleCosineHemisphere(normal, sampler.Get2D())
}

// Pdf is cos(θ) / π
func (o *OrenNayar) Pdf(dirIn, normal, dirOut core.Vec3) float64 {
	return max(dirIn.Dot(normal), 0) / math.Pi
}
