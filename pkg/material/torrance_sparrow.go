package material

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// TorranceSparrow represents a microfacet specular lobe with a Beckmann
// distribution and Schlick fresnel
type TorranceSparrow struct {
	Strength  float64
	Roughness float64 // Beckmann RMS slope
	Ior       float64 // Index of refraction used for the fresnel term
}

// NewTorranceSparrow creates a new Torrance-Sparrow lobe
func NewTorranceSparrow(strength, roughness, ior float64) *TorranceSparrow {
	return &TorranceSparrow{Strength: strength, Roughness: roughness, Ior: ior}
}

func (t *TorranceSparrow) beckmann(cosTheta float64) float64 {
	if cosTheta <= 0 {
		return 0
	}
	cos2 := cosTheta * cosTheta
	tan2 := (1 - cos2) / cos2
	m2 := t.Roughness * t.Roughness
	return math.Exp(-tan2/m2) / (math.Pi * m2 * cos2 * cos2)
}

func (t *TorranceSparrow) fresnel(cosTheta float64) float64 {
	r0 := (1 - t.Ior) / (1 + t.Ior)
	r0 *= r0
	return r0 + (1-r0)*math.Pow(1-cosTheta, 5)
}

// Reflected evaluates D*F*G / (4 cosθi cosθo)
func (t *TorranceSparrow) Reflected(dirIn, normal, dirOut, albedo core.Vec3) core.Vec3 {
	half := dirIn.Add(dirOut).Normalize()
	hn := min(half.Dot(normal), 1)

	d := t.beckmann(hn)
	f := t.fresnel(dirIn.Dot(normal))

	vh := half.Dot(dirOut)
	vn := normal.Dot(dirOut)
	ln := normal.Dot(dirIn)
	if vn <= 0 || ln <= 0 || vh <= 0 {
		return core.Vec3{}
	}
	g := min(1, 2*hn*vn/vh, 2*hn*ln/vh)

	return core.Splat(t.Strength * d * f * g / (4 * vn * ln))
}

// Transmitted passes the light not reflected by the fresnel term
func (t *TorranceSparrow) Transmitted(dirIn, normal, albedo core.Vec3) core.Vec3 {
	return core.Splat(1 - t.Strength*t.fresnel(dirIn.Dot(normal)))
}

// Lambert returns 0; the lobe has no diffuse part
func (t *TorranceSparrow) Lambert() float64 {
	return 0
}

// Opaque returns false so light can refract through a glossy coating
func (t *TorranceSparrow) Opaque() bool {
	return false
}

// Sample draws a microfacet normal from the Beckmann distribution and mirrors dirOut about it
func (t *TorranceSparrow) Sample(sampler core.Sampler, normal, dirOut core.Vec3) core.Vec3 {
	sample := sampler.Get2D()
	phi := 2 * math.Pi * sample.X
	tanTheta := math.Sqrt(-t.Roughness * t.Roughness * math.Log(1-sample.Y))
	theta := math.Atan(tanTheta)

	basis := core.NewOrthonormalBasis(normal)
	axis := basis.LocalToWorld(core.SphericalDirection(phi, math.Pi/2-theta))
	return dirOut.Reflect(axis)
}

// Pdf returns the half-vector density converted to the incident direction, clamped to MaxPdf
func (t *TorranceSparrow) Pdf(dirIn, normal, dirOut core.Vec3) float64 {
	axis := dirIn.Add(dirOut).Normalize()
	den := 4 * dirOut.Dot(axis)
	if den <= 0 {
		return 0
	}
	return min(t.beckmann(axis.Dot(normal))/den, MaxPdf)
}
