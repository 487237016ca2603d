package material

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Phong represents a glossy lobe around the mirror direction
type Phong struct {
	Strength float64
	Power    float64 // Specular exponent; larger is shinier
}

// NewPhong creates a new phong lobe
func NewPhong(strength, power float64) *Phong {
	return &Phong{Strength: strength, Power: power}
}

func (p *Phong) lobe(dirIn, normal, dirOut core.Vec3) float64 {
	dot := dirIn.Reflect(normal).Dot(dirOut)
	if dot <= 0 {
		return 0
	}
	return math.Pow(dot, p.Power) * (p.Power + 1) / (2 * math.Pi)
}

// Reflected returns the normalized phong lobe, independent of the albedo
func (p *Phong) Reflected(dirIn, normal, dirOut, albedo core.Vec3) core.Vec3 {
	return core.Splat(p.Strength * p.lobe(dirIn, normal, dirOut))
}

// Transmitted passes whatever the lobe does not reflect
func (p *Phong) Transmitted(dirIn, normal, albedo core.Vec3) core.Vec3 {
	return core.Splat(1 - p.Strength)
}

// Lambert returns the lobe strength
func (p *Phong) Lambert() float64 {
	return p.Strength
}

// Opaque returns true
func (p *Phong) Opaque() bool {
	return true
}

// Sample draws a direction around dirOut distributed as cos^power and mirrors it about the normal
func (p *Phong) Sample(sampler core.Sampler, normal, dirOut core.Vec3) core.Vec3 {
	sample := sampler.Get2D()
	phi := 2 * math.Pi * sample.X
	theta := math.Acos(math.Pow(sample.Y, 1/(p.Power+1)))

	basis := core.NewOrthonormalBasis(dirOut)
	dirReflect := basis.LocalToWorld(core.SphericalDirection(phi, math.Pi/2-theta))
	return dirReflect.Reflect(normal)
}

// Pdf returns the lobe density, clamped to MaxPdf
func (p *Phong) Pdf(dirIn, normal, dirOut core.Vec3) float64 {
	return min(p.lobe(dirIn, normal, dirOut), MaxPdf)
}
