package material

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Surface is the material of a primitive: a stack of BRDF lobes over an albedo,
// optionally emissive, optionally refractive, optionally normal mapped.
// Lobes are layered in order; each lobe sees only the light transmitted through
// the lobes above it.
type Surface struct {
	Albedo      Albedo
	Brdfs       []Brdf
	TransmitIor float64    // Index of refraction for light passing through non-opaque surfaces
	Radiance    core.Vec3  // Emitted radiance
	NormalMap   *NormalMap // Optional

	lambert float64
	opaque  bool
}

// SurfaceSample is the result of sampling an incident direction from a surface
type SurfaceSample struct {
	Reflected core.Vec3 // Reflectance along Direction, already divided by the selection probability
	Direction core.Vec3 // Sampled incident direction
	Pdf       float64   // Solid-angle density; 1 for delta (refracted) samples
	Delta     bool      // The sample came from a delta distribution
}

// NewSurface creates a surface. A transmitIor of 0 defaults to 1.
func NewSurface(albedo Albedo, brdfs []Brdf, transmitIor float64, radiance core.Vec3, normalMap *NormalMap) *Surface {
	if transmitIor == 0 {
		transmitIor = 1
	}
	s := &Surface{
		Albedo:      albedo,
		Brdfs:       brdfs,
		TransmitIor: transmitIor,
		Radiance:    radiance,
		NormalMap:   normalMap,
	}

	for _, brdf := range brdfs {
		if brdf.Opaque() {
			s.opaque = true
		}
		if brdf.Lambert() > 0 {
			s.lambert = brdf.Lambert()
		}
	}
	return s
}

// NewDiffuseSurface creates a lambertian surface with a solid albedo
func NewDiffuseSurface(albedo core.Vec3) *Surface {
	return NewSurface(NewSolidColor(albedo), []Brdf{NewLambert(1)}, 1, core.Vec3{}, nil)
}

// NewEmissiveSurface creates a diffuse black surface emitting the given radiance
func NewEmissiveSurface(radiance core.Vec3) *Surface {
	return NewSurface(NewSolidColor(core.Vec3{}), []Brdf{NewLambert(1)}, 1, radiance, nil)
}

// Lambert returns the diffuse strength of the last diffuse lobe
func (s *Surface) Lambert() float64 {
	return s.lambert
}

// Opaque reports whether any lobe blocks refraction
func (s *Surface) Opaque() bool {
	return s.opaque
}

// IsEmissive reports whether the surface emits light
func (s *Surface) IsEmissive() bool {
	return !s.Radiance.IsZero()
}

// Reflected returns the layered reflectance for light arriving from dirIn
func (s *Surface) Reflected(shading Shading, dirIn core.Vec3) core.Vec3 {
	var color core.Vec3
	transmit := core.Splat(1)

	for _, brdf := range s.Brdfs {
		color = color.Add(transmit.MultiplyVec(brdf.Reflected(dirIn, shading.FacingNormal, shading.DirOut, shading.Albedo)))
		transmit = transmit.MultiplyVec(brdf.Transmitted(dirIn, shading.FacingNormal, shading.Albedo))
	}
	return color
}

// Transmitted returns the fraction of light passing through every lobe along dirIn
func (s *Surface) Transmitted(shading Shading, dirIn core.Vec3) core.Vec3 {
	transmit := core.Splat(1)
	backNormal := shading.FacingNormal.Negate()

	for _, brdf := range s.Brdfs {
		transmit = transmit.MultiplyVec(brdf.Transmitted(dirIn, backNormal, shading.Albedo))
	}
	return transmit
}

// Pdf returns the density of Sample choosing dirIn through one of the lobes
func (s *Surface) Pdf(shading Shading, dirIn core.Vec3) float64 {
	if len(s.Brdfs) == 0 {
		return 0
	}

	total := 0.0
	for _, brdf := range s.Brdfs {
		total += brdf.Pdf(dirIn, shading.FacingNormal, shading.DirOut)
	}
	return total / float64(len(s.Brdfs))
}

// Sample draws an incident direction. Non-opaque surfaces first choose, by
// roulette on their transmittance, between refracting through the surface and
// reflecting off one of the lobes. Total internal reflection always reflects.
func (s *Surface) Sample(shading Shading, sampler core.Sampler) SurfaceSample {
	dirOut := shading.DirOut
	facing := shading.FacingNormal

	transmitThreshold := 0.0
	if !s.opaque {
		ratio := 1 / s.TransmitIor
		if shading.Normal.Dot(dirOut) < 0 {
			ratio = 1 / ratio
		}

		c1 := dirOut.Dot(facing)
		k := 1 - ratio*ratio*(1-c1*c1)
		if k >= 0 {
			c2 := math.Sqrt(k)
			dirIn := facing.Multiply(ratio*c1 - c2).Subtract(dirOut.Multiply(ratio))

			transmitThreshold = min(1, s.Transmitted(shading, dirOut.Negate()).MaxComponent())
			if sampler.Get1D() < transmitThreshold {
				return SurfaceSample{
					Reflected: s.Transmitted(shading, dirIn).Divide(c1 * transmitThreshold),
					Direction: dirIn,
					Pdf:       1,
					Delta:     true,
				}
			}
		}
	}

	if len(s.Brdfs) == 0 || transmitThreshold >= 1 {
		return SurfaceSample{}
	}

	idx := 0
	if len(s.Brdfs) > 1 {
		idx = min(int(math.Floor(float64(len(s.Brdfs))*sampler.Get1D())), len(s.Brdfs)-1)
	}

	dirIn := s.Brdfs[idx].Sample(sampler, facing, dirOut)
	return SurfaceSample{
		Reflected: s.Reflected(shading, dirIn).Divide(1 - transmitThreshold),
		Direction: dirIn,
		Pdf:       s.Pdf(shading, dirIn),
	}
}
