package material

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// MaxPdf caps directional densities of peaked lobes to avoid fireflies
const MaxPdf = 1000.0

// Brdf is one reflectance lobe of a surface. Directions point away from the
// surface and the normal faces the outgoing direction.
type Brdf interface {
	// Reflected returns the reflectance for light arriving from dirIn and leaving toward dirOut
	Reflected(dirIn, normal, dirOut, albedo core.Vec3) core.Vec3

	// Transmitted returns the fraction of light passing through this lobe to the ones below it
	Transmitted(dirIn, normal, albedo core.Vec3) core.Vec3

	// Lambert returns the diffuse strength of the lobe, 0 for lobes with no diffuse part
	Lambert() float64

	// Opaque reports whether the lobe blocks refraction through the surface
	Opaque() bool

	// Sample draws an incident direction for the given outgoing direction
	Sample(sampler core.Sampler, normal, dirOut core.Vec3) core.Vec3

	// Pdf returns the solid-angle density of Sample
	Pdf(dirIn, normal, dirOut core.Vec3) float64
}

// Albedo provides spatially-varying base color
type Albedo interface {
	// Color returns the albedo at a surface point, filtered over the footprint projection
	Color(surfacePoint core.Vec2, projection core.Bivec2) core.Vec3
}

// Shading holds the local quantities a surface needs at an intersection
type Shading struct {
	Normal       core.Vec3 // Shading normal, possibly perturbed by a normal map
	FacingNormal core.Vec3 // Shading normal flipped toward DirOut
	DirOut       core.Vec3 // Unit direction back toward the ray origin
	Albedo       core.Vec3 // Albedo at the hit
}
