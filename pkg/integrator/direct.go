package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// Direct lights intersections with their own emission plus one bounce of
// light sampled straight from the scene's emitters
type Direct struct{}

// NewDirect creates a direct lighter
func NewDirect() *Direct {
	return &Direct{}
}

// Light returns emitted plus directly reflected radiance
func (d *Direct) Light(isect *scene.Intersection, sampler core.Sampler) core.Vec3 {
	rad := isect.Surface().Radiance
	return rad.Add(directLight(isect, isect.Shading(), sampler, false))
}
