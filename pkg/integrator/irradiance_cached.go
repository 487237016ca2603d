package integrator

import (
	"math"
	"sync/atomic"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/executor"
	"github.com/df07/go-wavefront-raytracer/pkg/irradiance"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// IrradianceCachedSettings configures the irradiance cache
type IrradianceCachedSettings struct {
	IndirectSamples int     // Hemisphere samples per cache entry
	CacheThreshold  float64 // Acceptance threshold of cached entries
}

// IrradianceCached samples direct light at every intersection and reads
// diffuse indirect light from an irradiance cache filled by a prerender pass
type IrradianceCached struct {
	settings IrradianceCachedSettings
	direct   *Direct
	indirect *UniPath
	cache    *irradiance.Cache
	seed     atomic.Int64
}

// NewIrradianceCached creates a cached lighter with an empty cache
func NewIrradianceCached(settings IrradianceCachedSettings) *IrradianceCached {
	if settings.IndirectSamples < 1 {
		settings.IndirectSamples = 1
	}
	return &IrradianceCached{
		settings: settings,
		direct:   NewDirect(),
		indirect: NewUniPath(),
		cache:    irradiance.New(settings.CacheThreshold),
	}
}

// Cache returns the lighter's irradiance cache
func (l *IrradianceCached) Cache() *irradiance.Cache {
	return l.cache
}

// Light returns direct light plus interpolated indirect diffuse light
func (l *IrradianceCached) Light(isect *scene.Intersection, sampler core.Sampler) core.Vec3 {
	rad := l.direct.Light(isect, sampler)

	surface := isect.Surface()
	if surface.Lambert() > 0 {
		// The cache is only read once the prerender pass has finished
		irad := l.cache.InterpolateUnlocked(isect.Point(), isect.FacingNormal())
		rad = rad.Add(irad.MultiplyVec(isect.Albedo()).Multiply(surface.Lambert() / math.Pi))
	}
	return rad
}

type prerenderLocal struct {
	sampler core.Sampler
}

// PrerenderJobs returns a job that visits every pixel and adds a cache entry
// wherever the primary hit is diffuse and not yet covered by the cache.
// Pixels that received an entry are drawn white on the canvas.
func (l *IrradianceCached) PrerenderJobs(s *scene.Scene, canvas Canvas) []executor.Job {
	width, height := canvas.Width(), canvas.Height()
	job := executor.NewRasterJob(width, height, 1,
		func() *prerenderLocal {
			return &prerenderLocal{sampler: core.NewSeededRandomSampler(l.seed.Add(1))}
		},
		func(x, y, iteration int, local *prerenderLocal) {
			var color core.Vec3
			if l.prerenderPixel(s, x, y, width, height, local.sampler) {
				color = core.Splat(1)
			}
			canvas.SetPixel(x, y, color)
		},
		nil,
	)
	return []executor.Job{job}
}

// prerenderPixel samples the hemisphere above the pixel's primary hit and
// stores the result. It reports whether an entry was added.
func (l *IrradianceCached) prerenderPixel(s *scene.Scene, x, y, width, height int, sampler core.Sampler) bool {
	beam := s.Camera.CreatePixelBeam(core.NewVec2(float64(x), float64(y)), width, height, core.Vec2{})
	isect := s.Intersect(beam, math.Inf(1), true)
	if !isect.Valid() || isect.Surface().Lambert() <= 0 {
		return false
	}

	point := isect.Point()
	normal := isect.FacingNormal()
	if l.cache.Test(point, normal) {
		return false
	}

	basis := core.NewOrthonormalBasis(normal)
	m := int(math.Sqrt(float64(l.settings.IndirectSamples)))
	n := l.settings.IndirectSamples / m

	samples := make([]core.Vec3, m*n)
	distances := make([]float64, m*n)
	var rad core.Vec3
	inverseDistances := 0.0
	hits := 0

	// Stratified cosine-weighted directions: n strata in azimuth, m in elevation
	for k := 0; k < n; k++ {
		for j := 0; j < m; j++ {
			phi := 2 * math.Pi * (float64(k) + sampler.Get1D()) / float64(n)
			elevation := math.Asin(math.Sqrt((float64(j) + sampler.Get1D()) / float64(m)))
			dirIn := basis.LocalToWorld(core.SphericalDirection(phi, elevation))

			idx := k*m + j
			isect2 := s.Intersect(offsetRay(point, normal, dirIn), math.Inf(1), true)
			if !isect2.Valid() {
				distances[idx] = math.Inf(1)
				continue
			}

			inverseDistances += 1 / isect2.Distance()
			hits++

			rad2 := l.indirect.Light(&isect2, sampler).Subtract(isect2.Surface().Radiance)
			samples[idx] = rad2
			distances[idx] = isect2.Distance()
			rad = rad.Add(rad2.Multiply(math.Pi / float64(m*n)))
		}
	}

	if inverseDistances <= 0 {
		return false
	}

	radius := float64(hits) / inverseDistances
	pixelSize := s.Camera.ProjectSize(2/float64(width), isect.Distance())
	minRadius := 3 * pixelSize / l.cache.Threshold()
	maxRadius := 20 * minRadius

	var transGrad, rotGrad irradiance.Gradient
	for k := 0; k < n; k++ {
		k1 := k - 1
		if k1 < 0 {
			k1 = n - 1
		}
		phi := 2 * math.Pi * float64(k) / float64(n)
		u := basis.LocalToWorld(core.SphericalDirection(phi, 0))
		v := basis.LocalToWorld(core.SphericalDirection(phi+math.Pi/2, 0))

		for j := 0; j < m; j++ {
			idx := k*m + j
			thetaMinus := math.Asin(math.Sqrt(float64(j) / float64(m)))
			thetaPlus := math.Asin(math.Sqrt(float64(j+1) / float64(m)))
			cosMinus := math.Cos(thetaMinus)

			if j > 0 {
				c := u.Multiply(math.Sin(thetaMinus) * cosMinus * cosMinus * 2 * math.Pi / (float64(n) * min(distances[idx], distances[idx-1])))
				transGrad = transGrad.Add(irradiance.NewGradient(samples[idx].Subtract(samples[idx-1]), c))
			}

			c := v.Multiply((math.Sin(thetaPlus) - math.Sin(thetaMinus)) / min(distances[idx], distances[k1*m+j]))
			transGrad = transGrad.Add(irradiance.NewGradient(samples[idx].Subtract(samples[k1*m+j]), c))

			rotGrad = rotGrad.Add(irradiance.NewGradient(samples[idx], v).Multiply(math.Tan(thetaMinus) * math.Pi / float64(m*n)))
		}
	}

	if radius < minRadius {
		transGrad = transGrad.Multiply(radius / minRadius)
	}

	l.cache.Add(irradiance.Entry{
		Point:     point,
		Normal:    normal,
		Radius:    min(max(radius, minRadius), maxRadius),
		Radiance:  rad,
		RotGrad:   rotGrad,
		TransGrad: transGrad,
	})
	return true
}
