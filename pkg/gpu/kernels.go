package gpu

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/proxy"
)

const surfaceOffset = float32(integrator.SurfaceOffset)

// kernelEnv is the decoded argument set of one dispatch
type kernelEnv struct {
	scene    *proxy.SceneView
	header   proxy.SceneHeader
	settings proxy.Settings
	items    proxy.ItemBuffer
	random   []byte
	keys     []byte
}

// kernelFunc runs one invocation on the item with the given key
type kernelFunc func(env *kernelEnv, key int, item *proxy.Item)

var kernels = map[Kernel]kernelFunc{
	KernelGenerateCameraRays: generateCameraRays,
	KernelIntersectRays:      intersectRays,
	KernelDirectLightArea:    directLightArea,
	KernelDirectLightPoint:   directLightPoint,
	KernelExtendPath:         extendPath,
}

func (e *kernelEnv) random1(key, slot int) float32 {
	return proxy.Float32At(e.random, key*RandomsPerItem+slot)
}

func (e *kernelEnv) numLights() int {
	return int(e.header.NumAreaLights + e.header.NumPointLights)
}

func generateCameraRays(env *kernelEnv, key int, item *proxy.Item) {
	c := &env.header.Camera
	w := float32(env.settings.Width)
	h := float32(env.settings.Height)

	ix := float32(item.X) + env.random1(key, 0)
	iy := float32(item.Y) + env.random1(key, 1)
	px := (2*ix - w) / w
	py := -(2*iy - h) / w

	direction := add(c.Direction, scale(add(scale(c.ImageU, px), scale(c.ImageV, py)), c.ImageSize))
	l := length(direction)
	direction = scale(direction, 1/l)
	focus := add(c.Position, scale(direction, c.FocalLength))

	r := math32.Sqrt(env.random1(key, 2))
	phi := 2 * math32.Pi * env.random1(key, 3)
	lens := add(scale(c.ImageU, r*math32.Cos(phi)), scale(c.ImageV, r*math32.Sin(phi)))
	origin := add(c.Position, scale(lens, c.Aperture))

	differential := c.ImageSize / l * 2 / w
	*item = proxy.Item{
		Origin:                origin,
		Direction:             normalize(sub(focus, origin)),
		DirectionDifferential: [2]f32.Vec3{scale(c.ImageU, differential), scale(c.ImageV, differential)},
		PrimitiveIndex:        -1,
		Throughput:            f32.Vec3{1, 1, 1},
		X:                     item.X,
		Y:                     item.Y,
		Next:                  proxy.StageIntersect,
	}
}

// samplePdf is the area density of sampling a point on p
func samplePdf(p *proxy.Primitive) float32 {
	switch p.Type {
	case proxy.ShapeQuad:
		if area := length(cross(p.Side1, p.Side2)); area > 0 {
			return 1 / area
		}
	case proxy.ShapeSphere:
		if p.Radius > 0 {
			return 1 / (4 * math32.Pi * p.Radius * p.Radius)
		}
	}
	return 0
}

// samplePrimitive draws a uniform point on p from two random numbers
func samplePrimitive(p *proxy.Primitive, u, v float32) (point, normal f32.Vec3, pdf float32, ok bool) {
	pdf = samplePdf(p)
	if pdf <= 0 {
		return f32.Vec3{}, f32.Vec3{}, 0, false
	}
	switch p.Type {
	case proxy.ShapeQuad:
		return add(p.Position, add(scale(p.Side1, u), scale(p.Side2, v))), p.Normal, pdf, true
	case proxy.ShapeSphere:
		z := 1 - 2*u
		r := math32.Sqrt(math32.Max(0, 1-z*z))
		phi := 2 * math32.Pi * v
		normal = f32.Vec3{r * math32.Cos(phi), r * math32.Sin(phi), z}
		return add(p.Position, scale(normal, p.Radius)), normal, pdf, true
	}
	return f32.Vec3{}, f32.Vec3{}, 0, false
}

// intersectRays finds the item's next vertex, adds the emission seen there
// and picks a light to sample
func intersectRays(env *kernelEnv, key int, item *proxy.Item) {
	h, ok := trace(env.scene, item.Origin, item.Direction, math32.Inf(1), true)
	if !ok {
		item.PrimitiveIndex = -1
		item.Radiance = add(item.Radiance, mul(item.Throughput, env.header.SkyRadiance))
		item.Next = proxy.StageCommit
		return
	}

	facing := h.normal
	if dot(facing, item.Direction) > 0 {
		facing = scale(facing, -1)
	}
	item.Distance = h.distance
	item.PrimitiveIndex = int32(h.primitive)
	item.FacingNormal = facing
	item.Point = add(item.Origin, scale(item.Direction, h.distance))

	lights := env.numLights()
	p := env.scene.Primitive(h.primitive)
	if !isZero(p.Radiance) {
		weight := float32(1)
		if item.Generation > 0 && !item.DeltaBounce {
			dot2 := -dot(facing, item.Direction)
			pdfArea := item.Pdf * dot2 / (h.distance * h.distance)
			pdfLight := samplePdf(&p) / float32(lights)
			if denominator := pdfArea*pdfArea + pdfLight*pdfLight; denominator > 0 {
				weight = pdfArea * pdfArea / denominator
			}
		}
		item.Radiance = add(item.Radiance, scale(mul(item.Throughput, p.Radiance), weight))
	}

	switch {
	case item.Generation >= integrator.MaxGenerations:
		item.Next = proxy.StageCommit
	case lights == 0:
		item.Next = proxy.StageExtend
	default:
		index := min(int(env.random1(key, 0)*float32(lights)), lights-1)
		if index < int(env.header.NumAreaLights) {
			item.LightIndex = int32(index)
			item.Next = proxy.StageAreaLight
		} else {
			item.LightIndex = int32(index - int(env.header.NumAreaLights))
			item.Next = proxy.StagePointLight
		}
	}
}

// directLightArea samples the chosen area light with a shadow ray,
// weighted against bounce sampling
func directLightArea(env *kernelEnv, key int, item *proxy.Item) {
	item.Next = proxy.StageExtend

	surface := env.scene.Primitive(int(item.PrimitiveIndex))
	lightIndex := env.scene.AreaLight(int(item.LightIndex))
	light := env.scene.Primitive(lightIndex)
	origin := add(item.Point, scale(item.FacingNormal, surfaceOffset))

	point, normal, pdf, ok := samplePrimitive(&light, env.random1(key, 0), env.random1(key, 1))
	if !ok {
		return
	}
	pdf /= float32(env.numLights())

	dirIn := sub(point, origin)
	d := length(dirIn)
	if d == 0 {
		return
	}
	dirIn = scale(dirIn, 1/d)
	cos := dot(dirIn, item.FacingNormal)
	if cos <= 0 {
		return
	}

	shadow, ok := trace(env.scene, origin, dirIn, math32.Inf(1), true)
	if !ok || shadow.primitive != lightIndex {
		return
	}

	dot2 := math32.Abs(dot(dirIn, normal))
	irradiance := scale(light.Radiance, dot2*cos/(d*d))
	reflected := scale(surface.Albedo, 1/math32.Pi)
	pdfBrdf := cos / math32.Pi * dot2 / (d * d)
	weight := pdf * pdf / (pdf*pdf + pdfBrdf*pdfBrdf)
	item.Radiance = add(item.Radiance, scale(mul(item.Throughput, mul(irradiance, reflected)), weight/pdf))
}

// directLightPoint adds the chosen point light if nothing blocks it
func directLightPoint(env *kernelEnv, key int, item *proxy.Item) {
	item.Next = proxy.StageExtend

	surface := env.scene.Primitive(int(item.PrimitiveIndex))
	light := env.scene.PointLight(int(item.LightIndex))
	origin := add(item.Point, scale(item.FacingNormal, surfaceOffset))

	dirIn := sub(light.Position, origin)
	d := length(dirIn)
	if d == 0 {
		return
	}
	dirIn = scale(dirIn, 1/d)
	cos := dot(dirIn, item.FacingNormal)
	if cos <= 0 {
		return
	}
	if _, blocked := trace(env.scene, origin, dirIn, d, false); blocked {
		return
	}

	irradiance := scale(light.Radiance, cos/(d*d)*float32(env.numLights()))
	reflected := scale(surface.Albedo, 1/math32.Pi)
	item.Radiance = add(item.Radiance, mul(item.Throughput, mul(irradiance, reflected)))
}

// extendPath bounces the path off the diffuse surface, ending it by Russian
// roulette after the first bounce
func extendPath(env *kernelEnv, key int, item *proxy.Item) {
	surface := env.scene.Primitive(int(item.PrimitiveIndex))
	n := item.FacingNormal

	u, v := env.random1(key, 0), env.random1(key, 1)
	r := math32.Sqrt(u)
	phi := 2 * math32.Pi * v
	x, y := basis(n)
	cos := math32.Sqrt(math32.Max(0, 1-u))
	direction := add(add(scale(x, r*math32.Cos(phi)), scale(y, r*math32.Sin(phi))), scale(n, cos))
	pdf := cos / math32.Pi
	if cos <= 0 || pdf <= 0 {
		item.Next = proxy.StageCommit
		return
	}

	threshold := float32(1)
	if item.Generation > 0 {
		threshold = math32.Min(1, maxComponent(item.Throughput))
	}
	if env.random1(key, 2) >= threshold {
		item.Next = proxy.StageCommit
		return
	}

	// albedo/π · cos / pdf reduces to the albedo
	item.Throughput = scale(mul(item.Throughput, surface.Albedo), 1/threshold)
	item.Origin = add(item.Point, scale(n, surfaceOffset))
	item.Direction = direction
	item.OriginDifferential = [2]f32.Vec3{}
	item.DirectionDifferential = [2]f32.Vec3{}
	item.Pdf = pdf
	item.DeltaBounce = false
	item.Generation++
	item.Next = proxy.StageIntersect
}
