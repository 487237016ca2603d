package scene

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// CameraConfig contains the user-facing camera parameters
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks at
	Up            core.Vec3 // Up direction
	Fov           float64   // Horizontal field of view in degrees
	Aperture      float64   // Radius of the lens aperture; 0 is a pinhole
	FocusDistance float64   // Distance to the focal plane; 0 focuses on LookAt
}

// Camera generates beams through the image plane with a thin lens model.
// The image x axis is Vertical × Direction.
type Camera struct {
	Position    core.Vec3
	Direction   core.Vec3
	Vertical    core.Vec3
	Fov         float64
	FocalLength float64
	Aperture    float64

	imagePlane core.Bivec3 // Horizontal and vertical image axes
	imageSize  float64     // Half-width of the image plane at unit distance
}

// NewCamera creates a camera looking along direction
func NewCamera(position, direction, vertical core.Vec3, fov, focalLength, aperture float64) *Camera {
	direction = direction.Normalize()
	perpVertical := vertical.Subtract(direction.Multiply(vertical.Dot(direction))).Normalize()
	horizontal := perpVertical.Cross(direction)

	return &Camera{
		Position:    position,
		Direction:   direction,
		Vertical:    vertical,
		Fov:         fov,
		FocalLength: focalLength,
		Aperture:    aperture,
		imagePlane:  core.NewBivec3(horizontal, perpVertical),
		imageSize:   math.Tan(fov * math.Pi / 360),
	}
}

// NewCameraFromConfig creates a camera from look-at parameters
func NewCameraFromConfig(config CameraConfig) *Camera {
	toTarget := config.LookAt.Subtract(config.Center)
	focus := config.FocusDistance
	if focus <= 0 {
		focus = toTarget.Length()
	}
	return NewCamera(config.Center, toTarget, config.Up, config.Fov, focus, config.Aperture)
}

func (c *Camera) createRay(imagePoint, aperturePoint core.Vec2) (core.Ray, core.Bivec3) {
	direction := c.Direction.Add(c.imagePlane.Apply(imagePoint).Multiply(c.imageSize))
	length := direction.Length()
	direction = direction.Divide(length)

	focus := c.Position.Add(direction.Multiply(c.FocalLength))
	r := math.Sqrt(aperturePoint.X)
	phi := 2 * math.Pi * aperturePoint.Y
	lensPoint := core.NewVec2(r*math.Cos(phi), r*math.Sin(phi))
	origin := c.Position.Add(c.imagePlane.Apply(lensPoint).Multiply(c.Aperture))

	return core.NewRay(origin, focus.Subtract(origin).Normalize()), c.imagePlane.Multiply(c.imageSize / length)
}

// CreatePixelBeam creates the beam through a raster position. imagePoint is
// in pixels with y down; aperturePoint is a uniform sample of the lens.
func (c *Camera) CreatePixelBeam(imagePoint core.Vec2, width, height int, aperturePoint core.Vec2) core.Beam {
	w := float64(width)
	cx := (2*imagePoint.X - w) / w
	cy := (2*imagePoint.Y - float64(height)) / w

	ray, differential := c.createRay(core.NewVec2(cx, -cy), aperturePoint)
	return core.NewBeam(ray, core.Bivec3{}, differential.Multiply(2/w))
}

// ProjectSize returns the world-space size at distance of an image-space size
func (c *Camera) ProjectSize(size, distance float64) float64 {
	return size * c.imageSize * distance
}

// ImagePlane returns the horizontal and vertical image axes
func (c *Camera) ImagePlane() core.Bivec3 {
	return c.imagePlane
}

// ImageSize returns the half-width of the image plane at unit distance
func (c *Camera) ImageSize() float64 {
	return c.imageSize
}
