package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// Camera generates primary rays through a thin lens
type Camera struct {
	config        scene.CameraConfig
	width, height int

	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3
	lensRadius      float64

	version uint64
}

// NewCamera creates a camera for an image of width x height pixels
func NewCamera(config scene.CameraConfig, width, height int) *Camera {
	c := &Camera{config: config}
	c.OnResize(width, height)
	return c
}

// OnResize changes the image resolution
func (c *Camera) OnResize(width, height int) {
	c.width, c.height = max(width, 1), max(height, 1)
	c.update()
}

// SetLookAt moves and re-aims the camera
func (c *Camera) SetLookAt(center, lookAt, up core.Vec3) {
	c.config.Center = center
	c.config.LookAt = lookAt
	c.config.Up = up
	c.update()
}

// SetLens changes the aperture diameter and focus distance (0 focuses on LookAt)
func (c *Camera) SetLens(aperture, focusDistance float64) {
	c.config.Aperture = aperture
	c.config.FocusDistance = focusDistance
	c.update()
}

// Position returns the camera center
func (c *Camera) Position() core.Vec3 {
	return c.origin
}

// Forward returns the unit view direction
func (c *Camera) Forward() core.Vec3 {
	return c.w.Negate()
}

// Config returns the current placement
func (c *Camera) Config() scene.CameraConfig {
	return c.config
}

// Version changes whenever the camera moves, is resized or refocused
func (c *Camera) Version() uint64 {
	return c.version
}

// update derives the viewport from the configuration
func (c *Camera) update() {
	cfg := c.config
	eye := mgl64.Vec3{cfg.Center.X, cfg.Center.Y, cfg.Center.Z}
	target := mgl64.Vec3{cfg.LookAt.X, cfg.LookAt.Y, cfg.LookAt.Z}
	up := mgl64.Vec3{cfg.Up.X, cfg.Up.Y, cfg.Up.Z}
	if up.Len() == 0 {
		up = mgl64.Vec3{0, 1, 0}
	}
	if target.Sub(eye).Len() == 0 {
		target = eye.Sub(mgl64.Vec3{0, 0, 1})
	}

	// Rows of the view matrix are the camera right, up and backward axes
	view := mgl64.LookAtV(eye, target, up)
	c.u = core.NewVec3(view.At(0, 0), view.At(0, 1), view.At(0, 2))
	c.v = core.NewVec3(view.At(1, 0), view.At(1, 1), view.At(1, 2))
	c.w = core.NewVec3(view.At(2, 0), view.At(2, 1), view.At(2, 2))

	focusDistance := cfg.FocusDistance
	if focusDistance <= 0 {
		focusDistance = cfg.LookAt.Subtract(cfg.Center).Length()
	}
	if focusDistance <= 0 {
		focusDistance = 1
	}

	vfov := cfg.VFov
	if vfov <= 0 {
		vfov = 40
	}
	h := math.Tan(mgl64.DegToRad(vfov) / 2)
	viewportHeight := 2 * h * focusDistance
	viewportWidth := viewportHeight * float64(c.width) / float64(c.height)

	c.origin = cfg.Center
	c.horizontal = c.u.Multiply(viewportWidth)
	c.vertical = c.v.Multiply(viewportHeight)
	c.lowerLeftCorner = c.origin.
		Subtract(c.horizontal.Multiply(0.5)).
		Subtract(c.vertical.Multiply(0.5)).
		Subtract(c.w.Multiply(focusDistance))
	c.lensRadius = cfg.Aperture / 2
	c.version++
}

// GetRay returns a unit-direction ray through a random point of pixel (x, y).
// Row 0 is the top of the image.
func (c *Camera) GetRay(x, y int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	s := (float64(x) + jitter.X) / float64(c.width)
	t := 1 - (float64(y)+jitter.Y)/float64(c.height)

	origin := c.origin
	if c.lensRadius > 0 {
		rd := core.SamplePointInUnitDisk(sampler.Get2D()).Multiply(c.lensRadius)
		origin = origin.Add(c.u.Multiply(rd.X)).Add(c.v.Multiply(rd.Y))
	}

	target := c.lowerLeftCorner.Add(c.horizontal.Multiply(s)).Add(c.vertical.Multiply(t))
	return core.NewRay(origin, target.Subtract(origin).Normalize())
}
