package render

import (
	"math"

	"github.com/taigrr/anamorph/pkg/math3d"
)

// Camera looks from Position at Target. It projects either in perspective
// (the orbiting preview) or orthographically (the view of the flat target).
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3

	FOV         float64 // vertical, radians
	AspectRatio float64 // width / height
	Near, Far   float64

	// Orthographic switches to a parallel projection showing OrthoSize
	// world units above and below the view center.
	Orthographic bool
	OrthoSize    float64

	viewProj math3d.Mat4
	dirty    bool
}

// NewCamera creates a perspective camera at the origin looking down -Z.
func NewCamera() *Camera {
	return &Camera{
		Target:      math3d.V3(0, 0, -1),
		Up:          math3d.V3(0, 1, 0),
		FOV:         math.Pi / 3,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         5000,
		dirty:       true,
	}
}

// NewOrthoCamera creates a parallel-projection camera at position looking
// at target, showing halfHeight units above and below the view center.
func NewOrthoCamera(position, target math3d.Vec3, halfHeight, aspect float64) *Camera {
	c := NewCamera()
	c.Orthographic = true
	c.OrthoSize = halfHeight
	c.AspectRatio = aspect
	c.SetPosition(position)
	c.LookAt(target)
	return c
}

func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.dirty = true
}

// LookAt aims the camera at target.
func (c *Camera) LookAt(target math3d.Vec3) {
	c.Target = target
	c.dirty = true
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.dirty = true
}

func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.dirty = true
}

func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near, c.Far = near, far
	c.dirty = true
}

// SetOrthoSize sets the orthographic half-height.
func (c *Camera) SetOrthoSize(halfHeight float64) {
	c.OrthoSize = halfHeight
	c.dirty = true
}

// Forward is the unit view direction.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// up returns Up, or a substitute when looking straight along it.
func (c *Camera) up() math3d.Vec3 {
	if math.Abs(c.Forward().Dot(c.Up.Normalize())) > 0.999 {
		return math3d.V3(0, 0, 1)
	}
	return c.Up
}

// ViewMatrix maps world space into camera space.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	return math3d.LookAt(c.Position, c.Target, c.up())
}

// ProjectionMatrix maps camera space into clip space.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.Orthographic {
		h := c.OrthoSize
		w := h * c.AspectRatio
		return math3d.Orthographic(-w, w, -h, h, c.Near, c.Far)
	}
	return math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
}

// ViewProjectionMatrix returns projection * view, cached until the camera
// changes.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.dirty {
		c.viewProj = c.ProjectionMatrix().Mul(c.ViewMatrix())
		c.dirty = false
	}
	return c.viewProj
}

// Orbit places the camera distance away from target at the given yaw and
// pitch (radians) and points it at target. Yaw 0 looks down +Z.
func (c *Camera) Orbit(target math3d.Vec3, distance, yaw, pitch float64) {
	const maxPitch = math.Pi/2 - 0.01
	pitch = math.Max(-maxPitch, math.Min(maxPitch, pitch))

	offset := math3d.V3(
		math.Sin(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		-math.Cos(yaw)*math.Cos(pitch),
	)
	c.SetPosition(target.Add(offset.Scale(distance)))
	c.LookAt(target)
}

// WorldToScreen projects a world point to pixel coordinates with Y down.
// visible is false outside the view volume.
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clip := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clip.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight)
	return x, y, ndc.Z, true
}
