// Package camera provides the orbit camera used by the mesh viewer.
package camera

import (
	"github.com/charmbracelet/harmonica"
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshforge/pkg/math"
)

// OrbitCamera orbits around a center point. Input moves target angles and
// distance; Update eases the current values toward them with critically
// damped springs.
type OrbitCamera struct {
	Center math.Vec3

	// Current spherical coordinates
	Distance float32
	Pitch    float32 // vertical angle, radians
	Yaw      float32 // horizontal angle, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	FOV float32 // vertical field of view, radians

	targetDistance, targetPitch, targetYaw float64
	distVel, pitchVel, yawVel             float64
	spring                                harmonica.Spring
}

// NewOrbitCamera creates an orbit camera whose springs step at fps.
func NewOrbitCamera(fps int) *OrbitCamera {
	c := &OrbitCamera{
		Distance:        5,
		Pitch:           0.5,
		Yaw:             0,
		MinDistance:     0.01,
		MaxDistance:     10000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             math32.Pi / 4,
		// Frequency 6 with damping 1 settles in a few frames without overshoot
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
	c.Snap()
	return c
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cosPitch := math32.Cos(c.Pitch)
	return math.Vec3{
		X: c.Center.X + c.Distance*cosPitch*math32.Sin(c.Yaw),
		Y: c.Center.Y + c.Distance*math32.Sin(c.Pitch),
		Z: c.Center.Z + c.Distance*cosPitch*math32.Cos(c.Yaw),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns a perspective projection whose clip planes scale
// with the orbit distance.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	near := c.Distance * 0.01
	if near < 0.001 {
		near = 0.001
	}
	return math.Perspective(c.FOV, aspect, near, c.Distance*100)
}

// HandleDrag rotates the target orientation by a mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.targetYaw -= float64(deltaX * c.DragSensitivity)
	c.targetPitch += float64(deltaY * c.DragSensitivity)
	c.targetPitch = float64(clamp(float32(c.targetPitch), c.MinPitch, c.MaxPitch))
}

// HandleZoom scales the target distance by a scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	d := float32(c.targetDistance)
	d -= delta * d * c.ZoomSensitivity
	c.targetDistance = float64(clamp(d, c.MinDistance, c.MaxDistance))
}

// Update advances the springs by one frame.
func (c *OrbitCamera) Update() {
	var d, p, y float64
	d, c.distVel = c.spring.Update(float64(c.Distance), c.distVel, c.targetDistance)
	p, c.pitchVel = c.spring.Update(float64(c.Pitch), c.pitchVel, c.targetPitch)
	y, c.yawVel = c.spring.Update(float64(c.Yaw), c.yawVel, c.targetYaw)
	c.Distance, c.Pitch, c.Yaw = float32(d), float32(p), float32(y)
}

// Snap jumps to the targets and stops any motion.
func (c *OrbitCamera) Snap() {
	c.targetDistance = float64(c.Distance)
	c.targetPitch = float64(c.Pitch)
	c.targetYaw = float64(c.Yaw)
	c.distVel, c.pitchVel, c.yawVel = 0, 0, 0
}

// Settled reports whether the camera has reached its targets.
func (c *OrbitCamera) Settled() bool {
	const eps = 1e-4
	return abs64(float64(c.Distance)-c.targetDistance) < eps*c.targetDistance+eps &&
		abs64(float64(c.Pitch)-c.targetPitch) < eps &&
		abs64(float64(c.Yaw)-c.targetYaw) < eps
}

// FitToBounds centers the camera on b and backs off until the bounding sphere
// fills the view. Zoom limits follow the model size.
func (c *OrbitCamera) FitToBounds(b math.Box3) {
	if b.IsEmpty() {
		return
	}
	c.Center = b.Center()

	radius := b.Half().Length()
	if radius == 0 {
		radius = 1
	}
	c.MinDistance = radius * 0.05
	c.MaxDistance = radius * 50
	c.Distance = radius / math32.Sin(c.FOV/2) * 1.1
	c.Pitch = 0.5 // ~30 degrees above the horizon
	c.Yaw = 0
	c.Snap()
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
