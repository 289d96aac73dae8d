package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/meshforge/pkg/math"
)

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera(60)
	c.FitToBounds(math.Box3{Min: math.Vec3{X: -1, Y: 0, Z: -1}, Max: math.Vec3{X: 3, Y: 2, Z: 1}})

	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 0}, c.Center)
	assert.Greater(t, c.Distance, float32(0))
	assert.True(t, c.Settled())

	// The bounding sphere sits inside the view frustum.
	dist := c.Position().Distance(c.Center)
	assert.InDelta(t, c.Distance, dist, 1e-4)
	assert.Greater(t, c.MaxDistance, c.Distance)
	assert.Less(t, c.MinDistance, c.Distance)
}

func TestFitToBoundsEmpty(t *testing.T) {
	c := NewOrbitCamera(60)
	before := *c
	c.FitToBounds(math.EmptyBox3())
	assert.Equal(t, before.Center, c.Center)
	assert.Equal(t, before.Distance, c.Distance)
}

func TestZoomEasesTowardTarget(t *testing.T) {
	c := NewOrbitCamera(60)
	start := c.Distance

	c.HandleZoom(1)
	assert.Equal(t, start, c.Distance, "zoom only moves the target")
	assert.False(t, c.Settled())

	for i := 0; i < 600; i++ {
		c.Update()
	}
	assert.True(t, c.Settled())
	assert.InDelta(t, start*0.9, c.Distance, 1e-3)
}

func TestZoomClamped(t *testing.T) {
	c := NewOrbitCamera(60)
	c.MaxDistance = 6
	for i := 0; i < 50; i++ {
		c.HandleZoom(-1)
	}
	for i := 0; i < 600; i++ {
		c.Update()
	}
	assert.InDelta(t, 6, c.Distance, 1e-3)
}

func TestDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera(60)
	c.HandleDrag(100, 10000)
	for i := 0; i < 600; i++ {
		c.Update()
	}
	assert.InDelta(t, c.MaxPitch, c.Pitch, 1e-3)
	assert.InDelta(t, -0.5, c.Yaw, 1e-3)
}

func TestPositionOrbit(t *testing.T) {
	c := NewOrbitCamera(60)
	c.Center = math.Vec3{X: 1, Y: 2, Z: 3}
	c.Distance = 10
	c.Pitch = 0
	c.Yaw = 0

	p := c.Position()
	assert.InDelta(t, 1, p.X, 1e-5)
	assert.InDelta(t, 2, p.Y, 1e-5)
	assert.InDelta(t, 13, p.Z, 1e-5)
}
