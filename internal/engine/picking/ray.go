// Package picking provides ray casting against meshes for cursor selection.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// viewProj is the combined projection * view matrix used for drawing.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, viewProj math.Mat4) (Ray, bool) {
	inv, ok := viewProj.Inverse()
	if !ok || viewportW <= 0 || viewportH <= 0 {
		return Ray{}, false
	}

	// Screen to NDC, Y flipped
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH

	near := inv.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: -1})
	far := inv.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: 1})

	dir := far.Sub(near)
	if dir.Length() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: near, Direction: dir.Normalize()}, true
}

// IntersectBox tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectBox(box math.Box3) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle returns the distance along the ray to triangle (a, b, c).
// Both faces are hit; hits behind the origin are rejected.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	const eps = 1e-7

	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < eps {
		return 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * invDet
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Hit describes the closest triangle a ray struck.
type Hit struct {
	Target   int // index into the targets passed to Pick
	Triangle int // triangle number within the target mesh
	Distance float32
	Point    math.Vec3
}

// Target is one pickable mesh with precomputed bounds.
type Target struct {
	Bounds math.Box3
	Mesh   *mesh.Definition
}

// Pick returns the closest triangle hit among targets. Targets whose bounds
// the ray misses are skipped.
func Pick(r Ray, targets []Target) (Hit, bool) {
	best := Hit{Distance: math32.MaxFloat32}
	found := false

	for ti, target := range targets {
		if target.Mesh == nil {
			continue
		}
		if _, ok := r.IntersectBox(target.Bounds); !ok {
			continue
		}
		verts := target.Mesh.Vertices
		idx := target.Mesh.Indices
		for i := 0; i+2 < len(idx); i += 3 {
			if int(idx[i]) >= len(verts) || int(idx[i+1]) >= len(verts) || int(idx[i+2]) >= len(verts) {
				continue
			}
			t, ok := r.IntersectTriangle(
				verts[idx[i]].Position, verts[idx[i+1]].Position, verts[idx[i+2]].Position,
			)
			if ok && t < best.Distance {
				best = Hit{Target: ti, Triangle: i / 3, Distance: t}
				found = true
			}
		}
	}

	if found {
		best.Point = r.At(best.Distance)
	}
	return best, found
}
