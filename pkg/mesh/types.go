// Package mesh turns triangle soups from the asset parsers into indexed,
// GPU-ready meshes: it resolves per-corner attributes, computes a flat tangent
// basis per face and welds identical corners through an octree.
package mesh

import (
	"fmt"

	"github.com/Faultbox/meshforge/pkg/math"
)

// Vertex is one GPU vertex. Its field order matches AttributeLayout.
type Vertex struct {
	Position  math.Vec3
	TexCoord  math.Vec2
	Normal    math.Vec3
	Tangent   math.Vec3
	Bitangent math.Vec3
}

// DefaultVertex returns a vertex at the origin with the default basis:
// normal +Y, tangent +X, bitangent +Z.
func DefaultVertex() Vertex {
	return Vertex{
		Normal:    math.Vec3{X: 0, Y: 1, Z: 0},
		Tangent:   math.Vec3{X: 1, Y: 0, Z: 0},
		Bitangent: math.Vec3{X: 0, Y: 0, Z: 1},
	}
}

// Triangle references the soup attribute arrays for its three corners.
// Indices are 1-based; 0 means the attribute is absent for that corner.
type Triangle struct {
	Vertices  [3]uint32
	TexCoords [3]uint32
	Normals   [3]uint32
}

// Soup is an unindexed triangle list with separately indexed attributes,
// the shape interchange formats store geometry in.
type Soup struct {
	Name      string
	Positions []math.Vec3
	TexCoords []math.Vec2
	Normals   []math.Vec3
	Triangles []Triangle
}

// ResolveIndex converts a 1-based attribute index into a slice index for a
// slice of length n. It reports false for the absent marker 0 and for
// indices past the end.
func ResolveIndex(idx uint32, n int) (int, bool) {
	if idx == 0 || uint64(idx) > uint64(n) {
		return 0, false
	}
	return int(idx - 1), true
}

// Definition is an indexed triangle mesh ready for upload.
// Vertices are in first-seen order; Indices hold three entries per triangle.
type Definition struct {
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns the number of triangles described by Indices.
func (d *Definition) TriangleCount() int {
	return len(d.Indices) / 3
}

// Validate checks the index buffer invariants.
func (d *Definition) Validate() error {
	if len(d.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(d.Indices))
	}
	for i, idx := range d.Indices {
		if int(idx) >= len(d.Vertices) {
			return fmt.Errorf("index %d at %d out of range (%d vertices)", idx, i, len(d.Vertices))
		}
	}
	return nil
}

// Bounds returns the axis-aligned box around all vertex positions.
func (d *Definition) Bounds() math.Box3 {
	b := math.EmptyBox3()
	for i := range d.Vertices {
		b.ExpandByPoint(d.Vertices[i].Position)
	}
	return b
}

// Interleave flattens the vertices into VertexFloats floats each, in
// AttributeLayout order.
func (d *Definition) Interleave() []float32 {
	out := make([]float32, 0, len(d.Vertices)*VertexFloats)
	for _, v := range d.Vertices {
		out = append(out,
			v.Position.X, v.Position.Y, v.Position.Z,
			v.TexCoord.X, v.TexCoord.Y,
			v.Normal.X, v.Normal.Y, v.Normal.Z,
			v.Tangent.X, v.Tangent.Y, v.Tangent.Z,
			v.Bitangent.X, v.Bitangent.Y, v.Bitangent.Z,
		)
	}
	return out
}
