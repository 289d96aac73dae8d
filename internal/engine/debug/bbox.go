// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// LineVertexFloats is the float count per line vertex: position then color.
const LineVertexFloats = 6

// Line colors.
var (
	ColorBounds    = [3]float32{1, 0.85, 0.2}
	ColorSelected  = [3]float32{0.2, 1, 1}
	ColorNormal    = [3]float32{0.2, 0.4, 1}
	ColorTangent   = [3]float32{1, 0.25, 0.25}
	ColorBitangent = [3]float32{0.25, 1, 0.25}
)

// BoxLines creates the 12 edges of b as 24 colored line vertices.
// An empty box yields nil.
func BoxLines(b math.Box3, color [3]float32) []float32 {
	if b.IsEmpty() {
		return nil
	}
	minX, minY, minZ := b.Min.X, b.Min.Y, b.Min.Z
	maxX, maxY, maxZ := b.Max.X, b.Max.Y, b.Max.Z

	edges := [12][2]math.Vec3{
		// Bottom face
		{{X: minX, Y: minY, Z: minZ}, {X: maxX, Y: minY, Z: minZ}},
		{{X: maxX, Y: minY, Z: minZ}, {X: maxX, Y: minY, Z: maxZ}},
		{{X: maxX, Y: minY, Z: maxZ}, {X: minX, Y: minY, Z: maxZ}},
		{{X: minX, Y: minY, Z: maxZ}, {X: minX, Y: minY, Z: minZ}},
		// Top face
		{{X: minX, Y: maxY, Z: minZ}, {X: maxX, Y: maxY, Z: minZ}},
		{{X: maxX, Y: maxY, Z: minZ}, {X: maxX, Y: maxY, Z: maxZ}},
		{{X: maxX, Y: maxY, Z: maxZ}, {X: minX, Y: maxY, Z: maxZ}},
		{{X: minX, Y: maxY, Z: maxZ}, {X: minX, Y: maxY, Z: minZ}},
		// Vertical edges
		{{X: minX, Y: minY, Z: minZ}, {X: minX, Y: maxY, Z: minZ}},
		{{X: maxX, Y: minY, Z: minZ}, {X: maxX, Y: maxY, Z: minZ}},
		{{X: maxX, Y: minY, Z: maxZ}, {X: maxX, Y: maxY, Z: maxZ}},
		{{X: minX, Y: minY, Z: maxZ}, {X: minX, Y: maxY, Z: maxZ}},
	}

	out := make([]float32, 0, len(edges)*2*LineVertexFloats)
	for _, e := range edges {
		out = appendLine(out, e[0], e[1], color)
	}
	return out
}

// TangentFrameLines draws the normal, tangent and bitangent of every vertex
// of def as segments of the given length, three segments per vertex.
func TangentFrameLines(def *mesh.Definition, length float32) []float32 {
	out := make([]float32, 0, len(def.Vertices)*3*2*LineVertexFloats)
	for _, v := range def.Vertices {
		p := v.Position
		out = appendLine(out, p, p.Add(v.Normal.Scale(length)), ColorNormal)
		out = appendLine(out, p, p.Add(v.Tangent.Scale(length)), ColorTangent)
		out = appendLine(out, p, p.Add(v.Bitangent.Scale(length)), ColorBitangent)
	}
	return out
}

func appendLine(out []float32, a, b math.Vec3, color [3]float32) []float32 {
	return append(out,
		a.X, a.Y, a.Z, color[0], color[1], color[2],
		b.X, b.Y, b.Z, color[0], color[1], color[2],
	)
}
