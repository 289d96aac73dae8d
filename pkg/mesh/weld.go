package mesh

import (
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/octree"
)

// DefaultNormalThreshold is the minimum normal dot product for two corners
// with equal position and texcoord to share a vertex.
const DefaultNormalThreshold float32 = 0.9

// WeldOptions controls Weld.
type WeldOptions struct {
	// Renormalize discards source normals and uses flat face normals.
	// Faces without a source normal on every corner always get the face normal.
	Renormalize bool
	// NormalThreshold is compared against dot(normal, candidate.normal).
	NormalThreshold float32
}

// DefaultWeldOptions returns the options used by the importer when no
// configuration overrides them.
func DefaultWeldOptions() WeldOptions {
	return WeldOptions{
		Renormalize:     false,
		NormalThreshold: DefaultNormalThreshold,
	}
}

// WeldStats summarises one Weld call.
type WeldStats struct {
	Triangles        int
	Corners          int
	UniqueVertices   int
	MalformedIndices int // position indices that were 0 or out of range
	DegenerateUVs    int // faces whose UV determinant was zero
	DegenerateFaces  int // faces with a valid UV mapping but no usable tangent (zero area)
	OctreeDepth      int
}

// Ratio returns unique vertices per corner; 1 means nothing was shared.
func (s WeldStats) Ratio() float64 {
	if s.Corners == 0 {
		return 0
	}
	return float64(s.UniqueVertices) / float64(s.Corners)
}

// Weld converts a triangle soup into an indexed mesh. Every triangle corner
// becomes a full Vertex; corners with identical position and texcoord and
// normals closer than the threshold share one output vertex.
//
// Weld never fails. Absent or out-of-range attribute indices resolve to the
// DefaultVertex values, and an empty soup yields an empty Definition.
func Weld(soup *Soup, opts WeldOptions) (*Definition, WeldStats) {
	def := &Definition{
		Vertices: make([]Vertex, 0, len(soup.Positions)),
		Indices:  make([]uint32, 0, len(soup.Triangles)*3),
	}
	stats := WeldStats{Triangles: len(soup.Triangles)}

	bounds := math.EmptyBox3()
	for _, p := range soup.Positions {
		bounds.ExpandByPoint(p)
	}
	tree := octree.New[Vertex](bounds.Center(), bounds.Half())

	w := welder{soup: soup, opts: opts, def: def, tree: tree, stats: &stats}
	for i := range soup.Triangles {
		w.addTriangle(&soup.Triangles[i])
	}

	stats.UniqueVertices = len(def.Vertices)
	stats.OctreeDepth = tree.Depth()
	return def, stats
}

type welder struct {
	soup  *Soup
	opts  WeldOptions
	def   *Definition
	tree  *octree.Octree[Vertex]
	stats *WeldStats
}

func (w *welder) addTriangle(tri *Triangle) {
	var corners [3]Vertex
	allNormals := true
	for c := 0; c < 3; c++ {
		var hasNormal bool
		corners[c], hasNormal = w.resolveCorner(tri, c)
		allNormals = allNormals && hasNormal
	}

	if !ComputeTangentSpace(&corners, w.opts.Renormalize || !allNormals) {
		if uvDeterminant(&corners) == 0 {
			w.stats.DegenerateUVs++
		} else {
			w.stats.DegenerateFaces++
		}
	}

	for c := range corners {
		w.def.Indices = append(w.def.Indices, w.indexFor(corners[c]))
		w.stats.Corners++
	}
}

// resolveCorner looks up the attributes of corner c and reports whether the
// source supplied its normal.
func (w *welder) resolveCorner(tri *Triangle, c int) (Vertex, bool) {
	v := DefaultVertex()

	if i, ok := ResolveIndex(tri.Vertices[c], len(w.soup.Positions)); ok {
		v.Position = w.soup.Positions[i]
	} else {
		w.stats.MalformedIndices++
	}
	if i, ok := ResolveIndex(tri.TexCoords[c], len(w.soup.TexCoords)); ok {
		v.TexCoord = w.soup.TexCoords[i]
	}
	hasNormal := false
	if i, ok := ResolveIndex(tri.Normals[c], len(w.soup.Normals)); ok {
		v.Normal = w.soup.Normals[i]
		hasNormal = true
	}
	return v, hasNormal
}

// indexFor returns the index of an existing matching vertex, or appends v.
func (w *welder) indexFor(v Vertex) uint32 {
	for _, cand := range w.tree.QueryBox(v.Position, v.Position) {
		if w.matches(v, cand.Value) {
			return cand.Index
		}
	}

	idx := uint32(len(w.def.Vertices))
	w.def.Vertices = append(w.def.Vertices, v)
	w.tree.Insert(v.Position, v, idx)
	return idx
}

func (w *welder) matches(v, cand Vertex) bool {
	return v.Position == cand.Position &&
		v.TexCoord == cand.TexCoord &&
		v.Normal.Dot(cand.Normal) > w.opts.NormalThreshold
}
