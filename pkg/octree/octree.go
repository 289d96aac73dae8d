// Package octree provides the point octree used to find coincident vertices
// while welding a triangle soup into an indexed mesh.
//
// Every node is either a leaf holding an unordered bucket of items or an
// internal node owning exactly eight children. A leaf only splits when a new
// point differs from the position already stored in its bucket and the cell
// can still be halved; points that share a position, or that live in a cell
// whose extent has collapsed to zero, stay together in one bucket.
package octree

import "github.com/Faultbox/meshforge/pkg/math"

// Item is a point stored in the tree together with its payload and the
// index the caller assigned to it.
type Item[T any] struct {
	Pos   math.Vec3
	Value T
	Index uint32
}

// Octree is a node covering the cuboid [Origin-Half, Origin+Half].
// The zero value is not usable; create trees with New.
type Octree[T any] struct {
	origin math.Vec3
	half   math.Vec3

	// Exactly one of bucket / children is in use: children == nil marks a leaf.
	bucket   []Item[T]
	children *[8]Octree[T]

	count int
}

// New returns an empty leaf covering [center-halfExtents, center+halfExtents].
func New[T any](center, halfExtents math.Vec3) *Octree[T] {
	return &Octree[T]{origin: center, half: halfExtents}
}

// Origin returns the center of the node.
func (o *Octree[T]) Origin() math.Vec3 { return o.origin }

// HalfDimension returns the half extents of the node.
func (o *Octree[T]) HalfDimension() math.Vec3 { return o.half }

// Bounds returns the cuboid the node covers.
func (o *Octree[T]) Bounds() math.Box3 { return math.BoxAround(o.origin, o.half) }

// IsLeaf reports whether the node stores items directly.
func (o *Octree[T]) IsLeaf() bool { return o.children == nil }

// Len returns the number of items stored under this node.
func (o *Octree[T]) Len() int { return o.count }

// OctantContainingPoint returns the child slot for p: bit 2 is set when
// p.X >= origin.X, bit 1 when p.Y >= origin.Y and bit 0 when p.Z >= origin.Z.
func (o *Octree[T]) OctantContainingPoint(p math.Vec3) int {
	oct := 0
	if p.X >= o.origin.X {
		oct |= 4
	}
	if p.Y >= o.origin.Y {
		oct |= 2
	}
	if p.Z >= o.origin.Z {
		oct |= 1
	}
	return oct
}

// Insert stores value at position pos under the given index.
func (o *Octree[T]) Insert(pos math.Vec3, value T, index uint32) {
	o.insert(Item[T]{Pos: pos, Value: value, Index: index})
}

func (o *Octree[T]) insert(it Item[T]) {
	o.count++

	if o.children != nil {
		o.children[o.OctantContainingPoint(it.Pos)].insert(it)
		return
	}

	if len(o.bucket) == 0 || o.bucket[0].Pos == it.Pos {
		o.bucket = append(o.bucket, it)
		return
	}

	nextHalf := o.half.Scale(0.5)
	if nextHalf.X == 0 || nextHalf.Y == 0 || nextHalf.Z == 0 {
		// Halving no longer separates anything on a collapsed axis.
		o.bucket = append(o.bucket, it)
		return
	}

	o.split(nextHalf)
	o.children[o.OctantContainingPoint(it.Pos)].insert(it)
}

// split turns a leaf into an internal node and moves its bucket down.
func (o *Octree[T]) split(nextHalf math.Vec3) {
	o.children = new([8]Octree[T])
	for i := range o.children {
		off := math.Vec3{X: -nextHalf.X, Y: -nextHalf.Y, Z: -nextHalf.Z}
		if i&4 != 0 {
			off.X = nextHalf.X
		}
		if i&2 != 0 {
			off.Y = nextHalf.Y
		}
		if i&1 != 0 {
			off.Z = nextHalf.Z
		}
		o.children[i] = Octree[T]{origin: o.origin.Add(off), half: nextHalf}
	}

	bucket := o.bucket
	o.bucket = nil
	for _, it := range bucket {
		o.children[o.OctantContainingPoint(it.Pos)].insert(it)
	}
}

// QueryBox returns every item whose position lies within [boxMin, boxMax]
// on all three axes.
func (o *Octree[T]) QueryBox(boxMin, boxMax math.Vec3) []Item[T] {
	var out []Item[T]
	o.query(boxMin, boxMax, &out)
	return out
}

func (o *Octree[T]) query(boxMin, boxMax math.Vec3, out *[]Item[T]) {
	if o.children == nil {
		// A bucket is unordered: every entry has to be checked.
		for _, it := range o.bucket {
			p := it.Pos
			if p.X < boxMin.X || p.Y < boxMin.Y || p.Z < boxMin.Z {
				continue
			}
			if p.X > boxMax.X || p.Y > boxMax.Y || p.Z > boxMax.Z {
				continue
			}
			*out = append(*out, it)
		}
		return
	}

	for i := range o.children {
		if o.children[i].count == 0 || !o.octantOverlaps(i, boxMin, boxMax) {
			continue
		}
		o.children[i].query(boxMin, boxMax, out)
	}
}

// octantOverlaps reports whether the query box reaches the region routed to
// child i. Routing only compares against the origin, so a child owns the whole
// half-space on its side of each splitting plane; points outside the nominal
// cuboid (rounding at the root boundary) are still found.
func (o *Octree[T]) octantOverlaps(i int, boxMin, boxMax math.Vec3) bool {
	if i&4 != 0 {
		if boxMax.X < o.origin.X {
			return false
		}
	} else if boxMin.X >= o.origin.X {
		return false
	}
	if i&2 != 0 {
		if boxMax.Y < o.origin.Y {
			return false
		}
	} else if boxMin.Y >= o.origin.Y {
		return false
	}
	if i&1 != 0 {
		if boxMax.Z < o.origin.Z {
			return false
		}
	} else if boxMin.Z >= o.origin.Z {
		return false
	}
	return true
}

// Depth returns the number of levels below and including this node.
func (o *Octree[T]) Depth() int {
	if o.children == nil {
		return 1
	}
	deepest := 0
	for i := range o.children {
		if d := o.children[i].Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// LeafCount returns the number of non-empty leaves under this node.
func (o *Octree[T]) LeafCount() int {
	if o.children == nil {
		if len(o.bucket) == 0 {
			return 0
		}
		return 1
	}
	n := 0
	for i := range o.children {
		n += o.children[i].LeafCount()
	}
	return n
}
