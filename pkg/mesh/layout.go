package mesh

const (
	// VertexFloats is the number of float32 values per interleaved vertex.
	VertexFloats = 14
	// VertexStride is the byte size of one interleaved vertex.
	VertexStride = VertexFloats * 4
)

// Attribute describes one interleaved vertex attribute.
type Attribute struct {
	Name       string
	Location   uint32
	Components int32
	Offset     int // bytes from the start of the vertex
}

// AttributeLayout returns the fixed vertex layout the renderers bind:
// position, texcoord, normal, tangent, bitangent.
func AttributeLayout() []Attribute {
	return []Attribute{
		{Name: "aPosition", Location: 0, Components: 3, Offset: 0},
		{Name: "aTexCoord", Location: 1, Components: 2, Offset: 3 * 4},
		{Name: "aNormal", Location: 2, Components: 3, Offset: 5 * 4},
		{Name: "aTangent", Location: 3, Components: 3, Offset: 8 * 4},
		{Name: "aBitangent", Location: 4, Components: 3, Offset: 11 * 4},
	}
}
