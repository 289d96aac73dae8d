package formats

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

func quadSoup() *mesh.Soup {
	return &mesh.Soup{
		Name: "quad",
		Positions: []math.Vec3{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		},
		TexCoords: []math.Vec2{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		},
		Triangles: []mesh.Triangle{
			{Vertices: [3]uint32{1, 2, 3}, TexCoords: [3]uint32{1, 2, 3}},
			{Vertices: [3]uint32{1, 3, 4}, TexCoords: [3]uint32{1, 3, 4}},
		},
	}
}

func TestWriteGLBThenRead(t *testing.T) {
	opts := mesh.DefaultWeldOptions()
	opts.Renormalize = true
	def, _ := mesh.Weld(quadSoup(), opts)
	require.Len(t, def.Vertices, 4)

	path := filepath.Join(t.TempDir(), "quad.glb")
	require.NoError(t, WriteGLB(path, []ExportMesh{{Name: "quad", Mesh: def}}))

	soups, err := ReadGLTF(path, false)
	require.NoError(t, err)
	require.Len(t, soups, 1)

	s := soups[0]
	assert.Equal(t, "quad", s.Name)
	require.Len(t, s.Positions, 4)
	require.Len(t, s.Normals, 4)
	require.Len(t, s.TexCoords, 4)
	for i, v := range def.Vertices {
		assert.Equal(t, v.Position, s.Positions[i])
		assert.Equal(t, v.TexCoord, s.TexCoords[i])
		assert.InDelta(t, 1, s.Normals[i].Z, 1e-6)
	}

	// Indices come back 1-based and shared by every attribute.
	require.Len(t, s.Triangles, 2)
	for ti, tri := range s.Triangles {
		for c := 0; c < 3; c++ {
			assert.Equal(t, def.Indices[ti*3+c]+1, tri.Vertices[c])
			assert.Equal(t, tri.Vertices[c], tri.TexCoords[c])
			assert.Equal(t, tri.Vertices[c], tri.Normals[c])
		}
	}

	// Welding the re-read soup is a fixed point.
	again, _ := mesh.Weld(s, mesh.DefaultWeldOptions())
	assert.Equal(t, def.Indices, again.Indices)
}

func TestReadGLTFFlipV(t *testing.T) {
	def, _ := mesh.Weld(quadSoup(), mesh.DefaultWeldOptions())
	path := filepath.Join(t.TempDir(), "quad.glb")
	require.NoError(t, WriteGLB(path, []ExportMesh{{Name: "quad", Mesh: def}}))

	soups, err := ReadGLTF(path, true)
	require.NoError(t, err)
	for i, v := range def.Vertices {
		assert.InDelta(t, 1-v.TexCoord.Y, soups[0].TexCoords[i].Y, 1e-6)
	}
}

func TestWriteGLBEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.glb")
	err := WriteGLB(path, []ExportMesh{{Name: "none", Mesh: &mesh.Definition{}}})
	assert.ErrorIs(t, err, ErrNoTriangles)
}

func TestReadGLTFMissingFile(t *testing.T) {
	_, err := ReadGLTF(filepath.Join(t.TempDir(), "missing.glb"), false)
	assert.Error(t, err)
}

func TestHandedness(t *testing.T) {
	v := mesh.DefaultVertex()
	v.Normal = math.Vec3{Z: 1}
	v.Tangent = math.Vec3{X: 1}
	v.Bitangent = math.Vec3{Y: 1}
	assert.Equal(t, float32(1), handedness(v))

	v.Bitangent = math.Vec3{Y: -1}
	assert.Equal(t, float32(-1), handedness(v))
}
