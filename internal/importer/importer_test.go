package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/pkg/formats"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

const quadOBJ = `o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func gridSoup(name string, n int, offset float32) *mesh.Soup {
	s := &mesh.Soup{Name: name}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			s.Positions = append(s.Positions, math.Vec3{X: float32(x) + offset, Y: float32(y)})
			s.TexCoords = append(s.TexCoords, math.Vec2{X: float32(x) / float32(n), Y: float32(y) / float32(n)})
		}
	}
	at := func(x, y int) uint32 { return uint32(y*(n+1)+x) + 1 }
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a, b, c, d := at(x, y), at(x+1, y), at(x+1, y+1), at(x, y+1)
			s.Triangles = append(s.Triangles,
				mesh.Triangle{Vertices: [3]uint32{a, b, c}, TexCoords: [3]uint32{a, b, c}},
				mesh.Triangle{Vertices: [3]uint32{a, c, d}, TexCoords: [3]uint32{a, c, d}},
			)
		}
	}
	return s
}

func TestImportOBJ(t *testing.T) {
	path := writeFile(t, "quad.obj", quadOBJ)

	scene, err := New(config.Default().Import).Import(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, scene.Source)
	require.Len(t, scene.Meshes, 1)
	m := scene.Meshes[0]
	assert.Equal(t, "Quad", m.Name)
	assert.Len(t, m.Mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Mesh.Indices)
	assert.NoError(t, m.Mesh.Validate())
	assert.Equal(t, 2, m.Stats.Triangles)
	assert.Equal(t, 6, m.Stats.Corners)
}

func TestImportOBJNameFromFile(t *testing.T) {
	path := writeFile(t, "Crate.OBJ", strings.TrimPrefix(quadOBJ, "o Quad\n"))

	scene, err := New(config.Default().Import).Import(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Crate", scene.Meshes[0].Name)
}

func TestImportCOLLADAPartial(t *testing.T) {
	dae := `<?xml version="1.0"?>
<COLLADA version="1.4.1">
  <asset><up_axis>Z_UP</up_axis></asset>
  <library_geometries>
    <geometry id="good" name="Good">
      <mesh>
        <source id="good-pos">
          <float_array count="9">0 0 0 1 0 0 0 0 1</float_array>
          <technique_common><accessor count="3" stride="3"/></technique_common>
        </source>
        <vertices id="good-verts"><input semantic="POSITION" source="#good-pos"/></vertices>
        <triangles count="1">
          <input semantic="VERTEX" source="#good-verts" offset="0"/>
          <p>0 1 2</p>
        </triangles>
      </mesh>
    </geometry>
    <geometry id="bad">
      <mesh>
        <source id="bad-pos">
          <float_array count="3">0 0 0</float_array>
          <technique_common><accessor count="1" stride="3"/></technique_common>
        </source>
        <vertices id="bad-verts"><input semantic="POSITION" source="#bad-pos"/></vertices>
        <triangles count="1">
          <input semantic="VERTEX" source="#bad-verts" offset="0"/>
          <p>0</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`
	path := writeFile(t, "scene.dae", dae)

	scene, err := New(config.Default().Import).Import(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, scene.Meshes, 1)
	assert.Equal(t, "Good", scene.Meshes[0].Name)
	require.Len(t, scene.Skipped, 1)
	assert.ErrorIs(t, scene.Skipped[0], formats.ErrBadPrimitive)

	// Z-up (0,0,1) is rotated to +Y.
	b := scene.Bounds()
	assert.Equal(t, float32(1), b.Max.Y)
	assert.Equal(t, float32(0), b.Max.Z)
}

func TestImportGLB(t *testing.T) {
	def, _ := mesh.Weld(gridSoup("grid", 2, 0), mesh.DefaultWeldOptions())
	path := filepath.Join(t.TempDir(), "grid.glb")
	require.NoError(t, formats.WriteGLB(path, []formats.ExportMesh{{Name: "grid", Mesh: def}}))

	scene, err := New(config.Default().Import).Import(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)
	assert.Equal(t, def.Indices, scene.Meshes[0].Mesh.Indices)
}

func TestImportErrors(t *testing.T) {
	im := New(config.Default().Import)

	_, err := im.Import(context.Background(), writeFile(t, "model.fbx", "binary"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = im.Import(context.Background(), writeFile(t, "bad.obj", "v 1 2\n"))
	assert.ErrorIs(t, err, formats.ErrInvalidOBJ)

	_, err = im.Import(context.Background(), writeFile(t, "empty.dae", "<COLLADA/>"))
	assert.ErrorIs(t, err, formats.ErrNoGeometry)

	_, err = im.Import(context.Background(), filepath.Join(t.TempDir(), "missing.obj"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportSoupsKeepsOrder(t *testing.T) {
	var soups []*mesh.Soup
	for i := 0; i < 12; i++ {
		soups = append(soups, gridSoup(fmt.Sprintf("grid%d", i), i%4+1, float32(i*10)))
	}

	cfg := config.Default().Import
	cfg.Workers = 3
	scene, err := New(cfg).ImportSoups(context.Background(), soups)
	require.NoError(t, err)

	require.Len(t, scene.Meshes, len(soups))
	for i, m := range scene.Meshes {
		n := i%4 + 1
		assert.Equal(t, soups[i].Name, m.Name)
		assert.Len(t, m.Mesh.Vertices, (n+1)*(n+1), "grid %d welds to its lattice", i)
		assert.NoError(t, m.Mesh.Validate())
	}

	totals := scene.Totals()
	corners := 0
	for _, s := range soups {
		corners += len(s.Triangles) * 3
	}
	assert.Equal(t, corners, totals.Corners)

	b := scene.Bounds()
	assert.Equal(t, float32(0), b.Min.X)
	assert.Equal(t, float32(110+4), b.Max.X)
}

func TestImportSoupsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.Default().Import).ImportSoups(ctx, []*mesh.Soup{gridSoup("grid", 2, 0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportSoupsEmpty(t *testing.T) {
	scene, err := New(config.Default().Import).ImportSoups(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, scene.Meshes)
	assert.True(t, scene.Bounds().IsEmpty())
	assert.Equal(t, mesh.WeldStats{}, scene.Totals())
}

func TestWeldOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Import
	cfg.Renormalize = true
	cfg.NormalThreshold = 0.5

	opts := New(cfg).WeldOptions()
	assert.True(t, opts.Renormalize)
	assert.Equal(t, float32(0.5), opts.NormalThreshold)
}
