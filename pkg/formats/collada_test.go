package formats

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

const quadGeometry = `
<geometry id="quad-mesh" name="Quad">
  <mesh>
    <source id="quad-pos">
      <float_array id="quad-pos-array" count="12">0 0 0 1 0 0 1 1 0 0 1 0</float_array>
      <technique_common><accessor source="#quad-pos-array" count="4" stride="3"/></technique_common>
    </source>
    <source id="quad-norm">
      <float_array id="quad-norm-array" count="3">0 0 1</float_array>
      <technique_common><accessor source="#quad-norm-array" count="1" stride="3"/></technique_common>
    </source>
    <source id="quad-uv">
      <float_array id="quad-uv-array" count="8">0 0 1 0 1 1 0 1</float_array>
      <technique_common><accessor source="#quad-uv-array" count="4" stride="2"/></technique_common>
    </source>
    <vertices id="quad-verts">
      <input semantic="POSITION" source="#quad-pos"/>
    </vertices>
    <triangles count="2">
      <input semantic="VERTEX" source="#quad-verts" offset="0"/>
      <input semantic="NORMAL" source="#quad-norm" offset="1"/>
      <input semantic="TEXCOORD" source="#quad-uv" offset="2" set="0"/>
      <p>0 0 0 1 0 1 2 0 2 0 0 0 2 0 2 3 0 3</p>
    </triangles>
  </mesh>
</geometry>`

const brokenGeometry = `
<geometry id="broken-mesh">
  <mesh>
    <source id="broken-pos">
      <float_array id="broken-pos-array" count="3">0 0 0</float_array>
      <technique_common><accessor source="#broken-pos-array" count="1" stride="3"/></technique_common>
    </source>
    <vertices id="broken-verts">
      <input semantic="POSITION" source="#broken-pos"/>
    </vertices>
    <triangles count="1">
      <input semantic="VERTEX" source="#broken-verts" offset="0"/>
      <p>0 0</p>
    </triangles>
  </mesh>
</geometry>`

func colladaDoc(upAxis string, geometries ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">`)
	b.WriteString(`<asset><unit meter="0.01"/>`)
	if upAxis != "" {
		b.WriteString("<up_axis>" + upAxis + "</up_axis>")
	}
	b.WriteString(`</asset><library_geometries>`)
	for _, g := range geometries {
		b.WriteString(g)
	}
	b.WriteString(`</library_geometries></COLLADA>`)
	return []byte(b.String())
}

func TestParseCOLLADATriangles(t *testing.T) {
	c, err := ParseCOLLADA(colladaDoc("", quadGeometry))
	require.NoError(t, err)

	assert.Equal(t, "1.4.1", c.Version)
	assert.Equal(t, UpAxisY, c.UpAxis)
	assert.InDelta(t, 0.01, c.UnitMeter, 1e-6)
	require.Len(t, c.Geometries, 1)

	s := c.Geometries[0]
	assert.Equal(t, "Quad", s.Name)
	assert.Len(t, s.Positions, 4)
	assert.Len(t, s.Normals, 1)
	assert.Len(t, s.TexCoords, 4)
	assert.Equal(t, math.Vec3{X: 1, Y: 1}, s.Positions[2])

	want := []mesh.Triangle{
		{Vertices: [3]uint32{1, 2, 3}, Normals: [3]uint32{1, 1, 1}, TexCoords: [3]uint32{1, 2, 3}},
		{Vertices: [3]uint32{1, 3, 4}, Normals: [3]uint32{1, 1, 1}, TexCoords: [3]uint32{1, 3, 4}},
	}
	assert.Equal(t, want, s.Triangles)
}

func TestParseCOLLADAPolylist(t *testing.T) {
	geom := `
<geometry id="poly">
  <mesh>
    <source id="poly-pos">
      <float_array count="15">0 0 0 1 0 0 1 1 0 0 1 0 0.5 1.5 0</float_array>
      <technique_common><accessor count="5" stride="3"/></technique_common>
    </source>
    <vertices id="poly-verts">
      <input semantic="POSITION" source="#poly-pos"/>
    </vertices>
    <polylist count="2">
      <input semantic="VERTEX" source="#poly-verts" offset="0"/>
      <vcount>4 2</vcount>
      <p>0 1 2 3 3 4</p>
    </polylist>
  </mesh>
</geometry>`

	c, err := ParseCOLLADA(colladaDoc("", geom))
	require.NoError(t, err)
	require.Len(t, c.Geometries, 1)

	s := c.Geometries[0]
	assert.Equal(t, "poly", s.Name, "falls back to the geometry id")
	// The quad fans into two triangles; the two-corner polygon is dropped.
	require.Len(t, s.Triangles, 2)
	assert.Equal(t, [3]uint32{1, 2, 3}, s.Triangles[0].Vertices)
	assert.Equal(t, [3]uint32{1, 3, 4}, s.Triangles[1].Vertices)
	assert.Equal(t, [3]uint32{}, s.Triangles[0].Normals)
	assert.Equal(t, [3]uint32{}, s.Triangles[0].TexCoords)
}

func TestParseCOLLADAVertexAttributes(t *testing.T) {
	// Normals declared on <vertices> share the VERTEX index.
	geom := `
<geometry id="tri">
  <mesh>
    <source id="tri-pos">
      <float_array count="9">0 0 0 1 0 0 0 1 0</float_array>
      <technique_common><accessor count="3" stride="3"/></technique_common>
    </source>
    <source id="tri-norm">
      <float_array count="9">0 0 1 0 0 1 0 0 1</float_array>
      <technique_common><accessor count="3" stride="3"/></technique_common>
    </source>
    <vertices id="tri-verts">
      <input semantic="POSITION" source="#tri-pos"/>
      <input semantic="NORMAL" source="#tri-norm"/>
    </vertices>
    <triangles count="1">
      <input semantic="VERTEX" source="#tri-verts" offset="0"/>
      <p>2 1 0</p>
    </triangles>
  </mesh>
</geometry>`

	c, err := ParseCOLLADA(colladaDoc("", geom))
	require.NoError(t, err)

	tri := c.Geometries[0].Triangles[0]
	assert.Equal(t, [3]uint32{3, 2, 1}, tri.Vertices)
	assert.Equal(t, [3]uint32{3, 2, 1}, tri.Normals)
	assert.Equal(t, [3]uint32{}, tri.TexCoords)
}

func TestParseCOLLADAErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not xml", []byte("<COLLADA"), ErrInvalidCOLLADA},
		{"no geometry", colladaDoc(""), ErrNoGeometry},
		{"short p", colladaDoc("", brokenGeometry), ErrBadPrimitive},
		{
			name: "missing source",
			data: colladaDoc("", strings.Replace(quadGeometry, `source="#quad-pos"`, `source="#nope"`, 1)),
			want: ErrBadSource,
		},
		{
			name: "negative accessor count",
			data: colladaDoc("", strings.Replace(quadGeometry, `count="4" stride="3"`, `count="-1" stride="3"`, 1)),
			want: ErrBadSource,
		},
		{
			name: "negative accessor offset",
			data: colladaDoc("", strings.Replace(quadGeometry,
				`source="#quad-pos-array" count="4"`, `source="#quad-pos-array" offset="-3" count="4"`, 1)),
			want: ErrBadSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCOLLADA(tt.data)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParseCOLLADAPartialResult(t *testing.T) {
	broken2 := strings.ReplaceAll(brokenGeometry, "broken", "other")
	c, err := ParseCOLLADA(colladaDoc("", brokenGeometry, quadGeometry, broken2))

	require.NotNil(t, c)
	require.Len(t, c.Geometries, 1)
	assert.Equal(t, "Quad", c.Geometries[0].Name)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 2)
	for _, e := range errs {
		assert.ErrorIs(t, e, ErrBadPrimitive)
	}
}

func TestColladaToYUp(t *testing.T) {
	tests := []struct {
		axis string
		want math.Vec3
	}{
		{UpAxisY, math.Vec3{X: 1, Y: 2, Z: 3}},
		{UpAxisZ, math.Vec3{X: 1, Y: 3, Z: -2}},
		{UpAxisX, math.Vec3{X: -2, Y: 1, Z: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.axis, func(t *testing.T) {
			c := &Collada{
				UpAxis: tt.axis,
				Geometries: []*mesh.Soup{{
					Positions: []math.Vec3{{X: 1, Y: 2, Z: 3}},
					Normals:   []math.Vec3{{X: 1, Y: 2, Z: 3}},
				}},
			}
			c.ToYUp()
			assert.Equal(t, UpAxisY, c.UpAxis)
			assert.Equal(t, tt.want, c.Geometries[0].Positions[0])
			assert.Equal(t, tt.want, c.Geometries[0].Normals[0])
		})
	}
}

func TestParseCOLLADAUpAxis(t *testing.T) {
	c, err := ParseCOLLADA(colladaDoc("Z_UP", quadGeometry))
	require.NoError(t, err)
	assert.Equal(t, UpAxisZ, c.UpAxis)

	c.ToYUp()
	// (1,1,0) in Z-up becomes (1,0,-1) in Y-up.
	assert.Equal(t, math.Vec3{X: 1, Y: 0, Z: -1}, c.Geometries[0].Positions[2])
}

func TestParseCOLLADALegacyEncoding(t *testing.T) {
	doc := colladaDoc("", strings.Replace(quadGeometry, `name="Quad"`, "name=\"Caf\xe9\"", 1))
	doc = []byte(strings.Replace(string(doc), `encoding="utf-8"`, `encoding="ISO-8859-1"`, 1))

	c, err := ParseCOLLADA(doc)
	require.NoError(t, err)
	assert.Equal(t, "Café", c.Geometries[0].Name)

	bad := []byte(strings.Replace(string(colladaDoc("", quadGeometry)), `encoding="utf-8"`, `encoding="x-unknown"`, 1))
	_, err = ParseCOLLADA(bad)
	assert.ErrorIs(t, err, ErrInvalidCOLLADA)
}
