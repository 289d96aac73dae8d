// glTF 2.0 reading and GLB writing.

package formats

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// ErrNoTriangles is returned when a glTF document has no triangle primitive.
var ErrNoTriangles = errors.New("glTF document has no triangle primitives")

// ExportMesh names one indexed mesh for WriteGLB.
type ExportMesh struct {
	Name string
	Mesh *mesh.Definition
}

// ReadGLTF loads a .gltf or .glb file and returns one soup per triangle
// primitive. glTF attributes share one index per corner, so every corner gets
// the same 1-based index for position, normal and texcoord. With flipV set
// texture V is mirrored to a bottom-left origin.
func ReadGLTF(path string, flipV bool) ([]*mesh.Soup, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	var soups []*mesh.Soup
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				// Skip non-triangle primitives (lines, points, etc)
				continue
			}
			soup, err := readPrimitive(doc, prim, flipV)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			if soup == nil {
				continue
			}
			soup.Name = m.Name
			if len(m.Primitives) > 1 {
				soup.Name = fmt.Sprintf("%s.%d", m.Name, pi)
			}
			soups = append(soups, soup)
		}
	}
	if len(soups) == 0 {
		return nil, ErrNoTriangles
	}
	return soups, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, flipV bool) (*mesh.Soup, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	soup := &mesh.Soup{Positions: make([]math.Vec3, len(positions))}
	for i, p := range positions {
		soup.Positions[i] = math.Vec3{X: p[0], Y: p[1], Z: p[2]}
	}

	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
		soup.Normals = make([]math.Vec3, len(normals))
		for i, n := range normals {
			soup.Normals[i] = math.Vec3{X: n[0], Y: n[1], Z: n[2]}
		}
	}

	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
		soup.TexCoords = make([]math.Vec2, len(uvs))
		for i, uv := range uvs {
			v := uv[1]
			if flipV {
				v = 1 - v
			}
			soup.TexCoords[i] = math.Vec2{X: uv[0], Y: v}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	hasUV := len(soup.TexCoords) > 0
	hasNormal := len(soup.Normals) > 0
	for i := 0; i+2 < len(indices); i += 3 {
		var t mesh.Triangle
		for c := 0; c < 3; c++ {
			idx := indices[i+c] + 1
			t.Vertices[c] = idx
			if hasUV {
				t.TexCoords[c] = idx
			}
			if hasNormal {
				t.Normals[c] = idx
			}
		}
		soup.Triangles = append(soup.Triangles, t)
	}
	return soup, nil
}

// WriteGLB writes the meshes as one binary glTF file with a node per mesh.
// Tangents are stored as vec4 with the bitangent handedness in W.
func WriteGLB(path string, meshes []ExportMesh) error {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "meshforge"

	for _, em := range meshes {
		if em.Mesh == nil || len(em.Mesh.Indices) == 0 {
			continue
		}
		verts := em.Mesh.Vertices
		positions := make([][3]float32, len(verts))
		normals := make([][3]float32, len(verts))
		tangents := make([][4]float32, len(verts))
		uvs := make([][2]float32, len(verts))
		for i, v := range verts {
			positions[i] = v.Position.Array()
			normals[i] = v.Normal.Array()
			uvs[i] = v.TexCoord.Array()
			tangents[i] = [4]float32{v.Tangent.X, v.Tangent.Y, v.Tangent.Z, handedness(v)}
		}

		prim := &gltf.Primitive{
			Attributes: map[string]int{
				gltf.POSITION:   modeler.WritePosition(doc, positions),
				gltf.NORMAL:     modeler.WriteNormal(doc, normals),
				gltf.TANGENT:    modeler.WriteTangent(doc, tangents),
				gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
			},
			Indices: gltf.Index(modeler.WriteIndices(doc, em.Mesh.Indices)),
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: em.Name, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: em.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	if len(doc.Meshes) == 0 {
		return ErrNoTriangles
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save glb: %w", err)
	}
	return nil
}

// handedness is +1 when (N x T) points along B and -1 otherwise.
func handedness(v mesh.Vertex) float32 {
	if v.Normal.Cross(v.Tangent).Dot(v.Bitangent) < 0 {
		return -1
	}
	return 1
}
