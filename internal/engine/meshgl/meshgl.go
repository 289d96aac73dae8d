// Package meshgl uploads welded meshes to the GPU.
package meshgl

import (
	"errors"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// ErrEmptyMesh is returned when a mesh has no indices to draw.
var ErrEmptyMesh = errors.New("mesh has no triangles")

// Mesh is a mesh.Definition resident in GPU buffers.
type Mesh struct {
	Name       string
	Bounds     math.Box3
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

// Upload copies def into a VAO with one interleaved VBO and a uint32 EBO.
// Attribute pointers follow mesh.AttributeLayout.
func Upload(name string, def *mesh.Definition) (*Mesh, error) {
	if len(def.Indices) == 0 || len(def.Vertices) == 0 {
		return nil, ErrEmptyMesh
	}
	vertices := def.Interleave()

	m := &Mesh{
		Name:       name,
		Bounds:     def.Bounds(),
		indexCount: int32(len(def.Indices)),
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	for _, a := range mesh.AttributeLayout() {
		gl.VertexAttribPointerWithOffset(a.Location, a.Components, gl.FLOAT, false, mesh.VertexStride, uintptr(a.Offset))
		gl.EnableVertexAttribArray(a.Location)
	}

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(def.Indices)*4, unsafe.Pointer(&def.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return m, nil
}

// IndexCount returns the number of indices drawn.
func (m *Mesh) IndexCount() int32 {
	return m.indexCount
}

// Draw issues the indexed draw call. The caller binds the program.
func (m *Mesh) Draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Delete releases the GPU buffers.
func (m *Mesh) Delete() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
}
