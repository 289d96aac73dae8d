package meshgl

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/meshforge/pkg/mesh"
)

const lineVertexFloats = 6

// LineAttributes is the layout of Lines: position then color.
func LineAttributes() []mesh.Attribute {
	return []mesh.Attribute{
		{Name: "aPosition", Location: 0, Components: 3, Offset: 0},
		{Name: "aColor", Location: 1, Components: 3, Offset: 3 * 4},
	}
}

// Lines is a GL_LINES vertex buffer of colored segments.
type Lines struct {
	vao         uint32
	vbo         uint32
	vertexCount int32
}

// UploadLines uploads interleaved xyz rgb line vertices. Nil input yields an
// empty set that draws nothing.
func UploadLines(vertices []float32) *Lines {
	l := &Lines{vertexCount: int32(len(vertices) / lineVertexFloats)}
	if l.vertexCount == 0 {
		return l
	}

	gl.GenVertexArrays(1, &l.vao)
	gl.BindVertexArray(l.vao)

	gl.GenBuffers(1, &l.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	for _, a := range LineAttributes() {
		gl.VertexAttribPointerWithOffset(a.Location, a.Components, gl.FLOAT, false, lineVertexFloats*4, uintptr(a.Offset))
		gl.EnableVertexAttribArray(a.Location)
	}

	gl.BindVertexArray(0)
	return l
}

// Draw issues the line draw call. The caller binds the program.
func (l *Lines) Draw() {
	if l.vertexCount == 0 {
		return
	}
	gl.BindVertexArray(l.vao)
	gl.DrawArrays(gl.LINES, 0, l.vertexCount)
	gl.BindVertexArray(0)
}

// Delete releases the GPU buffers.
func (l *Lines) Delete() {
	if l.vao != 0 {
		gl.DeleteVertexArrays(1, &l.vao)
		l.vao = 0
	}
	if l.vbo != 0 {
		gl.DeleteBuffers(1, &l.vbo)
		l.vbo = 0
	}
	l.vertexCount = 0
}
