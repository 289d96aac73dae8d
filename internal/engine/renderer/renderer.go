// Package renderer provides OpenGL rendering functionality.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/engine/lighting"
	"github.com/Faultbox/meshforge/internal/engine/meshgl"
	"github.com/Faultbox/meshforge/internal/engine/shader"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/math"
)

// ShadeMode selects what the mesh program writes to the framebuffer.
type ShadeMode int32

const (
	ShadeLit ShadeMode = iota
	ShadeNormals
	ShadeTangents
	ShadeBitangents
	ShadeTexCoords
	shadeModeCount
)

func (m ShadeMode) String() string {
	switch m {
	case ShadeLit:
		return "lit"
	case ShadeNormals:
		return "normals"
	case ShadeTangents:
		return "tangents"
	case ShadeBitangents:
		return "bitangents"
	case ShadeTexCoords:
		return "texcoords"
	default:
		return fmt.Sprintf("ShadeMode(%d)", int32(m))
	}
}

// Next cycles to the following shade mode.
func (m ShadeMode) Next() ShadeMode {
	return (m + 1) % shadeModeCount
}

// Config holds renderer configuration.
type Config struct {
	Width     int
	Height    int
	Wireframe bool

	LightAzimuth   float32 // degrees around Y
	LightElevation float32 // degrees above the horizon
}

// Renderer draws uploaded meshes with a single debug program.
type Renderer struct {
	config      Config
	program     *shader.Program
	lineProgram *shader.Program
	mode        ShadeMode
	lightDir    math.Vec3
}

const meshVertexShader = `
#version 410 core

in vec3 aPosition;
in vec2 aTexCoord;
in vec3 aNormal;
in vec3 aTangent;
in vec3 aBitangent;

uniform mat4 uModel;
uniform mat4 uViewProj;

out vec3 vNormal;
out vec3 vTangent;
out vec3 vBitangent;
out vec2 vTexCoord;

void main() {
	mat3 m = mat3(uModel);
	vNormal = m * aNormal;
	vTangent = m * aTangent;
	vBitangent = m * aBitangent;
	vTexCoord = aTexCoord;
	gl_Position = uViewProj * uModel * vec4(aPosition, 1.0);
}
`

const meshFragmentShader = `
#version 410 core

in vec3 vNormal;
in vec3 vTangent;
in vec3 vBitangent;
in vec2 vTexCoord;

uniform vec3 uLightDir;
uniform int uMode;

out vec4 FragColor;

vec3 encode(vec3 v) {
	return normalize(v) * 0.5 + 0.5;
}

void main() {
	if (uMode == 1) {
		FragColor = vec4(encode(vNormal), 1.0);
	} else if (uMode == 2) {
		FragColor = vec4(encode(vTangent), 1.0);
	} else if (uMode == 3) {
		FragColor = vec4(encode(vBitangent), 1.0);
	} else if (uMode == 4) {
		FragColor = vec4(fract(vTexCoord), 0.0, 1.0);
	} else {
		float diffuse = max(dot(normalize(vNormal), -uLightDir), 0.0);
		FragColor = vec4(vec3(0.2 + 0.8 * diffuse) * vec3(0.82, 0.80, 0.76), 1.0);
	}
}
`

const lineVertexShader = `
#version 410 core

in vec3 aPosition;
in vec3 aColor;

uniform mat4 uViewProj;

out vec3 vColor;

void main() {
	vColor = aColor;
	gl_Position = uViewProj * vec4(aPosition, 1.0);
}
`

const lineFragmentShader = `
#version 410 core

in vec3 vColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(vColor, 1.0);
}
`

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		lightDir: lighting.LightDirection(cfg.LightAzimuth, cfg.LightElevation),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0) // Dark blue-gray background

	var err error
	r.program, err = shader.NewMeshProgram(meshVertexShader, meshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create mesh program: %w", err)
	}
	logger.Debug("mesh program created", zap.Uint32("program", r.program.ID))

	r.lineProgram, err = shader.NewProgram(lineVertexShader, lineFragmentShader, meshgl.LineAttributes()...)
	if err != nil {
		r.program.Delete()
		return nil, fmt.Errorf("failed to create line program: %w", err)
	}

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.program != nil {
		r.program.Delete()
	}
	if r.lineProgram != nil {
		r.lineProgram.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// SetWireframe toggles polygon line mode.
func (r *Renderer) SetWireframe(on bool) {
	r.config.Wireframe = on
}

// Wireframe reports whether polygon line mode is on.
func (r *Renderer) Wireframe() bool {
	return r.config.Wireframe
}

// SetLight moves the sun used by the lit shade mode.
func (r *Renderer) SetLight(azimuth, elevation float32) {
	r.config.LightAzimuth = azimuth
	r.config.LightElevation = elevation
	r.lightDir = lighting.LightDirection(azimuth, elevation)
}

// Light returns the current sun angles in degrees.
func (r *Renderer) Light() (azimuth, elevation float32) {
	return r.config.LightAzimuth, r.config.LightElevation
}

// SetShadeMode selects the debug output.
func (r *Renderer) SetShadeMode(m ShadeMode) {
	r.mode = m
}

// ShadeMode returns the current debug output.
func (r *Renderer) ShadeMode() ShadeMode {
	return r.mode
}

// Begin clears the frame and binds the mesh program with the camera matrix.
func (r *Renderer) Begin(viewProj math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if r.config.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	r.program.Use()
	r.program.SetMat4("uViewProj", viewProj)
	r.program.SetVec3("uLightDir", r.lightDir)
	r.program.SetInt("uMode", int32(r.mode))
}

// DrawMesh draws one mesh with the given model transform.
func (r *Renderer) DrawMesh(m *meshgl.Mesh, model math.Mat4) {
	r.program.SetMat4("uModel", model)
	m.Draw()
}

// DrawLines draws debug line sets over the meshes. It switches to the line
// program; call it after every DrawMesh of the frame.
func (r *Renderer) DrawLines(viewProj math.Mat4, sets ...*meshgl.Lines) {
	r.lineProgram.Use()
	r.lineProgram.SetMat4("uViewProj", viewProj)
	for _, l := range sets {
		if l != nil {
			l.Draw()
		}
	}
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	gl.UseProgram(0)
}

// ReadPixels returns the RGBA contents of the back buffer, bottom row first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}
