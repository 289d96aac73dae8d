// COLLADA (.dae) geometry parser.

package formats

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// COLLADA format errors.
var (
	ErrInvalidCOLLADA = errors.New("invalid COLLADA document")
	ErrNoGeometry     = errors.New("COLLADA document has no mesh geometry")
	ErrBadSource      = errors.New("invalid COLLADA source")
	ErrBadPrimitive   = errors.New("invalid COLLADA primitive")
)

// Up axes declared in <asset><up_axis>.
const (
	UpAxisX = "X_UP"
	UpAxisY = "Y_UP"
	UpAxisZ = "Z_UP"
)

// Collada holds the geometry extracted from a COLLADA document.
type Collada struct {
	Version    string
	UpAxis     string  // X_UP, Y_UP or Z_UP; Y_UP when unspecified
	UnitMeter  float32 // meters per unit; 1 when unspecified
	Geometries []*mesh.Soup
}

type daeDocument struct {
	XMLName xml.Name `xml:"COLLADA"`
	Version string   `xml:"version,attr"`
	Asset   struct {
		UpAxis string `xml:"up_axis"`
		Unit   struct {
			Meter float32 `xml:"meter,attr"`
		} `xml:"unit"`
	} `xml:"asset"`
	Geometries []daeGeometry `xml:"library_geometries>geometry"`
}

type daeGeometry struct {
	ID   string   `xml:"id,attr"`
	Name string   `xml:"name,attr"`
	Mesh *daeMesh `xml:"mesh"`
}

type daeMesh struct {
	Sources   []daeSource    `xml:"source"`
	Vertices  daeVertices    `xml:"vertices"`
	Triangles []daePrimitive `xml:"triangles"`
	Polylists []daePrimitive `xml:"polylist"`
}

type daeSource struct {
	ID         string `xml:"id,attr"`
	FloatArray struct {
		Count int    `xml:"count,attr"`
		Data  string `xml:",chardata"`
	} `xml:"float_array"`
	Accessor struct {
		Count  int `xml:"count,attr"`
		Stride int `xml:"stride,attr"`
		Offset int `xml:"offset,attr"`
	} `xml:"technique_common>accessor"`
}

type daeVertices struct {
	ID     string     `xml:"id,attr"`
	Inputs []daeInput `xml:"input"`
}

type daeInput struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   int    `xml:"offset,attr"`
	Set      int    `xml:"set,attr"`
}

type daePrimitive struct {
	Count    int        `xml:"count,attr"`
	Material string     `xml:"material,attr"`
	Inputs   []daeInput `xml:"input"`
	VCount   string     `xml:"vcount"`
	P        string     `xml:"p"`
}

// ParseCOLLADA extracts every <mesh> geometry as a triangle soup.
// A geometry that fails to parse is skipped; its error is returned together
// with the geometries that did parse. The error is nil only when every
// geometry parsed.
func ParseCOLLADA(data []byte) (*Collada, error) {
	var doc daeDocument
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCOLLADA, err)
	}

	c := &Collada{
		Version:   doc.Version,
		UpAxis:    strings.TrimSpace(doc.Asset.UpAxis),
		UnitMeter: doc.Asset.Unit.Meter,
	}
	if c.UpAxis == "" {
		c.UpAxis = UpAxisY
	}
	if c.UnitMeter == 0 {
		c.UnitMeter = 1
	}

	var errs error
	for i := range doc.Geometries {
		g := &doc.Geometries[i]
		if g.Mesh == nil {
			continue // splines and convex meshes carry no triangles
		}
		soup, err := g.Mesh.toSoup()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("geometry %q: %w", g.ID, err))
			continue
		}
		soup.Name = g.Name
		if soup.Name == "" {
			soup.Name = g.ID
		}
		c.Geometries = append(c.Geometries, soup)
	}

	if len(c.Geometries) == 0 {
		if errs != nil {
			return nil, errs
		}
		return nil, ErrNoGeometry
	}
	return c, errs
}

// ToYUp rotates positions and normals of Z_UP and X_UP documents into the
// engine's Y-up convention and updates UpAxis.
func (c *Collada) ToYUp() {
	var conv func(math.Vec3) math.Vec3
	switch c.UpAxis {
	case UpAxisZ:
		conv = func(v math.Vec3) math.Vec3 { return math.Vec3{X: v.X, Y: v.Z, Z: -v.Y} }
	case UpAxisX:
		conv = func(v math.Vec3) math.Vec3 { return math.Vec3{X: -v.Y, Y: v.X, Z: v.Z} }
	default:
		return
	}
	for _, s := range c.Geometries {
		for i := range s.Positions {
			s.Positions[i] = conv(s.Positions[i])
		}
		for i := range s.Normals {
			s.Normals[i] = conv(s.Normals[i])
		}
	}
	c.UpAxis = UpAxisY
}

// primitiveInputs holds the <p> offsets of the attributes a primitive uses;
// -1 marks an absent attribute.
type primitiveInputs struct {
	position, normal, texcoord int
	stride                     int
}

func (m *daeMesh) toSoup() (*mesh.Soup, error) {
	sources := make(map[string]*daeSource, len(m.Sources))
	for i := range m.Sources {
		sources[m.Sources[i].ID] = &m.Sources[i]
	}

	soup := &mesh.Soup{}

	// Sources are read once per geometry; primitives share the arrays.
	var (
		posID, normID, uvID string
		vertNormal          bool
		vertUV              bool
	)
	for _, in := range m.Vertices.Inputs {
		switch in.Semantic {
		case "POSITION":
			posID = sourceRef(in.Source)
		case "NORMAL":
			normID = sourceRef(in.Source)
			vertNormal = true
		case "TEXCOORD":
			uvID = sourceRef(in.Source)
			vertUV = true
		}
	}
	if posID == "" {
		return nil, fmt.Errorf("%w: <vertices> has no POSITION input", ErrBadSource)
	}

	prims := make([]daePrimitive, 0, len(m.Triangles)+len(m.Polylists))
	prims = append(prims, m.Triangles...)
	prims = append(prims, m.Polylists...)

	// Primitive-level NORMAL/TEXCOORD inputs name their own sources. Only the
	// lowest texcoord set is kept.
	uvSet := -1
	for _, p := range prims {
		for _, in := range p.Inputs {
			switch in.Semantic {
			case "NORMAL":
				if normID == "" {
					normID = sourceRef(in.Source)
				}
			case "TEXCOORD":
				if vertUV {
					continue
				}
				if uvID == "" || in.Set < uvSet {
					uvID = sourceRef(in.Source)
					uvSet = in.Set
				}
			}
		}
	}

	var err error
	if soup.Positions, err = readVec3Source(sources, posID); err != nil {
		return nil, err
	}
	if normID != "" {
		if soup.Normals, err = readVec3Source(sources, normID); err != nil {
			return nil, err
		}
	}
	if uvID != "" {
		if soup.TexCoords, err = readVec2Source(sources, uvID); err != nil {
			return nil, err
		}
	}

	vertID := m.Vertices.ID
	for i, p := range m.Triangles {
		in := p.inputs(vertID, normID, uvID, vertNormal, vertUV)
		if err := in.addTriangles(soup, p); err != nil {
			return nil, fmt.Errorf("triangles %d: %w", i, err)
		}
	}
	for i, p := range m.Polylists {
		in := p.inputs(vertID, normID, uvID, vertNormal, vertUV)
		if err := in.addPolylist(soup, p); err != nil {
			return nil, fmt.Errorf("polylist %d: %w", i, err)
		}
	}
	return soup, nil
}

func (p *daePrimitive) inputs(vertID, normID, uvID string, vertNormal, vertUV bool) primitiveInputs {
	in := primitiveInputs{position: -1, normal: -1, texcoord: -1}
	for _, input := range p.Inputs {
		if input.Offset+1 > in.stride {
			in.stride = input.Offset + 1
		}
		ref := sourceRef(input.Source)
		switch input.Semantic {
		case "VERTEX":
			if ref != vertID {
				continue
			}
			in.position = input.Offset
			// Attributes declared on <vertices> share the vertex index.
			if vertNormal {
				in.normal = input.Offset
			}
			if vertUV {
				in.texcoord = input.Offset
			}
		case "NORMAL":
			if ref == normID {
				in.normal = input.Offset
			}
		case "TEXCOORD":
			if ref == uvID {
				in.texcoord = input.Offset
			}
		}
	}
	return in
}

func (in primitiveInputs) addTriangles(soup *mesh.Soup, p daePrimitive) error {
	if in.position < 0 {
		return fmt.Errorf("%w: no VERTEX input", ErrBadPrimitive)
	}
	idx, err := parseUints(p.P)
	if err != nil {
		return err
	}
	need := p.Count * 3 * in.stride
	if len(idx) < need {
		return fmt.Errorf("%w: <p> has %d indices, want %d", ErrBadPrimitive, len(idx), need)
	}
	for t := 0; t < p.Count; t++ {
		base := t * 3 * in.stride
		soup.Triangles = append(soup.Triangles, in.triangle(idx, base, base+in.stride, base+2*in.stride))
	}
	return nil
}

func (in primitiveInputs) addPolylist(soup *mesh.Soup, p daePrimitive) error {
	if in.position < 0 {
		return fmt.Errorf("%w: no VERTEX input", ErrBadPrimitive)
	}
	counts, err := parseUints(p.VCount)
	if err != nil {
		return err
	}
	idx, err := parseUints(p.P)
	if err != nil {
		return err
	}

	base := 0
	for _, n := range counts {
		corners := int(n)
		if base+corners*in.stride > len(idx) {
			return fmt.Errorf("%w: <p> too short for <vcount>", ErrBadPrimitive)
		}
		// Fan around the first corner; points and lines are dropped.
		for k := 1; k+1 < corners; k++ {
			soup.Triangles = append(soup.Triangles, in.triangle(idx,
				base, base+k*in.stride, base+(k+1)*in.stride))
		}
		base += corners * in.stride
	}
	return nil
}

// triangle builds a 1-based Triangle from the <p> groups starting at a, b, c.
func (in primitiveInputs) triangle(idx []uint32, a, b, c int) mesh.Triangle {
	var t mesh.Triangle
	for corner, group := range [3]int{a, b, c} {
		t.Vertices[corner] = idx[group+in.position] + 1
		if in.normal >= 0 {
			t.Normals[corner] = idx[group+in.normal] + 1
		}
		if in.texcoord >= 0 {
			t.TexCoords[corner] = idx[group+in.texcoord] + 1
		}
	}
	return t
}

// charsetReader decodes documents declaring a non UTF-8 encoding, such as
// ISO-8859-1 or EUC-KR from older exporters.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

func sourceRef(s string) string {
	return strings.TrimPrefix(s, "#")
}

func readFloats(sources map[string]*daeSource, id string, components int) ([]float32, int, error) {
	src, ok := sources[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: source %q not found", ErrBadSource, id)
	}
	fields := strings.Fields(src.FloatArray.Data)
	values := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: source %q value %d: %v", ErrBadSource, id, i, err)
		}
		values[i] = float32(v)
	}

	stride := src.Accessor.Stride
	if stride == 0 {
		stride = components
	}
	if stride < components {
		return nil, 0, fmt.Errorf("%w: source %q stride %d < %d", ErrBadSource, id, stride, components)
	}
	if src.Accessor.Offset < 0 || src.Accessor.Count < 0 {
		return nil, 0, fmt.Errorf("%w: source %q accessor offset %d count %d",
			ErrBadSource, id, src.Accessor.Offset, src.Accessor.Count)
	}
	count := src.Accessor.Count
	if count == 0 {
		count = (len(values) - src.Accessor.Offset) / stride
	}
	if src.Accessor.Offset+count*stride > len(values) {
		return nil, 0, fmt.Errorf("%w: source %q has %d values, accessor needs %d",
			ErrBadSource, id, len(values), src.Accessor.Offset+count*stride)
	}
	return values[src.Accessor.Offset:], count, nil
}

func readVec3Source(sources map[string]*daeSource, id string) ([]math.Vec3, error) {
	values, count, err := readFloats(sources, id, 3)
	if err != nil {
		return nil, err
	}
	stride := strideOf(sources[id], 3)
	out := make([]math.Vec3, count)
	for i := range out {
		o := i * stride
		out[i] = math.Vec3{X: values[o], Y: values[o+1], Z: values[o+2]}
	}
	return out, nil
}

func readVec2Source(sources map[string]*daeSource, id string) ([]math.Vec2, error) {
	values, count, err := readFloats(sources, id, 2)
	if err != nil {
		return nil, err
	}
	stride := strideOf(sources[id], 2)
	out := make([]math.Vec2, count)
	for i := range out {
		o := i * stride
		out[i] = math.Vec2{X: values[o], Y: values[o+1]}
	}
	return out, nil
}

func strideOf(src *daeSource, components int) int {
	if src.Accessor.Stride == 0 {
		return components
	}
	return src.Accessor.Stride
}

func parseUints(s string) ([]uint32, error) {
	fields := strings.Fields(s)
	out := make([]uint32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: index %d: %v", ErrBadPrimitive, i, err)
		}
		out[i] = uint32(v)
	}
	return out, nil
}
