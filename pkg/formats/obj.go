// Wavefront OBJ parser.

package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// ErrInvalidOBJ is returned for malformed OBJ statements.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// ParseOBJ reads the v/vt/vn/f statements of an OBJ file into a single soup.
// OBJ indices are already 1-based; negative indices are resolved relative to
// the attributes read so far. Faces with more than three corners are fan
// triangulated.
func ParseOBJ(r io.Reader) (*mesh.Soup, error) {
	soup := &mesh.Soup{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		var err error
		switch fields[0] {
		case "v":
			var v math.Vec3
			v, err = parseVec3(fields[1:])
			soup.Positions = append(soup.Positions, v)
		case "vn":
			var v math.Vec3
			v, err = parseVec3(fields[1:])
			soup.Normals = append(soup.Normals, v)
		case "vt":
			var v math.Vec2
			v, err = parseVec2(fields[1:])
			soup.TexCoords = append(soup.TexCoords, v)
		case "f":
			err = addOBJFace(soup, fields[1:])
		case "o":
			if soup.Name == "" && len(fields) > 1 {
				soup.Name = strings.Join(fields[1:], " ")
			}
		}
		// mtllib, usemtl, g, s and the rest carry nothing the welder needs.
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return soup, nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("expected 3 components, found %d", len(fields))
	}
	var v [3]float32
	for i := range v {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, err
		}
		v[i] = float32(f)
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func parseVec2(fields []string) (math.Vec2, error) {
	if len(fields) < 1 {
		return math.Vec2{}, errors.New("expected at least 1 component")
	}
	var v [2]float32
	for i := 0; i < 2 && i < len(fields); i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec2{}, err
		}
		v[i] = float32(f)
	}
	return math.Vec2{X: v[0], Y: v[1]}, nil
}

type objCorner struct {
	v, vt, vn uint32
}

func addOBJFace(soup *mesh.Soup, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face needs 3 corners, found %d", len(fields))
	}
	corners := make([]objCorner, len(fields))
	for i, f := range fields {
		parts := strings.Split(f, "/")
		if len(parts) > 3 {
			return fmt.Errorf("bad face corner %q", f)
		}
		var err error
		if corners[i].v, err = objIndex(parts[0], len(soup.Positions)); err != nil {
			return err
		}
		if len(parts) > 1 {
			if corners[i].vt, err = objIndex(parts[1], len(soup.TexCoords)); err != nil {
				return err
			}
		}
		if len(parts) > 2 {
			if corners[i].vn, err = objIndex(parts[2], len(soup.Normals)); err != nil {
				return err
			}
		}
	}

	for k := 1; k+1 < len(corners); k++ {
		a, b, c := corners[0], corners[k], corners[k+1]
		soup.Triangles = append(soup.Triangles, mesh.Triangle{
			Vertices:  [3]uint32{a.v, b.v, c.v},
			TexCoords: [3]uint32{a.vt, b.vt, c.vt},
			Normals:   [3]uint32{a.vn, b.vn, c.vn},
		})
	}
	return nil
}

// objIndex converts one OBJ index token to the 1-based convention. An empty
// token (as in "v//vn") is absent; a relative index before the first element
// also resolves to absent.
func objIndex(tok string, count int) (uint32, error) {
	if tok == "" {
		return 0, nil
	}
	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", tok)
	}
	if i < 0 {
		i = int64(count) + 1 + i
		if i < 1 {
			return 0, nil
		}
	}
	if i > int64(^uint32(0)) {
		return 0, fmt.Errorf("index %q out of range", tok)
	}
	return uint32(i), nil
}
