// Package importer turns interchange files into welded, indexed meshes.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/formats"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// ErrUnsupportedFormat is returned for file extensions with no parser.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Model is one welded mesh of a scene.
type Model struct {
	Name  string
	Mesh  *mesh.Definition
	Stats mesh.WeldStats
}

// Scene is the result of importing one file.
type Scene struct {
	Source string
	Meshes []Model
	// Skipped holds per-geometry parse errors for geometries left out of
	// Meshes. The rest of the file still imported.
	Skipped []error
}

// Totals sums the stats of every mesh.
func (s *Scene) Totals() mesh.WeldStats {
	var t mesh.WeldStats
	for _, m := range s.Meshes {
		t.Triangles += m.Stats.Triangles
		t.Corners += m.Stats.Corners
		t.UniqueVertices += m.Stats.UniqueVertices
		t.MalformedIndices += m.Stats.MalformedIndices
		t.DegenerateUVs += m.Stats.DegenerateUVs
		t.DegenerateFaces += m.Stats.DegenerateFaces
		if m.Stats.OctreeDepth > t.OctreeDepth {
			t.OctreeDepth = m.Stats.OctreeDepth
		}
	}
	return t
}

// Bounds returns the box around every mesh, or an empty box for no vertices.
func (s *Scene) Bounds() math.Box3 {
	b := math.EmptyBox3()
	for _, m := range s.Meshes {
		if len(m.Mesh.Vertices) > 0 {
			b.ExpandByBox(m.Mesh.Bounds())
		}
	}
	return b
}

// Importer parses files and welds their meshes.
type Importer struct {
	cfg config.ImportConfig
	log *zap.Logger
}

// New creates an importer with the given settings.
func New(cfg config.ImportConfig) *Importer {
	return &Importer{
		cfg: cfg,
		log: logger.Named("importer"),
	}
}

// WeldOptions returns the welder options derived from the import settings.
func (im *Importer) WeldOptions() mesh.WeldOptions {
	return mesh.WeldOptions{
		Renormalize:     im.cfg.Renormalize,
		NormalThreshold: im.cfg.NormalThreshold,
	}
}

// Import reads path, choosing the parser from the file extension, and welds
// every mesh it contains.
func (im *Importer) Import(ctx context.Context, path string) (*Scene, error) {
	start := time.Now()

	soups, skipped, err := im.parse(path)
	if err != nil {
		return nil, err
	}
	for _, e := range skipped {
		im.log.Warn("geometry skipped", zap.String("file", path), zap.Error(e))
	}

	scene, err := im.ImportSoups(ctx, soups)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	scene.Source = path
	scene.Skipped = skipped

	totals := scene.Totals()
	im.log.Info("import finished",
		zap.String("file", path),
		zap.Int("meshes", len(scene.Meshes)),
		zap.Int("triangles", totals.Triangles),
		zap.Int("vertices", totals.UniqueVertices),
		zap.Duration("took", time.Since(start)),
	)
	return scene, nil
}

func (im *Importer) parse(path string) ([]*mesh.Soup, []error, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".dae":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		doc, err := formats.ParseCOLLADA(data)
		if doc == nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		doc.ToYUp()
		return doc.Geometries, multierr.Errors(err), nil

	case ".obj":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		soup, err := formats.ParseOBJ(f)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if soup.Name == "" {
			soup.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return []*mesh.Soup{soup}, nil, nil

	case ".gltf", ".glb":
		soups, err := formats.ReadGLTF(path, im.cfg.FlipV)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return soups, nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ImportSoups welds soups concurrently, at most Workers at a time. Each weld
// owns its octree and output, so meshes share no state. Results keep the
// order of soups.
func (im *Importer) ImportSoups(ctx context.Context, soups []*mesh.Soup) (*Scene, error) {
	scene := &Scene{Meshes: make([]Model, len(soups))}
	opts := im.WeldOptions()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers())

	for i, soup := range soups {
		i, soup := i, soup
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			def, stats := mesh.Weld(soup, opts)
			scene.Meshes[i] = Model{Name: soup.Name, Mesh: def, Stats: stats}

			im.log.Debug("mesh welded",
				zap.String("mesh", soup.Name),
				zap.Int("triangles", stats.Triangles),
				zap.Int("vertices", stats.UniqueVertices),
				zap.Float64("ratio", stats.Ratio()),
				zap.Int("malformed", stats.MalformedIndices),
				zap.Int("degenerate_uvs", stats.DegenerateUVs),
				zap.Int("degenerate_faces", stats.DegenerateFaces),
				zap.Int("octree_depth", stats.OctreeDepth),
			)
			if stats.MalformedIndices > 0 {
				im.log.Warn("malformed position indices",
					zap.String("mesh", soup.Name),
					zap.Int("count", stats.MalformedIndices),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scene, nil
}

func (im *Importer) workers() int {
	if im.cfg.Workers > 0 {
		return im.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}
