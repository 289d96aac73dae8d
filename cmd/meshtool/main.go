// meshtool imports COLLADA, OBJ and glTF files, welds them into indexed
// meshes and reports or exports the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/importer"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch command {
	case "info":
		err = cmdInfo(ctx, args)
	case "weld", "export":
		err = cmdWeld(ctx, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - mesh import and vertex welding utility

Usage:
  meshtool <command> [options]

Commands:
  info <file>               Import a file and print per-mesh weld stats
  weld <file> <out.glb>     Import a file and export the welded meshes as GLB

Supported inputs: .dae, .obj, .gltf, .glb

Options (info, weld):
  -config <path>       Config file (default: ./meshforge.yaml)
  -renormalize         Recompute face normals while welding
  -threshold <dot>     Normal dot product needed to weld (default 0.9)
  -workers <n>         Meshes welded in parallel (0 = all CPUs)
  -flip-v              Mirror glTF texture V on read
  -v                   Debug logging
  -log-json            Log as JSON

Examples:
  meshtool info crate.dae
  meshtool weld -renormalize scene.obj scene.glb`)
}

// commandFlags registers the import options shared by every command.
type commandFlags struct {
	fs          *flag.FlagSet
	configPath  *string
	renormalize *bool
	threshold   *float64
	workers     *int
	flipV       *bool
	verbose     *bool
	logJSON     *bool
}

func newCommandFlags(name string) *commandFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &commandFlags{
		fs:          fs,
		configPath:  fs.String("config", "", "Path to config file"),
		renormalize: fs.Bool("renormalize", false, "Recompute face normals while welding"),
		threshold:   fs.Float64("threshold", -2, "Normal dot product needed to weld"),
		workers:     fs.Int("workers", -1, "Meshes welded in parallel (0 = all CPUs)"),
		flipV:       fs.Bool("flip-v", false, "Mirror glTF texture V on read"),
		verbose:     fs.Bool("v", false, "Debug logging"),
		logJSON:     fs.Bool("log-json", false, "Log as JSON"),
	}
}

// setup parses args, loads config with the flag overrides and starts logging.
func (f *commandFlags) setup(args []string) (*config.Config, error) {
	f.fs.Parse(args)

	cfg, err := config.LoadFile(*f.configPath)
	if err != nil {
		return nil, err
	}
	if *f.renormalize {
		cfg.Import.Renormalize = true
	}
	if *f.threshold >= -1 {
		cfg.Import.NormalThreshold = float32(*f.threshold)
	}
	if *f.workers >= 0 {
		cfg.Import.Workers = *f.workers
	}
	if *f.flipV {
		cfg.Import.FlipV = true
	}
	if *f.verbose {
		cfg.Logging.Level = "debug"
	}
	if *f.logJSON {
		cfg.Logging.Format = logger.FormatJSON
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: true,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cmdInfo(ctx context.Context, args []string) error {
	f := newCommandFlags("info")
	cfg, err := f.setup(args)
	if err != nil {
		return err
	}
	if f.fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info [options] <file>")
		os.Exit(1)
	}

	scene, err := importer.New(cfg.Import).Import(ctx, f.fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("File:    %s\n", scene.Source)
	fmt.Printf("Meshes:  %d\n", len(scene.Meshes))
	if len(scene.Skipped) > 0 {
		fmt.Printf("Skipped: %d\n", len(scene.Skipped))
		for _, e := range scene.Skipped {
			fmt.Printf("  %v\n", e)
		}
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MESH\tTRIANGLES\tCORNERS\tVERTICES\tRATIO\tMALFORMED\tDEGENERATE UV\tDEGENERATE FACE\tDEPTH\t")
	for _, m := range scene.Meshes {
		s := m.Stats
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3f\t%d\t%d\t%d\t%d\t\n",
			m.Name, s.Triangles, s.Corners, s.UniqueVertices, s.Ratio(),
			s.MalformedIndices, s.DegenerateUVs, s.DegenerateFaces, s.OctreeDepth)
	}
	t := scene.Totals()
	fmt.Fprintf(tw, "total\t%d\t%d\t%d\t%.3f\t%d\t%d\t%d\t%d\t\n",
		t.Triangles, t.Corners, t.UniqueVertices, t.Ratio(),
		t.MalformedIndices, t.DegenerateUVs, t.DegenerateFaces, t.OctreeDepth)
	if err := tw.Flush(); err != nil {
		return err
	}

	b := scene.Bounds()
	if !b.IsEmpty() {
		fmt.Printf("\nBounds:  (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
			b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	}
	return nil
}

func cmdWeld(ctx context.Context, args []string) error {
	f := newCommandFlags("weld")
	cfg, err := f.setup(args)
	if err != nil {
		return err
	}
	if f.fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool weld [options] <file> <out.glb>")
		os.Exit(1)
	}
	in, out := f.fs.Arg(0), f.fs.Arg(1)

	scene, err := importer.New(cfg.Import).Import(ctx, in)
	if err != nil {
		return err
	}

	meshes := make([]formats.ExportMesh, 0, len(scene.Meshes))
	for _, m := range scene.Meshes {
		if err := m.Mesh.Validate(); err != nil {
			return fmt.Errorf("mesh %q: %w", m.Name, err)
		}
		meshes = append(meshes, formats.ExportMesh{Name: m.Name, Mesh: m.Mesh})
	}
	if err := formats.WriteGLB(out, meshes); err != nil {
		return err
	}

	t := scene.Totals()
	logger.Info("exported",
		zap.String("file", out),
		zap.Int("meshes", len(meshes)),
		zap.Int("vertices", t.UniqueVertices),
		zap.Int("indices", t.Corners),
	)
	fmt.Printf("Wrote %s: %d meshes, %d vertices, %d triangles\n", out, len(meshes), t.UniqueVertices, t.Triangles)
	return nil
}
