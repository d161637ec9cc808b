// colexport extracts named collision geometry from a 3D scene file and
// writes it as a text mesh with per-triangle floor/wall/ceiling tags.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/colexport/internal/config"
	"github.com/Faultbox/colexport/internal/logger"
	"github.com/Faultbox/colexport/pkg/collision"
	"github.com/Faultbox/colexport/pkg/scene"
)

// Exit codes.
const (
	exitOK              = 0
	exitFailure         = 1
	exitNotAScene       = 2
	exitNotFound        = 3
	exitNoGeometry      = 4
	exitNotTriangulated = 5
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, `colexport - collision mesh exporter

Usage:
  colexport [options] <input_scene> <output.collision>

Inputs:
  .glb .gltf   glTF 2.0 scenes
  .rsm .rsm2   RSM model node hierarchies
  .obj         OBJ files with named objects/groups

With --grf, <input_scene> is an RSM or OBJ path inside the archive.

Options:`)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w, `
Examples:
  colexport level.glb level.collision
  colexport --name COL_FLOOR --type 0 level.glb floor.collision
  colexport level.obj level.collision --weld-eps 0
  colexport --grf data.grf data/model/house.rsm house.collision`)
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("colexport", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := config.BindFlags(fs)

	positional, err := parseInterleaved(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(stdout, fs)
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		printUsage(stderr, fs)
		return exitFailure
	}
	if len(positional) != 2 {
		printUsage(stderr, fs)
		return exitFailure
	}
	input, output := positional[0], positional[1]

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(stderr, "Error: initializing logger: %v\n", err)
		return exitFailure
	}
	defer logger.Sync()

	if path := flags.SaveConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(stderr, "Error: saving config: %v\n", err)
			return exitFailure
		}
		logger.Info("Saved config", zap.String("path", path))
	}

	sc, err := loadScene(input, flags.ArchivePath())
	if err != nil {
		return fail(stderr, err, cfg)
	}
	logger.Debug("Loaded scene",
		zap.Int("nodes", len(sc.Nodes)),
		zap.Int("geometries", len(sc.Geometries)))

	opts := cfg.Options()
	opts.Logger = logger.Named("export")
	mesh, stats, err := collision.Export(sc, opts)
	if err != nil {
		return fail(stderr, err, cfg)
	}

	if err := collision.WriteFile(output, mesh); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	logger.Debug("Exported collision mesh",
		zap.String("output", output),
		zap.Int("nodes", stats.Nodes),
		zap.Int("vertices", stats.Vertices),
		zap.Int("faces", stats.Faces))
	fmt.Fprintf(stdout, "Wrote %d vertices, %d triangles -> %s\n", stats.Vertices, stats.Faces, output)
	return exitOK
}

func loadScene(input, archive string) (*scene.Scene, error) {
	if archive != "" {
		logger.Debug("Loading scene from archive",
			zap.String("archive", archive),
			zap.String("entry", input))
		return scene.LoadFromArchive(archive, input)
	}
	logger.Debug("Loading scene", zap.String("input", input))
	return scene.Load(input)
}

// parseInterleaved parses flags that may appear before, between or after
// positional arguments. A "--" ends flag parsing.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		// Parse stops at "--" after consuming it, so everything left is positional
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// fail reports a pipeline error and maps it to an exit code.
func fail(stderr io.Writer, err error, cfg *config.Config) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)

	name := cfg.Export.NodeName
	code := exitCode(err)
	switch code {
	case exitNotAScene:
		fmt.Fprintf(stderr, "Put %s as a named node/object in the scene.\n", name)
	case exitNotFound:
		fmt.Fprintf(stderr, "Tip: In Blender, the *Object* name must be exactly %s.\n", name)
	case exitNotTriangulated:
		fmt.Fprintf(stderr, "Triangulate the %s mesh before export (e.g. in Blender).\n", name)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, scene.ErrNotAScene):
		return exitNotAScene
	case errors.Is(err, scene.ErrNodeNotFound):
		return exitNotFound
	case errors.Is(err, collision.ErrNoTriangleGeometry), errors.Is(err, collision.ErrEmptyResult):
		return exitNoGeometry
	case errors.Is(err, collision.ErrNotTriangulated):
		return exitNotTriangulated
	default:
		return exitFailure
	}
}
