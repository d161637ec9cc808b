// colinspect lists scene nodes and archive entries and summarizes written
// collision files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/colexport/pkg/collision"
	"github.com/Faultbox/colexport/pkg/grf"
	"github.com/Faultbox/colexport/pkg/scene"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `colinspect - collision export inspector

Usage:
  colinspect <command> [options]

Commands:
  nodes [-grf file.grf] <scene>      List scene nodes and their geometry
  ls [-n N] <file.grf> [pattern]     List archive files (optional glob or substring)
  stats <file.collision>             Validate a collision file and count faces by type

Examples:
  colinspect nodes level.glb
  colinspect nodes -grf data.grf data/model/house.rsm
  colinspect ls data.grf "*.rsm"
  colinspect stats level.collision`)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	var err error
	switch command, rest := args[0], args[1:]; command {
	case "nodes":
		err = cmdNodes(rest, stdout)
	case "ls", "list":
		err = cmdList(rest, stdout, stderr)
	case "stats":
		err = cmdStats(rest, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// usageError is returned for bad command lines.
type usageError string

func (e usageError) Error() string { return "usage: colinspect " + string(e) }

func cmdNodes(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("nodes", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	archive := fs.String("grf", "", "Read the scene from this GRF archive")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("nodes [-grf file.grf] <scene>")
	}

	var sc *scene.Scene
	var err error
	if *archive != "" {
		sc, err = scene.LoadFromArchive(*archive, fs.Arg(0))
	} else {
		sc, err = scene.Load(fs.Arg(0))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%-32s %-24s %8s %8s\n", "NODE", "GEOMETRY", "VERTICES", "FACES")
	for _, n := range sc.Nodes {
		g := sc.Geometry(n.Geometry)
		if g == nil {
			fmt.Fprintf(stdout, "%-32s %-24s %8s %8s\n", n.Name, n.Geometry, "-", "-")
			continue
		}
		fmt.Fprintf(stdout, "%-32s %-24s %8d %8d\n", n.Name, g.Name, len(g.Positions), g.FaceCount())
	}
	return nil
}

func cmdList(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return usageError("ls [-n N] <file.grf> [pattern]")
	}

	a, err := grf.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer a.Close()

	pattern := strings.ToLower(fs.Arg(1))
	count := 0
	for _, f := range a.List() {
		if pattern != "" {
			matched, _ := path.Match(pattern, path.Base(f))
			if !matched && !strings.Contains(f, pattern) {
				continue
			}
		}
		fmt.Fprintln(stdout, f)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(stderr, "(%d files matched)\n", count)
	}
	return nil
}

func cmdStats(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return usageError("stats <file.collision>")
	}

	m, err := collision.ReadFile(args[0])
	if err != nil {
		return err
	}
	if len(m.Faces) == 0 {
		return collision.ErrEmptyResult
	}

	counts := m.CountByType()
	fmt.Fprintf(stdout, "File:     %s\n", args[0])
	fmt.Fprintf(stdout, "Vertices: %d\n", len(m.Vertices))
	fmt.Fprintf(stdout, "Faces:    %d (floor %d, wall %d, ceiling %d)\n",
		len(m.Faces), counts[collision.Floor], counts[collision.Wall], counts[collision.Ceiling])

	lo, hi := bounds(m.Vertices)
	fmt.Fprintf(stdout, "Bounds:   (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])

	if unused := len(m.Vertices) - referencedVertices(m); unused > 0 {
		fmt.Fprintf(stdout, "Unused:   %d vertices\n", unused)
	}
	return nil
}

func bounds(vs []mgl64.Vec3) (lo, hi mgl64.Vec3) {
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range vs {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], v[i])
			hi[i] = math.Max(hi[i], v[i])
		}
	}
	return lo, hi
}

func referencedVertices(m *collision.Mesh) int {
	seen := make(map[int]bool)
	for _, f := range m.Faces {
		for _, idx := range f.V {
			seen[idx] = true
		}
	}
	return len(seen)
}
