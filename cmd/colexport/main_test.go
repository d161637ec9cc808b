package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/colexport/internal/testutil"
	"github.com/Faultbox/colexport/pkg/collision"
	"github.com/Faultbox/colexport/pkg/scene"
)

// isolate keeps config loading away from real user config and returns a
// scratch directory.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	origDir, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(origDir) })
	dir := t.TempDir()
	os.Chdir(dir)
	return dir
}

// writeGLB saves a scene with one upward triangle under node name.
func writeGLB(t *testing.T, dir, name string) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: gltf.Attribute{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []uint32{0}

	path := filepath.Join(dir, "level.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

const triangleBody = "v 0.000000 0.000000 0.000000\n" +
	"v 0.000000 0.000000 1.000000\n" +
	"v 1.000000 0.000000 0.000000\n" +
	"\n" +
	"f 0 1 2 %d\n"

func TestRun_GLB(t *testing.T) {
	dir := isolate(t)
	in := writeGLB(t, dir, "COLLISION")
	out := filepath.Join(dir, "level.collision")

	code, stdout, stderr := runCLI(in, out)
	if code != exitOK {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}
	if want := fmt.Sprintf("Wrote 3 vertices, 1 triangles -> %s\n", out); stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}

	if stderr != "" {
		t.Errorf("stderr = %q, want empty", stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# ") {
		t.Errorf("missing header:\n%s", content)
	}
	if !strings.HasSuffix(content, "\n\n"+fmt.Sprintf(triangleBody, 0)) {
		t.Errorf("unexpected body:\n%s", content)
	}
}

func TestRun_QuietOnSuccess(t *testing.T) {
	dir := isolate(t)
	in := writeGLB(t, dir, "COLLISION")

	// The logger writes to the process stderr, so capture it in a file
	logFile, err := os.Create(filepath.Join(dir, "stderr.log"))
	if err != nil {
		t.Fatalf("creating capture file: %v", err)
	}
	saved := os.Stderr
	os.Stderr = logFile
	code, _, _ := runCLI(in, filepath.Join(dir, "level.collision"))
	os.Stderr = saved
	logFile.Close()

	if code != exitOK {
		t.Fatalf("exit code = %d, want 0", code)
	}
	logged, _ := os.ReadFile(logFile.Name())
	if len(logged) != 0 {
		t.Errorf("successful run logged to stderr:\n%s", logged)
	}
}

func TestRun_Options(t *testing.T) {
	tests := []struct {
		name     string
		node     string
		args     func(in, out string) []string
		wantType int
	}{
		{"type override", "COLLISION", func(in, out string) []string { return []string{"--type", "2", in, out} }, 2},
		{"flags after positionals", "COLLISION", func(in, out string) []string { return []string{in, out, "--type", "1", "--weld-eps", "0"} }, 1},
		{"flags between positionals", "COLLISION", func(in, out string) []string { return []string{in, "-type=0", out} }, 0},
		{"custom node name", "COL_FLOOR", func(in, out string) []string { return []string{"--name", "COL_FLOOR", in, out} }, 0},
		{"after double dash", "COL_FLOOR", func(in, out string) []string { return []string{"--name", "COL_FLOOR", "--", in, out} }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			in := writeGLB(t, dir, tt.node)
			out := filepath.Join(dir, "out.collision")

			code, _, stderr := runCLI(tt.args(in, out)...)
			if code != exitOK {
				t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("output not written: %v", err)
			}
			if !strings.HasSuffix(string(data), fmt.Sprintf(triangleBody, tt.wantType)) {
				t.Errorf("unexpected body:\n%s", data)
			}
		})
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, dir string) []string
		wantCode int
		wantErr  string
	}{
		{
			name: "node not found",
			setup: func(t *testing.T, dir string) []string {
				return []string{writeGLB(t, dir, "Floor"), filepath.Join(dir, "out.collision")}
			},
			wantCode: exitNotFound,
			wantErr:  "exactly COLLISION",
		},
		{
			name: "case mismatch",
			setup: func(t *testing.T, dir string) []string {
				return []string{"--name", "collision", writeGLB(t, dir, "COLLISION"), filepath.Join(dir, "out.collision")}
			},
			wantCode: exitNotFound,
		},
		{
			name: "quad faces",
			setup: func(t *testing.T, dir string) []string {
				in := writeFile(t, dir, "quad.obj", "v 0 0 0\nv 0 0 1\nv 1 0 1\nv 1 0 0\no COLLISION\nf 1 2 3 4\n")
				return []string{in, filepath.Join(dir, "out.collision")}
			},
			wantCode: exitNotTriangulated,
			wantErr:  "Triangulate",
		},
		{
			name: "stl input",
			setup: func(t *testing.T, dir string) []string {
				in := writeFile(t, dir, "mesh.stl", "solid mesh\nendsolid mesh\n")
				return []string{in, filepath.Join(dir, "out.collision")}
			},
			wantCode: exitNotAScene,
			wantErr:  "named node/object",
		},
		{
			name: "empty geometry",
			setup: func(t *testing.T, dir string) []string {
				in := writeFile(t, dir, "empty.obj", "v 0 0 0\no COLLISION\n")
				return []string{in, filepath.Join(dir, "out.collision")}
			},
			wantCode: exitNoGeometry,
		},
		{
			name: "unsupported format",
			setup: func(t *testing.T, dir string) []string {
				return []string{filepath.Join(dir, "level.fbx"), filepath.Join(dir, "out.collision")}
			},
			wantCode: exitFailure,
		},
		{
			name: "NaN threshold",
			setup: func(t *testing.T, dir string) []string {
				return []string{"--threshold", "NaN", writeGLB(t, dir, "COLLISION"), filepath.Join(dir, "out.collision")}
			},
			wantCode: exitFailure,
			wantErr:  "threshold",
		},
		{
			name: "NaN weld eps",
			setup: func(t *testing.T, dir string) []string {
				return []string{"--weld-eps", "NaN", writeGLB(t, dir, "COLLISION"), filepath.Join(dir, "out.collision")}
			},
			wantCode: exitFailure,
			wantErr:  "weld eps",
		},
		{
			name: "invalid threshold",
			setup: func(t *testing.T, dir string) []string {
				return []string{"--threshold", "1.5", writeGLB(t, dir, "COLLISION"), filepath.Join(dir, "out.collision")}
			},
			wantCode: exitFailure,
			wantErr:  "threshold",
		},
		{
			name: "invalid type",
			setup: func(t *testing.T, dir string) []string {
				return []string{"--type", "7", writeGLB(t, dir, "COLLISION"), filepath.Join(dir, "out.collision")}
			},
			wantCode: exitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			args := tt.setup(t, dir)

			code, _, stderr := runCLI(args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d; stderr:\n%s", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr, "Error:") {
				t.Errorf("stderr missing error line:\n%s", stderr)
			}
			if tt.wantErr != "" && !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantErr, stderr)
			}
			if _, err := os.Stat(filepath.Join(dir, "out.collision")); !os.IsNotExist(err) {
				t.Error("output file written on failure")
			}
		})
	}
}

func TestRun_Usage(t *testing.T) {
	isolate(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"no args", nil, exitFailure},
		{"one positional", []string{"level.glb"}, exitFailure},
		{"three positionals", []string{"a.glb", "b", "c"}, exitFailure},
		{"unknown flag", []string{"--bogus", "a.glb", "b"}, exitFailure},
		{"bad flag value", []string{"--weld-eps", "tiny", "a.glb", "b"}, exitFailure},
		{"help", []string{"-h"}, exitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d", code, tt.wantCode)
			}
			usage := stderr
			if tt.wantCode == exitOK {
				usage = stdout
			}
			if !strings.Contains(usage, "Usage:") {
				t.Errorf("usage not printed:\nstdout:\n%s\nstderr:\n%s", stdout, stderr)
			}
		})
	}
}

func TestRun_Archive(t *testing.T) {
	dir := isolate(t)
	col := testutil.TriangleRSMNode("COLLISION", "")
	archive := testutil.WriteGRF(t, []testutil.GRFFile{{
		Name:    "data/model/house.rsm",
		Content: testutil.RSM(1, 5, "COLLISION", 0, []testutil.RSMNode{col}),
		Flags:   0x01,
	}})
	out := filepath.Join(dir, "house.collision")

	code, _, stderr := runCLI("--grf", archive, `data\model\house.rsm`, out)
	if code != exitOK {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.HasSuffix(string(data), fmt.Sprintf(triangleBody, 0)) {
		t.Errorf("unexpected body:\n%s", data)
	}

	code, _, _ = runCLI("--grf", archive, "data/model/missing.rsm", out)
	if code != exitFailure {
		t.Errorf("missing entry: exit code = %d, want 1", code)
	}
}

func TestRun_SaveConfig(t *testing.T) {
	dir := isolate(t)
	in := writeGLB(t, dir, "COL_FLOOR")
	saved := filepath.Join(dir, "saved.yaml")

	code, _, stderr := runCLI("--name", "COL_FLOOR", "--save-config", saved, in, filepath.Join(dir, "a.collision"))
	if code != exitOK {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}

	// The saved config supplies the node name on the next run
	code, _, stderr = runCLI("--config", saved, in, filepath.Join(dir, "b.collision"))
	if code != exitOK {
		t.Fatalf("exit code with saved config = %d, want 0; stderr:\n%s", code, stderr)
	}
}

func TestParseInterleaved(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantPos  []string
		wantName string
	}{
		{"flags first", []string{"--name", "A", "in", "out"}, []string{"in", "out"}, "A"},
		{"flags last", []string{"in", "out", "--name", "B"}, []string{"in", "out"}, "B"},
		{"flags between", []string{"in", "--name=C", "out"}, []string{"in", "out"}, "C"},
		{"double dash", []string{"in", "--", "--name", "out"}, []string{"in", "--name", "out"}, ""},
		{"no flags", []string{"in", "out"}, []string{"in", "out"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			name := fs.String("name", "", "")

			got, err := parseInterleaved(fs, tt.args)
			if err != nil {
				t.Fatalf("parseInterleaved failed: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.wantPos, "|") {
				t.Errorf("positional = %q, want %q", got, tt.wantPos)
			}
			if *name != tt.wantName {
				t.Errorf("name = %q, want %q", *name, tt.wantName)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x.stl", scene.ErrNotAScene), exitNotAScene},
		{fmt.Errorf("%w: COLLISION", scene.ErrNodeNotFound), exitNotFound},
		{collision.ErrNoTriangleGeometry, exitNoGeometry},
		{collision.ErrEmptyResult, exitNoGeometry},
		{fmt.Errorf("wrapped: %w", collision.ErrNotTriangulated), exitNotTriangulated},
		{scene.ErrUnsupportedFormat, exitFailure},
		{errors.New("disk full"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
