package collision

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidCollisionFile is returned by Read for lines that do not parse.
var ErrInvalidCollisionFile = errors.New("invalid collision file")

// Read parses the collision text format written by Write. Blank lines,
// comments and unknown statements are skipped. Faces may only reference
// vertices declared above them.
func Read(r io.Reader) (*Mesh, error) {
	m := &Mesh{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseCollisionVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.Vertices = append(m.Vertices, v)

		case "f":
			f, err := parseCollisionFace(fields[1:], len(m.Vertices))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.Faces = append(m.Faces, f)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading collision file: %w", err)
	}
	return m, nil
}

func parseCollisionVertex(args []string) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	if len(args) != 3 {
		return v, fmt.Errorf("%w: vertex has %d coordinates", ErrInvalidCollisionFile, len(args))
	}
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return v, fmt.Errorf("%w: coordinate %q", ErrInvalidCollisionFile, a)
		}
		v[i] = f
	}
	return v, nil
}

func parseCollisionFace(args []string, vertexCount int) (Face, error) {
	var f Face
	if len(args) != 4 {
		return f, fmt.Errorf("%w: face has %d fields, want 3 indices and a type", ErrInvalidCollisionFile, len(args))
	}
	for i := 0; i < 3; i++ {
		idx, err := strconv.Atoi(args[i])
		if err != nil {
			return f, fmt.Errorf("%w: index %q", ErrInvalidCollisionFile, args[i])
		}
		if idx < 0 || idx >= vertexCount {
			return f, fmt.Errorf("%w: index %d out of range (%d vertices)", ErrInvalidCollisionFile, idx, vertexCount)
		}
		f.V[i] = idx
	}

	t, err := strconv.Atoi(args[3])
	if err != nil || t < int(Floor) || t > int(Ceiling) {
		return f, fmt.Errorf("%w: face type %q", ErrInvalidCollisionFile, args[3])
	}
	f.Type = SurfaceType(t)
	return f, nil
}

// ReadFile reads a collision file from disk.
func ReadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening collision file: %w", err)
	}
	defer f.Close()
	return Read(f)
}
