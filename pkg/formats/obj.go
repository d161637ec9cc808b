// Package formats provides parsers for scene source file formats.
// OBJ (Wavefront) parser covering positions and polygon faces grouped by
// object/group name.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrInvalidOBJVertex = errors.New("invalid OBJ vertex")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face")
)

// OBJGroup is a run of faces declared under one "o" or "g" statement.
// Faces declared before any such statement land in a group with an empty name.
type OBJGroup struct {
	Name  string
	Faces [][]int // 0-based indices into OBJ.Vertices, polygon arity kept
}

// OBJ represents a parsed OBJ file.
type OBJ struct {
	Vertices [][3]float64
	Groups   []OBJGroup
}

// HasNamedGroups reports whether any face belongs to a named group.
func (o *OBJ) HasNamedGroups() bool {
	for _, g := range o.Groups {
		if g.Name != "" && len(g.Faces) > 0 {
			return true
		}
	}
	return false
}

// GetTotalFaceCount returns the number of faces across all groups.
func (o *OBJ) GetTotalFaceCount() int {
	total := 0
	for _, g := range o.Groups {
		total += len(g.Faces)
	}
	return total
}

// ParseOBJ parses OBJ text. Statements other than v, f, o and g are ignored.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	obj := &OBJ{}
	current := -1

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			v, err := parseOBJVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			obj.Vertices = append(obj.Vertices, v)

		case "o", "g":
			obj.Groups = append(obj.Groups, OBJGroup{Name: strings.Join(fields[1:], " ")})
			current = len(obj.Groups) - 1

		case "f":
			face, err := parseOBJFace(fields[1:], len(obj.Vertices))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if current < 0 {
				obj.Groups = append(obj.Groups, OBJGroup{})
				current = len(obj.Groups) - 1
			}
			obj.Groups[current].Faces = append(obj.Groups[current].Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return obj, nil
}

func parseOBJVertex(args []string) ([3]float64, error) {
	var v [3]float64
	if len(args) < 3 {
		return v, fmt.Errorf("%w: expected 3 coordinates, found %d", ErrInvalidOBJVertex, len(args))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return v, fmt.Errorf("%w: %q", ErrInvalidOBJVertex, args[i])
		}
		v[i] = f
	}
	return v, nil
}

// parseOBJFace resolves "i", "i/t", "i//n" and "i/t/n" references. Indices
// are 1-based; negative indices count back from the last vertex read.
func parseOBJFace(args []string, vertexCount int) ([]int, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("%w: expected at least 3 vertices, found %d", ErrInvalidOBJFace, len(args))
	}
	face := make([]int, len(args))
	for i, ref := range args {
		idxStr, _, _ := strings.Cut(ref, "/")
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOBJFace, ref)
		}
		switch {
		case idx > 0:
			idx--
		case idx < 0:
			idx = vertexCount + idx
		default:
			return nil, fmt.Errorf("%w: vertex index 0", ErrInvalidOBJFace)
		}
		if idx < 0 || idx >= vertexCount {
			return nil, fmt.Errorf("%w: vertex %s out of range (%d vertices)", ErrInvalidOBJFace, idxStr, vertexCount)
		}
		face[i] = idx
	}
	return face, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}
