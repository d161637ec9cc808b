// Package collision turns selected scene geometry into a classified
// collision mesh and writes it in the line-oriented collision text format.
package collision

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Pipeline errors.
var (
	ErrNoTriangleGeometry = errors.New("no triangle geometry to export")
	ErrNotTriangulated    = errors.New("geometry is not triangulated")
	ErrEmptyResult        = errors.New("collision mesh has no faces")
	ErrMalformedGeometry  = errors.New("malformed geometry")
)

// SurfaceType tags a triangle by the direction it faces.
type SurfaceType int

const (
	Floor   SurfaceType = 0
	Wall    SurfaceType = 1
	Ceiling SurfaceType = 2

	// Auto requests classification from the triangle normal.
	Auto SurfaceType = -1
)

// String returns a human-readable surface type name.
func (t SurfaceType) String() string {
	switch t {
	case Floor:
		return "floor"
	case Wall:
		return "wall"
	case Ceiling:
		return "ceiling"
	case Auto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Valid reports whether t is Auto or one of the three surface types.
func (t SurfaceType) Valid() bool {
	return t >= Auto && t <= Ceiling
}

// Face is a triangle plus its surface type.
type Face struct {
	V    [3]int
	Type SurfaceType
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices []mgl64.Vec3
	Faces    []Face
}

// Validate checks that every face index addresses a vertex.
func (m *Mesh) Validate() error {
	for fi, f := range m.Faces {
		for _, idx := range f.V {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("%w: face %d index %d out of range (%d vertices)",
					ErrMalformedGeometry, fi, idx, len(m.Vertices))
			}
		}
	}
	return nil
}

// CountByType returns how many faces carry each surface type.
func (m *Mesh) CountByType() [3]int {
	var counts [3]int
	for _, f := range m.Faces {
		if f.Type >= Floor && f.Type <= Ceiling {
			counts[f.Type]++
		}
	}
	return counts
}
