package collision

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/colexport/pkg/scene"
)

// Merge transforms each instance's geometry into the scene frame and
// concatenates the results. Faces come out untyped (Wall) until classified.
//
// Polygons with more than three vertices are rejected, never triangulated.
// Instances without geometry and geometries without faces are skipped.
func Merge(instances []scene.Instance) (*Mesh, error) {
	out := &Mesh{}
	resolved := 0

	for _, inst := range instances {
		g := inst.Geometry
		if g == nil {
			continue
		}
		resolved++
		if g.FaceCount() == 0 {
			continue
		}

		for _, face := range g.Faces {
			if len(face) > 3 {
				return nil, fmt.Errorf("%w: node %q geometry %q has a %d-vertex face",
					ErrNotTriangulated, inst.Node, inst.GeometryName(), len(face))
			}
			if len(face) < 3 {
				return nil, fmt.Errorf("%w: node %q geometry %q has a %d-vertex face",
					ErrMalformedGeometry, inst.Node, inst.GeometryName(), len(face))
			}
		}

		base := len(out.Vertices)
		for _, p := range g.Positions {
			out.Vertices = append(out.Vertices, mgl64.TransformCoordinate(p, inst.Transform))
		}
		for _, face := range g.Faces {
			var f Face
			for j, idx := range face {
				if idx < 0 || idx >= len(g.Positions) {
					return nil, fmt.Errorf("%w: node %q geometry %q index %d out of range (%d vertices)",
						ErrMalformedGeometry, inst.Node, inst.GeometryName(), idx, len(g.Positions))
				}
				f.V[j] = base + idx
			}
			f.Type = Wall
			out.Faces = append(out.Faces, f)
		}
	}

	if resolved == 0 {
		return nil, fmt.Errorf("%w: matching nodes reference no geometry", ErrNoTriangleGeometry)
	}
	if len(out.Faces) == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}
