package collision

import "github.com/go-gl/mathgl/mgl64"

// DefaultThreshold is the normalized normal Y above which a triangle is a
// floor (and below whose negation it is a ceiling).
const DefaultThreshold = 0.7

// degenerateArea bounds the cross-product length of zero-area triangles.
const degenerateArea = 1e-12

// ClassifyTriangle tags a triangle from its winding-order normal.
// Degenerate triangles are walls.
func ClassifyTriangle(v0, v1, v2 mgl64.Vec3, threshold float64) SurfaceType {
	n := v1.Sub(v0).Cross(v2.Sub(v0))
	l := n.Len()
	if l <= degenerateArea {
		return Wall
	}

	ny := n.Y() / l
	switch {
	case ny > threshold:
		return Floor
	case ny < -threshold:
		return Ceiling
	default:
		return Wall
	}
}

// Classify sets the type of every face in place. A non-Auto override is
// applied to all faces without looking at geometry.
func Classify(m *Mesh, threshold float64, override SurfaceType) {
	if override != Auto {
		for i := range m.Faces {
			m.Faces[i].Type = override
		}
		return
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		f.Type = ClassifyTriangle(m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]], threshold)
	}
}
