package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/colexport/pkg/formats"
)

// LoadOBJ loads an OBJ file, treating each named object or group as a node.
func LoadOBJ(path string) (*Scene, error) {
	obj, err := formats.ParseOBJFile(path)
	if err != nil {
		return nil, err
	}
	return FromOBJ(obj, path)
}

// FromOBJ converts a parsed OBJ file. OBJ has no transforms, so every node
// sits at identity. A file whose faces are all outside named groups is a
// single mesh and cannot be matched by name.
func FromOBJ(obj *formats.OBJ, source string) (*Scene, error) {
	if obj.GetTotalFaceCount() > 0 && !obj.HasNamedGroups() {
		return nil, fmt.Errorf("%w: %s has no named objects or groups", ErrNotAScene, source)
	}

	s := New(source)
	for i, grp := range obj.Groups {
		if grp.Name == "" {
			continue
		}
		key := fmt.Sprintf("%s#%d", grp.Name, i)
		s.AddGeometry(key, objGeometry(obj, grp))
		s.AddNode(Node{
			Name:      grp.Name,
			Geometry:  key,
			Transform: mgl64.Ident4(),
		})
	}
	return s, nil
}

// objGeometry copies the vertices a group references into a local array,
// in order of first use.
func objGeometry(obj *formats.OBJ, grp formats.OBJGroup) *Geometry {
	g := &Geometry{Name: grp.Name, Faces: make([][]int, len(grp.Faces))}
	local := make(map[int]int)
	for fi, face := range grp.Faces {
		out := make([]int, len(face))
		for j, idx := range face {
			li, ok := local[idx]
			if !ok {
				li = len(g.Positions)
				local[idx] = li
				v := obj.Vertices[idx]
				g.Positions = append(g.Positions, mgl64.Vec3{v[0], v[1], v[2]})
			}
			out[j] = li
		}
		g.Faces[fi] = out
	}
	return g
}
