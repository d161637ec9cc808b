package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/colexport/pkg/formats"
)

// LoadRSM loads an RSM model. Each RSM node is a scene node owning its own
// mesh, posed at the first keyframe.
func LoadRSM(path string) (*Scene, error) {
	rsm, err := formats.ParseRSMFile(path)
	if err != nil {
		return nil, err
	}
	return FromRSM(rsm, path), nil
}

// FromRSM converts a parsed RSM model.
func FromRSM(rsm *formats.RSM, source string) *Scene {
	s := New(source)
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		key := fmt.Sprintf("node[%d]", i)

		g := &Geometry{
			Name:      node.Name,
			Positions: make([]mgl64.Vec3, len(node.Vertices)),
			Faces:     make([][]int, len(node.Faces)),
		}
		for j, v := range node.Vertices {
			g.Positions[j] = mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
		}
		for j, f := range node.Faces {
			g.Faces[j] = []int{int(f[0]), int(f[1]), int(f[2])}
		}

		s.AddGeometry(key, g)
		s.AddNode(Node{
			Name:      node.Name,
			Geometry:  key,
			Transform: RSMNodeMatrix(node, rsm),
		})
	}
	return s
}

// RSMNodeMatrix builds the world matrix for an RSM node's vertices: the
// inherited hierarchy matrix followed by the node's offset and 3x3 matrix,
// which children do not inherit.
func RSMNodeMatrix(node *formats.RSMNode, rsm *formats.RSM) mgl64.Mat4 {
	visited := make(map[string]bool)
	m := rsmHierarchyMatrix(node, rsm, visited)
	m = m.Mul4(mgl64.Translate3D(float64(node.Offset[0]), float64(node.Offset[1]), float64(node.Offset[2])))
	return m.Mul4(mat3From32(node.Matrix).Mat4())
}

// rsmHierarchyMatrix returns parent_hierarchy * Position * Rotation * Scale.
func rsmHierarchyMatrix(node *formats.RSMNode, rsm *formats.RSM, visited map[string]bool) mgl64.Mat4 {
	// Cyclic parent links end the chain
	if visited[node.Name] {
		return mgl64.Ident4()
	}
	visited[node.Name] = true

	local := mgl64.Translate3D(float64(node.Position[0]), float64(node.Position[1]), float64(node.Position[2]))

	// Keyframe rotation replaces the axis-angle rotation
	if len(node.RotKeys) > 0 {
		q := node.RotKeys[0].Quaternion
		rot := mgl64.Quat{
			W: float64(q[3]),
			V: mgl64.Vec3{float64(q[0]), float64(q[1]), float64(q[2])},
		}
		if rot.Len() > 1e-12 {
			local = local.Mul4(rot.Normalize().Mat4())
		}
	} else if node.RotAngle != 0 {
		axis := mgl64.Vec3{float64(node.RotAxis[0]), float64(node.RotAxis[1]), float64(node.RotAxis[2])}
		if axis.Len() > 1e-6 {
			local = local.Mul4(mgl64.HomogRotate3D(float64(node.RotAngle), axis.Normalize()))
		}
	}

	local = local.Mul4(mgl64.Scale3D(float64(node.Scale[0]), float64(node.Scale[1]), float64(node.Scale[2])))
	if len(node.ScaleKeys) > 0 {
		sk := node.ScaleKeys[0].Scale
		local = local.Mul4(mgl64.Scale3D(float64(sk[0]), float64(sk[1]), float64(sk[2])))
	}

	if node.Parent != "" && node.Parent != node.Name {
		if parent := rsm.GetNodeByName(node.Parent); parent != nil {
			return rsmHierarchyMatrix(parent, rsm, visited).Mul4(local)
		}
	}
	return local
}

func mat3From32(m [9]float32) mgl64.Mat3 {
	var out mgl64.Mat3
	for i, v := range m {
		out[i] = float64(v)
	}
	return out
}
