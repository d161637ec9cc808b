package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/colexport/pkg/formats"
)

func rsmNode(name, parent string) formats.RSMNode {
	return formats.RSMNode{
		Name:     name,
		Parent:   parent,
		Matrix:   [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
		Vertices: [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}},
		Faces:    [][3]uint16{{0, 1, 2}},
	}
}

func TestFromRSM(t *testing.T) {
	rsm := &formats.RSM{
		RootNode: "base",
		Nodes:    []formats.RSMNode{rsmNode("base", ""), rsmNode("COLLISION", "base")},
	}

	s := FromRSM(rsm, "house.rsm")
	if len(s.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(s.Nodes))
	}

	got, err := s.Select("COLLISION")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got[0].GeometryKey != "node[1]" {
		t.Errorf("geometry key = %q, want node[1]", got[0].GeometryKey)
	}
	g := got[0].Geometry
	if g.Name != "COLLISION" || len(g.Positions) != 3 || g.FaceCount() != 1 {
		t.Errorf("unexpected geometry %+v", g)
	}
	if g.Faces[0][2] != 2 {
		t.Errorf("face = %v, want [0 1 2]", g.Faces[0])
	}
}

func TestRSMNodeMatrix(t *testing.T) {
	quarter := float32(math.Pi / 2)

	tests := []struct {
		name   string
		nodes  func() []formats.RSMNode
		target int
		point  mgl64.Vec3
		want   mgl64.Vec3
	}{
		{
			name: "position",
			nodes: func() []formats.RSMNode {
				n := rsmNode("a", "")
				n.Position = [3]float32{1, 2, 3}
				return []formats.RSMNode{n}
			},
			point: mgl64.Vec3{1, 0, 0},
			want:  mgl64.Vec3{2, 2, 3},
		},
		{
			name: "parent position inherited, parent offset not",
			nodes: func() []formats.RSMNode {
				p := rsmNode("parent", "")
				p.Position = [3]float32{0, 10, 0}
				p.Offset = [3]float32{100, 0, 0}
				c := rsmNode("child", "parent")
				c.Position = [3]float32{1, 0, 0}
				return []formats.RSMNode{p, c}
			},
			target: 1,
			point:  mgl64.Vec3{0, 0, 0},
			want:   mgl64.Vec3{1, 10, 0},
		},
		{
			name: "offset and matrix apply before position",
			nodes: func() []formats.RSMNode {
				n := rsmNode("a", "")
				n.Matrix = [9]float32{2, 0, 0, 0, 2, 0, 0, 0, 2}
				n.Offset = [3]float32{0, 1, 0}
				n.Position = [3]float32{5, 0, 0}
				return []formats.RSMNode{n}
			},
			point: mgl64.Vec3{1, 0, 0},
			want:  mgl64.Vec3{7, 1, 0},
		},
		{
			name: "axis angle rotation",
			nodes: func() []formats.RSMNode {
				n := rsmNode("a", "")
				n.RotAngle = quarter
				n.RotAxis = [3]float32{0, 2, 0}
				return []formats.RSMNode{n}
			},
			point: mgl64.Vec3{1, 0, 0},
			want:  mgl64.Vec3{0, 0, -1},
		},
		{
			name: "rotation keyframe replaces axis angle",
			nodes: func() []formats.RSMNode {
				n := rsmNode("a", "")
				n.RotAngle = quarter
				n.RotAxis = [3]float32{0, 1, 0}
				n.RotKeys = []formats.RSMRotKeyframe{{Quaternion: [4]float32{0, 0, 0, 1}}}
				return []formats.RSMNode{n}
			},
			point: mgl64.Vec3{1, 0, 0},
			want:  mgl64.Vec3{1, 0, 0},
		},
		{
			name: "scale and scale keyframe",
			nodes: func() []formats.RSMNode {
				n := rsmNode("a", "")
				n.Scale = [3]float32{2, 1, 1}
				n.ScaleKeys = []formats.RSMScaleKeyframe{{Scale: [3]float32{1, 3, 1}}}
				return []formats.RSMNode{n}
			},
			point: mgl64.Vec3{1, 1, 1},
			want:  mgl64.Vec3{2, 3, 1},
		},
		{
			name: "missing parent ends chain",
			nodes: func() []formats.RSMNode {
				n := rsmNode("a", "ghost")
				n.Position = [3]float32{0, 0, 4}
				return []formats.RSMNode{n}
			},
			point: mgl64.Vec3{0, 0, 0},
			want:  mgl64.Vec3{0, 0, 4},
		},
		{
			name: "cyclic parents terminate",
			nodes: func() []formats.RSMNode {
				a := rsmNode("a", "b")
				a.Position = [3]float32{1, 0, 0}
				b := rsmNode("b", "a")
				b.Position = [3]float32{0, 1, 0}
				return []formats.RSMNode{a, b}
			},
			point: mgl64.Vec3{0, 0, 0},
			want:  mgl64.Vec3{1, 1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsm := &formats.RSM{Nodes: tt.nodes()}
			m := RSMNodeMatrix(&rsm.Nodes[tt.target], rsm)
			got := mgl64.TransformCoordinate(tt.point, m)
			if !vecNear(got, tt.want, 1e-6) {
				t.Errorf("point = %v, want %v", got, tt.want)
			}
		})
	}
}
