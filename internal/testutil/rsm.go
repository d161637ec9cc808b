package testutil

import (
	"bytes"
	"encoding/binary"

	"github.com/Faultbox/colexport/pkg/encoding"
)

// Identity3 is a column-major 3x3 identity matrix.
var Identity3 = [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}

// RSMRotKey is a rotation keyframe: frame then X, Y, Z, W.
type RSMRotKey struct {
	Frame int32
	Quat  [4]float32
}

// RSMScaleKey is a scale keyframe.
type RSMScaleKey struct {
	Frame int32
	Scale [3]float32
}

// RSMNode describes a node for RSM. Names are UTF-8 and written as EUC-KR.
type RSMNode struct {
	Name, Parent string
	Matrix       [9]float32
	Offset       [3]float32
	Position     [3]float32
	RotAngle     float32
	RotAxis      [3]float32
	Scale        [3]float32
	Vertices     [][3]float32
	Faces        [][3]uint16
	TexCoords    int
	PosKeys      int // Written for versions before 1.5 only
	RotKeys      []RSMRotKey
	ScaleKeys    []RSMScaleKey // Written for 1.5 and later only
}

// TriangleRSMNode returns a node holding one upward-facing triangle.
func TriangleRSMNode(name, parent string) RSMNode {
	return RSMNode{
		Name:      name,
		Parent:    parent,
		Matrix:    Identity3,
		RotAxis:   [3]float32{0, 1, 0},
		Scale:     [3]float32{1, 1, 1},
		Vertices:  [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}},
		Faces:     [][3]uint16{{0, 1, 2}},
		TexCoords: 3,
		PosKeys:   2,
	}
}

func writeName(buf *bytes.Buffer, s string) {
	name := make([]byte, 40)
	copy(name, encoding.UTF8ToEUCKR(s))
	buf.Write(name)
}

// RSM encodes a model with the given version and nodes. Skipped sections
// are filled with non-zero bytes so a misaligned read shows up in the result.
func RSM(major, minor uint8, root string, textures int, nodes []RSMNode) []byte {
	buf := new(bytes.Buffer)
	le := binary.LittleEndian
	atLeast := func(ma, mi uint8) bool { return major > ma || (major == ma && minor >= mi) }

	buf.WriteString("GRSM")
	buf.WriteByte(major)
	buf.WriteByte(minor)

	buf.Write(bytes.Repeat([]byte{0xAA}, 8)) // Animation length, shading
	if atLeast(1, 4) {
		buf.WriteByte(0xFF) // Alpha
	}
	buf.Write(make([]byte, 16)) // Reserved

	binary.Write(buf, le, int32(textures))
	for i := 0; i < textures; i++ {
		writeName(buf, "texture.bmp")
	}
	writeName(buf, root)
	binary.Write(buf, le, int32(len(nodes)))

	tcSize := 8
	if atLeast(1, 2) {
		tcSize = 12
	}
	for _, n := range nodes {
		writeName(buf, n.Name)
		writeName(buf, n.Parent)
		binary.Write(buf, le, int32(1))
		binary.Write(buf, le, int32(0)) // Texture index

		binary.Write(buf, le, n.Matrix)
		binary.Write(buf, le, n.Offset)
		binary.Write(buf, le, n.Position)
		binary.Write(buf, le, n.RotAngle)
		binary.Write(buf, le, n.RotAxis)
		binary.Write(buf, le, n.Scale)

		binary.Write(buf, le, int32(len(n.Vertices)))
		binary.Write(buf, le, n.Vertices)

		binary.Write(buf, le, int32(n.TexCoords))
		buf.Write(bytes.Repeat([]byte{0xBB}, n.TexCoords*tcSize))

		binary.Write(buf, le, int32(len(n.Faces)))
		for _, f := range n.Faces {
			binary.Write(buf, le, f)
			buf.Write(bytes.Repeat([]byte{0xCC}, 14))
			if atLeast(1, 2) {
				buf.Write(bytes.Repeat([]byte{0xCC}, 4))
			}
		}

		if !atLeast(1, 5) {
			binary.Write(buf, le, int32(n.PosKeys))
			buf.Write(bytes.Repeat([]byte{0xDD}, n.PosKeys*16))
		}
		binary.Write(buf, le, int32(len(n.RotKeys)))
		binary.Write(buf, le, n.RotKeys)
		if atLeast(1, 5) {
			binary.Write(buf, le, int32(len(n.ScaleKeys)))
			binary.Write(buf, le, n.ScaleKeys)
		}
	}
	return buf.Bytes()
}
