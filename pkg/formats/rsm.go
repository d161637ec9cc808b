// Package formats provides parsers for scene source file formats.
// RSM (Resource Model) parser reduced to the node hierarchy: names, parent
// links, transform components and triangle meshes. Textures, texture
// coordinates and volume boxes are skipped. Names are decoded from EUC-KR.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/colexport/pkg/encoding"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidRSMCount       = errors.New("invalid RSM element count")
)

// Sanity limits for element counts read from the file.
const (
	rsmMaxNodes     = 10000
	rsmMaxTextures  = 1000
	rsmMaxElements  = 100000
	rsmMaxKeyframes = 10000
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMRotKeyframe represents a rotation animation keyframe.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32 // X, Y, Z, W
}

// RSMScaleKeyframe represents a scale animation keyframe.
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode represents a node in the model hierarchy.
type RSMNode struct {
	Name   string
	Parent string // Empty for the root

	// Transform components
	Matrix   [9]float32 // 3x3 matrix, column-major
	Offset   [3]float32 // Pivot offset, applied to vertices only
	Position [3]float32
	RotAngle float32 // Radians
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices [][3]float32
	Faces    [][3]uint16 // Vertex indices per triangle

	RotKeys   []RSMRotKeyframe
	ScaleKeys []RSMScaleKeyframe // v1.5+
}

// RSM represents a parsed RSM model.
type RSM struct {
	Version  RSMVersion
	RootNode string
	Nodes    []RSMNode
}

// rsmReader is a little-endian reader that remembers the first failure, so
// parse steps can be chained and checked once.
type rsmReader struct {
	r   *bytes.Reader
	err error
}

func (rr *rsmReader) read(v any) {
	if rr.err != nil {
		return
	}
	if err := binary.Read(rr.r, binary.LittleEndian, v); err != nil {
		rr.err = ErrTruncatedRSMData
	}
}

func (rr *rsmReader) skip(n int64) {
	if rr.err != nil {
		return
	}
	if int64(rr.r.Len()) < n {
		rr.err = ErrTruncatedRSMData
		return
	}
	rr.r.Seek(n, io.SeekCurrent)
}

func (rr *rsmReader) int32() int32 {
	var v int32
	rr.read(&v)
	return v
}

// count reads an element count and checks it against limit.
func (rr *rsmReader) count(what string, limit int32) int {
	n := rr.int32()
	if rr.err == nil && (n < 0 || n > limit) {
		rr.err = fmt.Errorf("%w: %d %s", ErrInvalidRSMCount, n, what)
	}
	if rr.err != nil {
		return 0
	}
	return int(n)
}

// string reads a fixed-length null-terminated EUC-KR string.
func (rr *rsmReader) string(length int) string {
	buf := make([]byte, length)
	rr.read(buf)
	if rr.err != nil {
		return ""
	}
	return encoding.FixedStringToUTF8(buf)
}

// ParseRSM parses RSM data from a byte slice.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Version: RSMVersion{Major: data[4], Minor: data[5]}}
	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	rr := &rsmReader{r: bytes.NewReader(data[6:])}

	// Animation length and shading type
	rr.skip(8)
	// Alpha (v1.4+)
	if rsm.Version.AtLeast(1, 4) {
		rr.skip(1)
	}
	// Reserved
	rr.skip(16)

	textureCount := rr.count("textures", rsmMaxTextures)
	rr.skip(int64(textureCount) * 40)

	rsm.RootNode = rr.string(40)

	nodeCount := rr.count("nodes", rsmMaxNodes)
	if rr.err != nil {
		return nil, rr.err
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		parseRSMNode(rr, rsm.Version, &rsm.Nodes[i])
		if rr.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, rr.err)
		}
	}

	return rsm, nil
}

func parseRSMNode(rr *rsmReader, version RSMVersion, node *RSMNode) {
	node.Name = rr.string(40)
	node.Parent = rr.string(40)

	textureCount := rr.count("node textures", rsmMaxTextures)
	rr.skip(int64(textureCount) * 4)

	rr.read(&node.Matrix)
	rr.read(&node.Offset)
	rr.read(&node.Position)
	rr.read(&node.RotAngle)
	rr.read(&node.RotAxis)
	rr.read(&node.Scale)

	vertexCount := rr.count("vertices", rsmMaxElements)
	node.Vertices = make([][3]float32, vertexCount)
	rr.read(node.Vertices)

	// Texture coordinates: optional RGBA color (v1.2+) then U, V
	tcSize := int64(8)
	if version.AtLeast(1, 2) {
		tcSize += 4
	}
	rr.skip(int64(rr.count("texture coordinates", rsmMaxElements)) * tcSize)

	faceCount := rr.count("faces", rsmMaxElements)
	node.Faces = make([][3]uint16, faceCount)
	for i := range node.Faces {
		rr.read(&node.Faces[i])
		// Texcoord IDs, texture ID, padding, two-side flag
		rr.skip(6 + 2 + 2 + 4)
		// Smooth group (v1.2+)
		if version.AtLeast(1, 2) {
			rr.skip(4)
		}
	}

	// Position keyframes (v < 1.5) do not affect the rest pose
	if !version.AtLeast(1, 5) {
		rr.skip(int64(rr.count("position keyframes", rsmMaxKeyframes)) * 16)
	}

	node.RotKeys = make([]RSMRotKeyframe, rr.count("rotation keyframes", rsmMaxKeyframes))
	rr.read(node.RotKeys)

	if version.AtLeast(1, 5) {
		node.ScaleKeys = make([]RSMScaleKeyframe, rr.count("scale keyframes", rsmMaxKeyframes))
		rr.read(node.ScaleKeys)
	}
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// GetNodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) GetNodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// GetTotalFaceCount returns the total number of faces across all nodes.
func (rsm *RSM) GetTotalFaceCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Faces)
	}
	return total
}
