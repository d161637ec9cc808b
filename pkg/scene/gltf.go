package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLTF loads a .gltf or .glb file.
func LoadGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glTF file: %w", err)
	}
	return FromGLTF(doc, path)
}

// FromGLTF converts a decoded glTF document. Every mesh becomes one
// geometry keyed "mesh[i]"; every node of the active scene that references a
// mesh becomes a scene node carrying its composed world transform.
func FromGLTF(doc *gltf.Document, source string) (*Scene, error) {
	s := New(source)

	for i, m := range doc.Meshes {
		g, err := gltfGeometry(doc, m)
		if err != nil {
			return nil, fmt.Errorf("mesh %d (%q): %w", i, m.Name, err)
		}
		if g.Name == "" {
			g.Name = gltfMeshKey(i)
		}
		s.AddGeometry(gltfMeshKey(i), g)
	}

	visited := make(map[uint32]bool)
	var walk func(idx uint32, parent mgl64.Mat4) error
	walk = func(idx uint32, parent mgl64.Mat4) error {
		if int(idx) >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", idx)
		}
		if visited[idx] {
			return nil
		}
		visited[idx] = true

		n := doc.Nodes[idx]
		world := parent.Mul4(gltfLocalMatrix(n))
		if n.Mesh != nil {
			s.AddNode(Node{
				Name:      n.Name,
				Geometry:  gltfMeshKey(int(*n.Mesh)),
				Transform: world,
			})
		}
		for _, child := range n.Children {
			if err := walk(child, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range gltfRoots(doc) {
		if err := walk(root, mgl64.Ident4()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func gltfMeshKey(i int) string {
	return fmt.Sprintf("mesh[%d]", i)
}

// gltfRoots returns the root nodes of the default scene, falling back to
// scene 0 and then to every node that is nobody's child.
func gltfRoots(doc *gltf.Document) []uint32 {
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}

	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// gltfLocalMatrix returns the node's local transform: the explicit matrix
// when one is set, otherwise T * R * S.
func gltfLocalMatrix(n *gltf.Node) mgl64.Mat4 {
	if mf := n.MatrixOrDefault(); mf != gltf.DefaultMatrix {
		var m mgl64.Mat4
		for i, v := range mf {
			m[i] = float64(v)
		}
		return m
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	sc := n.ScaleOrDefault()

	q := mgl64.Quat{
		W: float64(r[3]),
		V: mgl64.Vec3{float64(r[0]), float64(r[1]), float64(r[2])},
	}
	return mgl64.Translate3D(float64(t[0]), float64(t[1]), float64(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(float64(sc[0]), float64(sc[1]), float64(sc[2])))
}

// gltfGeometry concatenates the triangle primitives of a mesh. Primitives in
// point or line modes carry no faces and are skipped.
func gltfGeometry(doc *gltf.Document, m *gltf.Mesh) (*Geometry, error) {
	g := &Geometry{Name: m.Name}

	for pi, p := range m.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		if int(posIdx) >= len(doc.Accessors) {
			return nil, fmt.Errorf("primitive %d: position accessor %d out of range", pi, posIdx)
		}

		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: reading positions: %w", pi, err)
		}

		var indices []uint32
		if p.Indices != nil {
			if int(*p.Indices) >= len(doc.Accessors) {
				return nil, fmt.Errorf("primitive %d: index accessor %d out of range", pi, *p.Indices)
			}
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("primitive %d: reading indices: %w", pi, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		if len(indices)%3 != 0 {
			return nil, fmt.Errorf("primitive %d: %d indices is not a whole number of triangles", pi, len(indices))
		}

		base := len(g.Positions)
		for _, v := range positions {
			g.Positions = append(g.Positions, mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
		}
		for i := 0; i < len(indices); i += 3 {
			g.Faces = append(g.Faces, []int{
				base + int(indices[i]),
				base + int(indices[i+1]),
				base + int(indices[i+2]),
			})
		}
	}
	return g, nil
}
