// Package scene models 3D scene files as a flat node list plus a geometry
// lookup table, and loads them from the supported asset formats.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Scene errors.
var (
	ErrNotAScene         = errors.New("input is a single mesh, not a scene")
	ErrUnsupportedFormat = errors.New("unsupported scene format")
	ErrNodeNotFound      = errors.New("node not found")
)

// Geometry is a vertex array plus polygons indexing into it.
type Geometry struct {
	Name      string
	Positions []mgl64.Vec3
	Faces     [][]int // Polygon index lists, arity kept as in the source
}

// FaceCount returns the number of polygons.
func (g *Geometry) FaceCount() int {
	return len(g.Faces)
}

// Node is a named scene entry. Transform is already composed along the
// hierarchy, so it places geometry directly in the scene's top-level frame.
type Node struct {
	Name      string
	Geometry  string // Key into Scene.Geometries, empty for transform-only nodes
	Transform mgl64.Mat4
}

// Scene is a loaded scene graph.
type Scene struct {
	Source     string // Path the scene was loaded from
	Nodes      []Node
	Geometries map[string]*Geometry
}

// New returns an empty scene for the given source path.
func New(source string) *Scene {
	return &Scene{
		Source:     source,
		Geometries: make(map[string]*Geometry),
	}
}

// AddGeometry registers a geometry under key.
func (s *Scene) AddGeometry(key string, g *Geometry) {
	s.Geometries[key] = g
}

// AddNode appends a node.
func (s *Scene) AddNode(n Node) {
	s.Nodes = append(s.Nodes, n)
}

// Geometry returns the geometry registered under key, or nil.
func (s *Scene) Geometry(key string) *Geometry {
	return s.Geometries[key]
}

// Instance is a selected node resolved to its geometry.
type Instance struct {
	Node        string
	GeometryKey string
	Geometry    *Geometry // nil when the key does not resolve
	Transform   mgl64.Mat4
}

// GeometryName returns the display name of the instance's geometry.
func (i Instance) GeometryName() string {
	if i.Geometry != nil && i.Geometry.Name != "" {
		return i.Geometry.Name
	}
	return i.GeometryKey
}

// Select returns every geometry-carrying node whose name equals name.
// Matching is exact and case-sensitive.
func (s *Scene) Select(name string) ([]Instance, error) {
	var out []Instance
	for _, n := range s.Nodes {
		if n.Geometry == "" || n.Name != name {
			continue
		}
		out = append(out, Instance{
			Node:        n.Name,
			GeometryKey: n.Geometry,
			Geometry:    s.Geometries[n.Geometry],
			Transform:   n.Transform,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no node named %q in %s", ErrNodeNotFound, name, s.Source)
	}
	return out, nil
}
