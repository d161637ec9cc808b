package collision

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// cellKey is a vertex position quantized to the weld lattice.
type cellKey [3]int64

func quantize(v mgl64.Vec3, eps float64) cellKey {
	return cellKey{
		int64(math.RoundToEven(v[0] / eps)),
		int64(math.RoundToEven(v[1] / eps)),
		int64(math.RoundToEven(v[2] / eps)),
	}
}

// Weld merges vertices that fall into the same eps-sized lattice cell.
// The first vertex seen in a cell represents it; output vertices are ordered
// by cell key. Duplicate faces are kept. m is returned unchanged unless
// eps > 0, which also covers NaN.
func Weld(m *Mesh, eps float64) *Mesh {
	if !(eps > 0) {
		return m
	}

	keys := make([]cellKey, len(m.Vertices))
	first := make(map[cellKey]int, len(m.Vertices))
	for i, v := range m.Vertices {
		k := quantize(v, eps)
		keys[i] = k
		if _, ok := first[k]; !ok {
			first[k] = i
		}
	}

	cells := make([]cellKey, 0, len(first))
	for k := range first {
		cells = append(cells, k)
	}
	slices.SortFunc(cells, func(a, b cellKey) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		if c := cmp.Compare(a[1], b[1]); c != 0 {
			return c
		}
		return cmp.Compare(a[2], b[2])
	})

	out := &Mesh{
		Vertices: make([]mgl64.Vec3, len(cells)),
		Faces:    make([]Face, len(m.Faces)),
	}
	index := make(map[cellKey]int, len(cells))
	for i, k := range cells {
		index[k] = i
		out.Vertices[i] = m.Vertices[first[k]]
	}
	for fi, f := range m.Faces {
		nf := f
		for j, idx := range f.V {
			nf.V[j] = index[keys[idx]]
		}
		out.Faces[fi] = nf
	}
	return out
}
