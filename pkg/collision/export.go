package collision

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/colexport/pkg/scene"
)

// Options controls an export run.
type Options struct {
	NodeName  string      // Exact node name to collect
	WeldEps   float64     // Weld tolerance, <= 0 disables welding
	Threshold float64     // Classification threshold in (0, 1)
	Override  SurfaceType // Auto, or a type forced onto every face
	Logger    *zap.Logger // Optional; nil discards stage logs
}

// DefaultOptions returns the stock export settings.
func DefaultOptions() Options {
	return Options{
		NodeName:  "COLLISION",
		WeldEps:   1e-6,
		Threshold: DefaultThreshold,
		Override:  Auto,
	}
}

// Stats summarizes an export run.
type Stats struct {
	Nodes          int    // Matching nodes
	MergedVertices int    // Vertex count before welding
	Vertices       int    // Vertex count written
	Faces          int    // Triangle count written
	ByType         [3]int // Faces per surface type
}

// Export runs select, merge, weld and classify over sc.
func Export(sc *scene.Scene, opts Options) (*Mesh, Stats, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var stats Stats

	if !opts.Override.Valid() {
		return nil, stats, fmt.Errorf("invalid surface type override %d", int(opts.Override))
	}

	instances, err := sc.Select(opts.NodeName)
	if err != nil {
		return nil, stats, err
	}
	stats.Nodes = len(instances)
	for _, inst := range instances {
		if inst.Geometry == nil {
			log.Warn("Skipping node with missing geometry",
				zap.String("node", inst.Node),
				zap.String("geometry", inst.GeometryKey))
			continue
		}
		log.Debug("Selected node",
			zap.String("node", inst.Node),
			zap.String("geometry", inst.GeometryName()))
	}

	mesh, err := Merge(instances)
	if err != nil {
		return nil, stats, err
	}
	stats.MergedVertices = len(mesh.Vertices)
	log.Debug("Merged geometry",
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("faces", len(mesh.Faces)))

	mesh = Weld(mesh, opts.WeldEps)
	if opts.WeldEps > 0 {
		log.Debug("Welded vertices",
			zap.Float64("eps", opts.WeldEps),
			zap.Int("before", stats.MergedVertices),
			zap.Int("after", len(mesh.Vertices)))
	}

	Classify(mesh, opts.Threshold, opts.Override)
	if err := mesh.Validate(); err != nil {
		return nil, stats, err
	}

	stats.Vertices = len(mesh.Vertices)
	stats.Faces = len(mesh.Faces)
	stats.ByType = mesh.CountByType()
	log.Debug("Classified faces",
		zap.Stringer("override", opts.Override),
		zap.Float64("threshold", opts.Threshold),
		zap.Int("floor", stats.ByType[Floor]),
		zap.Int("wall", stats.ByType[Wall]),
		zap.Int("ceiling", stats.ByType[Ceiling]))

	return mesh, stats, nil
}
