package scene

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/Faultbox/colexport/pkg/encoding"
	"github.com/Faultbox/colexport/pkg/formats"
	"github.com/Faultbox/colexport/pkg/grf"
)

// LoadFromArchive loads a scene stored inside a GRF archive. entry is the
// path inside the archive; case and slash direction are ignored. Only RSM
// and OBJ entries are supported.
func LoadFromArchive(archivePath, entry string) (*Scene, error) {
	source := archivePath + ":" + entry

	// Check the format before touching the archive
	ext := strings.ToLower(path.Ext(encoding.NormalizePath(entry)))
	switch ext {
	case ".rsm", ".rsm2", ".obj":
	case ".stl":
		return nil, fmt.Errorf("%w: %s is an STL mesh", ErrNotAScene, source)
	default:
		return nil, fmt.Errorf("%w: %q in archive", ErrUnsupportedFormat, ext)
	}

	a, err := grf.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	data, err := a.Read(entry)
	if err != nil {
		return nil, err
	}

	if ext == ".obj" {
		obj, err := formats.ParseOBJ(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", source, err)
		}
		return FromOBJ(obj, source)
	}

	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}
	return FromRSM(rsm, source), nil
}
