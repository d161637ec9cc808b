package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a scene file, picking the parser from the file extension.
func Load(path string) (*Scene, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
		return LoadGLTF(path)
	case ".rsm", ".rsm2":
		return LoadRSM(path)
	case ".obj":
		return LoadOBJ(path)
	case ".stl":
		// STL has no node names, so there is nothing to match against.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading STL file: %w", err)
		}
		return nil, fmt.Errorf("%w: %s is an STL mesh", ErrNotAScene, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
