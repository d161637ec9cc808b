package collision

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const header = "# exported collision mesh\n" +
	"# v x y z\n" +
	"# f i0 i1 i2 type  (type: 0=floor 1=wall 2=ceiling)\n\n"

// Write serializes m in the collision text format.
func Write(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(header); err != nil {
		return err
	}
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", v[0], v[1], v[2]); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	for _, f := range m.Faces {
		if _, err := fmt.Fprintf(bw, "f %d %d %d %d\n", f.V[0], f.V[1], f.V[2], int(f.Type)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile creates or truncates path and writes m to it. On failure the
// file may be left partially written.
func WriteFile(path string, m *Mesh) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()

	if err := Write(f, m); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
