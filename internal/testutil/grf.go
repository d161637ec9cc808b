// Package testutil builds binary fixtures for tests.
package testutil

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/colexport/pkg/encoding"
)

// GRFFile is one entry written by WriteGRF.
type GRFFile struct {
	Name    string // UTF-8; stored as EUC-KR with backslashes
	Content []byte
	Flags   uint8 // 0x01 marks a file, 0x02 or 0x04 an encrypted one
	Stored  bool  // Write uncompressed

	// ClaimedSize, when non-zero, replaces the uncompressed size recorded
	// in the file table.
	ClaimedSize uint32
}

// WriteGRF builds a GRF 0x200 archive in a temp dir and returns its path.
func WriteGRF(t testing.TB, files []GRFFile) string {
	t.Helper()
	var body, table bytes.Buffer
	le := binary.LittleEndian

	for _, f := range files {
		data := f.Content
		if !f.Stored {
			var compressed bytes.Buffer
			w := zlib.NewWriter(&compressed)
			w.Write(f.Content)
			w.Close()
			data = compressed.Bytes()
		}
		// Entries are 8-byte aligned
		aligned := len(data)
		if aligned%8 != 0 {
			aligned += 8 - aligned%8
		}
		offset := body.Len()
		body.Write(data)
		body.Write(make([]byte, aligned-len(data)))

		name := bytes.ReplaceAll(encoding.UTF8ToEUCKR(f.Name), []byte("/"), []byte("\\"))
		table.Write(name)
		table.WriteByte(0)
		binary.Write(&table, le, uint32(len(data)))
		binary.Write(&table, le, uint32(aligned))
		size := uint32(len(f.Content))
		if f.ClaimedSize != 0 {
			size = f.ClaimedSize
		}
		binary.Write(&table, le, size)
		table.WriteByte(f.Flags)
		binary.Write(&table, le, uint32(offset))
	}

	var compressedTable bytes.Buffer
	tw := zlib.NewWriter(&compressedTable)
	tw.Write(table.Bytes())
	tw.Close()

	var out bytes.Buffer
	header := make([]byte, 46)
	copy(header, "Master of Magic")
	le.PutUint32(header[30:], uint32(body.Len())) // Table offset after the header
	le.PutUint32(header[34:], 0)                  // Seed
	le.PutUint32(header[38:], uint32(len(files))+7)
	le.PutUint32(header[42:], 0x200)
	out.Write(header)
	out.Write(body.Bytes())
	binary.Write(&out, le, uint32(compressedTable.Len()))
	binary.Write(&out, le, uint32(table.Len()))
	out.Write(compressedTable.Bytes())

	path := filepath.Join(t.TempDir(), "test.grf")
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write GRF: %v", err)
	}
	return path
}
