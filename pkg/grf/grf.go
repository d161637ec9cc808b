// Package grf reads files out of GRF 0x200 archives, the container RSM
// models are usually distributed in.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/colexport/pkg/encoding"
)

const (
	grfMagic      = "Master of Magic"
	grfHeaderSize = 46
	grfVersion    = 0x200

	entryFlagFile      = 0x01
	entryFlagEncrypted = 0x02 | 0x04 // Mixed or DES header encryption

	// Deflate cannot expand data by more than this factor.
	maxInflateRatio = 1032
)

// GRF archive errors.
var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrCorruptTable       = errors.New("corrupt GRF file table")
	ErrEntryNotFound      = errors.New("file not found in archive")
	ErrEncrypted          = errors.New("encrypted archive entries are not supported")
)

// Archive represents an opened GRF archive.
type Archive struct {
	file    *os.File
	size    int64
	header  Header
	entries map[string]*Entry
}

// Header contains GRF file header information.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry represents a file entry in the archive.
type Entry struct {
	Name             string // UTF-8, as stored (backslashes kept)
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Open opens a GRF archive for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	a := &Archive{file: file, size: info.Size(), entries: make(map[string]*Entry)}

	if err := a.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return a, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	if err := binary.Read(io.NewSectionReader(a.file, 0, grfHeaderSize), binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != grfVersion {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	start := int64(a.header.TableOffset) + grfHeaderSize
	r := io.NewSectionReader(a.file, start, a.size-start)

	var sizes struct {
		Compressed   uint32
		Uncompressed uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &sizes); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	if !a.plausible(start+8, sizes.Compressed, sizes.Uncompressed) {
		return fmt.Errorf("%w: table claims %d bytes from %d compressed",
			ErrCorruptTable, sizes.Uncompressed, sizes.Compressed)
	}

	zr, err := zlib.NewReader(io.LimitReader(r, int64(sizes.Compressed)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	defer zr.Close()

	table := make([]byte, sizes.Uncompressed)
	if _, err := io.ReadFull(zr, table); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	count := int64(a.header.FileCount) - int64(a.header.Seed) - 7
	if count < 0 {
		return fmt.Errorf("%w: file count %d", ErrCorruptTable, count)
	}

	off := 0
	for i := int64(0); i < count; i++ {
		nameEnd := bytes.IndexByte(table[off:], 0)
		if nameEnd < 0 || off+nameEnd+1+17 > len(table) {
			return fmt.Errorf("%w: entry %d runs past the table", ErrCorruptTable, i)
		}
		name := encoding.EUCKRToUTF8(table[off : off+nameEnd])
		off += nameEnd + 1

		e := &Entry{
			Name:             name,
			CompressedSize:   binary.LittleEndian.Uint32(table[off:]),
			AlignedSize:      binary.LittleEndian.Uint32(table[off+4:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[off+8:]),
			Flags:            table[off+12],
			Offset:           binary.LittleEndian.Uint32(table[off+13:]),
		}
		off += 17

		// Directory entries carry no data
		if e.Flags&entryFlagFile != 0 {
			a.entries[encoding.NormalizePath(name)] = e
		}
	}
	return nil
}

// List returns all file paths in the archive, normalized and sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for path := range a.entries {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists. Lookup ignores case and slash direction.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[encoding.NormalizePath(path)]
	return ok
}

// Read returns the uncompressed contents of a file.
func (a *Archive) Read(path string) ([]byte, error) {
	e, ok := a.entries[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}
	if e.Flags&entryFlagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	start := int64(e.Offset) + grfHeaderSize
	if !a.plausible(start, e.CompressedSize, e.UncompressedSize) {
		return nil, fmt.Errorf("%w: %s claims %d bytes from %d compressed at offset %d",
			ErrCorruptTable, path, e.UncompressedSize, e.CompressedSize, e.Offset)
	}
	r := io.NewSectionReader(a.file, start, int64(e.CompressedSize))

	result := make([]byte, e.UncompressedSize)
	if e.CompressedSize == e.UncompressedSize {
		if _, err := io.ReadFull(r, result); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return result, nil
	}

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer zr.Close()

	if _, err := io.ReadFull(zr, result); err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return result, nil
}

// plausible reports whether compressed bytes at offset fit inside the archive
// and could inflate to uncompressed bytes. It bounds allocations driven by
// sizes read from the archive.
func (a *Archive) plausible(offset int64, compressed, uncompressed uint32) bool {
	if offset < 0 || offset+int64(compressed) > a.size {
		return false
	}
	return uint64(uncompressed) <= uint64(compressed)*maxInflateRatio
}
