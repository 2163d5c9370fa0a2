package storage

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

const (
	// Magic bytes to identify our file format
	MagicBytes = "GODB"
	// Current version
	FormatVersion = 2
	// File extension for collection files
	FileExtension = ".godb"

	// FlagCompressed marks an lz4 block compressed payload
	FlagCompressed uint8 = 1 << 0
)

// FileHeader represents the header of a collection file
type FileHeader struct {
	Magic    [4]byte // "GODB"
	Version  uint8   // Format version
	Flags    uint8   // FlagCompressed
	Reserved [2]byte // Reserved for future use
	RawSize  uint64  // Payload size before compression
	Checksum uint64  // xxh3 of the payload as stored
}

// WriteHeader writes the file header for payload to the given writer
func WriteHeader(w io.Writer, payload []byte, rawSize int, flags uint8) error {
	header := FileHeader{
		Magic:    [4]byte{'G', 'O', 'D', 'B'},
		Version:  FormatVersion,
		Flags:    flags,
		Reserved: [2]byte{0, 0},
		RawSize:  uint64(rawSize),
		Checksum: xxh3.Hash(payload),
	}

	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", domain.ErrCorruptFile, err)
	}

	// Validate magic bytes
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("%w: expected %s, got %s", domain.ErrCorruptFile, MagicBytes, string(header.Magic[:]))
	}

	// Validate version
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}

	return &header, nil
}

// Verify checks the stored payload against the header checksum
func (h *FileHeader) Verify(payload []byte) error {
	if sum := xxh3.Hash(payload); sum != h.Checksum {
		return fmt.Errorf("%w: checksum mismatch (want %016x, got %016x)", domain.ErrCorruptFile, h.Checksum, sum)
	}
	return nil
}

// StorageData is what a collection file holds
type StorageData struct {
	Collection string                            `msgpack:"collection"`
	Documents  map[string]map[string]interface{} `msgpack:"documents"`
	Indexes    map[string]bool                   `msgpack:"indexes,omitempty"` // field -> unique
	Metadata   map[string]interface{}            `msgpack:"metadata,omitempty"`
}

// NewStorageData creates a new empty storage data structure
func NewStorageData(collection string) *StorageData {
	return &StorageData{
		Collection: collection,
		Documents:  make(map[string]map[string]interface{}),
		Indexes:    make(map[string]bool),
		Metadata:   make(map[string]interface{}),
	}
}
