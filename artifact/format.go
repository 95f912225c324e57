package artifact

import (
	"encoding/binary"
	"errors"
)

const (
	// MagicNumber identifies quantized artifact files (ASCII: "QNT1").
	MagicNumber = 0x514E5431
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidFormat  = errors.New("malformed artifact")
)

const fileHeaderSize = 32

// FileHeader is the 32-byte header at the start of every artifact file.
// All multi-byte fields are little-endian.
type FileHeader struct {
	Magic       uint32 // 0x514E5431 ("QNT1")
	Version     uint32 // File format version
	Compression uint8  // CompressionType of the payload section
	Flags       uint8
	Padding     [2]byte
	MetaSize    uint32  // Uncompressed metadata length
	ModuleSize  uint32  // Uncompressed module length
	Checksum    uint32  // CRC32 of the payload section as stored
	Reserved    [8]byte // Future use
}

func (h *FileHeader) encode() []byte {
	b := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	b[8] = h.Compression
	b[9] = h.Flags
	binary.LittleEndian.PutUint32(b[12:16], h.MetaSize)
	binary.LittleEndian.PutUint32(b[16:20], h.ModuleSize)
	binary.LittleEndian.PutUint32(b[20:24], h.Checksum)
	return b
}

func (h *FileHeader) decode(b []byte) error {
	if len(b) < fileHeaderSize {
		return ErrInvalidFormat
	}
	h.Magic = binary.LittleEndian.Uint32(b[0:4])
	h.Version = binary.LittleEndian.Uint32(b[4:8])
	h.Compression = b[8]
	h.Flags = b[9]
	h.MetaSize = binary.LittleEndian.Uint32(b[12:16])
	h.ModuleSize = binary.LittleEndian.Uint32(b[16:20])
	h.Checksum = binary.LittleEndian.Uint32(b[20:24])

	if h.Magic != MagicNumber {
		return ErrInvalidMagic
	}
	if h.Version != Version {
		return ErrInvalidVersion
	}
	return nil
}
