package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/quantfit/quantization"
)

const flagClassifier = 1 << 0

// Encode serializes an artifact:
//
//	[FileHeader][payload]
//
// where payload is the compressed concatenation of the metadata JSON and the
// module binary. The header checksum covers the payload as stored.
func Encode(a *Artifact, compression CompressionType) ([]byte, error) {
	if a == nil || a.Module == nil {
		return nil, errors.New("artifact has no module")
	}

	meta, err := json.Marshal(metadata{
		Kind:      a.Kind,
		Algorithm: a.Algorithm,
		NBits:     a.NBits,
		Classes:   a.Classes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	moduleBytes, err := a.Module.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal module: %w", err)
	}

	payload := make([]byte, 0, len(meta)+len(moduleBytes))
	payload = append(payload, meta...)
	payload = append(payload, moduleBytes...)

	stored, err := compressPayload(payload, compression)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(fileHeaderSize + len(stored))
	buf.Write(make([]byte, fileHeaderSize))

	cw := NewChecksumWriter(&buf)
	if _, err := cw.Write(stored); err != nil {
		return nil, err
	}

	h := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: uint8(compression),
		MetaSize:    uint32(len(meta)),
		ModuleSize:  uint32(len(moduleBytes)),
		Checksum:    cw.Sum(),
	}
	if a.IsClassifier() {
		h.Flags |= flagClassifier
	}

	out := buf.Bytes()
	copy(out[:fileHeaderSize], h.encode())
	return out, nil
}

// Decode parses an encoded artifact, verifying the checksum before touching
// the payload.
func Decode(data []byte) (*Artifact, error) {
	var h FileHeader
	if err := h.decode(data); err != nil {
		return nil, err
	}

	cr := NewChecksumReader(bytes.NewReader(data[fileHeaderSize:]))
	stored, err := io.ReadAll(cr)
	if err != nil {
		return nil, err
	}
	if err := cr.Verify(h.Checksum); err != nil {
		return nil, err
	}

	payload, err := decompressPayload(stored, CompressionType(h.Compression))
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) != uint64(h.MetaSize)+uint64(h.ModuleSize) {
		return nil, ErrInvalidFormat
	}

	var meta metadata
	if err := json.Unmarshal(payload[:h.MetaSize], &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	module := &quantization.Module{}
	if err := module.UnmarshalBinary(payload[h.MetaSize:]); err != nil {
		return nil, fmt.Errorf("unmarshal module: %w", err)
	}

	a := &Artifact{
		Kind:      meta.Kind,
		Algorithm: meta.Algorithm,
		NBits:     meta.NBits,
		Classes:   meta.Classes,
		Module:    module,
	}
	if h.Flags&flagClassifier != 0 && !a.IsClassifier() {
		return nil, ErrInvalidFormat
	}
	return a, nil
}
