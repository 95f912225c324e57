// Package artifact persists quantized modules as self-describing binary
// artifacts and organizes them into a versioned model registry.
//
// # File Format
//
// An encoded artifact is a fixed 32-byte header followed by a single
// compressed payload:
//
//	[Magic u32][Version u32][Compression u8][Flags u8][Padding  u16]
//	[MetaSize u32][ModuleSize u32][Checksum u32][Reserved u64]
//	[payload ...]
//
// The payload is the metadata JSON document concatenated with the module
// binary, compressed as one block. The CRC32 checksum covers the payload as
// stored, so corruption is detected before any byte is parsed:
//
//	data, err := artifact.Encode(a, artifact.CompressionZSTD)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	restored, err := artifact.Decode(data)
//	if artifact.IsChecksumMismatch(err) {
//	    // the blob was damaged in transit or at rest
//	}
//
// Encoding is deterministic: the same artifact always produces the same
// bytes, so stored artifacts can be compared and deduplicated by content.
//
// # Registry
//
// A Registry stores versioned artifacts in a BlobStore. Every model keeps
// its versions under models/<name>/ next to a CURRENT pointer blob naming
// the active version, so a reader either sees the previous version or the
// new one, never a partial write:
//
//	reg := artifact.NewRegistry(artifact.NewLocalStore("/var/lib/models"))
//
//	version, err := reg.Save(ctx, "churn", a)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a, err = reg.Load(ctx, "churn")
//
// Blob stores are provided for memory, the local filesystem, S3 (with an
// optional DynamoDB conditional commit) and MinIO.
package artifact
