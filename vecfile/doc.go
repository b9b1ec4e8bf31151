// Package vecfile encodes and decodes the binary vector file format used by
// ANN benchmark tooling.
//
// # Format
//
// The layout is frozen and positional, little-endian, with no version field:
//
//	offset 0: uint32 rows (N)
//	offset 4: uint32 cols (D)
//	offset 8: N*D*4 bytes, row-major
//
// Vector files (.fbin) carry float32 elements; label, index and neighbor files
// (.ibin) carry uint32 elements. The element type is chosen by the caller
// (ReadFile[float32] vs ReadFile[uint32]) and never sniffed from the bytes.
// Any extension of the format must be a new format.
//
// # Integrity
//
// A payload shorter than the header declares is a format error; missing rows
// are never zero-filled. Bytes after the declared payload are also rejected.
// Files are written to a temporary sibling and renamed into place on Commit,
// so a failed write never leaves a file under the final name.
//
// # Compression
//
// Paths ending in .zst or .lz4 are transparently wrapped in a zstd or LZ4
// frame stream. The decompressed bytes are the same frozen format.
//
// # Usage
//
//	m, _ := vecfile.FromRows([][]float32{{0, 0}, {1, 0}})
//	_ = vecfile.WriteFile("base.fbin", m)
//	back, _ := vecfile.ReadFile[float32]("base.fbin")
package vecfile
