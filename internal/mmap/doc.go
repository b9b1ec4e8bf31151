// Package mmap maps vector files read-only into memory.
//
// Base sets for ground-truth runs are often larger than what is comfortable to
// copy onto the Go heap. A Mapping exposes the file contents as a byte slice
// backed by the page cache; the vecfile package reinterprets that slice as
// float32 rows without copying.
//
// Unix uses mmap(2) with madvise(2) hints; Windows uses
// CreateFileMapping/MapViewOfFile and ignores hints.
//
// The slice returned by Bytes is valid until Close. Close is idempotent.
package mmap
