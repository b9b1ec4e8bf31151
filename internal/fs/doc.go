// Package fs abstracts the filesystem operations used for atomic output
// commits, so tests can inject failures.
//
// The package defines two interfaces:
//
//   - [File]: a temporary output file being written
//   - [FileSystem]: temp-file creation, rename, remove and directory setup
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that fails writes, syncs, closes or renames
//
// # Usage
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.CreateTemp(dir, ".out.tmp-*")
//
// Tests inject a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("gt.ibin", fs.Fault{FailOnRename: true})
package fs
