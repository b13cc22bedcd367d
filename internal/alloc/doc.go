// Package alloc hands out file addresses while a new HDF5 file is laid
// out.
//
// Allocation is append-only: every block starts at the current end of file,
// optionally rounded up to an alignment. Each block carries a tag naming
// what was placed there, which [Allocator.Blocks] reports for diagnostics.
package alloc
