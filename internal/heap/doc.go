// Package heap reads HDF5 local and global heaps and writes global heap
// collections.
//
// A local heap (signature "HEAP") holds the member names of an old-style
// group; symbol table entries refer to names by offset into its data
// segment.
//
// A global heap collection (signature "GCOL") holds variable-length data
// such as variable-length strings. A dataset or attribute element stores a
// [GlobalHeapID] that names a collection and an object index within it.
package heap
