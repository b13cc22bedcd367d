// Package layout reads a dataset's raw data according to its data layout
// message.
//
// Three storage classes exist:
//
//   - [Compact]: the bytes live inside the layout message itself.
//   - [Contiguous]: one block of the file, never filtered.
//   - [Chunked]: fixed-size chunks located through a chunk index and
//     passed through the dataset's filter pipeline.
//
// Chunk indexes supported are the version 1 B-tree (layout versions 1 to
// 3) and, for layout version 4, the single chunk, implicit, unpaged fixed
// array and version 2 B-tree indexes. Extensible arrays, used for datasets
// with one unlimited dimension, return [ErrUnsupported].
//
// Storage that was never written reads as the dataset's fill value, or as
// zeros when the fill value is undefined.
//
// Every layout returns the whole dataset in row-major order; partial reads
// are not provided.
package layout
