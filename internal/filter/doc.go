// Package filter applies HDF5 chunk filters.
//
// A dataset's filter pipeline message lists the filters applied to each
// chunk when it was written. Reading applies them in reverse order, skipping
// any filter whose bit is set in the chunk's filter mask. Writing applies
// them in order.
//
// Supported filters:
//
//   - deflate (1), through klauspost/compress zlib
//   - shuffle (2)
//   - Fletcher-32 (3)
//   - Zstandard (32015), through klauspost/compress zstd
//
// A missing optional filter is dropped from the pipeline; a missing
// mandatory one is an [ErrUnsupported] error.
package filter
