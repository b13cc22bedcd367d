package hdf5

import "github.com/robert-malhotra/go-openpmd/internal/message"

// FileOption configures how a file is opened or built.
type FileOption func(*fileOptions)

type fileOptions struct {
	name         string
	maxLinkDepth int
	offsetSize   int
	lengthSize   int
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		maxLinkDepth: MaxLinkDepth,
		offsetSize:   8,
		lengthSize:   8,
	}
}

// WithName sets the name reported by File.Path for files opened with
// NewFile.
func WithName(name string) FileOption {
	return func(o *fileOptions) { o.name = name }
}

// WithMaxLinkDepth limits how many soft links one lookup may follow.
func WithMaxLinkDepth(n int) FileOption {
	return func(o *fileOptions) {
		if n > 0 {
			o.maxLinkDepth = n
		}
	}
}

// WithOffsetSize sets the size in bytes of file addresses written by a
// Builder (2, 4, or 8).
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.offsetSize = size
		}
	}
}

// WithLengthSize sets the size in bytes of lengths written by a Builder
// (2, 4, or 8).
func WithLengthSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.lengthSize = size
		}
	}
}

// DatasetOption configures a dataset added to a Builder.
type DatasetOption func(*datasetOptions)

type attrDef struct {
	name  string
	value any
}

type datasetOptions struct {
	shape      []uint64
	chunked    bool
	compact    bool
	filters    []message.FilterInfo
	attributes []attrDef
}

// WithShape stores the data with the given dimensions instead of as a
// vector. The product of dims must equal the number of values.
func WithShape(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) { o.shape = dims }
}

// WithChunked stores the data as one chunk covering the whole dataset.
// Filters imply chunked storage.
func WithChunked() DatasetOption {
	return func(o *datasetOptions) { o.chunked = true }
}

// WithCompact stores the data inside the object header.
func WithCompact() DatasetOption {
	return func(o *datasetOptions) { o.compact = true }
}

// WithDeflate compresses the chunk with zlib at level (1-9).
func WithDeflate(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level < 1 || level > 9 {
			level = 6
		}
		o.addFilter(message.FilterInfo{ID: message.FilterDeflate, ClientData: []uint32{uint32(level)}})
	}
}

// WithZstd compresses the chunk with Zstandard.
func WithZstd() DatasetOption {
	return func(o *datasetOptions) {
		o.addFilter(message.FilterInfo{ID: message.FilterZstd, Name: "zstd", Flags: 1, ClientData: []uint32{3}})
	}
}

// WithShuffle byte-shuffles elements before compression. Options apply in
// order, so pass it before WithDeflate or WithZstd.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.addFilter(message.FilterInfo{ID: message.FilterShuffle})
	}
}

// WithFletcher32 appends a checksum to the chunk.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.addFilter(message.FilterInfo{ID: message.FilterFletcher32})
	}
}

// WithAttr attaches an attribute to the dataset. See Builder for the
// accepted value types.
func WithAttr(name string, value any) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}

func (o *datasetOptions) addFilter(f message.FilterInfo) {
	o.chunked = true
	o.filters = append(o.filters, f)
}
