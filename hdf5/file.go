package hdf5

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/object"
	"github.com/robert-malhotra/go-openpmd/internal/superblock"
)

// File is an HDF5 file opened for reading.
type File struct {
	path       string
	closer     io.Closer
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool
	opts       *fileOptions
}

// Open opens the file at path for reading.
func Open(path string, opts ...FileOption) (*File, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f, err := NewFile(osf, append([]FileOption{WithName(path)}, opts...)...)
	if err != nil {
		osf.Close()
		return nil, err
	}
	f.closer = osf
	return f, nil
}

// NewFile reads an HDF5 file from r. The file does not take ownership of
// r; Close on the returned file leaves r open.
func NewFile(r io.ReaderAt, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	sb, err := superblock.Read(r)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", classify(err))
	}
	cfg := sb.Config()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	// Addresses are relative to the base address, which moves past any
	// user block.
	src := r
	if sb.BaseAddress != 0 {
		n := int64(math.MaxInt64)
		if size := binary.SourceSize(r); size >= 0 {
			n = size
		}
		if sb.BaseAddress > uint64(n) {
			return nil, fmt.Errorf("base address %d past end of file", sb.BaseAddress)
		}
		src = io.NewSectionReader(r, int64(sb.BaseAddress), n-int64(sb.BaseAddress))
	}

	f := &File{
		path:       options.name,
		reader:     binary.NewReader(src, cfg),
		superblock: sb,
		opts:       options,
	}
	root, err := f.groupAt(sb.RootAddress, "/")
	if err != nil {
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	f.root = root
	return f, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// Path returns the name the file was opened with.
func (f *File) Path() string { return f.path }

// Version returns the superblock version.
func (f *File) Version() int { return int(f.superblock.Version) }

// Lookup returns the group or dataset at an absolute path.
func (f *File) Lookup(path string) (Object, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.Lookup(path)
}

// Group returns the group at an absolute path.
func (f *File) Group(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.Group(path)
}

// Dataset returns the dataset at an absolute path.
func (f *File) Dataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.Dataset(path)
}

// Attr returns the attribute named by an attribute path such as
// "/data/100@time" or "/@basePath".
func (f *File) Attr(path string) (*Attribute, error) {
	objectPath, name, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}
	obj, err := f.Lookup(objectPath)
	if err != nil {
		return nil, err
	}
	a := obj.Attr(name)
	if a == nil {
		return nil, fmt.Errorf("attribute %s: %w", path, ErrNotFound)
	}
	return a, nil
}

func (f *File) header(address uint64) (*object.Header, error) {
	if f.closed {
		return nil, ErrClosed
	}
	h, err := object.Read(f.reader, address)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, classify(err))
	}
	return h, nil
}

func (f *File) groupAt(address uint64, path string) (*Group, error) {
	h, err := f.header(address)
	if err != nil {
		return nil, err
	}
	return &Group{file: f, path: path, header: h}, nil
}

// objectAt opens whatever lives at address.
func (f *File) objectAt(address uint64, path string) (Object, error) {
	h, err := f.header(address)
	if err != nil {
		return nil, err
	}
	if h.IsDataset() {
		return newDataset(f, path, h)
	}
	return &Group{file: f, path: path, header: h}, nil
}
