package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-openpmd/internal/dtype"
	"github.com/robert-malhotra/go-openpmd/internal/layout"
	"github.com/robert-malhotra/go-openpmd/internal/message"
	"github.com/robert-malhotra/go-openpmd/internal/object"
)

// Dataset is an HDF5 dataset.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    layout.Layout
}

func newDataset(f *File, p string, h *object.Header) (*Dataset, error) {
	ds := &Dataset{
		file:      f,
		path:      p,
		header:    h,
		dataspace: h.Dataspace(),
		datatype:  h.Datatype(),
	}
	if ds.dataspace == nil || ds.datatype == nil {
		return nil, fmt.Errorf("dataset %s: missing dataspace or datatype message", p)
	}
	var err error
	ds.layout, err = layout.New(h.DataLayout(), ds.dataspace, ds.datatype, h.FilterPipeline(), h.FillValue(), f.reader)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, classify(err))
	}
	return ds, nil
}

// Name returns the last component of the dataset path.
func (d *Dataset) Name() string { return path.Base(d.path) }

// Path returns the absolute path of the dataset.
func (d *Dataset) Path() string { return d.path }

// Shape returns the dimensions, or nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	if d.dataspace.IsScalar() {
		return nil
	}
	return d.dataspace.Dimensions
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int { return len(d.Shape()) }

// NumElements returns the number of stored elements.
func (d *Dataset) NumElements() uint64 { return d.dataspace.NumElements() }

// IsScalar reports whether the dataset holds a single element.
func (d *Dataset) IsScalar() bool { return d.dataspace.IsScalar() }

// Datatype describes the element type, e.g. "float64" or "string[8]".
func (d *Dataset) Datatype() string { return d.datatype.String() }

// Layout names the storage class of the raw data.
func (d *Dataset) Layout() string {
	switch d.layout.Class() {
	case message.LayoutCompact:
		return "compact"
	case message.LayoutContiguous:
		return "contiguous"
	case message.LayoutChunked:
		return "chunked"
	}
	return "unknown"
}

func (d *Dataset) Attrs() []string             { return attrs{d.file, d.header}.Attrs() }
func (d *Dataset) Attr(name string) *Attribute { return attrs{d.file, d.header}.Attr(name) }
func (d *Dataset) HasAttr(name string) bool    { return attrs{d.file, d.header}.HasAttr(name) }

// ReadRaw returns the stored bytes in row-major order.
func (d *Dataset) ReadRaw() ([]byte, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	raw, err := d.layout.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, classify(err))
	}
	return raw, nil
}

// ReadFloat64 reads every element as a float64. Integer elements are
// converted.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	out, err := dtype.ToFloat64(d.datatype, raw, d.NumElements())
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", d.path, classify(err))
	}
	return out, nil
}

// ReadInt64 reads every element as an int64.
func (d *Dataset) ReadInt64() ([]int64, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	out, err := dtype.ToInt64(d.datatype, raw, d.NumElements())
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", d.path, classify(err))
	}
	return out, nil
}

// ReadStrings reads every element as a string.
func (d *Dataset) ReadStrings() ([]string, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	out, err := dtype.ToStrings(d.datatype, raw, d.NumElements(), d.file.reader)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", d.path, classify(err))
	}
	return out, nil
}
