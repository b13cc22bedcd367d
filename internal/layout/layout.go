package layout

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

var (
	ErrUnsupported = errors.New("unsupported storage layout")
	ErrCorrupt     = errors.New("corrupt dataset storage")
)

// Layout reads the raw bytes of a dataset.
type Layout interface {
	Class() message.LayoutClass
	Read() ([]byte, error)
}

// New returns the reader for a dataset's layout message.
func New(
	layout *message.DataLayout,
	space *message.Dataspace,
	dt *message.Datatype,
	fp *message.FilterPipeline,
	fv *message.FillValue,
	r *binary.Reader,
) (Layout, error) {
	if layout == nil || space == nil || dt == nil {
		return nil, fmt.Errorf("%w: dataset lacks a layout, dataspace or datatype", ErrCorrupt)
	}
	var fill []byte
	if fv != nil && fv.Value != nil {
		if len(fv.Value) != int(dt.Size) {
			return nil, fmt.Errorf("%w: %d-byte fill value for %d-byte elements", ErrCorrupt, len(fv.Value), dt.Size)
		}
		fill = fv.Value
	}
	dims := space.Dimensions
	if space.SpaceType != message.DataspaceSimple {
		dims = nil
	}
	size, ok := byteCount(uint64(dt.Size), dims)
	if !ok {
		return nil, fmt.Errorf("%w: dataspace %v of %d-byte elements overflows", ErrCorrupt, dims, dt.Size)
	}
	if space.SpaceType == message.DataspaceNull {
		size = 0
	}

	switch layout.Class {
	case message.LayoutCompact:
		return &Compact{data: layout.CompactData, size: size}, nil
	case message.LayoutContiguous:
		return &Contiguous{
			address: layout.Address,
			stored:  layout.Size,
			size:    size,
			fill:    fill,
			r:       r,
		}, nil
	case message.LayoutChunked:
		return newChunked(layout, space, dt, fp, fill, r)
	}
	return nil, fmt.Errorf("%w: class %d", ErrUnsupported, layout.Class)
}

// Compact data is held in the layout message.
type Compact struct {
	data []byte
	size uint64
}

func (c *Compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c *Compact) Read() ([]byte, error) {
	if uint64(len(c.data)) < c.size {
		return nil, fmt.Errorf("%w: compact data has %d bytes, need %d", ErrCorrupt, len(c.data), c.size)
	}
	out := make([]byte, c.size)
	copy(out, c.data)
	return out, nil
}

// Contiguous data is a single block of the file.
type Contiguous struct {
	address uint64
	stored  uint64
	size    uint64
	fill    []byte
	r       *binary.Reader
}

func (c *Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

// Read returns the block. Storage that was never allocated reads as the
// dataset's fill value, or zeros when it has none.
func (c *Contiguous) Read() ([]byte, error) {
	if c.r.IsUndefinedOffset(c.address) {
		return filled(c.size, c.fill), nil
	}
	if c.stored < c.size {
		return nil, fmt.Errorf("%w: contiguous block has %d bytes, need %d", ErrCorrupt, c.stored, c.size)
	}
	data, err := c.r.At(int64(c.address)).ReadBytes(int(c.size))
	if err != nil {
		return nil, fmt.Errorf("reading contiguous data at %d: %w", c.address, err)
	}
	return data, nil
}

// byteCount returns elemSize times the product of dims, and false when
// that overflows.
func byteCount(elemSize uint64, dims []uint64) (uint64, bool) {
	n := elemSize
	for _, d := range dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

// filled returns n bytes holding repeated copies of fill, or zeros when
// fill is nil.
func filled(n uint64, fill []byte) []byte {
	out := make([]byte, n)
	if len(fill) == 0 || len(out) < len(fill) {
		return out
	}
	copy(out, fill)
	for k := len(fill); k < len(out); k *= 2 {
		copy(out[k:], out[:k])
	}
	return out
}
