package message

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// LayoutClass is the storage class of a dataset's raw data.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

// ChunkIndex identifies how chunk addresses are indexed.
type ChunkIndex uint8

const (
	// ChunkIndexBTreeV1 is used by layout versions 1 to 3.
	ChunkIndexBTreeV1    ChunkIndex = 0
	ChunkIndexSingle     ChunkIndex = 1
	ChunkIndexImplicit   ChunkIndex = 2
	ChunkIndexFixedArray ChunkIndex = 3
	ChunkIndexExtensible ChunkIndex = 4
	ChunkIndexBTreeV2    ChunkIndex = 5
)

func (i ChunkIndex) String() string {
	switch i {
	case ChunkIndexBTreeV1:
		return "v1 B-tree"
	case ChunkIndexSingle:
		return "single chunk"
	case ChunkIndexImplicit:
		return "implicit"
	case ChunkIndexFixedArray:
		return "fixed array"
	case ChunkIndexExtensible:
		return "extensible array"
	case ChunkIndexBTreeV2:
		return "v2 B-tree"
	}
	return fmt.Sprintf("chunk index %d", uint8(i))
}

const singleChunkFiltered = 0x02

// DataLayout describes where a dataset's raw data lives (type 0x0008).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	CompactData []byte

	// Contiguous storage; Address is also the index (or chunk) address
	// for chunked storage.
	Address uint64
	Size    uint64

	// Chunked storage. ChunkDims excludes the trailing element size.
	ChunkDims   []uint64
	ElementSize uint32
	Index       ChunkIndex

	// Single chunk index with filters.
	FilteredSize uint64
	FilterMask   uint32

	// Fixed array page bits.
	PageBits uint8
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func parseDataLayout(data []byte, cfg binary.Config) (*DataLayout, error) {
	c := newCursor(data, cfg)
	m := &DataLayout{Version: c.u8()}

	switch m.Version {
	case 1, 2:
		rank := int(c.u8())
		m.Class = LayoutClass(c.u8())
		c.skip(5)
		if m.Class != LayoutCompact {
			m.Address = c.offset()
		}
		dims := make([]uint64, rank)
		for i := range dims {
			dims[i] = uint64(c.u32())
		}
		switch m.Class {
		case LayoutCompact:
			m.CompactData = c.take(int(c.u32()))
		case LayoutChunked:
			m.setChunkDims(dims)
		}
	case 3, 4:
		m.Class = LayoutClass(c.u8())
		switch m.Class {
		case LayoutCompact:
			m.CompactData = c.take(int(c.u16()))
		case LayoutContiguous:
			m.Address = c.offset()
			m.Size = c.length()
		case LayoutChunked:
			if m.Version == 3 {
				rank := int(c.u8())
				m.Address = c.offset()
				dims := make([]uint64, rank)
				for i := range dims {
					dims[i] = uint64(c.u32())
				}
				m.setChunkDims(dims)
				break
			}
			m.parseChunkedV4(c)
		case LayoutVirtual:
			return nil, fmt.Errorf("virtual dataset layout is not supported")
		}
	default:
		return nil, fmt.Errorf("unsupported data layout version %d", m.Version)
	}
	return m, c.err
}

func (m *DataLayout) parseChunkedV4(c *cursor) {
	flags := c.u8()
	rank := int(c.u8())
	width := int(c.u8())
	dims := make([]uint64, rank)
	for i := range dims {
		dims[i] = c.uint(width)
	}
	m.setChunkDims(dims)

	m.Index = ChunkIndex(c.u8())
	switch m.Index {
	case ChunkIndexSingle:
		if flags&singleChunkFiltered != 0 {
			m.FilteredSize = c.length()
			m.FilterMask = c.u32()
		}
	case ChunkIndexFixedArray:
		m.PageBits = c.u8()
	case ChunkIndexExtensible:
		c.skip(5)
	case ChunkIndexBTreeV2:
		c.skip(6)
	}
	m.Address = c.offset()
}

func (m *DataLayout) setChunkDims(dims []uint64) {
	if len(dims) == 0 {
		return
	}
	m.ChunkDims = dims[:len(dims)-1]
	m.ElementSize = uint32(dims[len(dims)-1])
}

// NewContiguousLayout returns a version 3 contiguous layout.
func NewContiguousLayout(addr, size uint64) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutContiguous, Address: addr, Size: size}
}

// NewCompactLayout returns a version 3 compact layout holding data.
func NewCompactLayout(data []byte) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutCompact, CompactData: data}
}

// NewSingleChunkLayout returns a version 4 chunked layout whose only chunk
// covers the whole dataset. filteredSize is zero for an unfiltered chunk.
func NewSingleChunkLayout(dims []uint64, elemSize uint32, addr, filteredSize uint64) *DataLayout {
	return &DataLayout{
		Version:      4,
		Class:        LayoutChunked,
		Address:      addr,
		ChunkDims:    dims,
		ElementSize:  elemSize,
		Index:        ChunkIndexSingle,
		FilteredSize: filteredSize,
	}
}

// Encode writes the layout. Compact and contiguous layouts use version 3;
// chunked layouts use version 4 with a single chunk index.
func (m *DataLayout) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	switch m.Class {
	case LayoutCompact:
		e.Uint8(3)
		e.Uint8(uint8(LayoutCompact))
		e.Uint16(uint16(len(m.CompactData)))
		e.Raw(m.CompactData)
	case LayoutContiguous:
		e.Uint8(3)
		e.Uint8(uint8(LayoutContiguous))
		e.Offset(m.Address)
		e.Length(m.Size)
	case LayoutChunked:
		if m.Index != ChunkIndexSingle {
			panic(fmt.Sprintf("message: cannot encode %s chunk index", m.Index))
		}
		var flags uint8
		if m.FilteredSize > 0 {
			flags |= singleChunkFiltered
		}
		e.Uint8(4)
		e.Uint8(uint8(LayoutChunked))
		e.Uint8(flags)
		e.Uint8(uint8(len(m.ChunkDims) + 1))
		e.Uint8(8)
		for _, d := range m.ChunkDims {
			e.Uint64(d)
		}
		e.Uint64(uint64(m.ElementSize))
		e.Uint8(uint8(ChunkIndexSingle))
		if m.FilteredSize > 0 {
			e.Length(m.FilteredSize)
			e.Uint32(m.FilterMask)
		}
		e.Offset(m.Address)
	}
	return e.Bytes()
}
