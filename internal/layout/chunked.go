package layout

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/btree"
	"github.com/robert-malhotra/go-openpmd/internal/filter"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

// Chunked data is split into equally sized chunks. Edge chunks are stored
// at full size.
type Chunked struct {
	layout    *message.DataLayout
	dims      []uint64
	chunkDims []uint64
	elemSize  uint64
	fill      []byte
	pipeline  *filter.Pipeline
	r         *binary.Reader
}

func newChunked(
	layout *message.DataLayout,
	space *message.Dataspace,
	dt *message.Datatype,
	fp *message.FilterPipeline,
	fill []byte,
	r *binary.Reader,
) (*Chunked, error) {
	if len(layout.ChunkDims) != len(space.Dimensions) {
		return nil, fmt.Errorf("%w: chunk rank %d, dataset rank %d", ErrCorrupt, len(layout.ChunkDims), len(space.Dimensions))
	}
	for _, d := range layout.ChunkDims {
		if d == 0 {
			return nil, fmt.Errorf("%w: zero chunk dimension", ErrCorrupt)
		}
	}
	if n, ok := byteCount(uint64(dt.Size), layout.ChunkDims); !ok || n > math.MaxUint32 {
		return nil, fmt.Errorf("%w: chunk of %v elements is too large", ErrCorrupt, layout.ChunkDims)
	}
	p, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, err
	}
	return &Chunked{
		layout:    layout,
		dims:      space.Dimensions,
		chunkDims: layout.ChunkDims,
		elemSize:  uint64(dt.Size),
		fill:      fill,
		pipeline:  p,
		r:         r,
	}, nil
}

func (c *Chunked) Class() message.LayoutClass { return message.LayoutChunked }

// chunkBytes is the decoded size of one full chunk.
func (c *Chunked) chunkBytes() uint64 {
	n, _ := byteCount(c.elemSize, c.chunkDims)
	return n
}

// Read gathers every chunk into a row-major buffer. Chunks absent from the
// index read as the fill value.
func (c *Chunked) Read() ([]byte, error) {
	total, ok := byteCount(c.elemSize, c.dims)
	if !ok {
		return nil, fmt.Errorf("%w: dataset of %v elements of %d bytes overflows", ErrCorrupt, c.dims, c.elemSize)
	}
	out := filled(total, c.fill)
	if total == 0 || c.r.IsUndefinedOffset(c.layout.Address) {
		return out, nil
	}

	entries, err := c.entries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		raw, err := c.r.At(int64(e.Address)).ReadBytes(int(e.Size))
		if err != nil {
			return nil, fmt.Errorf("reading chunk at %d: %w", e.Address, err)
		}
		data, err := c.pipeline.Decode(raw, e.FilterMask)
		if err != nil {
			return nil, fmt.Errorf("chunk at %v: %w", e.Offset, err)
		}
		if uint64(len(data)) < c.chunkBytes() {
			return nil, fmt.Errorf("%w: chunk at %v decodes to %d bytes, want %d", ErrCorrupt, e.Offset, len(data), c.chunkBytes())
		}
		if err := c.place(out, data, e.Offset); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// entries lists the stored chunks through the layout's chunk index.
func (c *Chunked) entries() ([]btree.ChunkEntry, error) {
	switch c.layout.Index {
	case message.ChunkIndexBTreeV1:
		return btree.ReadChunks(c.r, c.layout.Address, len(c.dims))
	case message.ChunkIndexSingle:
		size := c.layout.FilteredSize
		if size == 0 {
			size = c.chunkBytes()
		}
		return []btree.ChunkEntry{{
			Offset:     make([]uint64, len(c.dims)),
			FilterMask: c.layout.FilterMask,
			Size:       uint32(size),
			Address:    c.layout.Address,
		}}, nil
	case message.ChunkIndexImplicit:
		return c.implicitEntries(), nil
	case message.ChunkIndexFixedArray:
		return c.fixedArrayEntries()
	case message.ChunkIndexBTreeV2:
		return btree.ReadChunksV2(c.r, c.layout.Address, c.chunkDims, c.chunkBytes())
	}
	return nil, fmt.Errorf("%w: %s chunk index", ErrUnsupported, c.layout.Index)
}

// grid returns the number of chunks along each dimension.
func (c *Chunked) grid() []uint64 {
	g := make([]uint64, len(c.dims))
	for d := range g {
		g[d] = (c.dims[d] + c.chunkDims[d] - 1) / c.chunkDims[d]
	}
	return g
}

// chunkOffset converts a row-major chunk number to the chunk's first
// element.
func (c *Chunked) chunkOffset(grid []uint64, i uint64) []uint64 {
	off := make([]uint64, len(grid))
	for d := len(grid) - 1; d >= 0; d-- {
		off[d] = (i % grid[d]) * c.chunkDims[d]
		i /= grid[d]
	}
	return off
}

func numChunks(grid []uint64) uint64 {
	n := uint64(1)
	for _, g := range grid {
		n *= g
	}
	return n
}

// implicitEntries lays unfiltered chunks out back to back in row-major
// chunk order.
func (c *Chunked) implicitEntries() []btree.ChunkEntry {
	grid := c.grid()
	size := c.chunkBytes()
	out := make([]btree.ChunkEntry, numChunks(grid))
	for i := range out {
		out[i] = btree.ChunkEntry{
			Offset:  c.chunkOffset(grid, uint64(i)),
			Size:    uint32(size),
			Address: c.layout.Address + uint64(i)*size,
		}
	}
	return out
}

// place copies the part of a chunk that lies inside the dataset.
func (c *Chunked) place(out, chunk []byte, offset []uint64) error {
	rank := len(c.dims)
	if len(offset) != rank {
		return fmt.Errorf("%w: chunk offset rank %d", ErrCorrupt, len(offset))
	}
	extent := make([]uint64, rank)
	for d := range extent {
		if offset[d] >= c.dims[d] {
			return nil
		}
		extent[d] = min(c.chunkDims[d], c.dims[d]-offset[d])
	}

	outStride := make([]uint64, rank)
	chunkStride := make([]uint64, rank)
	outStride[rank-1], chunkStride[rank-1] = c.elemSize, c.elemSize
	for d := rank - 2; d >= 0; d-- {
		outStride[d] = outStride[d+1] * c.dims[d+1]
		chunkStride[d] = chunkStride[d+1] * c.chunkDims[d+1]
	}

	var walk func(d int, o, s uint64)
	walk = func(d int, o, s uint64) {
		if d == rank-1 {
			start := o + offset[d]*outStride[d]
			n := extent[d] * c.elemSize
			copy(out[start:start+n], chunk[s:s+n])
			return
		}
		for i := uint64(0); i < extent[d]; i++ {
			walk(d+1, o+(offset[d]+i)*outStride[d], s+i*chunkStride[d])
		}
	}
	walk(0, 0, 0)
	return nil
}
