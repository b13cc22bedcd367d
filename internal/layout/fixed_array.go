package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/btree"
)

/*
Fixed array header ("FAHD"):

	signature, version 0, client ID, entry size, page bits,
	number of entries (length), data block address (offset), checksum

Fixed array data block ("FADB"):

	signature, version 0, client ID, header address (offset),
	entries, checksum

An unfiltered entry is a chunk address. A filtered entry is the address, the
chunk size in (entry size - offset size - 4) bytes and a 4-byte filter mask.
*/

func (c *Chunked) fixedArrayEntries() ([]btree.ChunkEntry, error) {
	r := c.r.At(int64(c.layout.Address))
	head, err := r.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("fixed array header: %w", err)
	}
	if string(head[:4]) != "FAHD" {
		return nil, fmt.Errorf("%w: bad fixed array signature %q", ErrCorrupt, head[:4])
	}
	entrySize := int(head[6])
	pageBits := head[7]
	count, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	block, err := r.ReadOffset()
	if err != nil {
		return nil, err
	}
	if count > 1<<pageBits {
		return nil, fmt.Errorf("%w: paged fixed array with %d entries", ErrUnsupported, count)
	}

	br := c.r.At(int64(block))
	bhead, err := br.ReadBytes(6)
	if err != nil {
		return nil, fmt.Errorf("fixed array data block: %w", err)
	}
	if string(bhead[:4]) != "FADB" {
		return nil, fmt.Errorf("%w: bad fixed array data block signature %q", ErrCorrupt, bhead[:4])
	}
	br.Skip(int64(c.r.OffsetSize()))
	raw, err := br.ReadBytes(int(count) * entrySize)
	if err != nil {
		return nil, fmt.Errorf("fixed array entries: %w", err)
	}

	filtered := !c.pipeline.Empty()
	offSize := c.r.OffsetSize()
	sizeWidth := entrySize - offSize - 4
	if filtered && sizeWidth <= 0 {
		return nil, fmt.Errorf("%w: fixed array entry size %d", ErrCorrupt, entrySize)
	}

	grid := c.grid()
	var out []btree.ChunkEntry
	for i := uint64(0); i < count && i < numChunks(grid); i++ {
		e := raw[int(i)*entrySize : int(i+1)*entrySize]
		addr := binary.DecodeUint(e[:offSize])
		if addr == 0 || c.r.IsUndefinedOffset(addr) {
			continue
		}
		entry := btree.ChunkEntry{
			Offset:  c.chunkOffset(grid, i),
			Address: addr,
			Size:    uint32(c.chunkBytes()),
		}
		if filtered {
			entry.Size = uint32(binary.DecodeUint(e[offSize : offSize+sizeWidth]))
			entry.FilterMask = uint32(binary.DecodeUint(e[offSize+sizeWidth:]))
		}
		out = append(out, entry)
	}
	return out, nil
}
