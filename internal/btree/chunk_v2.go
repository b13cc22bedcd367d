package btree

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// Version 2 B-tree record types used as chunk indexes.
const (
	typeChunk         = 10
	typeChunkFiltered = 11
)

// v2Prefix is the signature, version, type and checksum of every node.
const v2Prefix = 10

/*
Version 2 B-tree header ("BTHD"):

	signature, version 0, type, node size (4), record size (2), depth (2),
	split percent, merge percent, root address (offset),
	root record count (2), total record count (length), checksum

Leaf nodes ("BTLF") hold records. Internal nodes ("BTIN") hold records
followed by one more child pointer than records. A child pointer is an
address, the child's record count and, below depth 1, the number of
records in the child's subtree. The two counts use the narrowest width
able to hold their maximum for the node size.
*/

type v2Tree struct {
	r          *binary.Reader
	typ        uint8
	recordSize int
	chunkDims  []uint64
	chunkBytes uint64

	// maxRecords and totalWidth are indexed by depth.
	maxRecords []uint64
	countWidth int
	totalWidth []int
}

// ReadChunksV2 returns every allocated chunk of the version 2 B-tree chunk
// index at address. Offsets are converted from chunk units to elements.
// Unfiltered chunks are chunkBytes long.
func ReadChunksV2(r *binary.Reader, address uint64, chunkDims []uint64, chunkBytes uint64) ([]ChunkEntry, error) {
	hr := r.At(int64(address))
	head, err := hr.ReadBytes(16)
	if err != nil {
		return nil, fmt.Errorf("v2 B-tree header at %d: %w", address, err)
	}
	if string(head[:4]) != "BTHD" {
		return nil, fmt.Errorf("%w: bad v2 B-tree signature %q at %d", ErrInvalidNode, head[:4], address)
	}
	if head[4] != 0 {
		return nil, fmt.Errorf("%w: v2 B-tree version %d", ErrInvalidNode, head[4])
	}
	t := &v2Tree{
		r:          r,
		typ:        head[5],
		recordSize: int(binary.DecodeUint(head[10:12])),
		chunkDims:  chunkDims,
		chunkBytes: chunkBytes,
	}
	nodeSize := binary.DecodeUint(head[6:10])
	depth := int(binary.DecodeUint(head[12:14]))
	root, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}
	rootRecords, err := hr.ReadUint16()
	if err != nil {
		return nil, err
	}
	total, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	if err := t.checkRecordSize(); err != nil {
		return nil, err
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: v2 B-tree depth %d", ErrInvalidNode, depth)
	}
	if err := t.limits(nodeSize, depth); err != nil {
		return nil, err
	}
	if total == 0 || r.IsUndefinedOffset(root) {
		return nil, nil
	}

	var out []ChunkEntry
	if err := t.walk(root, uint64(rootRecords), depth, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *v2Tree) checkRecordSize() error {
	fixed := t.r.OffsetSize() + 8*len(t.chunkDims)
	switch t.typ {
	case typeChunk:
		if t.recordSize != fixed {
			return fmt.Errorf("%w: chunk record size %d, want %d", ErrInvalidNode, t.recordSize, fixed)
		}
	case typeChunkFiltered:
		if w := t.recordSize - fixed - 4; w < 1 || w > 8 {
			return fmt.Errorf("%w: filtered chunk record size %d", ErrInvalidNode, t.recordSize)
		}
	default:
		return fmt.Errorf("%w: v2 B-tree type %d is not a chunk index", ErrInvalidNode, t.typ)
	}
	return nil
}

// limits derives the per-depth record limits and count widths from the
// node size.
func (t *v2Tree) limits(nodeSize uint64, depth int) error {
	rec := uint64(t.recordSize)
	if nodeSize <= v2Prefix {
		return fmt.Errorf("%w: v2 B-tree node size %d", ErrInvalidNode, nodeSize)
	}
	t.maxRecords = make([]uint64, depth+1)
	t.totalWidth = make([]int, depth+1)
	cum := make([]uint64, depth+1)

	t.maxRecords[0] = (nodeSize - v2Prefix) / rec
	cum[0] = t.maxRecords[0]
	t.countWidth = encodedWidth(t.maxRecords[0])
	for d := 1; d <= depth; d++ {
		ptr := uint64(t.r.OffsetSize() + t.countWidth)
		if d > 1 {
			ptr += uint64(t.totalWidth[d-1])
		}
		if nodeSize < v2Prefix+ptr {
			return fmt.Errorf("%w: v2 B-tree node size %d too small for depth %d", ErrInvalidNode, nodeSize, d)
		}
		n := (nodeSize - v2Prefix - ptr) / (rec + ptr)
		hi, lo := bits.Mul64(n+1, cum[d-1])
		if hi != 0 || lo+n < lo {
			return fmt.Errorf("%w: v2 B-tree record count overflows at depth %d", ErrInvalidNode, d)
		}
		t.maxRecords[d] = n
		cum[d] = lo + n
		t.totalWidth[d] = encodedWidth(cum[d])
	}
	return nil
}

// encodedWidth is the number of bytes needed to store n.
func encodedWidth(n uint64) int {
	return (max(bits.Len64(n), 1)-1)/8 + 1
}

func (t *v2Tree) walk(address, records uint64, depth int, out *[]ChunkEntry) error {
	if records > t.maxRecords[depth] {
		return fmt.Errorf("%w: %d records in a depth %d node at %d", ErrInvalidNode, records, depth, address)
	}
	sig := "BTLF"
	if depth > 0 {
		sig = "BTIN"
	}
	nr := t.r.At(int64(address))
	prefix, err := nr.ReadBytes(6)
	if err != nil {
		return fmt.Errorf("v2 B-tree node at %d: %w", address, err)
	}
	if string(prefix[:4]) != sig {
		return fmt.Errorf("%w: bad signature %q at %d, want %s", ErrInvalidNode, prefix[:4], address, sig)
	}
	if prefix[5] != t.typ {
		return fmt.Errorf("%w: node type %d at %d, want %d", ErrInvalidNode, prefix[5], address, t.typ)
	}

	raw, err := nr.ReadBytes(int(records) * t.recordSize)
	if err != nil {
		return fmt.Errorf("v2 B-tree records at %d: %w", address, err)
	}
	for i := 0; i < int(records); i++ {
		t.record(raw[i*t.recordSize:(i+1)*t.recordSize], out)
	}
	if depth == 0 {
		return nil
	}

	for i := uint64(0); i <= records; i++ {
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		n, err := nr.ReadUintN(t.countWidth)
		if err != nil {
			return err
		}
		if depth > 1 {
			nr.Skip(int64(t.totalWidth[depth-1]))
		}
		if err := t.walk(child, n, depth-1, out); err != nil {
			return err
		}
	}
	return nil
}

// record decodes one chunk record and appends it when the chunk is
// allocated.
func (t *v2Tree) record(b []byte, out *[]ChunkEntry) {
	off := t.r.OffsetSize()
	addr := binary.DecodeUint(b[:off])
	if addr == 0 || t.r.IsUndefinedOffset(addr) {
		return
	}
	e := ChunkEntry{Address: addr, Size: uint32(t.chunkBytes)}
	b = b[off:]
	if t.typ == typeChunkFiltered {
		w := len(b) - 4 - 8*len(t.chunkDims)
		e.Size = uint32(binary.DecodeUint(b[:w]))
		e.FilterMask = uint32(binary.DecodeUint(b[w : w+4]))
		b = b[w+4:]
	}
	e.Offset = make([]uint64, len(t.chunkDims))
	for d := range e.Offset {
		e.Offset[d] = binary.DecodeUint(b[8*d:8*d+8]) * t.chunkDims[d]
	}
	*out = append(*out, e)
}
