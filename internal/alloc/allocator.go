package alloc

import (
	"fmt"
	"sort"
)

// Block is one allocated range.
type Block struct {
	Addr uint64
	Size uint64
	Tag  string
}

// End returns the first address after the block.
func (b Block) End() uint64 { return b.Addr + b.Size }

// Allocator tracks the end of a file under construction.
type Allocator struct {
	base   uint64
	eof    uint64
	blocks []Block
}

// New returns an allocator whose first block starts at base, typically
// the end of the superblock.
func New(base uint64) *Allocator {
	return &Allocator{base: base, eof: base}
}

// Alloc reserves size bytes at the end of file.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	return a.AllocAligned(size, 1, tag)
}

// AllocAligned reserves size bytes at the next multiple of align.
func (a *Allocator) AllocAligned(size, align uint64, tag string) uint64 {
	if align > 1 {
		if rem := a.eof % align; rem != 0 {
			a.eof += align - rem
		}
	}
	addr := a.eof
	a.eof += size
	if size > 0 {
		a.blocks = append(a.blocks, Block{Addr: addr, Size: size, Tag: tag})
	}
	return addr
}

// Base returns the first allocatable address.
func (a *Allocator) Base() uint64 { return a.base }

// EOF returns the address just past the last block.
func (a *Allocator) EOF() uint64 { return a.eof }

// Blocks returns the allocated blocks in address order.
func (a *Allocator) Blocks() []Block {
	out := make([]Block, len(a.blocks))
	copy(out, a.blocks)
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Validate checks that no two blocks overlap and none starts before base.
func (a *Allocator) Validate() error {
	blocks := a.Blocks()
	for i, b := range blocks {
		if b.Addr < a.base {
			return fmt.Errorf("block %q at %d starts before base %d", b.Tag, b.Addr, a.base)
		}
		if i > 0 && blocks[i-1].End() > b.Addr {
			return fmt.Errorf("block %q [%d,%d) overlaps %q [%d,%d)",
				b.Tag, b.Addr, b.End(), blocks[i-1].Tag, blocks[i-1].Addr, blocks[i-1].End())
		}
	}
	return nil
}
