package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// ChunkEntry locates one stored chunk.
type ChunkEntry struct {
	// Offset is the chunk's first element in dataset coordinates.
	Offset     []uint64
	FilterMask uint32
	Size       uint32
	Address    uint64
}

// ReadChunks returns every allocated chunk of the chunk B-tree at address.
// rank is the dataset rank; keys carry one extra trailing dimension for
// the element size.
func ReadChunks(r *binary.Reader, address uint64, rank int) ([]ChunkEntry, error) {
	var out []ChunkEntry
	if err := walkChunks(r, address, rank, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkChunks(r *binary.Reader, address uint64, rank, depth int, out *[]ChunkEntry) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: chunk B-tree deeper than %d", ErrInvalidNode, maxDepth)
	}
	n, err := readNode(r, address, nodeTypeChunk)
	if err != nil {
		return err
	}
	for i := 0; i < n.entries; i++ {
		key, err := readChunkKey(n.r, rank)
		if err != nil {
			return fmt.Errorf("chunk key %d at %d: %w", i, address, err)
		}
		child, err := n.r.ReadOffset()
		if err != nil {
			return err
		}
		if n.level > 0 {
			if err := walkChunks(r, child, rank, depth+1, out); err != nil {
				return err
			}
			continue
		}
		if r.IsUndefinedOffset(child) || key.Size == 0 {
			continue
		}
		key.Address = child
		*out = append(*out, key)
	}
	return nil
}

func readChunkKey(r *binary.Reader, rank int) (ChunkEntry, error) {
	raw, err := r.ReadBytes(8 + 8*(rank+1))
	if err != nil {
		return ChunkEntry{}, err
	}
	e := ChunkEntry{
		Size:       uint32(binary.DecodeUint(raw[0:4])),
		FilterMask: uint32(binary.DecodeUint(raw[4:8])),
		Offset:     make([]uint64, rank),
	}
	for d := range e.Offset {
		e.Offset[d] = binary.DecodeUint(raw[8+8*d : 16+8*d])
	}
	return e, nil
}
