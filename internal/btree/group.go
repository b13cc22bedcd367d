package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/heap"
)

// Symbol table entry cache types.
const (
	cacheNone     = 0
	cacheHeader   = 1
	cacheSoftLink = 2
)

// GroupEntry is one member of an old-style group.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64

	// SoftLink is set, and ObjectAddress meaningless, when the entry is a
	// soft link.
	SoftLink      bool
	SoftLinkValue string
}

// ReadGroupEntries returns every entry of the group B-tree at address.
// Names are resolved through the group's local heap.
func ReadGroupEntries(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	var out []GroupEntry
	if err := walkGroup(r, address, names, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkGroup(r *binary.Reader, address uint64, names *heap.LocalHeap, depth int, out *[]GroupEntry) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: group B-tree deeper than %d", ErrInvalidNode, maxDepth)
	}
	n, err := readNode(r, address, nodeTypeGroup)
	if err != nil {
		return err
	}
	for i := 0; i < n.entries; i++ {
		// Group keys are heap offsets of the largest name in the child.
		if _, err := n.r.ReadLength(); err != nil {
			return err
		}
		child, err := n.r.ReadOffset()
		if err != nil {
			return err
		}
		if n.level > 0 {
			err = walkGroup(r, child, names, depth+1, out)
		} else {
			err = readSymbolNode(r, child, names, out)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readSymbolNode(r *binary.Reader, address uint64, names *heap.LocalHeap, out *[]GroupEntry) error {
	nr := r.At(int64(address))
	prefix, err := nr.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("symbol table node at %d: %w", address, err)
	}
	if string(prefix[:4]) != "SNOD" {
		return fmt.Errorf("%w: bad symbol table node signature %q at %d", ErrInvalidNode, prefix[:4], address)
	}
	if prefix[4] != 1 {
		return fmt.Errorf("unsupported symbol table node version %d", prefix[4])
	}
	count := int(binary.DecodeUint(prefix[6:8]))
	for i := 0; i < count; i++ {
		e, err := readSymbolEntry(nr, names)
		if err != nil {
			return fmt.Errorf("symbol table entry %d at %d: %w", i, address, err)
		}
		if e.Name != "" {
			*out = append(*out, e)
		}
	}
	return nil
}

func readSymbolEntry(r *binary.Reader, names *heap.LocalHeap) (GroupEntry, error) {
	nameOffset, err := r.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	addr, err := r.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	cacheType, err := r.ReadUint32()
	if err != nil {
		return GroupEntry{}, err
	}
	r.Skip(4)
	scratch, err := r.ReadBytes(16)
	if err != nil {
		return GroupEntry{}, err
	}

	e := GroupEntry{Name: names.GetString(nameOffset), ObjectAddress: addr}
	if cacheType == cacheSoftLink {
		e.SoftLink = true
		e.SoftLinkValue = names.GetString(binary.DecodeUint(scratch[:4]))
		e.ObjectAddress = 0
	}
	return e, nil
}
