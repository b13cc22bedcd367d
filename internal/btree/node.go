package btree

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

var ErrInvalidNode = errors.New("invalid B-tree node")

const (
	nodeTypeGroup = 0
	nodeTypeChunk = 1
)

// maxDepth bounds recursion in corrupt or cyclic trees.
const maxDepth = 64

// node is the fixed part of a version 1 B-tree node. The reader is left at
// the first key.
type node struct {
	level   uint8
	entries int
	r       *binary.Reader
}

func readNode(r *binary.Reader, address uint64, nodeType uint8) (*node, error) {
	nr := r.At(int64(address))
	prefix, err := nr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("B-tree node at %d: %w", address, err)
	}
	if string(prefix[:4]) != "TREE" {
		return nil, fmt.Errorf("%w: bad signature %q at %d", ErrInvalidNode, prefix[:4], address)
	}
	if prefix[4] != nodeType {
		return nil, fmt.Errorf("%w: node type %d at %d, want %d", ErrInvalidNode, prefix[4], address, nodeType)
	}
	// Sibling addresses.
	nr.Skip(int64(2 * nr.OffsetSize()))
	return &node{
		level:   prefix[5],
		entries: int(binary.DecodeUint(prefix[6:8])),
		r:       nr,
	}, nil
}
