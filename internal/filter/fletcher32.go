package filter

import (
	"encoding/binary"
	"errors"
	"fmt"

	binpkg "github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

var ErrChecksum = errors.New("fletcher32 checksum mismatch")

// Fletcher32 appends a Fletcher-32 checksum on write and verifies and
// strips it on read.
type Fletcher32 struct{}

func NewFletcher32([]uint32) *Fletcher32 { return &Fletcher32{} }

func (f *Fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (f *Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("%w: chunk shorter than the checksum", ErrChecksum)
	}
	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	if got := binpkg.Fletcher32(data); got == stored {
		return data, nil
	}
	// Some early library versions summed the words with their bytes
	// swapped.
	if got := binpkg.Fletcher32(swapPairs(data)); got == stored {
		return data, nil
	}
	return nil, fmt.Errorf("%w: stored 0x%08x", ErrChecksum, stored)
}

func (f *Fletcher32) Encode(input []byte) ([]byte, error) {
	out := make([]byte, len(input), len(input)+4)
	copy(out, input)
	return binary.LittleEndian.AppendUint32(out, binpkg.Fletcher32(input)), nil
}

func swapPairs(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	for i := 0; i+1 < len(out); i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}
