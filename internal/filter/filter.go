package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/message"
)

var ErrUnsupported = errors.New("unsupported filter")

// Filter transforms one chunk.
type Filter interface {
	ID() uint16
	Encode(input []byte) ([]byte, error)
	Decode(input []byte) ([]byte, error)
}

// Registry maps filter IDs to constructors taking the client data.
var Registry = map[uint16]func([]uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func(cd []uint32) Filter { return NewFletcher32(cd) },
	message.FilterZstd:       func(cd []uint32) Filter { return NewZstd(cd) },
}

var filterNames = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
	message.FilterZstd:        "zstd",
}

// Name returns a readable name for a filter ID.
func Name(id uint16) string {
	if n, ok := filterNames[id]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", id)
}

// New returns the filter described by info, or nil if the filter is
// unavailable but optional.
func New(info message.FilterInfo) (Filter, error) {
	ctor, ok := Registry[info.ID]
	if !ok {
		if info.IsOptional() {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s (id %d)", ErrUnsupported, Name(info.ID), info.ID)
	}
	return ctor(info.ClientData), nil
}
