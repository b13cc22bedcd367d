package message

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// Filter identifiers.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6

	// FilterZstd is the id registered with The HDF Group for Zstandard.
	FilterZstd uint16 = 32015
)

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// IsOptional reports whether the filter may be skipped when unavailable.
func (f *FilterInfo) IsOptional() bool { return f.Flags&0x01 != 0 }

// FilterPipeline lists the filters applied to each chunk (type 0x000B).
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

func parseFilterPipeline(data []byte) (*FilterPipeline, error) {
	c := newCursor(data, binary.Config{})
	m := &FilterPipeline{Version: c.u8()}
	n := int(c.u8())
	switch m.Version {
	case 1:
		c.skip(6)
	case 2:
	default:
		return nil, fmt.Errorf("unsupported filter pipeline version %d", m.Version)
	}

	m.Filters = make([]FilterInfo, n)
	for i := range m.Filters {
		f := &m.Filters[i]
		f.ID = c.u16()
		nameLen := 0
		if m.Version == 1 || f.ID >= 256 {
			nameLen = int(c.u16())
		}
		f.Flags = c.u16()
		f.ClientData = make([]uint32, c.u16())
		if nameLen > 0 {
			f.Name = c.cstring(nameLen)
			if m.Version == 1 {
				c.align8()
			}
		}
		for j := range f.ClientData {
			f.ClientData[j] = c.u32()
		}
		if m.Version == 1 && len(f.ClientData)%2 != 0 {
			c.skip(4)
		}
	}
	return m, c.err
}

// Encode writes a version 2 pipeline.
func (m *FilterPipeline) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	e.Uint8(2)
	e.Uint8(uint8(len(m.Filters)))
	for _, f := range m.Filters {
		e.Uint16(f.ID)
		if f.ID >= 256 {
			e.Uint16(uint16(len(f.Name) + 1))
		}
		e.Uint16(f.Flags)
		e.Uint16(uint16(len(f.ClientData)))
		if f.ID >= 256 {
			e.Raw([]byte(f.Name))
			e.Uint8(0)
		}
		for _, v := range f.ClientData {
			e.Uint32(v)
		}
	}
	return e.Bytes()
}
