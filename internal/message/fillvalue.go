package message

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// FillValue is the value read for dataset elements that were never
// written (type 0x0005, or the old form 0x0004). Value is nil when the
// library default of all zero bytes applies.
type FillValue struct {
	Version uint8
	Value   []byte
	old     bool
}

func (m *FillValue) Type() Type {
	if m.old {
		return TypeFillValueOld
	}
	return TypeFillValue
}

const (
	fillUndefinedV3 = 0x10
	fillDefinedV3   = 0x20
)

func parseFillValue(data []byte) (*FillValue, error) {
	c := newCursor(data, binary.Config{})
	m := &FillValue{Version: c.u8()}
	switch m.Version {
	case 1, 2:
		c.skip(2) // allocation and write times
		defined := c.u8() != 0
		if m.Version == 2 && !defined {
			return m, c.err
		}
		if size := c.u32(); size > 0 {
			m.Value = c.take(int(size))
		}
	case 3:
		flags := c.u8()
		if flags&fillUndefinedV3 != 0 || flags&fillDefinedV3 == 0 {
			return m, c.err
		}
		if size := c.u32(); size > 0 {
			m.Value = c.take(int(size))
		}
	default:
		return nil, fmt.Errorf("unsupported fill value version %d", m.Version)
	}
	return m, c.err
}

func parseFillValueOld(data []byte) (*FillValue, error) {
	c := newCursor(data, binary.Config{})
	m := &FillValue{old: true}
	if size := c.u32(); size > 0 {
		m.Value = c.take(int(size))
	}
	return m, c.err
}
