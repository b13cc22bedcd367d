package message

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// Attribute is a named value attached to an object (type 0x000C).
// Data holds the raw encoded elements described by Datatype and Dataspace.
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func parseAttribute(data []byte, cfg binary.Config) (*Attribute, error) {
	c := newCursor(data, cfg)
	m := &Attribute{Version: c.u8()}
	flags := c.u8()
	nameLen := int(c.u16())
	typeLen := int(c.u16())
	spaceLen := int(c.u16())

	switch m.Version {
	case 1, 2:
	case 3:
		c.skip(1) // name character set
	default:
		return nil, fmt.Errorf("unsupported attribute version %d", m.Version)
	}
	if flags&0x03 != 0 {
		return nil, fmt.Errorf("attribute uses a shared datatype or dataspace")
	}

	// Version 1 pads each field to a multiple of 8 bytes.
	pad := func(n int) int {
		if m.Version == 1 && n%8 != 0 {
			return n + 8 - n%8
		}
		return n
	}

	m.Name = c.cstring(pad(nameLen))
	typeRaw := c.take(pad(typeLen))
	spaceRaw := c.take(pad(spaceLen))
	m.Data = c.rest()
	if c.err != nil {
		return nil, c.err
	}

	var err error
	if m.Datatype, _, err = parseDatatype(typeRaw[:typeLen]); err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", m.Name, err)
	}
	if m.Dataspace, err = parseDataspace(spaceRaw[:spaceLen], cfg); err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", m.Name, err)
	}
	return m, nil
}

// NewAttribute returns a version 3 attribute.
func NewAttribute(name string, dt *Datatype, ds *Dataspace, data []byte) *Attribute {
	return &Attribute{Version: 3, Name: name, Datatype: dt, Dataspace: ds, Data: data}
}

// Encode writes a version 3 attribute with an ASCII name.
func (m *Attribute) Encode(cfg binary.Config) []byte {
	dt := m.Datatype.Encode(cfg)
	ds := m.Dataspace.Encode(cfg)

	e := binary.NewEncoder(cfg)
	e.Uint8(3)
	e.Uint8(0)
	e.Uint16(uint16(len(m.Name) + 1))
	e.Uint16(uint16(len(dt)))
	e.Uint16(uint16(len(ds)))
	e.Uint8(0)
	e.Raw([]byte(m.Name))
	e.Uint8(0)
	e.Raw(dt)
	e.Raw(ds)
	e.Raw(m.Data)
	return e.Bytes()
}
