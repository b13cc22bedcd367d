package message

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// DataspaceType distinguishes scalar, simple and null dataspaces.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Dataspace describes the shape of a dataset or attribute (type 0x0001).
type Dataspace struct {
	Version    uint8
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements returns the number of elements the dataspace selects.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceSimple:
		n := uint64(1)
		for _, d := range m.Dimensions {
			n *= d
		}
		return n
	}
	return 0
}

// IsScalar reports whether the dataspace holds a single element.
func (m *Dataspace) IsScalar() bool { return m.SpaceType == DataspaceScalar }

// NewDataspace returns a simple dataspace, or a scalar one when dims is empty.
func NewDataspace(dims ...uint64) *Dataspace {
	if len(dims) == 0 {
		return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
	}
	return &Dataspace{Version: 2, SpaceType: DataspaceSimple, Dimensions: dims}
}

func parseDataspace(data []byte, cfg binary.Config) (*Dataspace, error) {
	c := newCursor(data, cfg)
	m := &Dataspace{Version: c.u8()}
	rank := int(c.u8())
	flags := c.u8()

	switch m.Version {
	case 1:
		c.skip(5)
		m.SpaceType = DataspaceSimple
		if rank == 0 {
			m.SpaceType = DataspaceScalar
		}
	case 2:
		m.SpaceType = DataspaceType(c.u8())
	default:
		return nil, fmt.Errorf("unsupported dataspace version %d", m.Version)
	}

	if m.SpaceType == DataspaceSimple {
		m.Dimensions = make([]uint64, rank)
		for i := range m.Dimensions {
			m.Dimensions[i] = c.length()
		}
		if flags&0x01 != 0 {
			m.MaxDims = make([]uint64, rank)
			for i := range m.MaxDims {
				m.MaxDims[i] = c.length()
			}
		}
	}
	return m, c.err
}

// Encode writes a version 2 dataspace.
func (m *Dataspace) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	e.Uint8(2)
	e.Uint8(uint8(len(m.Dimensions)))
	var flags uint8
	if m.MaxDims != nil {
		flags |= 0x01
	}
	e.Uint8(flags)
	e.Uint8(uint8(m.SpaceType))
	for _, d := range m.Dimensions {
		e.Length(d)
	}
	for _, d := range m.MaxDims {
		e.Length(d)
	}
	return e.Bytes()
}
