package message

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// LinkType distinguishes hard, soft and external links.
type LinkType uint8

const (
	LinkHard     LinkType = 0
	LinkSoft     LinkType = 1
	LinkExternal LinkType = 64
)

// Link names one member of a compact group (type 0x0006).
type Link struct {
	LinkType LinkType
	Name     string

	// Address of the target object header, for hard links.
	Address uint64
	// Target path, for soft links.
	Target string
	// File and object path, for external links.
	ExternalFile string
	ExternalPath string
}

func (m *Link) Type() Type { return TypeLink }

func parseLink(data []byte, cfg binary.Config) (*Link, error) {
	c := newCursor(data, cfg)
	if v := c.u8(); v != 1 {
		return nil, fmt.Errorf("unsupported link version %d", v)
	}
	flags := c.u8()
	m := &Link{}
	if flags&0x08 != 0 {
		m.LinkType = LinkType(c.u8())
	}
	if flags&0x04 != 0 {
		c.skip(8) // creation order
	}
	if flags&0x10 != 0 {
		c.skip(1) // name character set
	}
	nameLen := int(c.uint(1 << (flags & 0x03)))
	m.Name = string(c.take(nameLen))

	switch m.LinkType {
	case LinkHard:
		m.Address = c.offset()
	case LinkSoft:
		m.Target = string(c.take(int(c.u16())))
	case LinkExternal:
		raw := c.take(int(c.u16()))
		if len(raw) > 1 {
			parts := splitNUL(raw[1:])
			if len(parts) > 0 {
				m.ExternalFile = parts[0]
			}
			if len(parts) > 1 {
				m.ExternalPath = parts[1]
			}
		}
	default:
		return nil, fmt.Errorf("unsupported link type %d", m.LinkType)
	}
	return m, c.err
}

func splitNUL(b []byte) []string {
	var out []string
	start := 0
	for i, ch := range b {
		if ch == 0 {
			out = append(out, string(b[start:i]))
			start = i + 1
		}
	}
	if start < len(b) {
		out = append(out, string(b[start:]))
	}
	return out
}

// NewHardLink returns a hard link to the object header at addr.
func NewHardLink(name string, addr uint64) *Link {
	return &Link{LinkType: LinkHard, Name: name, Address: addr}
}

// NewSoftLink returns a soft link to target.
func NewSoftLink(name, target string) *Link {
	return &Link{LinkType: LinkSoft, Name: name, Target: target}
}

// NewExternalLink returns a link to path inside another file.
func NewExternalLink(name, file, path string) *Link {
	return &Link{LinkType: LinkExternal, Name: name, ExternalFile: file, ExternalPath: path}
}

// Encode writes a version 1 link message.
func (m *Link) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	var flags uint8
	width := 1
	switch {
	case len(m.Name) > 0xFFFF:
		flags, width = 2, 4
	case len(m.Name) > 0xFF:
		flags, width = 1, 2
	}
	if m.LinkType != LinkHard {
		flags |= 0x08
	}
	e.Uint8(1)
	e.Uint8(flags)
	if m.LinkType != LinkHard {
		e.Uint8(uint8(m.LinkType))
	}
	e.UintN(uint64(len(m.Name)), width)
	e.Raw([]byte(m.Name))
	switch m.LinkType {
	case LinkHard:
		e.Offset(m.Address)
	case LinkSoft:
		e.Uint16(uint16(len(m.Target)))
		e.Raw([]byte(m.Target))
	case LinkExternal:
		e.Uint16(uint16(len(m.ExternalFile) + len(m.ExternalPath) + 3))
		e.Uint8(0)
		e.Raw([]byte(m.ExternalFile))
		e.Uint8(0)
		e.Raw([]byte(m.ExternalPath))
		e.Uint8(0)
	}
	return e.Bytes()
}

// LinkInfo marks a group that stores its members as link messages
// (type 0x0002). A defined FractalHeap means links live in dense storage.
type LinkInfo struct {
	FractalHeap uint64
	NameIndex   uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

func parseLinkInfo(data []byte, cfg binary.Config) (*LinkInfo, error) {
	c := newCursor(data, cfg)
	c.skip(1)
	flags := c.u8()
	if flags&0x01 != 0 {
		c.skip(8) // maximum creation index
	}
	m := &LinkInfo{FractalHeap: c.offset(), NameIndex: c.offset()}
	return m, c.err
}

// Encode writes a version 0 link info message for compact storage.
func (m *LinkInfo) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	e.Uint8(0)
	e.Uint8(0)
	e.UndefinedOffset()
	e.UndefinedOffset()
	return e.Bytes()
}

// GroupInfo carries group storage hints (type 0x000A). Only the empty
// version 0 form is produced.
type GroupInfo struct{}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// Encode writes a version 0 group info message with default settings.
func (m *GroupInfo) Encode(binary.Config) []byte { return []byte{0, 0} }

// SymbolTable points at the B-tree and local heap of an old-style group
// (type 0x0011).
type SymbolTable struct {
	BTree     uint64
	LocalHeap uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, cfg binary.Config) (*SymbolTable, error) {
	c := newCursor(data, cfg)
	m := &SymbolTable{BTree: c.offset(), LocalHeap: c.offset()}
	return m, c.err
}
