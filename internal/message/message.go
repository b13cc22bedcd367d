package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// Type is an object header message type.
type Type uint16

const (
	TypeNIL            Type = 0x0000
	TypeDataspace      Type = 0x0001
	TypeLinkInfo       Type = 0x0002
	TypeDatatype       Type = 0x0003
	TypeFillValueOld   Type = 0x0004
	TypeFillValue      Type = 0x0005
	TypeLink           Type = 0x0006
	TypeDataLayout     Type = 0x0008
	TypeGroupInfo      Type = 0x000A
	TypeFilterPipeline Type = 0x000B
	TypeAttribute      Type = 0x000C
	TypeContinuation   Type = 0x0010
	TypeSymbolTable    Type = 0x0011
	TypeAttributeInfo  Type = 0x0015
)

// ErrTruncated is returned when a message body is shorter than its fields.
var ErrTruncated = errors.New("message truncated")

// Message is implemented by every decoded header message.
type Message interface {
	Type() Type
}

// Encodable is a message that can be written into a new object header.
type Encodable interface {
	Message
	Encode(cfg binary.Config) []byte
}

// Parse decodes the body of a header message of the given type.
func Parse(typ Type, data []byte, cfg binary.Config) (Message, error) {
	var (
		m   Message
		err error
	)
	switch typ {
	case TypeDataspace:
		m, err = parseDataspace(data, cfg)
	case TypeDatatype:
		m, _, err = parseDatatype(data)
	case TypeFillValue:
		m, err = parseFillValue(data)
	case TypeFillValueOld:
		m, err = parseFillValueOld(data)
	case TypeDataLayout:
		m, err = parseDataLayout(data, cfg)
	case TypeFilterPipeline:
		m, err = parseFilterPipeline(data)
	case TypeAttribute:
		m, err = parseAttribute(data, cfg)
	case TypeLink:
		m, err = parseLink(data, cfg)
	case TypeLinkInfo:
		m, err = parseLinkInfo(data, cfg)
	case TypeSymbolTable:
		m, err = parseSymbolTable(data, cfg)
	case TypeContinuation:
		m, err = parseContinuation(data, cfg)
	default:
		return &Unknown{typ: typ, Data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message 0x%04x: %w", uint16(typ), err)
	}
	return m, nil
}

// Unknown holds the raw body of a message this package does not decode.
type Unknown struct {
	typ  Type
	Data []byte
}

func (m *Unknown) Type() Type { return m.typ }

// Continuation points at another block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeContinuation }

func parseContinuation(data []byte, cfg binary.Config) (*Continuation, error) {
	c := newCursor(data, cfg)
	m := &Continuation{Offset: c.offset(), Length: c.length()}
	return m, c.err
}

// cursor walks a message body. The first out-of-range read sets err and
// every later read returns zero.
type cursor struct {
	b   []byte
	off int
	cfg binary.Config
	err error
}

func newCursor(b []byte, cfg binary.Config) *cursor {
	return &cursor{b: b, cfg: cfg}
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.b) {
		c.err = ErrTruncated
		return nil
	}
	p := c.b[c.off : c.off+n]
	c.off += n
	return p
}

func (c *cursor) uint(n int) uint64 {
	p := c.take(n)
	if p == nil {
		return 0
	}
	return binary.DecodeUint(p)
}

func (c *cursor) u8() uint8      { return uint8(c.uint(1)) }
func (c *cursor) u16() uint16    { return uint16(c.uint(2)) }
func (c *cursor) u32() uint32    { return uint32(c.uint(4)) }
func (c *cursor) offset() uint64 { return c.uint(c.cfg.OffsetSize) }
func (c *cursor) length() uint64 { return c.uint(c.cfg.LengthSize) }
func (c *cursor) skip(n int)     { c.take(n) }
func (c *cursor) rest() []byte   { return c.take(len(c.b) - c.off) }

// align8 skips padding up to the next multiple of 8 from the body start.
func (c *cursor) align8() {
	if rem := c.off % 8; rem != 0 {
		c.skip(8 - rem)
	}
}

// cstring decodes a field of n bytes holding a NUL-terminated or
// NUL-padded string.
func (c *cursor) cstring(n int) string {
	p := c.take(n)
	for i, ch := range p {
		if ch == 0 {
			return string(p[:i])
		}
	}
	return string(p)
}
