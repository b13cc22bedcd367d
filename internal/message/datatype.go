package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-openpmd/internal/binary"
)

// DatatypeClass is the class nibble of a datatype message.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

var classNames = [...]string{
	"fixed-point", "floating-point", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "variable-length", "array",
}

func (c DatatypeClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// StringPadding is how a fixed-length string fills unused bytes.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// Datatype describes the element type of a dataset or attribute (type 0x0003).
type Datatype struct {
	Version uint8
	Class   DatatypeClass
	Size    uint32

	// BigEndian applies to fixed-point and floating-point classes.
	BigEndian bool
	Signed    bool

	// Fixed-point bit field within Size bytes.
	BitOffset    uint16
	BitPrecision uint16

	Padding StringPadding
	UTF8    bool

	// VarLenString is set for variable-length strings; Base is the
	// element type of variable-length sequences and enums.
	VarLenString bool
	Base         *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsString reports whether values decode to strings.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.VarLenString)
}

// IsNumeric reports whether values decode to numbers.
func (m *Datatype) IsNumeric() bool {
	return m.Class == ClassFixedPoint || m.Class == ClassFloatPoint ||
		(m.Class == ClassEnum && m.Base != nil && m.Base.Class == ClassFixedPoint)
}

// Order returns the byte order of numeric values.
func (m *Datatype) Order() binary.ByteOrder {
	if m.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d]", m.Size)
	case ClassVarLen:
		if m.VarLenString {
			return "vlen string"
		}
	}
	return m.Class.String()
}

// parseDatatype decodes a datatype and reports how many bytes its
// description occupied, so that nested types can be skipped.
func parseDatatype(data []byte) (*Datatype, int, error) {
	if len(data) < 8 {
		return nil, 0, ErrTruncated
	}
	bits := uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16
	m := &Datatype{
		Version: data[0] >> 4,
		Class:   DatatypeClass(data[0] & 0x0F),
		Size:    binary.LittleEndian.Uint32(data[4:8]),
	}
	props := data[8:]
	used := 0

	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		m.BigEndian = bits&0x01 != 0
		m.Signed = bits&0x08 != 0
		if len(props) < 4 {
			return nil, 0, ErrTruncated
		}
		m.BitOffset = binary.LittleEndian.Uint16(props[0:2])
		m.BitPrecision = binary.LittleEndian.Uint16(props[2:4])
		used = 4
	case ClassFloatPoint:
		if bits&0x40 != 0 {
			return nil, 0, fmt.Errorf("VAX float byte order is not supported")
		}
		m.BigEndian = bits&0x01 != 0
		m.Signed = true
		used = 12
	case ClassString:
		m.Padding = StringPadding(bits & 0x0F)
		m.UTF8 = (bits>>4)&0x0F == 1
	case ClassVarLen:
		m.VarLenString = bits&0x0F == 1
		m.Padding = StringPadding((bits >> 4) & 0x0F)
		m.UTF8 = (bits>>8)&0x0F == 1
		base, n, err := parseDatatype(props)
		if err != nil {
			return nil, 0, fmt.Errorf("variable-length base type: %w", err)
		}
		m.Base = base
		used = n
	case ClassEnum:
		base, n, err := parseDatatype(props)
		if err != nil {
			return nil, 0, fmt.Errorf("enum base type: %w", err)
		}
		m.Base = base
		// Member names and values are not needed to read the base values.
		used = n
	case ClassTime, ClassOpaque, ClassCompound, ClassReference, ClassArray:
		// Kept so that the surrounding message can still be skipped.
		used = len(props)
	default:
		return nil, 0, fmt.Errorf("unknown datatype class %d", m.Class)
	}
	if used > len(props) {
		return nil, 0, ErrTruncated
	}
	return m, 8 + used, nil
}

// NewFloatDatatype returns a little-endian IEEE float of 4 or 8 bytes.
func NewFloatDatatype(size uint32) *Datatype {
	return &Datatype{Version: 1, Class: ClassFloatPoint, Size: size, Signed: true}
}

// NewIntDatatype returns a little-endian two's complement integer.
func NewIntDatatype(size uint32, signed bool) *Datatype {
	return &Datatype{
		Version:      1,
		Class:        ClassFixedPoint,
		Size:         size,
		Signed:       signed,
		BitPrecision: uint16(size * 8),
	}
}

// NewStringDatatype returns a NUL-padded ASCII string of n bytes.
func NewStringDatatype(n uint32) *Datatype {
	return &Datatype{Version: 1, Class: ClassString, Size: n, Padding: PadNullPad}
}

// NewVarLenStringDatatype returns a variable-length string whose elements
// are global heap references of size bytes: a 4-byte length, a collection
// address and a 4-byte object index.
func NewVarLenStringDatatype(size uint32, utf8 bool) *Datatype {
	return &Datatype{
		Version:      1,
		Class:        ClassVarLen,
		Size:         size,
		Padding:      PadNullTerm,
		UTF8:         utf8,
		VarLenString: true,
		Base:         NewIntDatatype(1, false),
	}
}

// Encode writes a version 1 datatype. Only fixed-point, IEEE float,
// fixed-length string and variable-length string classes are encodable.
func (m *Datatype) Encode(cfg binpkg.Config) []byte {
	e := binpkg.NewEncoder(cfg)
	var bits uint32
	switch m.Class {
	case ClassFixedPoint:
		if m.BigEndian {
			bits |= 0x01
		}
		if m.Signed {
			bits |= 0x08
		}
	case ClassFloatPoint:
		if m.BigEndian {
			bits |= 0x01
		}
		// Implied leading mantissa bit; sign at the top bit.
		bits |= 0x20 | (m.Size*8-1)<<8
	case ClassString:
		bits = uint32(m.Padding)
		if m.UTF8 {
			bits |= 1 << 4
		}
	case ClassVarLen:
		if !m.VarLenString {
			panic("message: cannot encode variable-length sequence datatype")
		}
		bits = 1 | uint32(m.Padding)<<4
		if m.UTF8 {
			bits |= 1 << 8
		}
	default:
		panic(fmt.Sprintf("message: cannot encode %s datatype", m.Class))
	}

	e.Uint8(1<<4 | uint8(m.Class))
	e.UintN(uint64(bits), 3)
	e.Uint32(m.Size)

	switch m.Class {
	case ClassFixedPoint:
		e.Uint16(m.BitOffset)
		e.Uint16(uint16(m.Size * 8))
	case ClassFloatPoint:
		// bit offset, precision, exponent location and size, mantissa
		// location and size, exponent bias
		e.Uint16(0)
		e.Uint16(uint16(m.Size * 8))
		if m.Size == 4 {
			e.Raw([]byte{23, 8, 0, 23})
			e.Uint32(127)
		} else {
			e.Raw([]byte{52, 11, 0, 52})
			e.Uint32(1023)
		}
	case ClassVarLen:
		e.Raw(m.Base.Encode(cfg))
	}
	return e.Bytes()
}
