package binary

import "encoding/binary"

// Encoder appends little-endian HDF5 fields to a growing byte slice.
// Unlike Reader it never seeks: metadata is encoded into standalone
// blocks that the caller places at an address of its choosing.
type Encoder struct {
	buf []byte
	cfg Config
}

// NewEncoder returns an empty Encoder using cfg for offsets and lengths.
func NewEncoder(cfg Config) *Encoder {
	return &Encoder{cfg: cfg}
}

// Bytes returns the encoded bytes. The slice aliases the encoder's buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Config returns the widths in use.
func (e *Encoder) Config() Config { return e.cfg }

// Raw appends raw bytes.
func (e *Encoder) Raw(b []byte) { e.buf = append(e.buf, b...) }

// Zeros appends n zero bytes.
func (e *Encoder) Zeros(n int) {
	for ; n > 0; n-- {
		e.buf = append(e.buf, 0)
	}
}

// Uint8 appends one byte.
func (e *Encoder) Uint8(v uint8) { e.buf = append(e.buf, v) }

// Uint16 appends a little-endian uint16.
func (e *Encoder) Uint16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }

// Uint32 appends a little-endian uint32.
func (e *Encoder) Uint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }

// Uint64 appends a little-endian uint64.
func (e *Encoder) Uint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

// UintN appends the low n bytes of v.
func (e *Encoder) UintN(v uint64, n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, byte(v>>(8*uint(i))))
	}
}

// Offset appends a file address.
func (e *Encoder) Offset(v uint64) { e.UintN(v, e.cfg.OffsetSize) }

// Length appends a length field.
func (e *Encoder) Length(v uint64) { e.UintN(v, e.cfg.LengthSize) }

// UndefinedOffset appends the all-ones address.
func (e *Encoder) UndefinedOffset() { e.Offset(Undefined(e.cfg.OffsetSize)) }

// Pad appends zero bytes until the length is a multiple of n.
func (e *Encoder) Pad(n int) {
	if n > 1 {
		if rem := len(e.buf) % n; rem != 0 {
			e.Zeros(n - rem)
		}
	}
}

// Checksum appends the lookup3 checksum of everything encoded so far.
func (e *Encoder) Checksum() { e.Uint32(Lookup3Checksum(e.buf)) }
