// Package binary reads and encodes the little-endian, variable-width
// integers that HDF5 metadata is built from.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// ErrInvalidSize is returned for offset or length widths other than 2, 4 or 8.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// Config describes the address and length widths declared by a superblock.
type Config struct {
	OffsetSize int
	LengthSize int
}

// DefaultConfig is used to read the superblock itself, before its widths are known.
func DefaultConfig() Config {
	return Config{OffsetSize: 8, LengthSize: 8}
}

// Validate reports whether both widths are supported.
func (c Config) Validate() error {
	for _, n := range []int{c.OffsetSize, c.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return fmt.Errorf("%w: got %d", ErrInvalidSize, n)
		}
	}
	return nil
}

// growLimit is the largest read of a source of unknown size that is
// allocated up front. Longer reads grow their buffer as data arrives.
const growLimit = 1 << 20

// Reader is a positioned cursor over an io.ReaderAt. Readers are cheap
// values; At forks an independent cursor over the same source.
type Reader struct {
	src  io.ReaderAt
	cfg  Config
	pos  int64
	size int64
}

// NewReader returns a Reader at offset 0. Reads past the end of a source
// whose size is known fail before any buffer is allocated.
func NewReader(src io.ReaderAt, cfg Config) *Reader {
	return &Reader{src: src, cfg: cfg, size: SourceSize(src)}
}

// SourceSize returns the length of src, or -1 when src exposes neither a
// Size nor a Stat method.
func SourceSize(src io.ReaderAt) int64 {
	switch s := src.(type) {
	case interface{ Size() int64 }:
		return s.Size()
	case interface{ Stat() (fs.FileInfo, error) }:
		if fi, err := s.Stat(); err == nil && fi.Mode().IsRegular() {
			return fi.Size()
		}
	}
	return -1
}

// At returns a new Reader over the same source positioned at offset.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{src: r.src, cfg: r.cfg, pos: offset, size: r.size}
}

// WithConfig returns a copy of r using cfg for offsets and lengths.
func (r *Reader) WithConfig(cfg Config) *Reader {
	return &Reader{src: r.src, cfg: cfg, pos: r.pos, size: r.size}
}

// Size returns the source length, or -1 when it is unknown.
func (r *Reader) Size() int64 { return r.size }

// Config returns the widths in use.
func (r *Reader) Config() Config { return r.cfg }

// Pos returns the current offset.
func (r *Reader) Pos() int64 { return r.pos }

// OffsetSize returns the width of file addresses in bytes.
func (r *Reader) OffsetSize() int { return r.cfg.OffsetSize }

// LengthSize returns the width of lengths in bytes.
func (r *Reader) LengthSize() int { return r.cfg.LengthSize }

// Skip advances the cursor without reading.
func (r *Reader) Skip(n int64) { r.pos += n }

// Align advances the cursor to the next multiple of n.
func (r *Reader) Align(n int64) {
	if n > 1 {
		if rem := r.pos % n; rem != 0 {
			r.pos += n - rem
		}
	}
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	switch {
	case n == 0:
		return nil, nil
	case n < 0 || r.pos < 0:
		return nil, fmt.Errorf("reading %d bytes at %d: %w", n, r.pos, io.ErrUnexpectedEOF)
	case r.size >= 0 && int64(n) > r.size-r.pos:
		return nil, fmt.Errorf("reading %d bytes at %d past end of %d-byte source: %w", n, r.pos, r.size, io.ErrUnexpectedEOF)
	}

	var buf []byte
	var err error
	if r.size < 0 && n > growLimit {
		buf, err = io.ReadAll(io.NewSectionReader(r.src, r.pos, int64(n)))
	} else {
		buf = make([]byte, n)
		var got int
		got, err = r.src.ReadAt(buf, r.pos)
		buf = buf[:got]
	}
	if len(buf) < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading %d bytes at %d: %w", n, r.pos, err)
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without moving the cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	buf, err := r.ReadBytes(n)
	if err == nil {
		r.pos -= int64(n)
	}
	return buf, err
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadUintN(8)
}

// ReadUintN reads an n-byte little-endian unsigned integer, 1 <= n <= 8.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return DecodeUint(b), nil
}

// ReadOffset reads a file address.
func (r *Reader) ReadOffset() (uint64, error) {
	return r.ReadUintN(r.cfg.OffsetSize)
}

// ReadLength reads a length field.
func (r *Reader) ReadLength() (uint64, error) {
	return r.ReadUintN(r.cfg.LengthSize)
}

// IsUndefinedOffset reports whether addr is the all-ones "undefined address".
func (r *Reader) IsUndefinedOffset(addr uint64) bool {
	return addr == Undefined(r.cfg.OffsetSize)
}

// IsUndefinedLength reports whether n is the all-ones length sentinel.
func (r *Reader) IsUndefinedLength(n uint64) bool {
	return n == Undefined(r.cfg.LengthSize)
}

// Undefined returns the all-ones value of an n-byte field.
func Undefined(n int) uint64 {
	if n >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*uint(n)) - 1
}

// DecodeUint decodes a little-endian unsigned integer of up to 8 bytes.
func DecodeUint(b []byte) uint64 {
	switch len(b) {
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
