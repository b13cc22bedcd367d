package dtype

import (
	"encoding/binary"
	"math"

	binpkg "github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/heap"
)

// EncodeFloat64 returns vals as little-endian IEEE floats of size 4 or 8.
func EncodeFloat64(vals []float64, size int) []byte {
	out := make([]byte, 0, len(vals)*size)
	for _, v := range vals {
		if size == 4 {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v)))
		} else {
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
		}
	}
	return out
}

// EncodeInt64 returns vals as little-endian integers of size bytes,
// truncating to the width.
func EncodeInt64(vals []int64, size int) []byte {
	out := make([]byte, len(vals)*size)
	for i, v := range vals {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		copy(out[i*size:], b[:size])
	}
	return out
}

// EncodeUint64 returns vals as little-endian 8-byte unsigned integers.
func EncodeUint64(vals []uint64) []byte {
	out := make([]byte, 0, len(vals)*8)
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint64(out, v)
	}
	return out
}

// FixedStringSize returns the element size that holds every value with a
// terminating NUL.
func FixedStringSize(vals []string) int {
	n := 1
	for _, s := range vals {
		if len(s)+1 > n {
			n = len(s) + 1
		}
	}
	return n
}

// EncodeFixedStrings returns vals NUL-padded to size bytes each.
func EncodeFixedStrings(vals []string, size int) []byte {
	out := make([]byte, len(vals)*size)
	for i, s := range vals {
		copy(out[i*size:(i+1)*size], s)
	}
	return out
}

// VarLenStringSize is the element size of a variable-length string.
func VarLenStringSize(cfg binpkg.Config) int { return 8 + cfg.OffsetSize }

// EncodeVarLenStrings adds vals to coll and returns the element bytes that
// reference them. collAddr is the address coll will be written at.
func EncodeVarLenStrings(vals []string, coll *heap.Collection, collAddr uint64, cfg binpkg.Config) []byte {
	e := binpkg.NewEncoder(cfg)
	for _, s := range vals {
		idx := coll.Add([]byte(s))
		e.Uint32(uint32(len(s)))
		e.Offset(collAddr)
		e.Uint32(idx)
	}
	return e.Bytes()
}
