package dtype

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/heap"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

// ToStrings decodes n string elements. r is used to resolve
// variable-length strings and may be nil for fixed-length ones.
func ToStrings(dt *message.Datatype, data []byte, n uint64, r *binary.Reader) ([]string, error) {
	if dt == nil || !dt.IsString() {
		return nil, fmt.Errorf("%w: %v is not a string", ErrTypeMismatch, dt)
	}
	size := uint64(dt.Size)
	if err := checkLen(data, size, n); err != nil {
		return nil, err
	}
	if dt.Class == message.ClassString {
		out := make([]string, n)
		for i := range out {
			out[i] = trimFixed(data[uint64(i)*size:uint64(i+1)*size], dt.Padding)
		}
		return out, nil
	}
	if r == nil {
		return nil, fmt.Errorf("%w: variable-length strings need a file reader", ErrUnsupported)
	}
	if size < uint64(4+r.OffsetSize()) {
		return nil, fmt.Errorf("%w: %d-byte variable-length string elements", ErrUnsupported, size)
	}
	return varLenStrings(data, size, n, r)
}

func trimFixed(b []byte, pad message.StringPadding) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if pad == message.PadSpacePad {
		b = bytes.TrimRight(b, " ")
	}
	return string(b)
}

// varLenStrings resolves elements laid out as a 4-byte length followed by a
// global heap ID.
func varLenStrings(data []byte, size, n uint64, r *binary.Reader) ([]string, error) {
	collections := map[uint64]*heap.GlobalHeap{}
	out := make([]string, n)
	for i := range out {
		elem := data[uint64(i)*size : uint64(i+1)*size]
		length := binary.DecodeUint(elem[:4])
		if length == 0 {
			continue
		}
		id, err := heap.ParseGlobalHeapID(elem[4:], r.OffsetSize())
		if err != nil {
			return nil, err
		}
		if id.CollectionAddress == 0 || r.IsUndefinedOffset(id.CollectionAddress) {
			continue
		}
		gh, ok := collections[id.CollectionAddress]
		if !ok {
			if gh, err = heap.ReadGlobalHeap(r, id.CollectionAddress); err != nil {
				return nil, err
			}
			collections[id.CollectionAddress] = gh
		}
		obj, err := gh.GetObject(id.ObjectIndex)
		if err != nil {
			return nil, err
		}
		if uint64(len(obj)) > length {
			obj = obj[:length]
		}
		if j := bytes.IndexByte(obj, 0); j >= 0 {
			obj = obj[:j]
		}
		out[i] = string(obj)
	}
	return out, nil
}
