package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/dtype"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

// encodeData returns the datatype and bytes of a dataset value.
func encodeData(data any) (*message.Datatype, []byte, uint64, error) {
	switch v := data.(type) {
	case []float64:
		return message.NewFloatDatatype(8), dtype.EncodeFloat64(v, 8), uint64(len(v)), nil
	case []float32:
		f := make([]float64, len(v))
		for i, x := range v {
			f[i] = float64(x)
		}
		return message.NewFloatDatatype(4), dtype.EncodeFloat64(f, 4), uint64(len(v)), nil
	case []int64:
		return message.NewIntDatatype(8, true), dtype.EncodeInt64(v, 8), uint64(len(v)), nil
	case []int32:
		n := make([]int64, len(v))
		for i, x := range v {
			n[i] = int64(x)
		}
		return message.NewIntDatatype(4, true), dtype.EncodeInt64(n, 4), uint64(len(v)), nil
	case []uint64:
		return message.NewIntDatatype(8, false), dtype.EncodeUint64(v), uint64(len(v)), nil
	}
	return nil, nil, 0, fmt.Errorf("%w: dataset of %T", ErrUnsupported, data)
}

// attribute encodes one attribute value. Scalars get a scalar dataspace,
// slices a one-dimensional one.
func (w *writer) attribute(name string, value any) (*message.Attribute, error) {
	var (
		dt   *message.Datatype
		raw  []byte
		dims []uint64
	)
	switch v := value.(type) {
	case float64:
		dt, raw = message.NewFloatDatatype(8), dtype.EncodeFloat64([]float64{v}, 8)
	case float32:
		dt, raw = message.NewFloatDatatype(4), dtype.EncodeFloat64([]float64{float64(v)}, 4)
	case int:
		dt, raw = message.NewIntDatatype(8, true), dtype.EncodeInt64([]int64{int64(v)}, 8)
	case int64:
		dt, raw = message.NewIntDatatype(8, true), dtype.EncodeInt64([]int64{v}, 8)
	case int32:
		dt, raw = message.NewIntDatatype(4, true), dtype.EncodeInt64([]int64{int64(v)}, 4)
	case uint64:
		dt, raw = message.NewIntDatatype(8, false), dtype.EncodeUint64([]uint64{v})
	case uint32:
		dt, raw = message.NewIntDatatype(4, false), dtype.EncodeInt64([]int64{int64(v)}, 4)
	case []float64:
		dt, raw, dims = message.NewFloatDatatype(8), dtype.EncodeFloat64(v, 8), []uint64{uint64(len(v))}
	case []int64:
		dt, raw, dims = message.NewIntDatatype(8, true), dtype.EncodeInt64(v, 8), []uint64{uint64(len(v))}
	case []uint64:
		dt, raw, dims = message.NewIntDatatype(8, false), dtype.EncodeUint64(v), []uint64{uint64(len(v))}
	case string:
		size := dtype.FixedStringSize([]string{v})
		dt, raw = message.NewStringDatatype(uint32(size)), dtype.EncodeFixedStrings([]string{v}, size)
	case []string:
		size := dtype.FixedStringSize(v)
		dt, raw, dims = message.NewStringDatatype(uint32(size)), dtype.EncodeFixedStrings(v, size), []uint64{uint64(len(v))}
	case VarLenString:
		if w.heap == nil {
			return nil, fmt.Errorf("no global heap reserved for variable-length strings")
		}
		dt = message.NewVarLenStringDatatype(uint32(dtype.VarLenStringSize(w.cfg)), true)
		raw = dtype.EncodeVarLenStrings([]string{string(v)}, w.heap, w.heapAddr, w.cfg)
	default:
		return nil, fmt.Errorf("%w: attribute of %T", ErrUnsupported, value)
	}
	return message.NewAttribute(name, dt, message.NewDataspace(dims...), raw), nil
}
