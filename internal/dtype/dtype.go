package dtype

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/robert-malhotra/go-openpmd/internal/message"
)

var (
	ErrUnsupported  = errors.New("unsupported datatype")
	ErrTypeMismatch = errors.New("datatype does not convert to the requested type")
	ErrShortData    = errors.New("data shorter than its element count")
)

// numeric returns the datatype whose bytes hold the number; enums are
// stored as their base type.
func numeric(dt *message.Datatype) (*message.Datatype, error) {
	switch {
	case dt == nil:
		return nil, fmt.Errorf("%w: missing datatype", ErrUnsupported)
	case dt.Class == message.ClassEnum && dt.Base != nil:
		return dt.Base, nil
	case dt.Class == message.ClassFixedPoint, dt.Class == message.ClassFloatPoint:
		return dt, nil
	}
	return nil, fmt.Errorf("%w: %s is not numeric", ErrTypeMismatch, dt)
}

func checkLen(data []byte, size, n uint64) error {
	if size == 0 {
		return fmt.Errorf("%w: zero-size elements", ErrUnsupported)
	}
	hi, need := bits.Mul64(size, n)
	if hi != 0 || uint64(len(data)) < need {
		return fmt.Errorf("%w: have %d bytes for %d elements of %d bytes", ErrShortData, len(data), n, size)
	}
	return nil
}

// ToFloat64 decodes n numeric elements.
func ToFloat64(dt *message.Datatype, data []byte, n uint64) ([]float64, error) {
	nt, err := numeric(dt)
	if err != nil {
		return nil, err
	}
	size := uint64(nt.Size)
	if err := checkLen(data, size, n); err != nil {
		return nil, err
	}
	order := nt.Order()
	out := make([]float64, n)

	switch {
	case nt.Class == message.ClassFloatPoint && size == 8:
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(data[uint64(i)*8:]))
		}
	case nt.Class == message.ClassFloatPoint && size == 4:
		for i := range out {
			out[i] = float64(math.Float32frombits(order.Uint32(data[uint64(i)*4:])))
		}
	case nt.Class == message.ClassFixedPoint:
		for i := range out {
			v, err := decodeInt(nt, data[uint64(i)*size:])
			if err != nil {
				return nil, err
			}
			if nt.Signed {
				out[i] = float64(v)
			} else {
				out[i] = float64(uint64(v))
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, nt)
	}
	return out, nil
}

// ToInt64 decodes n integer elements. Unsigned values above MaxInt64 are
// an error.
func ToInt64(dt *message.Datatype, data []byte, n uint64) ([]int64, error) {
	nt, err := numeric(dt)
	if err != nil {
		return nil, err
	}
	if nt.Class != message.ClassFixedPoint {
		return nil, fmt.Errorf("%w: %s is not an integer", ErrTypeMismatch, nt)
	}
	size := uint64(nt.Size)
	if err := checkLen(data, size, n); err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		v, err := decodeInt(nt, data[uint64(i)*size:])
		if err != nil {
			return nil, err
		}
		if !nt.Signed && v < 0 {
			return nil, fmt.Errorf("%w: value %d overflows int64", ErrTypeMismatch, uint64(v))
		}
		out[i] = v
	}
	return out, nil
}

// ToUint64 decodes n unsigned integer elements.
func ToUint64(dt *message.Datatype, data []byte, n uint64) ([]uint64, error) {
	nt, err := numeric(dt)
	if err != nil {
		return nil, err
	}
	if nt.Class != message.ClassFixedPoint || nt.Signed {
		return nil, fmt.Errorf("%w: %s is not an unsigned integer", ErrTypeMismatch, nt)
	}
	size := uint64(nt.Size)
	if err := checkLen(data, size, n); err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		v, err := decodeInt(nt, data[uint64(i)*size:])
		if err != nil {
			return nil, err
		}
		out[i] = uint64(v)
	}
	return out, nil
}

// decodeInt reads one integer of dt.Size bytes, sign-extending signed
// values. Unsigned 8-byte values come back as their bit pattern.
func decodeInt(dt *message.Datatype, b []byte) (int64, error) {
	order := dt.Order()
	switch dt.Size {
	case 1:
		if dt.Signed {
			return int64(int8(b[0])), nil
		}
		return int64(b[0]), nil
	case 2:
		v := order.Uint16(b)
		if dt.Signed {
			return int64(int16(v)), nil
		}
		return int64(v), nil
	case 4:
		v := order.Uint32(b)
		if dt.Signed {
			return int64(int32(v)), nil
		}
		return int64(v), nil
	case 8:
		return int64(order.Uint64(b)), nil
	}
	return 0, fmt.Errorf("%w: %d-byte integer", ErrUnsupported, dt.Size)
}
