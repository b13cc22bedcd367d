package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/dtype"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

// Attribute is a named value attached to a group or dataset.
type Attribute struct {
	msg    *message.Attribute
	reader *binary.Reader // resolves variable-length strings
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.msg.Name }

// Shape returns the dimensions of the value, or nil for a scalar.
func (a *Attribute) Shape() []uint64 {
	if a.IsScalar() {
		return nil
	}
	return a.msg.Dataspace.Dimensions
}

// NumElements returns the number of elements in the value.
func (a *Attribute) NumElements() uint64 {
	if a.msg.Dataspace == nil {
		return 1
	}
	return a.msg.Dataspace.NumElements()
}

// IsScalar reports whether the value is a single element.
func (a *Attribute) IsScalar() bool {
	return a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar()
}

// Datatype describes the element type.
func (a *Attribute) Datatype() string { return a.msg.Datatype.String() }

// IsString reports whether the value decodes to strings.
func (a *Attribute) IsString() bool { return a.msg.Datatype.IsString() }

func (a *Attribute) wrap(err error) error {
	return fmt.Errorf("attribute %q: %w", a.msg.Name, classify(err))
}

// ReadFloat64 reads every element as a float64.
func (a *Attribute) ReadFloat64() ([]float64, error) {
	out, err := dtype.ToFloat64(a.msg.Datatype, a.msg.Data, a.NumElements())
	if err != nil {
		return nil, a.wrap(err)
	}
	return out, nil
}

// ReadInt64 reads every element as an int64.
func (a *Attribute) ReadInt64() ([]int64, error) {
	out, err := dtype.ToInt64(a.msg.Datatype, a.msg.Data, a.NumElements())
	if err != nil {
		return nil, a.wrap(err)
	}
	return out, nil
}

// ReadUint64 reads every element of an unsigned attribute.
func (a *Attribute) ReadUint64() ([]uint64, error) {
	out, err := dtype.ToUint64(a.msg.Datatype, a.msg.Data, a.NumElements())
	if err != nil {
		return nil, a.wrap(err)
	}
	return out, nil
}

// ReadStrings reads every element as a string. Fixed-length and
// variable-length strings are both accepted.
func (a *Attribute) ReadStrings() ([]string, error) {
	out, err := dtype.ToStrings(a.msg.Datatype, a.msg.Data, a.NumElements(), a.reader)
	if err != nil {
		return nil, a.wrap(err)
	}
	return out, nil
}

// ReadString reads the first element as a string.
func (a *Attribute) ReadString() (string, error) {
	vals, err := a.ReadStrings()
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", a.wrap(fmt.Errorf("no values"))
	}
	return vals[0], nil
}

// ReadScalarFloat64 reads the first element as a float64.
func (a *Attribute) ReadScalarFloat64() (float64, error) {
	vals, err := a.ReadFloat64()
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, a.wrap(fmt.Errorf("no values"))
	}
	return vals[0], nil
}

// Value decodes the attribute into a Go value:
//   - signed integers: int64 or []int64
//   - unsigned integers: uint64 or []uint64
//   - floats: float64 or []float64
//   - strings: string or []string
//
// Scalars come back as single values, everything else as slices.
func (a *Attribute) Value() (any, error) {
	dt := a.msg.Datatype
	switch {
	case dt == nil:
		return nil, a.wrap(fmt.Errorf("%w: missing datatype", ErrUnsupported))
	case dt.IsString():
		return pick(a, a.ReadStrings)
	case dt.Class == message.ClassFloatPoint:
		return pick(a, a.ReadFloat64)
	case dt.Class == message.ClassFixedPoint && !dt.Signed:
		return pick(a, a.ReadUint64)
	case dt.IsNumeric():
		return pick(a, a.ReadInt64)
	}
	return nil, a.wrap(fmt.Errorf("%w: %s attribute", ErrUnsupported, dt))
}

func pick[T any](a *Attribute, read func() ([]T, error)) (any, error) {
	vals, err := read()
	if err != nil {
		return nil, err
	}
	if a.IsScalar() && len(vals) == 1 {
		return vals[0], nil
	}
	return vals, nil
}
