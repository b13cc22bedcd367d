package openpmd

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/floats"

	"github.com/robert-malhotra/go-openpmd/hdf5"
)

// Kind says how a record is stored.
type Kind uint8

const (
	// Variable records are HDF5 datasets holding one value per element.
	Variable Kind = iota
	// Constant records are groups whose value and shape attributes stand
	// for a filled array.
	Constant
)

func (k Kind) String() string {
	if k == Constant {
		return "constant"
	}
	return "variable"
}

// DatasetHandle is a record classified by Lookup. Resolve turns it into
// an array.
type DatasetHandle struct {
	Kind Kind
	// Path is the absolute path of the record.
	Path string
	// Shape is the dataset shape, or the shape attribute of a constant
	// record.
	Shape []uint64
	// Value is the stored value of a constant record.
	Value float64
	// UnitSI converts stored values to SI.
	UnitSI float64

	dataset *hdf5.Dataset
}

// Array is a row-major array of float64.
type Array struct {
	Data  []float64
	Shape []uint64
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Data) }

// Lookup classifies the record at rel, a path relative to g.
func Lookup(g *hdf5.Group, rel string) (DatasetHandle, error) {
	obj, err := g.Lookup(rel)
	if err != nil {
		return DatasetHandle{}, malformed(joinPath(g.Path(), rel), err)
	}
	h := DatasetHandle{Path: obj.Path()}

	switch o := obj.(type) {
	case *hdf5.Dataset:
		h.Kind = Variable
		h.Shape = o.Shape()
		h.dataset = o
	case *hdf5.Group:
		if !o.HasAttr("value") || !o.HasAttr("shape") {
			return DatasetHandle{}, malformed(h.Path, errors.New("group is not a constant record: value or shape attribute missing"))
		}
		h.Kind = Constant
		if h.Value, err = scalarAttr(o, "value"); err != nil {
			return DatasetHandle{}, malformed(h.Path, err)
		}
		if h.Shape, err = shapeAttr(o.Attr("shape")); err != nil {
			return DatasetHandle{}, malformed(h.Path, err)
		}
		if _, err = elements(h.Shape); err != nil {
			return DatasetHandle{}, malformed(h.Path, err)
		}
	default:
		return DatasetHandle{}, malformed(h.Path, fmt.Errorf("unexpected object %T", obj))
	}

	if h.UnitSI, err = scalarAttr(obj, "unitSI"); err != nil {
		return DatasetHandle{}, malformed(h.Path, err)
	}
	return h, nil
}

// Resolve materializes the record in SI units.
func Resolve(h DatasetHandle) (*Array, error) {
	var data []float64
	switch h.Kind {
	case Constant:
		n, err := elements(h.Shape)
		if err != nil {
			return nil, malformed(h.Path, err)
		}
		data = make([]float64, n)
		floats.AddConst(h.Value*h.UnitSI, data)
		return &Array{Data: data, Shape: h.Shape}, nil
	case Variable:
		if h.dataset == nil {
			return nil, malformed(h.Path, errors.New("handle has no dataset"))
		}
		var err error
		if data, err = h.dataset.ReadFloat64(); err != nil {
			return nil, malformed(h.Path, err)
		}
	default:
		return nil, malformed(h.Path, fmt.Errorf("unknown record kind %d", h.Kind))
	}
	floats.Scale(h.UnitSI, data)
	return &Array{Data: data, Shape: h.Shape}, nil
}

// scalarAttr reads a single numeric attribute.
func scalarAttr(obj hdf5.Object, name string) (float64, error) {
	a := obj.Attr(name)
	if a == nil {
		return 0, fmt.Errorf("missing %s attribute", name)
	}
	vals, err := a.ReadFloat64()
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, fmt.Errorf("%s attribute has %d values, want 1", name, len(vals))
	}
	if math.IsNaN(vals[0]) {
		return 0, fmt.Errorf("%s attribute is NaN", name)
	}
	return vals[0], nil
}

// shapeAttr reads a shape attribute stored as signed or unsigned
// integers.
func shapeAttr(a *hdf5.Attribute) ([]uint64, error) {
	v, err := a.Value()
	if err != nil {
		return nil, fmt.Errorf("shape attribute: %w", err)
	}
	switch s := v.(type) {
	case []uint64:
		return s, nil
	case uint64:
		return []uint64{s}, nil
	case int64:
		return toShape([]int64{s})
	case []int64:
		return toShape(s)
	}
	return nil, fmt.Errorf("shape attribute is %s, want integers", a.Datatype())
}

func toShape(dims []int64) ([]uint64, error) {
	out := make([]uint64, len(dims))
	for i, d := range dims {
		if d < 0 {
			return nil, fmt.Errorf("negative shape %v", dims)
		}
		out[i] = uint64(d)
	}
	return out, nil
}

// maxElements bounds the size of a materialized constant record.
const maxElements = 1 << 30

// elements returns the element count of dims, or an error when the
// product overflows or exceeds maxElements.
func elements(dims []uint64) (int, error) {
	n := uint64(1)
	for _, d := range dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 || lo > maxElements {
			return 0, fmt.Errorf("shape %v exceeds %d elements", dims, maxElements)
		}
		n = lo
	}
	return int(n), nil
}

func joinPath(dir, rel string) string {
	if dir == "/" {
		return "/" + rel
	}
	return dir + "/" + rel
}
