package openpmd

import (
	"fmt"
	"strings"
)

// Quantity is a particle quantity that can be extracted.
type Quantity uint8

const (
	X Quantity = iota
	Y
	Z
	UX
	UY
	UZ
	W
	numQuantities
)

// Class groups quantities that share a unit conversion.
type Class uint8

const (
	Position Class = iota
	Momentum
	Weighting
)

func (c Class) String() string {
	switch c {
	case Position:
		return "position"
	case Momentum:
		return "momentum"
	case Weighting:
		return "weighting"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

type quantityInfo struct {
	name   string
	record string
	class  Class
	axis   string
}

var quantities = [numQuantities]quantityInfo{
	X:  {"x", "position/x", Position, "x"},
	Y:  {"y", "position/y", Position, "y"},
	Z:  {"z", "position/z", Position, "z"},
	UX: {"ux", "momentum/x", Momentum, "x"},
	UY: {"uy", "momentum/y", Momentum, "y"},
	UZ: {"uz", "momentum/z", Momentum, "z"},
	W:  {"w", "weighting", Weighting, ""},
}

// AllQuantities returns every quantity in canonical order.
func AllQuantities() []Quantity {
	out := make([]Quantity, numQuantities)
	for i := range out {
		out[i] = Quantity(i)
	}
	return out
}

// ParseQuantity returns the quantity named s, one of x, y, z, ux, uy, uz
// or w.
func ParseQuantity(s string) (Quantity, error) {
	for i, info := range quantities {
		if info.name == s {
			return Quantity(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want one of %s)", ErrInvalidQuantity, s, strings.Join(quantityNames(), ", "))
}

func quantityNames() []string {
	names := make([]string, numQuantities)
	for i, info := range quantities {
		names[i] = info.name
	}
	return names
}

// Valid reports whether q is a known quantity.
func (q Quantity) Valid() bool { return q < numQuantities }

func (q Quantity) String() string {
	if !q.Valid() {
		return fmt.Sprintf("quantity(%d)", uint8(q))
	}
	return quantities[q].name
}

// Record is the record path of q relative to the species group.
func (q Quantity) Record() string { return quantities[q].record }

// Class returns the unit conversion applied to q.
func (q Quantity) Class() Class { return quantities[q].class }

// Axis returns x, y or z for vector quantities and "" otherwise.
func (q Quantity) Axis() string { return quantities[q].axis }
