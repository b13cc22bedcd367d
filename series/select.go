package series

import (
	"fmt"
	"maps"
	"slices"
)

// Selection picks particles from the columns of a query.
type Selection interface {
	// Vars lists the quantities the selection reads.
	Vars() []string
	// Mask reports, for each of the n particles, whether it is kept.
	Mask(cols map[string][]float64, n int) ([]bool, error)
}

// Range is an inclusive interval.
type Range struct {
	Lo, Hi float64
}

// Ranges keeps particles whose quantities all lie within the given
// ranges, as in Ranges{"uz": {-0.1, 2}}. A NaN value lies in no range.
type Ranges map[string]Range

// Vars implements Selection.
func (r Ranges) Vars() []string {
	return slices.Sorted(maps.Keys(r))
}

// Mask implements Selection.
func (r Ranges) Mask(cols map[string][]float64, n int) ([]bool, error) {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	for _, name := range r.Vars() {
		rg := r[name]
		if !(rg.Lo <= rg.Hi) {
			return nil, fmt.Errorf("range of %s is empty: [%g, %g]", name, rg.Lo, rg.Hi)
		}
		col, ok := cols[name]
		if !ok || len(col) != n {
			return nil, fmt.Errorf("missing column %s", name)
		}
		for i, v := range col {
			if !within(v, rg.Lo, rg.Hi) {
				mask[i] = false
			}
		}
	}
	return mask, nil
}
