package series

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Hist1D is a weighted histogram. Bin i covers [Edges[i], Edges[i+1]);
// the last bin also holds values equal to its upper edge.
type Hist1D struct {
	Edges  []float64
	Counts []float64
}

// Centers returns the middle of each bin.
func (h *Hist1D) Centers() []float64 {
	out := make([]float64, len(h.Counts))
	for i := range out {
		out[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	return out
}

// Sum returns the total weight in the histogram.
func (h *Hist1D) Sum() float64 { return floats.Sum(h.Counts) }

// Hist2D is a weighted two-dimensional histogram. Counts holds one row of
// y bins per x bin.
type Hist2D struct {
	XEdges []float64
	YEdges []float64
	Counts []float64
}

// At returns the weight in x bin i and y bin j.
func (h *Hist2D) At(i, j int) float64 {
	return h.Counts[i*(len(h.YEdges)-1)+j]
}

// Sum returns the total weight in the histogram.
func (h *Hist2D) Sum() float64 { return floats.Sum(h.Counts) }

var errBins = errors.New("histogram needs at least one bin")

// Histogram1D bins data into nbins equal bins between lo and hi, both
// included. When lo equals hi the range of the data is used. A nil
// weights counts each value once. Values outside the range and NaN values
// are dropped.
func Histogram1D(data, weights []float64, nbins int, lo, hi float64) (*Hist1D, error) {
	if nbins < 1 {
		return nil, errBins
	}
	if weights != nil && len(weights) != len(data) {
		return nil, fmt.Errorf("histogram: %d weights for %d values", len(weights), len(data))
	}
	lo, hi, err := span(data, lo, hi)
	if err != nil {
		return nil, err
	}
	edges := binEdges(nbins, lo, hi)

	x, w := inRange(data, weights, lo, hi)
	inds := make([]int, len(x))
	floats.Argsort(x, inds)
	w = permute(w, inds)

	counts := stat.Histogram(nil, dividers(edges), x, w)
	return &Hist1D{Edges: edges, Counts: counts}, nil
}

// Histogram2D bins (x, y) pairs into nx by ny bins over the ranges xr and
// yr. A range with Lo equal to Hi is taken from the data. Pairs with a NaN
// coordinate are dropped.
func Histogram2D(x, y, weights []float64, nx, ny int, xr, yr Range) (*Hist2D, error) {
	if nx < 1 || ny < 1 {
		return nil, errBins
	}
	if len(y) != len(x) || (weights != nil && len(weights) != len(x)) {
		return nil, fmt.Errorf("histogram: mismatched lengths x=%d y=%d weights=%d", len(x), len(y), len(weights))
	}
	xlo, xhi, err := span(x, xr.Lo, xr.Hi)
	if err != nil {
		return nil, err
	}
	ylo, yhi, err := span(y, yr.Lo, yr.Hi)
	if err != nil {
		return nil, err
	}
	h := &Hist2D{
		XEdges: binEdges(nx, xlo, xhi),
		YEdges: binEdges(ny, ylo, yhi),
		Counts: make([]float64, nx*ny),
	}

	// Keep the pairs inside both ranges, sort them by x and histogram
	// the y values of each x bin.
	var xs, ys, ws []float64
	for i := range x {
		if !within(x[i], xlo, xhi) || !within(y[i], ylo, yhi) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
		if weights != nil {
			ws = append(ws, weights[i])
		}
	}
	inds := make([]int, len(xs))
	floats.Argsort(xs, inds)
	ys = permute(ys, inds)
	ws = permute(ws, inds)

	xdiv := dividers(h.XEdges)
	ydiv := dividers(h.YEdges)
	for i := range nx {
		a := sort.SearchFloat64s(xs, xdiv[i])
		b := sort.SearchFloat64s(xs, xdiv[i+1])
		row := append([]float64(nil), ys[a:b]...)
		var rw []float64
		if ws != nil {
			rw = append([]float64(nil), ws[a:b]...)
		}
		rinds := make([]int, len(row))
		floats.Argsort(row, rinds)
		rw = permute(rw, rinds)
		stat.Histogram(h.Counts[i*ny:(i+1)*ny], ydiv, row, rw)
	}
	return h, nil
}

// span resolves the histogram range.
func span(data []float64, lo, hi float64) (float64, float64, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return 0, 0, fmt.Errorf("histogram: invalid range [%g, %g]", lo, hi)
	}
	if lo == hi {
		var ok bool
		if lo, hi, ok = extent(data); !ok {
			return 0, 1, nil
		}
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 0, fmt.Errorf("histogram: infinite range [%g, %g]", lo, hi)
	}
	return lo, hi, nil
}

// binEdges returns n+1 evenly spaced edges ending exactly at hi.
func binEdges(n int, lo, hi float64) []float64 {
	edges := floats.Span(make([]float64, n+1), lo, hi)
	edges[n] = hi
	return edges
}

// dividers returns edges with the last one nudged up so that values equal
// to the upper edge land in the last bin.
func dividers(edges []float64) []float64 {
	out := append([]float64(nil), edges...)
	out[len(out)-1] = math.Nextafter(out[len(out)-1], math.Inf(1))
	return out
}

// extent returns the smallest and largest non-NaN values of data.
func extent(data []float64) (lo, hi float64, ok bool) {
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi, ok
}

// within reports whether v lies in [lo, hi]. NaN never does.
func within(v, lo, hi float64) bool { return v >= lo && v <= hi }

func inRange(data, weights []float64, lo, hi float64) ([]float64, []float64) {
	var x, w []float64
	for i, v := range data {
		if !within(v, lo, hi) {
			continue
		}
		x = append(x, v)
		if weights != nil {
			w = append(w, weights[i])
		}
	}
	return x, w
}

// permute reorders s by inds. A nil s stays nil.
func permute(s []float64, inds []int) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(inds))
	for i, j := range inds {
		out[i] = s[j]
	}
	return out
}

// Stats summarizes a column.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summary returns the weighted mean and population standard deviation of
// data with its extremes. A nil weights weighs every value equally.
func Summary(data, weights []float64) (Stats, error) {
	if weights != nil && len(weights) != len(data) {
		return Stats{}, fmt.Errorf("summary: %d weights for %d values", len(weights), len(data))
	}
	if len(data) == 0 {
		return Stats{}, nil
	}
	mean, std := stat.PopMeanStdDev(data, weights)
	return Stats{
		N:      len(data),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(data),
		Max:    floats.Max(data),
	}, nil
}
