package openpmd

import (
	"slices"

	"github.com/robert-malhotra/go-openpmd/hdf5"
)

// IterationInfo describes one iteration of a file.
type IterationInfo struct {
	Iteration uint64
	// Time and Dt are in units of TimeUnitSI seconds.
	Time       float64
	Dt         float64
	TimeUnitSI float64
}

// Seconds returns Time in seconds.
func (i IterationInfo) Seconds() float64 { return i.Time * i.TimeUnitSI }

// Inspect returns the iterations stored in a file in ascending order,
// with their time attributes. Missing time or dt attributes read as zero
// and a missing timeUnitSI reads as one.
func Inspect(path string, opts ...Option) ([]IterationInfo, error) {
	s, err := openSession(path, newOptions(opts))
	if err != nil {
		return nil, annotate(err, path, "")
	}
	defer s.Close()

	its, err := s.iterations()
	if err != nil {
		return nil, annotate(err, path, "")
	}
	infos := make([]IterationInfo, 0, len(its))
	for _, it := range its {
		info := IterationInfo{Iteration: it, TimeUnitSI: 1}
		if g, err := s.file.Group(s.iterationPath(it)); err == nil {
			info.Time = optionalAttr(g, "time", 0)
			info.Dt = optionalAttr(g, "dt", 0)
			info.TimeUnitSI = optionalAttr(g, "timeUnitSI", 1)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func optionalAttr(obj hdf5.Object, name string, def float64) float64 {
	a := obj.Attr(name)
	if a == nil {
		return def
	}
	v, err := a.ReadScalarFloat64()
	if err != nil {
		return def
	}
	return v
}

// atIteration returns options that select iteration.
func atIteration(opts []Option, iteration uint64) *options {
	o := newOptions(opts)
	o.iteration, o.hasIteration = iteration, true
	return o
}

// Iterations returns the iteration numbers stored in a file.
func Iterations(path string, opts ...Option) ([]uint64, error) {
	infos, err := Inspect(path, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(infos))
	for i, info := range infos {
		out[i] = info.Iteration
	}
	return out, nil
}

// ListSpecies returns the sorted species names of one iteration.
func ListSpecies(path string, iteration uint64, opts ...Option) ([]string, error) {
	s, err := openSession(path, atIteration(opts, iteration))
	if err != nil {
		return nil, annotate(err, path, "")
	}
	defer s.Close()

	it, err := s.iteration()
	if err != nil {
		return nil, annotate(err, path, "")
	}
	g, err := s.particlesGroup(it)
	if err != nil {
		return nil, annotate(err, path, "")
	}
	names, err := g.Members()
	if err != nil {
		return nil, annotate(malformed(g.Path(), err), path, "")
	}
	var out []string
	for _, n := range names {
		if _, err := g.Group(n); err == nil {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out, nil
}

// ListQuantities returns the quantities a species stores, in canonical
// order.
func ListQuantities(path string, iteration uint64, species string, opts ...Option) ([]Quantity, error) {
	s, err := openSession(path, atIteration(opts, iteration))
	if err != nil {
		return nil, annotate(err, path, species)
	}
	defer s.Close()

	it, err := s.iteration()
	if err != nil {
		return nil, annotate(err, path, species)
	}
	sp, err := s.species(it, species)
	if err != nil {
		return nil, annotate(err, path, species)
	}
	var out []Quantity
	for _, q := range AllQuantities() {
		if _, err := sp.Lookup(q.Record()); err == nil {
			out = append(out, q)
		}
	}
	return out, nil
}
