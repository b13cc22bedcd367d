// Package series queries particle data across the files of an openPMD
// time series.
package series

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/robert-malhotra/go-openpmd/openpmd"
)

// ErrEmpty is returned when a series holds no iterations.
var ErrEmpty = errors.New("series: no iterations")

// frame is one iteration and the file that stores it.
type frame struct {
	info openpmd.IterationInfo
	file string
}

// Series is a set of openPMD files indexed by iteration. It is safe for
// concurrent use.
type Series struct {
	frames []frame
	opts   *options
}

// New scans each file once for its iterations and their times.
func New(files []string, opts ...Option) (*Series, error) {
	s := &Series{opts: newOptions(opts)}
	seen := make(map[uint64]string)
	for _, name := range files {
		infos, err := openpmd.Inspect(name, s.opts.readOptions()...)
		if err != nil {
			return nil, fmt.Errorf("series: scanning %s: %w", name, err)
		}
		for _, info := range infos {
			if prev, ok := seen[info.Iteration]; ok {
				return nil, fmt.Errorf("series: iteration %d stored in both %s and %s", info.Iteration, prev, name)
			}
			seen[info.Iteration] = name
			s.frames = append(s.frames, frame{info: info, file: name})
		}
	}
	if len(s.frames) == 0 {
		return nil, ErrEmpty
	}
	slices.SortFunc(s.frames, func(a, b frame) int {
		return cmp.Compare(a.info.Iteration, b.info.Iteration)
	})
	return s, nil
}

// Iterations returns the iterations in ascending order.
func (s *Series) Iterations() []uint64 {
	out := make([]uint64, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.info.Iteration
	}
	return out
}

// Times returns the time of each iteration in seconds.
func (s *Series) Times() []float64 {
	out := make([]float64, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.info.Seconds()
	}
	return out
}

// Info returns the time attributes of an iteration.
func (s *Series) Info(iteration uint64) (openpmd.IterationInfo, error) {
	f, err := s.frame(iteration)
	if err != nil {
		return openpmd.IterationInfo{}, err
	}
	return f.info, nil
}

// Nearest returns the iteration whose time is closest to t seconds. Ties
// go to the earlier iteration.
func (s *Series) Nearest(t float64) (uint64, error) {
	if math.IsNaN(t) {
		return 0, fmt.Errorf("series: time is NaN")
	}
	best := s.frames[0]
	for _, f := range s.frames[1:] {
		if math.Abs(f.info.Seconds()-t) < math.Abs(best.info.Seconds()-t) {
			best = f
		}
	}
	return best.info.Iteration, nil
}

func (s *Series) frame(iteration uint64) (frame, error) {
	i, ok := slices.BinarySearchFunc(s.frames, iteration, func(f frame, it uint64) int {
		return cmp.Compare(f.info.Iteration, it)
	})
	if !ok {
		return frame{}, fmt.Errorf("series: %w: %d", openpmd.ErrIterationNotFound, iteration)
	}
	return s.frames[i], nil
}

// Species lists the species of an iteration.
func (s *Series) Species(ctx context.Context, iteration uint64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.frame(iteration)
	if err != nil {
		return nil, err
	}
	return openpmd.ListSpecies(f.file, iteration, s.opts.readOptions()...)
}

// Quantities lists the quantities a species stores at an iteration.
func (s *Series) Quantities(ctx context.Context, iteration uint64, species string) ([]openpmd.Quantity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.frame(iteration)
	if err != nil {
		return nil, err
	}
	return openpmd.ListQuantities(f.file, iteration, species, s.opts.readOptions()...)
}
