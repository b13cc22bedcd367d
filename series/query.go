package series

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robert-malhotra/go-openpmd/openpmd"
)

// Query asks for particle quantities of one species at one iteration.
type Query struct {
	Iteration uint64
	Species   string
	// Vars are quantity names such as "x" or "uz".
	Vars []string
	// Select keeps a subset of particles. Nil keeps all of them.
	Select Selection
}

// Result holds one filtered column per requested quantity.
type Result struct {
	ID        string
	Iteration uint64
	Species   string
	Columns   map[string][]float64
	// Total is the particle count before selection.
	Total    int
	Selected int
	Duration time.Duration
}

// Column returns the values of a requested quantity.
func (r *Result) Column(name string) []float64 { return r.Columns[name] }

// GetParticle reads the quantities of q, each through its own file
// handle, and applies the selection. Quantities are read by a bounded
// pool of workers. Either every column is returned or none.
func (s *Series) GetParticle(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	sel := q.Select
	if sel == nil {
		sel = s.opts.selector
	}

	vars, err := queryVars(q.Vars, sel)
	if err != nil {
		return nil, err
	}
	f, err := s.frame(q.Iteration)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	cols, err := s.readAll(ctx, f.file, q.Iteration, q.Species, vars, id)
	if err != nil {
		return nil, fmt.Errorf("series: query %s: %w", id, err)
	}

	total := len(cols[vars[0]])
	for _, v := range vars[1:] {
		if n := len(cols[v]); n != total {
			return nil, fmt.Errorf("series: query %s: %w: %s has %d particles, %s has %d",
				id, openpmd.ErrMalformedDataset, v, n, vars[0], total)
		}
	}

	res := &Result{
		ID:        id,
		Iteration: q.Iteration,
		Species:   q.Species,
		Columns:   make(map[string][]float64, len(q.Vars)),
		Total:     total,
		Selected:  total,
	}
	var mask []bool
	if sel != nil {
		if mask, err = sel.Mask(cols, total); err != nil {
			return nil, fmt.Errorf("series: query %s: selecting: %w", id, err)
		}
		res.Selected = count(mask)
	}
	for _, v := range q.Vars {
		res.Columns[v] = compress(cols[v], mask, res.Selected)
	}
	res.Duration = time.Since(start)
	return res, nil
}

// queryVars validates the requested and selected quantities and returns
// their union.
func queryVars(requested []string, sel Selection) ([]string, error) {
	vars := slices.Clone(requested)
	if sel != nil {
		vars = append(vars, sel.Vars()...)
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("series: query reads no quantities")
	}
	slices.Sort(vars)
	vars = slices.Compact(vars)
	for _, v := range vars {
		if _, err := openpmd.ParseQuantity(v); err != nil {
			return nil, fmt.Errorf("series: %w", err)
		}
	}
	return vars, nil
}

// readAll reads vars with at most opts.workers concurrent reads. The first
// error cancels the reads not yet started.
func (s *Series) readAll(ctx context.Context, file string, iteration uint64, species string, vars []string, id string) (map[string][]float64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ropts := append(s.opts.readOptions(), openpmd.WithIteration(iteration), openpmd.WithQueryID(id))
	cols := make([][]float64, len(vars))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	sem := make(chan struct{}, s.opts.workers)
	for i, v := range vars {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			fail(ctx.Err())
		}
		if err := ctx.Err(); err != nil {
			fail(err)
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			arr, err := openpmd.ReadParticleQuantity(file, species, v, ropts...)
			if err != nil {
				fail(err)
				return
			}
			cols[i] = arr.Data
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	out := make(map[string][]float64, len(vars))
	for i, v := range vars {
		out[v] = cols[i]
	}
	return out, nil
}

func count(mask []bool) int {
	n := 0
	for _, keep := range mask {
		if keep {
			n++
		}
	}
	return n
}

// compress returns the elements of data whose mask entry is set. A nil
// mask keeps everything.
func compress(data []float64, mask []bool, n int) []float64 {
	if mask == nil {
		return data
	}
	out := make([]float64, 0, n)
	for i, keep := range mask {
		if keep {
			out = append(out, data[i])
		}
	}
	return out
}
