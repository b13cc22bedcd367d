package series

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/robert-malhotra/go-openpmd/openpmd"
	"github.com/robert-malhotra/go-openpmd/openpmd/opmdtest"
	"github.com/robert-malhotra/go-openpmd/openpmd/synth"
)

const c = openpmd.SpeedOfLight

// testSeries stores iterations 100 and 300 in one file and 200 in
// another. Electrons at iteration 200 have uz = 0, 1, 2, 3.
func testSeries(t *testing.T, opts ...Option) (*Series, *opmdtest.MemOpener) {
	t.Helper()
	grouped := synth.New()
	grouped.Iteration(100).SetTime(100, 1, 0.5).Species("electrons").Plasma(5, 9.1e-31, -1.6e-19)
	grouped.Iteration(300).SetTime(300, 1, 0.5).Species("electrons").Plasma(5, 9.1e-31, -1.6e-19)

	single := synth.New(synth.WithBasePath("/data/200/"))
	single.Iteration(200).SetTime(200, 1, 0.5).Species("electrons").
		Variable("position/x", []float64{1, 2, 3, 4}, 1e-6).
		Constant("positionOffset/x", 0, []uint64{4}, 1).
		Variable("momentum/z", []float64{0, c, 2 * c, 3 * c}, 1).
		Constant("mass", 1, []uint64{4}, 1).
		Variable("weighting", []float64{1, 1, 2, 2}, 1)

	m := opmdtest.NewMemOpener()
	for name, f := range map[string]*synth.File{"grouped.h5": grouped, "single.h5": single} {
		if err := m.AddFile(name, f); err != nil {
			t.Fatalf("AddFile failed: %v", err)
		}
	}
	s, err := New([]string{"grouped.h5", "single.h5"}, append([]Option{WithOpener(m)}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, m
}

func TestNew(t *testing.T) {
	s, m := testSeries(t)
	if got := s.Iterations(); !reflect.DeepEqual(got, []uint64{100, 200, 300}) {
		t.Errorf("Iterations = %v", got)
	}
	if got := s.Times(); !reflect.DeepEqual(got, []float64{50, 100, 150}) {
		t.Errorf("Times = %v", got)
	}
	info, err := s.Info(200)
	if err != nil || info.Time != 200 {
		t.Errorf("Info = %+v, %v", info, err)
	}
	if m.Active() != 0 {
		t.Errorf("%d handles left open", m.Active())
	}
}

func TestNewErrors(t *testing.T) {
	m := opmdtest.NewMemOpener()
	f := synth.New()
	f.Iteration(1).Species("e").Variable("weighting", []float64{1}, 1)
	if err := m.AddFile("a.h5", f); err != nil {
		t.Fatal(err)
	}

	if _, err := New(nil, WithOpener(m)); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty: got %v", err)
	}
	if _, err := New([]string{"a.h5", "a.h5"}, WithOpener(m)); err == nil {
		t.Error("duplicate iteration: expected error")
	}
	if _, err := New([]string{"missing.h5"}, WithOpener(m)); err == nil {
		t.Error("missing file: expected error")
	}
}

func TestNearest(t *testing.T) {
	s, _ := testSeries(t)
	tests := []struct {
		t    float64
		want uint64
	}{
		{0, 100},
		{74, 100},
		{75, 100},
		{76, 200},
		{1e9, 300},
	}
	for _, tt := range tests {
		got, err := s.Nearest(tt.t)
		if err != nil || got != tt.want {
			t.Errorf("Nearest(%g) = %d, %v, want %d", tt.t, got, err, tt.want)
		}
	}
}

func TestSpeciesAndQuantities(t *testing.T) {
	s, _ := testSeries(t)
	ctx := context.Background()

	sp, err := s.Species(ctx, 300)
	if err != nil || !reflect.DeepEqual(sp, []string{"electrons"}) {
		t.Errorf("Species = %v, %v", sp, err)
	}
	qs, err := s.Quantities(ctx, 200, "electrons")
	if err != nil || !reflect.DeepEqual(qs, []openpmd.Quantity{openpmd.X, openpmd.UZ, openpmd.W}) {
		t.Errorf("Quantities = %v, %v", qs, err)
	}
	if _, err := s.Species(ctx, 150); !errors.Is(err, openpmd.ErrIterationNotFound) {
		t.Errorf("expected ErrIterationNotFound, got %v", err)
	}
}

func TestGetParticle(t *testing.T) {
	expr, err := NewExprSelector("uz >= 1 && uz < 3")
	if err != nil {
		t.Fatal(err)
	}
	cel, err := NewCELSelector("uz >= 1.0 && uz < 3.0")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		sel  Selection
		x    []float64
		w    []float64
	}{
		{"all", nil, []float64{1, 2, 3, 4}, []float64{1, 1, 2, 2}},
		{"ranges", Ranges{"uz": {1, 2}}, []float64{2, 3}, []float64{1, 2}},
		{"two ranges", Ranges{"uz": {1, 3}, "w": {2, 2}}, []float64{3, 4}, []float64{2, 2}},
		{"expr", expr, []float64{2, 3}, []float64{1, 2}},
		{"cel", cel, []float64{2, 3}, []float64{1, 2}},
		{"none", Ranges{"uz": {10, 20}}, []float64{}, []float64{}},
	}

	s, m := testSeries(t, WithWorkers(2))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.GetParticle(context.Background(), Query{
				Iteration: 200,
				Species:   "electrons",
				Vars:      []string{"x", "w"},
				Select:    tt.sel,
			})
			if err != nil {
				t.Fatalf("GetParticle failed: %v", err)
			}
			if !approx(res.Column("x"), tt.x) || !approx(res.Column("w"), tt.w) {
				t.Errorf("x = %v, w = %v, want %v, %v", res.Column("x"), res.Column("w"), tt.x, tt.w)
			}
			if res.Total != 4 || res.Selected != len(tt.x) {
				t.Errorf("Total = %d, Selected = %d", res.Total, res.Selected)
			}
			if _, ok := res.Columns["uz"]; ok {
				t.Error("selection-only quantity returned as a column")
			}
			if res.ID == "" {
				t.Error("empty query id")
			}
			if m.Active() != 0 {
				t.Errorf("%d handles left open", m.Active())
			}
		})
	}
}

func approx(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if d := a[i] - b[i]; d > 1e-9 || d < -1e-9 {
			return false
		}
	}
	return true
}

func TestGetParticleDefaultSelector(t *testing.T) {
	s, _ := testSeries(t, WithSelector(Ranges{"w": {2, 2}}))
	res, err := s.GetParticle(context.Background(), Query{Iteration: 200, Species: "electrons", Vars: []string{"w"}})
	if err != nil {
		t.Fatalf("GetParticle failed: %v", err)
	}
	if res.Selected != 2 {
		t.Errorf("Selected = %d, want 2", res.Selected)
	}
}

func TestGetParticleGroupBased(t *testing.T) {
	s, _ := testSeries(t)
	for _, it := range []uint64{100, 300} {
		res, err := s.GetParticle(context.Background(), Query{Iteration: it, Species: "electrons", Vars: []string{"x", "y", "z", "ux", "uy", "uz", "w"}})
		if err != nil {
			t.Fatalf("iteration %d: %v", it, err)
		}
		if len(res.Columns) != 7 || res.Total != 5 {
			t.Errorf("iteration %d: %d columns of %d particles", it, len(res.Columns), res.Total)
		}
		if uz := res.Column("uz"); !approx(uz[:1], []float64{-1}) || !approx(uz[4:], []float64{1}) {
			t.Errorf("uz = %v", uz)
		}
	}
}

func TestGetParticleErrors(t *testing.T) {
	s, m := testSeries(t)
	tests := []struct {
		name string
		q    Query
		want error
	}{
		{"invalid quantity", Query{Iteration: 200, Species: "electrons", Vars: []string{"q"}}, openpmd.ErrInvalidQuantity},
		{"invalid selection quantity", Query{Iteration: 200, Species: "electrons", Vars: []string{"x"}, Select: Ranges{"energy": {0, 1}}}, openpmd.ErrInvalidQuantity},
		{"unknown species", Query{Iteration: 200, Species: "ions", Vars: []string{"x"}}, openpmd.ErrSpeciesNotFound},
		{"unknown iteration", Query{Iteration: 7, Species: "electrons", Vars: []string{"x"}}, openpmd.ErrIterationNotFound},
		{"missing record", Query{Iteration: 200, Species: "electrons", Vars: []string{"x", "y"}}, openpmd.ErrMalformedDataset},
		{"no vars", Query{Iteration: 200, Species: "electrons"}, nil},
		{"empty range", Query{Iteration: 200, Species: "electrons", Vars: []string{"x"}, Select: Ranges{"x": {2, 1}}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := m.Opens()
			res, err := s.GetParticle(context.Background(), tt.q)
			if err == nil {
				t.Fatalf("expected error, got %+v", res)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tt.want == openpmd.ErrInvalidQuantity && m.Opens() != before {
				t.Errorf("invalid quantity opened %d files", m.Opens()-before)
			}
			if m.Active() != 0 {
				t.Errorf("%d handles left open", m.Active())
			}
		})
	}
}

func TestGetParticleCanceled(t *testing.T) {
	s, m := testSeries(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := m.Opens()
	_, err := s.GetParticle(ctx, Query{Iteration: 200, Species: "electrons", Vars: []string{"x", "w"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if m.Opens() != before {
		t.Errorf("canceled query opened %d files", m.Opens()-before)
	}
}

func TestGetParticleLogsQueryID(t *testing.T) {
	var (
		mu  sync.Mutex
		ids = map[string]int{}
	)
	logger := openpmd.LoggerFunc(func(e openpmd.ReadEvent) {
		mu.Lock()
		defer mu.Unlock()
		ids[e.QueryID]++
	})
	s, _ := testSeries(t, WithLogger(logger))
	res, err := s.GetParticle(context.Background(), Query{Iteration: 200, Species: "electrons", Vars: []string{"x", "w"}, Select: Ranges{"uz": {0, 1}}})
	if err != nil {
		t.Fatal(err)
	}
	if ids[res.ID] != 3 {
		t.Errorf("logged %v, want 3 reads for %s", ids, res.ID)
	}
}
