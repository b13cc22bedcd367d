// Command opmdinfo summarizes the particle data of openPMD files.
//
//	opmdinfo [-config f.ini] [-species s] [-select expr] [-bins n] files...
//	opmdinfo -tree files...
//	opmdinfo -synth out.h5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/robert-malhotra/go-openpmd/hdf5"
	"github.com/robert-malhotra/go-openpmd/openpmd"
	"github.com/robert-malhotra/go-openpmd/openpmd/synth"
	"github.com/robert-malhotra/go-openpmd/series"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "opmdinfo: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, fs, err := parseFlags(args)
	if err != nil {
		return err
	}
	if f.synth != "" {
		return writeSynth(f.synth)
	}
	if fs.NArg() == 0 {
		return errors.New("no input files")
	}
	if f.tree {
		for _, name := range fs.Args() {
			if err := tree(stdout, name); err != nil {
				return err
			}
		}
		return nil
	}

	cfg, err := merge(f, fs)
	if err != nil {
		return err
	}
	opts := []series.Option{}
	if cfg.Series.Workers > 0 {
		opts = append(opts, series.WithWorkers(cfg.Series.Workers))
	}
	if f.verbose {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, series.WithLogger(openpmd.NewSlogLogger(logger)))
	}
	if cfg.Select.Expr != "" {
		sel, err := selector(cfg.Select.Engine, cfg.Select.Expr)
		if err != nil {
			return err
		}
		opts = append(opts, series.WithSelector(sel))
	}

	s, err := series.New(fs.Args(), opts...)
	if err != nil {
		return err
	}
	return report(ctx, stdout, s, cfg)
}

func selector(engine, expr string) (series.Selection, error) {
	if engine == "cel" {
		return series.NewCELSelector(expr)
	}
	return series.NewExprSelector(expr)
}

func report(ctx context.Context, w io.Writer, s *series.Series, cfg *config) error {
	its := s.Iterations()
	times := s.Times()
	fmt.Fprintf(w, "%d iterations\n", len(its))
	for i, it := range its {
		fmt.Fprintf(w, "  %8d  t = %.6g s\n", it, times[i])
	}

	it := its[len(its)-1]
	if cfg.Series.Iteration >= 0 {
		it = uint64(cfg.Series.Iteration)
	}
	species, err := s.Species(ctx, it)
	if err != nil {
		return err
	}
	if cfg.Series.Species != "" {
		species = []string{cfg.Series.Species}
	}

	for _, sp := range species {
		if err := reportSpecies(ctx, w, s, it, sp, cfg); err != nil {
			return err
		}
	}
	return nil
}

func reportSpecies(ctx context.Context, w io.Writer, s *series.Series, it uint64, species string, cfg *config) error {
	qs, err := s.Quantities(ctx, it, species)
	if err != nil {
		return err
	}
	if len(qs) == 0 {
		fmt.Fprintf(w, "\n%s at iteration %d: no particle quantities\n", species, it)
		return nil
	}
	vars := make([]string, len(qs))
	for i, q := range qs {
		vars[i] = q.String()
	}
	res, err := s.GetParticle(ctx, series.Query{Iteration: it, Species: species, Vars: vars})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s at iteration %d: %d of %d particles selected\n", species, it, res.Selected, res.Total)
	weights := res.Column("w")
	for _, v := range vars {
		st, err := series.Summary(res.Column(v), weights)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-3s mean %12.5g  std %12.5g  min %12.5g  max %12.5g\n", v, st.Mean, st.StdDev, st.Min, st.Max)
	}

	hq := cfg.Histogram.Quantity
	if hq == "" {
		hq = vars[0]
	}
	data, ok := res.Columns[hq]
	if !ok {
		return fmt.Errorf("%s does not store %s", species, hq)
	}
	h, err := series.Histogram1D(data, weights, cfg.Histogram.Bins, 0, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n  histogram of %s\n", hq)
	printHistogram(w, h)
	return nil
}

const barWidth = 40

func printHistogram(w io.Writer, h *series.Hist1D) {
	peak := 0.0
	for _, c := range h.Counts {
		peak = math.Max(peak, c)
	}
	for i, c := range h.Counts {
		n := 0
		if peak > 0 {
			n = int(math.Round(c / peak * barWidth))
		}
		fmt.Fprintf(w, "  %12.5g  %-*s %g\n", h.Edges[i], barWidth, strings.Repeat("#", n), c)
	}
}

// tree prints every object of an HDF5 file.
func tree(w io.Writer, name string) error {
	f, err := hdf5.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(w, "%s (superblock v%d)\n", name, f.Version())
	return hdf5.Walk(f.Root(), func(p string, obj hdf5.Object, err error) error {
		indent := strings.Repeat("  ", len(hdf5.SplitPath(p)))
		if err != nil {
			fmt.Fprintf(w, "%s%s: %v\n", indent, p, err)
			return nil
		}
		switch o := obj.(type) {
		case *hdf5.Group:
			fmt.Fprintf(w, "%s%s/\n", indent, strings.TrimSuffix(o.Name(), "/"))
		case *hdf5.Dataset:
			fmt.Fprintf(w, "%s%s %s %v %s\n", indent, o.Name(), o.Datatype(), o.Shape(), o.Layout())
		}
		for _, a := range obj.Attrs() {
			v, err := obj.Attr(a).Value()
			if err != nil {
				fmt.Fprintf(w, "%s  @%s: %v\n", indent, a, err)
				continue
			}
			fmt.Fprintf(w, "%s  @%s = %v\n", indent, a, v)
		}
		return nil
	})
}

// writeSynth writes a two-species, two-iteration openPMD file.
func writeSynth(path string) error {
	f := synth.New()
	for _, it := range []uint64{100, 200} {
		i := f.Iteration(it)
		i.Species("electrons").Plasma(1000, 9.1093837e-31, -1.602176634e-19)
		i.Species("protons").Plasma(500, 1.67262192e-27, 1.602176634e-19)
	}
	return f.Create(path)
}
