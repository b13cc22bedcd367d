// Package synth writes synthetic openPMD files: particle species on an
// iteration grid, stored as variable or constant records.
package synth

import (
	"fmt"
	"math"
	"path"
	"strconv"

	"github.com/robert-malhotra/go-openpmd/hdf5"
)

// File is an openPMD file under construction.
type File struct {
	b             *hdf5.Builder
	basePath      string
	particlesPath string
	varLen        bool
	iterations    map[uint64]*Iteration
}

// Option configures a File.
type Option func(*File)

// WithBasePath sets the basePath attribute. The default is "/data/%T/".
func WithBasePath(p string) Option {
	return func(f *File) { f.basePath = p }
}

// WithParticlesPath sets the particlesPath attribute. The default is
// "particles/".
func WithParticlesPath(p string) Option {
	return func(f *File) { f.particlesPath = p }
}

// WithVarLenPaths stores basePath and particlesPath as variable-length
// strings.
func WithVarLenPaths() Option {
	return func(f *File) { f.varLen = true }
}

// New returns an empty file.
func New(opts ...Option) *File {
	f := &File{
		b:             hdf5.NewBuilder(),
		basePath:      "/data/%T/",
		particlesPath: "particles/",
		iterations:    make(map[uint64]*Iteration),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Builder exposes the underlying HDF5 builder for content the fixture
// does not model.
func (f *File) Builder() *hdf5.Builder { return f.b }

// Iteration is one iteration group.
type Iteration struct {
	f *File
	g *hdf5.GroupBuilder
}

// Iteration returns the group of iteration it, creating it with time
// it*dt, dt of 1e-15 and timeUnitSI of 1.
func (f *File) Iteration(it uint64) *Iteration {
	if i, ok := f.iterations[it]; ok {
		return i
	}
	p := path.Join("/", replaceIteration(f.basePath, it))
	const dt = 1e-15
	g := f.b.Group(p).
		SetAttr("time", float64(it)*dt).
		SetAttr("dt", dt).
		SetAttr("timeUnitSI", 1.0)
	i := &Iteration{f: f, g: g}
	f.iterations[it] = i
	return i
}

func replaceIteration(base string, it uint64) string {
	n := strconv.FormatUint(it, 10)
	for i := 0; i+1 < len(base); i++ {
		if base[i] == '%' && base[i+1] == 'T' {
			return base[:i] + n + base[i+2:]
		}
	}
	return base
}

// SetTime overrides the time attributes of the iteration.
func (i *Iteration) SetTime(time, dt, unitSI float64) *Iteration {
	i.g.SetAttr("time", time).SetAttr("dt", dt).SetAttr("timeUnitSI", unitSI)
	return i
}

// Species is a species group.
type Species struct {
	g *hdf5.GroupBuilder
}

// Species returns the group of a species, creating it.
func (i *Iteration) Species(name string) *Species {
	return &Species{g: i.g.Group(path.Join(i.f.particlesPath, name))}
}

// Group exposes the species group.
func (s *Species) Group() *hdf5.GroupBuilder { return s.g }

// Variable stores record as a dataset. Record names may hold a component,
// as in "position/x".
func (s *Species) Variable(record string, data []float64, unitSI float64, opts ...hdf5.DatasetOption) *Species {
	dir, name := path.Split(record)
	opts = append(opts, hdf5.WithAttr("unitSI", unitSI))
	s.g.Group(dir).Dataset(name, data, opts...)
	return s
}

// Constant stores record as a group with value, shape and unitSI
// attributes.
func (s *Species) Constant(record string, value float64, shape []uint64, unitSI float64) *Species {
	s.g.Group(record).
		SetAttr("value", value).
		SetAttr("shape", shape).
		SetAttr("unitSI", unitSI)
	return s
}

// Plasma fills the species with n particles: positions on a line in
// meters, a zero constant positionOffset, momenta between -1 and 1 m*c
// along z, unit weights and a constant mass and charge.
func (s *Species) Plasma(n int, mass, charge float64) *Species {
	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	ux := make([]float64, n)
	uy := make([]float64, n)
	uz := make([]float64, n)
	w := make([]float64, n)
	mc := mass * 299792458.0
	for i := range n {
		t := float64(i) / math.Max(float64(n-1), 1)
		x[i] = 1e-6 * math.Cos(2*math.Pi*t)
		y[i] = 1e-6 * math.Sin(2*math.Pi*t)
		z[i] = 10e-6 * t
		ux[i] = 0.1 * math.Sin(4*math.Pi*t) * mc
		uy[i] = 0
		uz[i] = (2*t - 1) * mc
		w[i] = 1 + float64(i%3)
	}
	shape := []uint64{uint64(n)}
	s.Variable("position/x", x, 1).
		Variable("position/y", y, 1).
		Variable("position/z", z, 1).
		Variable("momentum/x", ux, 1, hdf5.WithDeflate(4)).
		Variable("momentum/y", uy, 1).
		Variable("momentum/z", uz, 1, hdf5.WithShuffle(), hdf5.WithZstd()).
		Variable("weighting", w, 1).
		Constant("positionOffset/x", 0, shape, 1).
		Constant("positionOffset/y", 0, shape, 1).
		Constant("positionOffset/z", 0, shape, 1).
		Constant("mass", mass, shape, 1).
		Constant("charge", charge, shape, 1)
	return s
}

func (f *File) finish() {
	root := f.b.Root()
	root.SetAttr("openPMD", "1.1.0").
		SetAttr("openPMDextension", uint32(0)).
		SetAttr("iterationEncoding", "groupBased").
		SetAttr("iterationFormat", "/data/%T/")
	if f.varLen {
		root.SetAttr("basePath", hdf5.VarLenString(f.basePath)).
			SetAttr("particlesPath", hdf5.VarLenString(f.particlesPath))
		return
	}
	root.SetAttr("basePath", f.basePath).SetAttr("particlesPath", f.particlesPath)
}

// Bytes returns the encoded file.
func (f *File) Bytes() ([]byte, error) {
	f.finish()
	data, err := f.b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}
	return data, nil
}

// Create writes the file to path.
func (f *File) Create(path string) error {
	f.finish()
	if err := f.b.Create(path); err != nil {
		return fmt.Errorf("synth: %w", err)
	}
	return nil
}
