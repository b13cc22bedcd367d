package openpmd

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-openpmd/hdf5"
)

const iterationToken = "%T"

// session is one open simulation file. It is used by a single call and
// closed before that call returns.
type session struct {
	name string
	src  Source
	file *hdf5.File
	opts *options

	basePath      string
	particlesPath string
}

func openSession(name string, o *options) (*session, error) {
	src, err := o.opener.Open(name)
	if err != nil {
		return nil, fmt.Errorf("openpmd: opening %s: %w", name, err)
	}
	f, err := hdf5.NewFile(src, hdf5.WithName(name))
	if err != nil {
		src.Close()
		if errors.Is(err, hdf5.ErrNotHDF5) {
			return nil, fmt.Errorf("openpmd: reading %s: %w", name, err)
		}
		return nil, annotate(malformed("/", err), name, "")
	}
	s := &session{name: name, src: src, file: f, opts: o}
	if s.basePath, err = s.rootString("basePath"); err != nil {
		s.Close()
		return nil, annotate(err, name, "")
	}
	if s.particlesPath, err = s.rootString("particlesPath"); err != nil {
		s.Close()
		return nil, annotate(err, name, "")
	}
	return s, nil
}

func (s *session) Close() error {
	s.file.Close()
	return s.src.Close()
}

// rootString reads a string attribute of the root group stored with
// either a fixed or a variable length.
func (s *session) rootString(name string) (string, error) {
	p := hdf5.JoinAttrPath("/", name)
	a := s.file.Root().Attr(name)
	if a == nil {
		return "", malformed(p, errors.New("missing root attribute"))
	}
	v, err := a.ReadString()
	if err != nil {
		return "", malformed(p, err)
	}
	return v, nil
}

// templated reports whether basePath still holds the iteration
// placeholder.
func (s *session) templated() bool {
	return strings.Contains(s.basePath, iterationToken)
}

// iterations lists the iterations stored in the file in ascending order.
// A resolved basePath yields the single iteration it names, or zero when
// its last element is not a number.
func (s *session) iterations() ([]uint64, error) {
	if !s.templated() {
		parts := hdf5.SplitPath(s.basePath)
		if len(parts) == 0 {
			return []uint64{0}, nil
		}
		it, err := strconv.ParseUint(parts[len(parts)-1], 10, 64)
		if err != nil {
			return []uint64{0}, nil
		}
		return []uint64{it}, nil
	}

	parent := hdf5.CleanPath(s.basePath[:strings.Index(s.basePath, iterationToken)])
	g, err := s.file.Group(parent)
	if err != nil {
		return nil, &PathError{Path: parent, Err: ErrIterationNotFound, Cause: err}
	}
	names, err := g.Members()
	if err != nil {
		return nil, malformed(parent, err)
	}
	var out []uint64
	for _, n := range names {
		if it, err := strconv.ParseUint(n, 10, 64); err == nil {
			out = append(out, it)
		}
	}
	slices.Sort(out)
	return out, nil
}

// iteration picks the iteration to read: the one requested with
// WithIteration, or the only one in the file.
func (s *session) iteration() (uint64, error) {
	its, err := s.iterations()
	if err != nil {
		return 0, err
	}
	if !s.templated() {
		return its[0], nil
	}
	if s.opts.hasIteration {
		if _, ok := slices.BinarySearch(its, s.opts.iteration); !ok {
			return 0, &PathError{Path: s.basePath, Err: ErrIterationNotFound, Cause: fmt.Errorf("no iteration %d", s.opts.iteration)}
		}
		return s.opts.iteration, nil
	}
	if len(its) != 1 {
		return 0, &PathError{Path: s.basePath, Err: ErrIterationNotFound, Cause: fmt.Errorf("file holds %d iterations, select one with WithIteration", len(its))}
	}
	return its[0], nil
}

// iterationPath returns basePath with the placeholder replaced by it.
func (s *session) iterationPath(it uint64) string {
	return hdf5.CleanPath(strings.Replace(s.basePath, iterationToken, strconv.FormatUint(it, 10), 1))
}

// particlesGroup returns the group holding every species of iteration it.
func (s *session) particlesGroup(it uint64) (*hdf5.Group, error) {
	p := hdf5.CleanPath(path.Join(s.iterationPath(it), s.particlesPath))
	g, err := s.file.Group(p)
	if err != nil {
		if errors.Is(err, hdf5.ErrNotFound) {
			return nil, &PathError{Path: p, Err: ErrSpeciesNotFound, Cause: err}
		}
		return nil, malformed(p, err)
	}
	return g, nil
}

// species returns the group of one species.
func (s *session) species(it uint64, name string) (*hdf5.Group, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, &PathError{Species: name, Err: ErrSpeciesNotFound, Cause: fmt.Errorf("invalid species name %q", name)}
	}
	parent, err := s.particlesGroup(it)
	if err != nil {
		return nil, err
	}
	p := joinPath(parent.Path(), name)
	g, err := parent.Group(name)
	switch {
	case errors.Is(err, hdf5.ErrNotFound):
		return nil, &PathError{Path: p, Err: ErrSpeciesNotFound}
	case err != nil:
		return nil, malformed(p, err)
	}
	return g, nil
}
