package openpmd

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/robert-malhotra/go-openpmd/hdf5"
)

// SpeedOfLight is c in m/s.
const SpeedOfLight = 299792458.0

// micronsPerMeter scales SI positions to microns.
const micronsPerMeter = 1e6

// converter turns the SI values of a record into the quantity's output
// unit. Warnings are appended to warn.
type converter func(sp *hdf5.Group, q Quantity, data *Array, warn *[]string) error

var converters = [...]converter{
	Position:  toMicrons,
	Momentum:  normalizeMomentum,
	Weighting: func(*hdf5.Group, Quantity, *Array, *[]string) error { return nil },
}

// ReadParticleQuantity reads one quantity of a species: positions in
// microns including positionOffset, momenta divided by m*c and weights as
// stored. The file is opened for this call only.
func ReadParticleQuantity(path, species, quantity string, opts ...Option) (*Array, error) {
	q, err := ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}
	return ReadQuantity(path, species, q, opts...)
}

// ReadQuantity is ReadParticleQuantity for a parsed quantity.
func ReadQuantity(path, species string, q Quantity, opts ...Option) (out *Array, err error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, uint8(q))
	}
	o := newOptions(opts)

	start := time.Now()
	event := ReadEvent{File: path, Species: species, Quantity: q.String(), QueryID: o.queryID}
	defer func() {
		event.Duration = time.Since(start)
		event.Err = err
		if out != nil {
			event.Elements = out.Len()
		}
		o.logger.LogRead(event)
	}()

	s, err := openSession(path, o)
	if err != nil {
		return nil, annotate(err, path, species)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			out, err = nil, fmt.Errorf("openpmd: closing %s: %w", path, cerr)
		}
	}()

	out, err = s.read(species, q, &event)
	if err != nil {
		return nil, annotate(err, path, species)
	}
	return out, nil
}

func (s *session) read(species string, q Quantity, event *ReadEvent) (*Array, error) {
	it, err := s.iteration()
	if err != nil {
		return nil, err
	}
	event.Iteration = it

	sp, err := s.species(it, species)
	if err != nil {
		return nil, err
	}
	h, err := Lookup(sp, q.Record())
	if err != nil {
		return nil, err
	}
	data, err := Resolve(h)
	if err != nil {
		return nil, err
	}
	if err := converters[q.Class()](sp, q, data, &event.Warnings); err != nil {
		return nil, err
	}
	return data, nil
}

func toMicrons(sp *hdf5.Group, q Quantity, data *Array, _ *[]string) error {
	h, err := Lookup(sp, "positionOffset/"+q.Axis())
	if err != nil {
		return err
	}
	off, err := Resolve(h)
	if err != nil {
		return err
	}
	if off.Len() != data.Len() {
		return malformed(h.Path, fmt.Errorf("offset has %d elements, position has %d", off.Len(), data.Len()))
	}
	floats.Add(data.Data, off.Data)
	floats.Scale(micronsPerMeter, data.Data)
	return nil
}

func normalizeMomentum(sp *hdf5.Group, _ Quantity, data *Array, warn *[]string) error {
	m, err := Mass(sp, warn)
	if err != nil {
		return err
	}
	floats.Scale(1/(m*SpeedOfLight), data.Data)
	return nil
}

// Mass returns the particle mass of a species in kg. A per-particle mass
// record is reduced to its first element; a warning is added to warn when
// the elements differ.
func Mass(sp *hdf5.Group, warn *[]string) (float64, error) {
	h, err := Lookup(sp, "mass")
	if err != nil {
		return 0, err
	}
	arr, err := Resolve(h)
	if err != nil {
		return 0, err
	}
	if arr.Len() == 0 {
		return 0, malformed(h.Path, errors.New("empty mass record"))
	}
	m := arr.Data[0]
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, malformed(h.Path, fmt.Errorf("unusable mass %g", m))
	}
	if warn != nil && floats.Max(arr.Data) != floats.Min(arr.Data) {
		*warn = append(*warn, fmt.Sprintf("%s: mass varies between particles, using %g", h.Path, m))
	}
	return m, nil
}
