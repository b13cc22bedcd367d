// Package hdf5 reads HDF5 files and writes the small files used by
// openPMD fixtures.
package hdf5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/dtype"
	"github.com/robert-malhotra/go-openpmd/internal/filter"
	"github.com/robert-malhotra/go-openpmd/internal/layout"
	"github.com/robert-malhotra/go-openpmd/internal/superblock"
)

// Common errors
var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("file is closed")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth is the default number of soft links followed while
// resolving a single path.
const MaxLinkDepth = 100

// classify adds the package sentinel matching an engine error.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, superblock.ErrNotHDF5):
		return fmt.Errorf("%w: %w", ErrNotHDF5, err)
	case errors.Is(err, superblock.ErrUnsupportedVersion),
		errors.Is(err, layout.ErrUnsupported),
		errors.Is(err, filter.ErrUnsupported),
		errors.Is(err, dtype.ErrUnsupported):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return err
}
