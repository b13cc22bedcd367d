package openpmd

import (
	"errors"
	"strings"
)

var (
	ErrInvalidQuantity   = errors.New("invalid particle quantity")
	ErrSpeciesNotFound   = errors.New("species not found")
	ErrMalformedDataset  = errors.New("malformed dataset")
	ErrIterationNotFound = errors.New("iteration not found")
)

// PathError records the object an extraction failed on. It matches its
// sentinel and its cause with errors.Is.
type PathError struct {
	File    string
	Species string
	// Path is the object path inside the file.
	Path string
	// Err is one of the package sentinels.
	Err error
	// Cause is the underlying error, if any.
	Cause error
}

func (e *PathError) Error() string {
	var b strings.Builder
	b.WriteString("openpmd: ")
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *PathError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func malformed(path string, cause error) error {
	return &PathError{Path: path, Err: ErrMalformedDataset, Cause: cause}
}

// annotate fills in the file and species of a PathError.
func annotate(err error, file, species string) error {
	var pe *PathError
	if errors.As(err, &pe) {
		if pe.File == "" {
			pe.File = file
		}
		if pe.Species == "" {
			pe.Species = species
		}
	}
	return err
}
