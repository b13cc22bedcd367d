package openpmd

import (
	"io"
	"os"
)

// Source is an open simulation file.
type Source interface {
	io.ReaderAt
	io.Closer
}

// Opener opens simulation files by name.
type Opener interface {
	Open(name string) (Source, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(name string) (Source, error)

// Open implements Opener.
func (f OpenerFunc) Open(name string) (Source, error) { return f(name) }

// OSOpener opens files from the local file system.
var OSOpener Opener = OpenerFunc(func(name string) (Source, error) {
	return os.Open(name)
})

// Option configures a read.
type Option func(*options)

type options struct {
	opener       Opener
	logger       Logger
	iteration    uint64
	hasIteration bool
	queryID      string
}

func newOptions(opts []Option) *options {
	o := &options{opener: OSOpener, logger: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithOpener reads files through op instead of the local file system.
func WithOpener(op Opener) Option {
	return func(o *options) {
		if op != nil {
			o.opener = op
		}
	}
}

// WithIteration selects the iteration to read when basePath holds the %T
// placeholder. Without it, files holding a single iteration are read and
// files holding several fail with ErrIterationNotFound.
func WithIteration(it uint64) Option {
	return func(o *options) {
		o.iteration = it
		o.hasIteration = true
	}
}

// WithLogger reports each read to l.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l == nil {
			o.logger = noopLogger{}
			return
		}
		o.logger = l
	}
}

// WithQueryID tags read events with id.
func WithQueryID(id string) Option {
	return func(o *options) { o.queryID = id }
}
