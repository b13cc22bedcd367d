package series

import (
	"runtime"

	"github.com/robert-malhotra/go-openpmd/openpmd"
)

// Option configures a Series.
type Option func(*options)

type options struct {
	workers  int
	logger   openpmd.Logger
	opener   openpmd.Opener
	selector Selection
}

func newOptions(opts []Option) *options {
	o := &options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithWorkers bounds the number of files read at once. Values below one
// mean one.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = max(n, 1)
	}
}

// WithLogger reports every quantity read to l.
func WithLogger(l openpmd.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOpener reads files through op.
func WithOpener(op openpmd.Opener) Option {
	return func(o *options) { o.opener = op }
}

// WithSelector sets the selection used by queries that carry none.
func WithSelector(s Selection) Option {
	return func(o *options) { o.selector = s }
}

// readOptions returns the options passed to every openpmd call.
func (o *options) readOptions() []openpmd.Option {
	var out []openpmd.Option
	if o.opener != nil {
		out = append(out, openpmd.WithOpener(o.opener))
	}
	if o.logger != nil {
		out = append(out, openpmd.WithLogger(o.logger))
	}
	return out
}
