package filter

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/message"
)

// Pipeline is an ordered list of filters. Positions match the pipeline
// message so that filter mask bits line up; unavailable optional filters
// are nil.
type Pipeline struct {
	filters []Filter
}

// NewPipeline builds the pipeline for fp, which may be nil.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for _, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		p.filters = append(p.filters, f)
	}
	return p, nil
}

// Decode undoes the pipeline. Bit i of mask set means filter i was not
// applied to this chunk.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		f := p.filters[i]
		if f == nil || mask&(1<<uint(i)) != 0 {
			continue
		}
		var err error
		if data, err = f.Decode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", Name(f.ID()), err)
		}
	}
	return data, nil
}

// Encode applies the pipeline in order.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	data := input
	for _, f := range p.filters {
		if f == nil {
			continue
		}
		var err error
		if data, err = f.Encode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", Name(f.ID()), err)
		}
	}
	return data, nil
}

// Empty reports whether the pipeline does nothing.
func (p *Pipeline) Empty() bool {
	for _, f := range p.filters {
		if f != nil {
			return false
		}
	}
	return true
}

// Len returns the number of pipeline positions.
func (p *Pipeline) Len() int { return len(p.filters) }
