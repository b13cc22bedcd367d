package filter

import (
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

// Shuffle regroups bytes so that byte k of every element is stored
// together. Client data: [0] element size. Trailing bytes that do not form
// a whole element are left in place.
type Shuffle struct {
	elemSize int
}

func NewShuffle(clientData []uint32) *Shuffle {
	size := 1
	if len(clientData) > 0 && clientData[0] > 0 {
		size = int(clientData[0])
	}
	return &Shuffle{elemSize: size}
}

func (f *Shuffle) ID() uint16 { return message.FilterShuffle }

func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / f.elemSize
	if f.elemSize <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for i := 0; i < n; i++ {
		for j := 0; j < f.elemSize; j++ {
			out[i*f.elemSize+j] = input[j*n+i]
		}
	}
	copy(out[n*f.elemSize:], input[n*f.elemSize:])
	return out, nil
}

func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	n := len(input) / f.elemSize
	if f.elemSize <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for i := 0; i < n; i++ {
		for j := 0; j < f.elemSize; j++ {
			out[j*n+i] = input[i*f.elemSize+j]
		}
	}
	copy(out[n*f.elemSize:], input[n*f.elemSize:])
	return out, nil
}
