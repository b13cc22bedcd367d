package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

var ErrInvalidSignature = errors.New("invalid heap signature")

// LocalHeap is the name heap of an old-style group.
type LocalHeap struct {
	DataSize    uint64
	FreeOffset  uint64
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the local heap at address along with its data
// segment.
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))
	prefix, err := hr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("local heap at %d: %w", address, err)
	}
	if string(prefix[:4]) != "HEAP" {
		return nil, fmt.Errorf("%w: local heap at %d has %q", ErrInvalidSignature, address, prefix[:4])
	}
	if prefix[4] != 0 {
		return nil, fmt.Errorf("unsupported local heap version %d", prefix[4])
	}

	h := &LocalHeap{}
	if h.DataSize, err = hr.ReadLength(); err != nil {
		return nil, err
	}
	if h.FreeOffset, err = hr.ReadLength(); err != nil {
		return nil, err
	}
	if h.DataAddress, err = hr.ReadOffset(); err != nil {
		return nil, err
	}
	if h.data, err = r.At(int64(h.DataAddress)).ReadBytes(int(h.DataSize)); err != nil {
		return nil, fmt.Errorf("local heap data segment: %w", err)
	}
	return h, nil
}

// GetString returns the NUL-terminated string at offset, or "" when the
// offset is outside the data segment.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	s := h.data[offset:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}
