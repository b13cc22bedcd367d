// Package opmdtest serves openPMD files from memory for tests.
package opmdtest

import (
	"bytes"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/robert-malhotra/go-openpmd/openpmd"
	"github.com/robert-malhotra/go-openpmd/openpmd/synth"
)

// MemOpener serves files from memory and counts open handles.
type MemOpener struct {
	mu    sync.RWMutex
	files map[string][]byte

	opens  atomic.Int64
	active atomic.Int64
}

// NewMemOpener returns an opener with no files.
func NewMemOpener() *MemOpener {
	return &MemOpener{files: make(map[string][]byte)}
}

// Add registers data under name.
func (m *MemOpener) Add(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
}

// AddFile encodes f and registers it under name.
func (m *MemOpener) AddFile(name string, f *synth.File) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	m.Add(name, data)
	return nil
}

// Open implements openpmd.Opener.
func (m *MemOpener) Open(name string) (openpmd.Source, error) {
	m.mu.RLock()
	data, ok := m.files[name]
	m.mu.RUnlock()
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	m.opens.Add(1)
	m.active.Add(1)
	return &memFile{Reader: bytes.NewReader(data), m: m}, nil
}

// Opens returns the number of successful opens.
func (m *MemOpener) Opens() int64 { return m.opens.Load() }

// Active returns the number of handles not yet closed.
func (m *MemOpener) Active() int64 { return m.active.Load() }

type memFile struct {
	*bytes.Reader
	m      *MemOpener
	closed atomic.Bool
}

func (f *memFile) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("opmdtest: %w", fs.ErrClosed)
	}
	f.m.active.Add(-1)
	return nil
}
