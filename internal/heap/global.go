package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

var ErrObjectNotFound = errors.New("global heap object not found")

// MinCollectionSize is the smallest collection the HDF5 library creates.
const MinCollectionSize = 4096

// GlobalHeap is one global heap collection.
type GlobalHeap struct {
	Address        uint64
	CollectionSize uint64
	objects        map[uint16][]byte
}

// GlobalHeapID refers to one object in a global heap collection.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

// ParseGlobalHeapID decodes a heap ID: a collection address followed by a
// 4-byte object index.
func ParseGlobalHeapID(data []byte, offsetSize int) (GlobalHeapID, error) {
	if len(data) < offsetSize+4 {
		return GlobalHeapID{}, fmt.Errorf("global heap ID: have %d bytes, need %d", len(data), offsetSize+4)
	}
	return GlobalHeapID{
		CollectionAddress: binary.DecodeUint(data[:offsetSize]),
		ObjectIndex:       uint32(binary.DecodeUint(data[offsetSize : offsetSize+4])),
	}, nil
}

func objectHeaderSize(cfg binary.Config) int { return 8 + cfg.LengthSize }

// ReadGlobalHeap reads the collection at address.
func ReadGlobalHeap(r *binary.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address %d", address)
	}
	hr := r.At(int64(address))
	prefix, err := hr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("global heap at %d: %w", address, err)
	}
	if string(prefix[:4]) != "GCOL" {
		return nil, fmt.Errorf("%w: global heap at %d has %q", ErrInvalidSignature, address, prefix[:4])
	}
	if prefix[4] != 1 {
		return nil, fmt.Errorf("unsupported global heap version %d", prefix[4])
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	headerSize := uint64(8 + r.LengthSize())
	if size < headerSize {
		return nil, fmt.Errorf("global heap at %d: collection size %d too small", address, size)
	}
	body, err := hr.ReadBytes(int(size - headerSize))
	if err != nil {
		return nil, fmt.Errorf("global heap at %d: %w", address, err)
	}

	h := &GlobalHeap{Address: address, CollectionSize: size, objects: map[uint16][]byte{}}
	cfg := r.Config()
	for off := 0; off+objectHeaderSize(cfg) <= len(body); {
		index := uint16(binary.DecodeUint(body[off : off+2]))
		// Object 0 is the free space at the end of the collection.
		if index == 0 {
			break
		}
		n := int(binary.DecodeUint(body[off+8 : off+objectHeaderSize(cfg)]))
		off += objectHeaderSize(cfg)
		if n < 0 || off+n > len(body) {
			return nil, fmt.Errorf("global heap at %d: object %d overruns the collection", address, index)
		}
		h.objects[index] = body[off : off+n]
		off += (n + 7) &^ 7
	}
	return h, nil
}

// GetObject returns a copy of the object with the given index.
func (h *GlobalHeap) GetObject(index uint32) ([]byte, error) {
	data, ok := h.objects[uint16(index)]
	if !ok || index > 0xFFFF {
		return nil, fmt.Errorf("%w: index %d in collection at %d", ErrObjectNotFound, index, h.Address)
	}
	return bytes.Clone(data), nil
}

// GetString returns the object as a string, cut at the first NUL.
func (h *GlobalHeap) GetString(index uint32) (string, error) {
	data, err := h.GetObject(index)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

// Collection accumulates objects for a new global heap collection.
type Collection struct {
	objects [][]byte
}

// Add appends an object and returns its 1-based index.
func (c *Collection) Add(data []byte) uint32 {
	c.objects = append(c.objects, data)
	return uint32(len(c.objects))
}

// Len returns the number of objects added.
func (c *Collection) Len() int { return len(c.objects) }

// Encode serializes the collection. The result is at least
// MinCollectionSize bytes; unused space is described by a free-space
// object.
func (c *Collection) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	e.Raw([]byte("GCOL"))
	e.Uint8(1)
	e.Zeros(3)
	sizeAt := e.Len()
	e.Length(0)
	for i, obj := range c.objects {
		e.Uint16(uint16(i + 1))
		e.Uint16(1) // reference count
		e.Zeros(4)
		e.Length(uint64(len(obj)))
		e.Raw(obj)
		e.Pad(8)
	}

	total := e.Len() + objectHeaderSize(cfg)
	if total < MinCollectionSize {
		total = MinCollectionSize
	}
	free := total - e.Len()
	e.Uint16(0)
	e.Zeros(6)
	e.Length(uint64(free))
	e.Zeros(free - objectHeaderSize(cfg))

	out := e.Bytes()
	size := binary.NewEncoder(cfg)
	size.Length(uint64(len(out)))
	copy(out[sizeAt:], size.Bytes())
	return out
}
