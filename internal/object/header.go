package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

var (
	signatureV2           = []byte("OHDR")
	signatureContinuation = []byte("OCHK")
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// maxContinuations bounds the number of continuation blocks followed for a
// single header so that a cyclic file cannot loop forever.
const maxContinuations = 1024

// Message flag marking a shared message, whose body is a reference to the
// real message stored elsewhere.
const flagShared = 0x02

// Header is a parsed object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32

	// Messages in file order, continuation blocks inlined. NIL,
	// continuation and shared messages are not included.
	Messages []message.Message
}

// rawMessage is a message body before decoding.
type rawMessage struct {
	typ   message.Type
	flags uint8
	data  []byte
}

// Read parses the object header at address, following continuation
// blocks.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}

	var (
		h    *Header
		raws []rawMessage
		v2   bool
	)
	switch {
	case string(peek) == string(signatureV2):
		v2 = true
		h, raws, err = readPrefixV2(hr, address)
	case peek[0] == 1:
		h, raws, err = readPrefixV1(hr, address)
	default:
		return nil, fmt.Errorf("%w: at address %d", ErrInvalidHeader, address)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}

	trackOrder := h.Flags&flagTrackCreationOrder != 0
	seen := map[uint64]bool{}
	for i := 0; i < len(raws); i++ {
		raw := raws[i]
		if raw.typ == message.TypeNIL || raw.flags&flagShared != 0 {
			continue
		}
		m, err := message.Parse(raw.typ, raw.data, r.Config())
		if err != nil {
			// A message this reader cannot decode does not make the
			// object unreadable; the accessors simply won't find it.
			continue
		}
		cont, ok := m.(*message.Continuation)
		if !ok {
			h.Messages = append(h.Messages, m)
			continue
		}
		if seen[cont.Offset] || len(seen) >= maxContinuations {
			return nil, fmt.Errorf("%w: continuation loop at %d", ErrInvalidHeader, cont.Offset)
		}
		seen[cont.Offset] = true

		var more []rawMessage
		if v2 {
			more, err = readContinuationV2(r, cont, trackOrder)
		} else {
			more, err = readContinuationV1(r, cont)
		}
		if err != nil {
			return nil, fmt.Errorf("object header at %d: %w", address, err)
		}
		raws = append(raws, more...)
	}
	return h, nil
}

// GetMessage returns the first message of the given type, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, m := range h.Messages {
		if m.Type() == typ {
			return m
		}
	}
	return nil
}

// GetMessages returns every message of the given type.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var out []message.Message
	for _, m := range h.Messages {
		if m.Type() == typ {
			out = append(out, m)
		}
	}
	return out
}

func first[T message.Message](h *Header, typ message.Type) T {
	var zero T
	m := h.GetMessage(typ)
	if m == nil {
		return zero
	}
	v, _ := m.(T)
	return v
}

func (h *Header) Dataspace() *message.Dataspace {
	return first[*message.Dataspace](h, message.TypeDataspace)
}

func (h *Header) Datatype() *message.Datatype {
	return first[*message.Datatype](h, message.TypeDatatype)
}

func (h *Header) DataLayout() *message.DataLayout {
	return first[*message.DataLayout](h, message.TypeDataLayout)
}

// FillValue returns the fill value message, preferring the current form
// over the old one.
func (h *Header) FillValue() *message.FillValue {
	if m := first[*message.FillValue](h, message.TypeFillValue); m != nil {
		return m
	}
	return first[*message.FillValue](h, message.TypeFillValueOld)
}

func (h *Header) FilterPipeline() *message.FilterPipeline {
	return first[*message.FilterPipeline](h, message.TypeFilterPipeline)
}

func (h *Header) SymbolTable() *message.SymbolTable {
	return first[*message.SymbolTable](h, message.TypeSymbolTable)
}

func (h *Header) LinkInfo() *message.LinkInfo {
	return first[*message.LinkInfo](h, message.TypeLinkInfo)
}

// Attributes returns the compact attributes stored in the header.
func (h *Header) Attributes() []*message.Attribute {
	var out []*message.Attribute
	for _, m := range h.Messages {
		if a, ok := m.(*message.Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

// Links returns the link messages of a compact new-style group.
func (h *Header) Links() []*message.Link {
	var out []*message.Link
	for _, m := range h.Messages {
		if l, ok := m.(*message.Link); ok {
			out = append(out, l)
		}
	}
	return out
}

// IsGroup reports whether the header describes a group.
func (h *Header) IsGroup() bool {
	return h.SymbolTable() != nil || h.LinkInfo() != nil || len(h.Links()) > 0
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.DataLayout() != nil
}
