package object

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

/*
Version 2 object header:

	0   4  signature "OHDR"
	4   1  version (2)
	5   1  flags
	          bits 0-1  width of the chunk 0 size (1 << n bytes)
	          bit 2     attribute creation order tracked
	          bit 4     attribute phase change values stored
	          bit 5     access/modification/change/birth times stored
	    16 times, if flag bit 5
	    4  phase change values, if flag bit 4
	    n  size of chunk 0
	       messages
	    4  checksum

Each message:

	0   1  type
	1   2  body size
	3   1  flags
	4   2  creation order, if flag bit 2
	       body
*/

const (
	flagStoreTimes       = 0x20
	flagStorePhaseChange = 0x10
)

func readPrefixV2(r *binary.Reader, address uint64) (*Header, []rawMessage, error) {
	start := r.Pos()
	fixed, err := r.ReadBytes(6)
	if err != nil {
		return nil, nil, err
	}
	if fixed[4] != 2 {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, fixed[4])
	}
	h := &Header{Version: 2, Address: address, Flags: fixed[5]}
	if h.Flags&flagStoreTimes != 0 {
		r.Skip(16)
	}
	if h.Flags&flagStorePhaseChange != 0 {
		r.Skip(4)
	}
	size, err := r.ReadUintN(1 << (h.Flags & 0x03))
	if err != nil {
		return nil, nil, err
	}
	if _, err := r.ReadBytes(int(size) + 4); err != nil {
		return nil, nil, err
	}

	// Re-read the whole chunk for the checksum, prefix included.
	chunk, err := r.At(start).ReadBytes(int(r.Pos() - start))
	if err != nil {
		return nil, nil, err
	}
	body, err := verifyChunk(chunk)
	if err != nil {
		return nil, nil, err
	}
	msgs := body[len(body)-int(size):]
	return h, splitV2(msgs, h.Flags&flagTrackCreationOrder != 0), nil
}

func readContinuationV2(r *binary.Reader, cont *message.Continuation, trackOrder bool) ([]rawMessage, error) {
	block, err := r.At(int64(cont.Offset)).ReadBytes(int(cont.Length))
	if err != nil {
		return nil, fmt.Errorf("continuation block at %d: %w", cont.Offset, err)
	}
	if !bytes.HasPrefix(block, signatureContinuation) {
		return nil, fmt.Errorf("%w: bad continuation signature at %d", ErrInvalidHeader, cont.Offset)
	}
	body, err := verifyChunk(block)
	if err != nil {
		return nil, err
	}
	return splitV2(body[len(signatureContinuation):], trackOrder), nil
}

// verifyChunk checks the trailing checksum and returns the chunk without it.
func verifyChunk(chunk []byte) ([]byte, error) {
	if len(chunk) < 4 {
		return nil, ErrInvalidHeader
	}
	body := chunk[:len(chunk)-4]
	stored := uint32(binary.DecodeUint(chunk[len(chunk)-4:]))
	if got := binary.Lookup3Checksum(body); got != stored {
		return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksumMismatch, stored, got)
	}
	return body, nil
}

// splitV2 cuts a block into messages. Fewer bytes than a message prefix
// at the end of a block are a gap and are ignored.
func splitV2(block []byte, trackOrder bool) []rawMessage {
	prefix := 4
	if trackOrder {
		prefix = 6
	}
	var out []rawMessage
	for off := 0; off+prefix <= len(block); {
		typ := message.Type(block[off])
		size := int(binary.DecodeUint(block[off+1 : off+3]))
		flags := block[off+3]
		off += prefix
		if off+size > len(block) {
			break
		}
		out = append(out, rawMessage{typ: typ, flags: flags, data: block[off : off+size]})
		off += size
	}
	return out
}
