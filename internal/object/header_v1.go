package object

import (
	"fmt"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

/*
Version 1 object header:

	0   1  version (1)
	1   1  reserved
	2   2  number of messages
	4   4  reference count
	8   4  size of the first message block
	12  4  reserved, aligns messages to 8 bytes
	16     messages

Each message:

	0   2  type
	2   2  body size, a multiple of 8
	4   1  flags
	5   3  reserved
	8      body
*/

const prefixSizeV1 = 16

// flagTrackCreationOrder only exists in version 2 headers; a version 1
// header always has it clear.
const flagTrackCreationOrder = 0x04

func readPrefixV1(r *binary.Reader, address uint64) (*Header, []rawMessage, error) {
	prefix, err := r.ReadBytes(prefixSizeV1)
	if err != nil {
		return nil, nil, err
	}
	if prefix[0] != 1 {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, prefix[0])
	}
	h := &Header{
		Version:  1,
		Address:  address,
		RefCount: uint32(binary.DecodeUint(prefix[4:8])),
	}
	size := binary.DecodeUint(prefix[8:12])
	block, err := r.ReadBytes(int(size))
	if err != nil {
		return nil, nil, err
	}
	return h, splitV1(block), nil
}

func readContinuationV1(r *binary.Reader, cont *message.Continuation) ([]rawMessage, error) {
	block, err := r.At(int64(cont.Offset)).ReadBytes(int(cont.Length))
	if err != nil {
		return nil, fmt.Errorf("continuation block at %d: %w", cont.Offset, err)
	}
	return splitV1(block), nil
}

// splitV1 cuts a block into messages. A truncated trailing message ends
// the block.
func splitV1(block []byte) []rawMessage {
	var out []rawMessage
	for off := 0; off+8 <= len(block); {
		typ := message.Type(binary.DecodeUint(block[off : off+2]))
		size := int(binary.DecodeUint(block[off+2 : off+4]))
		flags := block[off+4]
		off += 8
		if off+size > len(block) {
			break
		}
		out = append(out, rawMessage{typ: typ, flags: flags, data: block[off : off+size]})
		off += size
		if rem := off % 8; rem != 0 {
			off += 8 - rem
		}
	}
	return out
}
