package object

import (
	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

// Encode returns a version 2 object header holding msgs in a single chunk.
// The chunk size field is as narrow as the message data allows. It panics
// if a message body does not fit the 16-bit size field.
func Encode(cfg binary.Config, msgs []message.Encodable) []byte {
	body := binary.NewEncoder(cfg)
	for _, m := range msgs {
		data := m.Encode(cfg)
		if len(data) > 0xFFFF {
			panic("object: header message too large")
		}
		body.Uint8(uint8(m.Type()))
		body.Uint16(uint16(len(data)))
		body.Uint8(0)
		body.Raw(data)
	}

	var flags uint8
	width := 1
	switch n := body.Len(); {
	case n > 0xFFFF:
		flags, width = 2, 4
	case n > 0xFF:
		flags, width = 1, 2
	}

	e := binary.NewEncoder(cfg)
	e.Raw(signatureV2)
	e.Uint8(2)
	e.Uint8(flags)
	e.UintN(uint64(body.Len()), width)
	e.Raw(body.Bytes())
	e.Checksum()
	return e.Bytes()
}
