package filter

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/robert-malhotra/go-openpmd/internal/message"
)

// A single decoder serves every chunk; DecodeAll is safe for concurrent
// use.
var zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil)
})

// Zstd is the Zstandard filter registered as 32015. Client data: [0]
// compression level.
type Zstd struct {
	level int
}

func NewZstd(clientData []uint32) *Zstd {
	level := 3
	if len(clientData) > 0 && clientData[0] > 0 {
		level = int(clientData[0])
	}
	return &Zstd{level: level}
}

func (f *Zstd) ID() uint16 { return message.FilterZstd }

func (f *Zstd) Decode(input []byte) ([]byte, error) {
	dec, err := zstdDecoder()
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

func (f *Zstd) Encode(input []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(f.level)))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(input, nil), nil
}
