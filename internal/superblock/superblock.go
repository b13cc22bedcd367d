package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

// Signature is the 8-byte magic number at the start of every superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrChecksum           = errors.New("superblock checksum mismatch")
)

// Superblock holds the fields needed to navigate a file.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8

	// Offset is where the signature was found.
	Offset      int64
	BaseAddress uint64
	EOFAddress  uint64
	RootAddress uint64

	// Version 0/1 root symbol table scratch pad. Zero when absent.
	RootBTree uint64
	RootHeap  uint64
}

// Config returns the reader configuration declared by the superblock.
func (sb *Superblock) Config() binary.Config {
	return binary.Config{OffsetSize: int(sb.OffsetSize), LengthSize: int(sb.LengthSize)}
}

// Read finds and decodes the superblock of r.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, len(Signature)+1)
	for _, off := range searchOffsets {
		n, err := r.ReadAt(sig, off)
		if n < len(sig) {
			if err == nil || err == io.EOF {
				break
			}
			return nil, err
		}
		if !bytes.Equal(sig[:8], Signature) {
			continue
		}

		var sb *Superblock
		switch v := sig[8]; v {
		case 0, 1:
			sb, err = readV0(r, off, v)
		case 2, 3:
			sb, err = readV2(r, off, v)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		if err != nil {
			return nil, fmt.Errorf("superblock v%d at %d: %w", sig[8], off, err)
		}
		sb.Offset = off
		return sb, nil
	}
	return nil, ErrNotHDF5
}

func readV0(src io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	r := binary.NewReader(src, binary.DefaultConfig()).At(off + 9)
	head, err := r.ReadBytes(15)
	if err != nil {
		return nil, err
	}
	// head: free-space version, root entry version, reserved,
	// shared header version, offset size, length size, reserved,
	// leaf K (2), internal K (2), consistency flags (4).
	sb := &Superblock{Version: version, OffsetSize: head[4], LengthSize: head[5]}
	if err := sb.Config().Validate(); err != nil {
		return nil, err
	}
	r = r.WithConfig(sb.Config())
	if version == 1 {
		// Indexed storage K and two reserved bytes.
		r.Skip(4)
	}

	var freeSpace, driver uint64
	for _, dst := range []*uint64{&sb.BaseAddress, &freeSpace, &sb.EOFAddress, &driver} {
		if *dst, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}

	// Root group symbol table entry.
	if _, err := r.ReadOffset(); err != nil { // link name offset
		return nil, err
	}
	if sb.RootAddress, err = r.ReadOffset(); err != nil {
		return nil, err
	}
	cacheType, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	r.Skip(4)
	if cacheType == 1 {
		if sb.RootBTree, err = r.ReadOffset(); err != nil {
			return nil, err
		}
		if sb.RootHeap, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return sb, nil
}

func readV2(src io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	r := binary.NewReader(src, binary.DefaultConfig()).At(off + 9)
	head, err := r.ReadBytes(3)
	if err != nil {
		return nil, err
	}
	sb := &Superblock{Version: version, OffsetSize: head[0], LengthSize: head[1]}
	if err := sb.Config().Validate(); err != nil {
		return nil, err
	}
	r = r.WithConfig(sb.Config())

	var extension uint64
	for _, dst := range []*uint64{&sb.BaseAddress, &extension, &sb.EOFAddress, &sb.RootAddress} {
		if *dst, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}

	end := r.Pos()
	stored, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	body, err := binary.NewReader(src, sb.Config()).At(off).ReadBytes(int(end - off))
	if err != nil {
		return nil, err
	}
	if binary.Lookup3Checksum(body) != stored {
		return nil, ErrChecksum
	}
	return sb, nil
}

// Size is the encoded length of a version 2/3 superblock.
func Size(cfg binary.Config) int {
	return 12 + 4*cfg.OffsetSize + 4
}

// Encode returns a version 3 superblock for a file whose root object
// header is at root and whose end of file is eof.
func Encode(cfg binary.Config, root, eof uint64) []byte {
	e := binary.NewEncoder(cfg)
	e.Raw(Signature)
	e.Uint8(3)
	e.Uint8(uint8(cfg.OffsetSize))
	e.Uint8(uint8(cfg.LengthSize))
	e.Uint8(0)
	e.Offset(0)
	e.UndefinedOffset()
	e.Offset(eof)
	e.Offset(root)
	e.Checksum()
	return e.Bytes()
}
