package btree

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/heap"
)

var cfg = binary.DefaultConfig()

// image places blocks at fixed addresses of an in-memory file.
type image []byte

func (im *image) put(addr int, b []byte) {
	if need := addr + len(b); need > len(*im) {
		*im = append(*im, make([]byte, need-len(*im))...)
	}
	copy((*im)[addr:], b)
}

func (im image) reader() *binary.Reader {
	return binary.NewReader(bytes.NewReader(im), cfg)
}

func nodeHeader(e *binary.Encoder, nodeType, level uint8, entries uint16) {
	e.Raw([]byte("TREE"))
	e.Uint8(nodeType)
	e.Uint8(level)
	e.Uint16(entries)
	e.UndefinedOffset()
	e.UndefinedOffset()
}

func symbolEntry(e *binary.Encoder, nameOff, addr uint64, cache uint32, scratch uint32) {
	e.Offset(nameOff)
	e.Offset(addr)
	e.Uint32(cache)
	e.Zeros(4)
	e.Uint32(scratch)
	e.Zeros(12)
}

func TestReadGroupEntries(t *testing.T) {
	const (
		heapAt = 0
		dataAt = 64
		snodAt = 256
		treeAt = 1024
	)
	names := []byte("\x00data\x00meshes\x00/data/100\x00\x00\x00\x00")

	var im image
	h := binary.NewEncoder(cfg)
	h.Raw([]byte("HEAP"))
	h.Uint8(0)
	h.Zeros(3)
	h.Length(uint64(len(names)))
	h.Length(0)
	h.Offset(dataAt)
	im.put(heapAt, h.Bytes())
	im.put(dataAt, names)

	s := binary.NewEncoder(cfg)
	s.Raw([]byte("SNOD"))
	s.Uint8(1)
	s.Zeros(1)
	s.Uint16(3)
	symbolEntry(s, 1, 4096, cacheHeader, 0)
	symbolEntry(s, 6, 0, cacheSoftLink, 13)
	symbolEntry(s, 0, 0, cacheNone, 0) // unused slot
	im.put(snodAt, s.Bytes())

	tr := binary.NewEncoder(cfg)
	nodeHeader(tr, nodeTypeGroup, 0, 1)
	tr.Length(0)
	tr.Offset(snodAt)
	tr.Length(6)
	im.put(treeAt, tr.Bytes())

	r := im.reader()
	lh, err := heap.ReadLocalHeap(r, heapAt)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := ReadGroupEntries(r, treeAt, lh)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if e := entries[0]; e.Name != "data" || e.ObjectAddress != 4096 || e.SoftLink {
		t.Errorf("entry 0 = %+v", e)
	}
	if e := entries[1]; e.Name != "meshes" || !e.SoftLink || e.SoftLinkValue != "/data/100" {
		t.Errorf("entry 1 = %+v", e)
	}
}

func TestReadGroupEntriesWrongType(t *testing.T) {
	var im image
	e := binary.NewEncoder(cfg)
	nodeHeader(e, nodeTypeChunk, 0, 0)
	im.put(0, e.Bytes())

	_, err := ReadGroupEntries(im.reader(), 0, &heap.LocalHeap{})
	if !errors.Is(err, ErrInvalidNode) {
		t.Errorf("expected ErrInvalidNode, got %v", err)
	}
}

func chunkKey(e *binary.Encoder, size, mask uint32, offset ...uint64) {
	e.Uint32(size)
	e.Uint32(mask)
	for _, o := range offset {
		e.Uint64(o)
	}
	e.Uint64(0)
}

func TestReadChunks(t *testing.T) {
	const (
		rootAt  = 0
		leaf1At = 512
		leaf2At = 1024
	)
	var im image

	root := binary.NewEncoder(cfg)
	nodeHeader(root, nodeTypeChunk, 1, 2)
	chunkKey(root, 0, 0, 0)
	root.Offset(leaf1At)
	chunkKey(root, 0, 0, 200)
	root.Offset(leaf2At)
	chunkKey(root, 0, 0, 400)
	im.put(rootAt, root.Bytes())

	leaf1 := binary.NewEncoder(cfg)
	nodeHeader(leaf1, nodeTypeChunk, 0, 2)
	chunkKey(leaf1, 800, 0, 0)
	leaf1.Offset(8192)
	chunkKey(leaf1, 640, 1, 100)
	leaf1.Offset(9000)
	chunkKey(leaf1, 0, 0, 200)
	im.put(leaf1At, leaf1.Bytes())

	leaf2 := binary.NewEncoder(cfg)
	nodeHeader(leaf2, nodeTypeChunk, 0, 2)
	chunkKey(leaf2, 800, 0, 200)
	leaf2.Offset(10000)
	chunkKey(leaf2, 800, 0, 300)
	leaf2.UndefinedOffset()
	chunkKey(leaf2, 0, 0, 400)
	im.put(leaf2At, leaf2.Bytes())

	chunks, err := ReadChunks(im.reader(), rootAt, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []ChunkEntry{
		{Offset: []uint64{0}, Size: 800, Address: 8192},
		{Offset: []uint64{100}, Size: 640, FilterMask: 1, Address: 9000},
		{Offset: []uint64{200}, Size: 800, Address: 10000},
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		c := chunks[i]
		if c.Offset[0] != w.Offset[0] || c.Size != w.Size || c.FilterMask != w.FilterMask || c.Address != w.Address {
			t.Errorf("chunk %d = %+v, want %+v", i, c, w)
		}
	}
}

func TestReadChunksCycle(t *testing.T) {
	var im image
	e := binary.NewEncoder(cfg)
	nodeHeader(e, nodeTypeChunk, 1, 1)
	chunkKey(e, 0, 0, 0)
	e.Offset(0)
	chunkKey(e, 0, 0, 10)
	im.put(0, e.Bytes())

	_, err := ReadChunks(im.reader(), 0, 1)
	if !errors.Is(err, ErrInvalidNode) {
		t.Errorf("expected ErrInvalidNode, got %v", err)
	}
}

func v2Header(e *binary.Encoder, typ uint8, nodeSize uint32, recordSize, depth uint16, root uint64, rootRecords uint16, total uint64) {
	e.Raw([]byte("BTHD"))
	e.Uint8(0)
	e.Uint8(typ)
	e.Uint32(nodeSize)
	e.Uint16(recordSize)
	e.Uint16(depth)
	e.Uint8(100)
	e.Uint8(40)
	e.Offset(root)
	e.Uint16(rootRecords)
	e.Length(total)
	e.Checksum()
}

func v2Node(sig string, typ uint8) *binary.Encoder {
	e := binary.NewEncoder(cfg)
	e.Raw([]byte(sig))
	e.Uint8(0)
	e.Uint8(typ)
	return e
}

func TestReadChunksV2(t *testing.T) {
	const (
		rootAt  = 512
		leaf1At = 1024
		leaf2At = 1536
	)
	var im image

	h := binary.NewEncoder(cfg)
	v2Header(h, typeChunk, 512, 16, 1, rootAt, 1, 4)
	im.put(0, h.Bytes())

	root := v2Node("BTIN", typeChunk)
	root.Offset(9000)
	root.Uint64(1)
	root.Offset(leaf1At)
	root.Uint8(1)
	root.Offset(leaf2At)
	root.Uint8(2)
	root.Checksum()
	im.put(rootAt, root.Bytes())

	leaf1 := v2Node("BTLF", typeChunk)
	leaf1.Offset(8192)
	leaf1.Uint64(0)
	leaf1.Checksum()
	im.put(leaf1At, leaf1.Bytes())

	leaf2 := v2Node("BTLF", typeChunk)
	leaf2.Offset(10000)
	leaf2.Uint64(2)
	leaf2.UndefinedOffset()
	leaf2.Uint64(3)
	leaf2.Checksum()
	im.put(leaf2At, leaf2.Bytes())

	chunks, err := ReadChunksV2(im.reader(), 0, []uint64{100}, 800)
	if err != nil {
		t.Fatal(err)
	}
	want := []ChunkEntry{
		{Offset: []uint64{100}, Size: 800, Address: 9000},
		{Offset: []uint64{0}, Size: 800, Address: 8192},
		{Offset: []uint64{200}, Size: 800, Address: 10000},
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		c := chunks[i]
		if c.Offset[0] != w.Offset[0] || c.Size != w.Size || c.FilterMask != w.FilterMask || c.Address != w.Address {
			t.Errorf("chunk %d = %+v, want %+v", i, c, w)
		}
	}
}

func TestReadChunksV2Filtered(t *testing.T) {
	const leafAt = 256
	var im image

	h := binary.NewEncoder(cfg)
	v2Header(h, typeChunkFiltered, 512, 22, 0, leafAt, 2, 2)
	im.put(0, h.Bytes())

	leaf := v2Node("BTLF", typeChunkFiltered)
	leaf.Offset(4096)
	leaf.Uint16(300)
	leaf.Uint32(0)
	leaf.Uint64(0)
	leaf.Offset(5000)
	leaf.Uint16(280)
	leaf.Uint32(2)
	leaf.Uint64(1)
	leaf.Checksum()
	im.put(leafAt, leaf.Bytes())

	chunks, err := ReadChunksV2(im.reader(), 0, []uint64{50}, 400)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	if c := chunks[0]; c.Address != 4096 || c.Size != 300 || c.FilterMask != 0 || c.Offset[0] != 0 {
		t.Errorf("chunk 0 = %+v", c)
	}
	if c := chunks[1]; c.Address != 5000 || c.Size != 280 || c.FilterMask != 2 || c.Offset[0] != 50 {
		t.Errorf("chunk 1 = %+v", c)
	}
}

func TestReadChunksV2Empty(t *testing.T) {
	var im image
	h := binary.NewEncoder(cfg)
	v2Header(h, typeChunk, 512, 16, 0, binary.Undefined(8), 0, 0)
	im.put(0, h.Bytes())

	chunks, err := ReadChunksV2(im.reader(), 0, []uint64{4}, 32)
	if err != nil || len(chunks) != 0 {
		t.Errorf("got %v, %v", chunks, err)
	}
}

func TestReadChunksV2Invalid(t *testing.T) {
	tests := []struct {
		name       string
		typ        uint8
		nodeSize   uint32
		recordSize uint16
		records    uint16
		sig        string
	}{
		{"not a chunk index", 5, 512, 16, 1, "BTLF"},
		{"record size", typeChunk, 512, 20, 1, "BTLF"},
		{"filtered record size", typeChunkFiltered, 512, 20, 1, "BTLF"},
		{"tiny node", typeChunk, 8, 16, 1, "BTLF"},
		{"too many records", typeChunk, 64, 16, 9, "BTLF"},
		{"bad signature", typeChunk, 512, 16, 1, "BTIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var im image
			h := binary.NewEncoder(cfg)
			v2Header(h, tt.typ, tt.nodeSize, tt.recordSize, 0, 256, tt.records, uint64(tt.records))
			im.put(0, h.Bytes())
			leaf := v2Node(tt.sig, tt.typ)
			leaf.Zeros(int(tt.records) * int(tt.recordSize))
			im.put(256, leaf.Bytes())

			_, err := ReadChunksV2(im.reader(), 0, []uint64{4}, 32)
			if !errors.Is(err, ErrInvalidNode) {
				t.Errorf("expected ErrInvalidNode, got %v", err)
			}
		})
	}
}

func TestEncodedWidth(t *testing.T) {
	tests := []struct {
		n    uint64
		want int
	}{
		{0, 1}, {1, 1}, {255, 1}, {256, 2}, {65535, 2}, {65536, 3}, {^uint64(0), 8},
	}
	for _, tt := range tests {
		if got := encodedWidth(tt.n); got != tt.want {
			t.Errorf("encodedWidth(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
