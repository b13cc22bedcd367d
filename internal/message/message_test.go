package message

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/go-openpmd/internal/binary"
)

var cfg = binary.Config{OffsetSize: 8, LengthSize: 8}

func parse[T Message](t *testing.T, typ Type, data []byte) T {
	t.Helper()
	m, err := Parse(typ, data, cfg)
	if err != nil {
		t.Fatalf("Parse(0x%04x): %v", uint16(typ), err)
	}
	out, ok := m.(T)
	if !ok {
		t.Fatalf("Parse(0x%04x) returned %T", uint16(typ), m)
	}
	return out
}

func TestDataspaceEncodeParse(t *testing.T) {
	tests := []struct {
		name  string
		space *Dataspace
		n     uint64
	}{
		{"scalar", NewDataspace(), 1},
		{"vector", NewDataspace(5), 5},
		{"matrix", NewDataspace(3, 4), 12},
		{"extendable", &Dataspace{Version: 2, SpaceType: DataspaceSimple, Dimensions: []uint64{2}, MaxDims: []uint64{^uint64(0)}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse[*Dataspace](t, TypeDataspace, tt.space.Encode(cfg))
			if got.SpaceType != tt.space.SpaceType {
				t.Errorf("SpaceType = %d, want %d", got.SpaceType, tt.space.SpaceType)
			}
			if got.NumElements() != tt.n {
				t.Errorf("NumElements = %d, want %d", got.NumElements(), tt.n)
			}
			if len(got.MaxDims) != len(tt.space.MaxDims) {
				t.Errorf("MaxDims = %v, want %v", got.MaxDims, tt.space.MaxDims)
			}
		})
	}
}

func TestDataspaceV1(t *testing.T) {
	e := binary.NewEncoder(cfg)
	e.Raw([]byte{1, 2, 0, 0, 0, 0, 0, 0})
	e.Length(3)
	e.Length(7)

	got := parse[*Dataspace](t, TypeDataspace, e.Bytes())
	if got.SpaceType != DataspaceSimple || got.NumElements() != 21 {
		t.Errorf("got %+v", got)
	}
}

func TestDatatypeEncodeParse(t *testing.T) {
	tests := []struct {
		name string
		dt   *Datatype
		want string
	}{
		{"float64", NewFloatDatatype(8), "float64"},
		{"float32", NewFloatDatatype(4), "float32"},
		{"int32", NewIntDatatype(4, true), "int32"},
		{"uint64", NewIntDatatype(8, false), "uint64"},
		{"string", NewStringDatatype(10), "string[10]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse[*Datatype](t, TypeDatatype, tt.dt.Encode(cfg))
			if got.String() != tt.want {
				t.Errorf("String() = %q, want %q", got.String(), tt.want)
			}
			if got.BigEndian {
				t.Error("expected little-endian")
			}
		})
	}
}

func TestDatatypeVarLenString(t *testing.T) {
	base := NewIntDatatype(1, false).Encode(cfg)
	data := append([]byte{0x19, 0x01, 0x01, 0x00, 16, 0, 0, 0}, base...)

	got := parse[*Datatype](t, TypeDatatype, data)
	if !got.IsString() || !got.VarLenString || !got.UTF8 {
		t.Errorf("got %+v", got)
	}
	if got.Base == nil || got.Base.Size != 1 {
		t.Errorf("base = %+v", got.Base)
	}
}

func TestDatatypeVarLenStringEncode(t *testing.T) {
	got := parse[*Datatype](t, TypeDatatype, NewVarLenStringDatatype(16, true).Encode(cfg))
	if got.String() != "vlen string" || !got.UTF8 || got.Size != 16 {
		t.Errorf("got %+v", got)
	}
}

func TestDatatypeBigEndian(t *testing.T) {
	data := NewFloatDatatype(8).Encode(cfg)
	data[1] |= 0x01

	got := parse[*Datatype](t, TypeDatatype, data)
	if !got.BigEndian {
		t.Error("expected big-endian")
	}
}

func TestLayoutEncodeParse(t *testing.T) {
	t.Run("contiguous", func(t *testing.T) {
		got := parse[*DataLayout](t, TypeDataLayout, NewContiguousLayout(4096, 80).Encode(cfg))
		if got.Class != LayoutContiguous || got.Address != 4096 || got.Size != 80 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("compact", func(t *testing.T) {
		got := parse[*DataLayout](t, TypeDataLayout, NewCompactLayout([]byte{1, 2, 3}).Encode(cfg))
		if got.Class != LayoutCompact || !bytes.Equal(got.CompactData, []byte{1, 2, 3}) {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("single chunk filtered", func(t *testing.T) {
		l := NewSingleChunkLayout([]uint64{10, 3}, 8, 512, 77)
		l.FilterMask = 0x2
		got := parse[*DataLayout](t, TypeDataLayout, l.Encode(cfg))
		if got.Class != LayoutChunked || got.Index != ChunkIndexSingle {
			t.Fatalf("got %+v", got)
		}
		if len(got.ChunkDims) != 2 || got.ChunkDims[0] != 10 || got.ChunkDims[1] != 3 {
			t.Errorf("ChunkDims = %v", got.ChunkDims)
		}
		if got.ElementSize != 8 || got.Address != 512 {
			t.Errorf("ElementSize=%d Address=%d", got.ElementSize, got.Address)
		}
		if got.FilteredSize != 77 || got.FilterMask != 0x2 {
			t.Errorf("FilteredSize=%d FilterMask=%d", got.FilteredSize, got.FilterMask)
		}
	})
}

func TestLayoutV3Chunked(t *testing.T) {
	e := binary.NewEncoder(cfg)
	e.Uint8(3)
	e.Uint8(uint8(LayoutChunked))
	e.Uint8(2)
	e.Offset(1234)
	e.Uint32(100)
	e.Uint32(4)

	got := parse[*DataLayout](t, TypeDataLayout, e.Bytes())
	if got.Index != ChunkIndexBTreeV1 || got.Address != 1234 {
		t.Errorf("got %+v", got)
	}
	if len(got.ChunkDims) != 1 || got.ChunkDims[0] != 100 || got.ElementSize != 4 {
		t.Errorf("ChunkDims=%v ElementSize=%d", got.ChunkDims, got.ElementSize)
	}
}

func TestFilterPipelineEncodeParse(t *testing.T) {
	fp := &FilterPipeline{Filters: []FilterInfo{
		{ID: FilterShuffle, ClientData: []uint32{8}},
		{ID: FilterDeflate, ClientData: []uint32{6}},
		{ID: FilterZstd, Name: "zstd", Flags: 1, ClientData: []uint32{3}},
	}}

	got := parse[*FilterPipeline](t, TypeFilterPipeline, fp.Encode(cfg))
	if len(got.Filters) != 3 {
		t.Fatalf("got %d filters", len(got.Filters))
	}
	z := got.Filters[2]
	if z.ID != FilterZstd || z.Name != "zstd" || !z.IsOptional() || z.ClientData[0] != 3 {
		t.Errorf("zstd filter = %+v", z)
	}
	if got.Filters[0].ClientData[0] != 8 {
		t.Errorf("shuffle client data = %v", got.Filters[0].ClientData)
	}
}

func TestAttributeEncodeParse(t *testing.T) {
	a := NewAttribute("unitSI", NewFloatDatatype(8), NewDataspace(), []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f})

	got := parse[*Attribute](t, TypeAttribute, a.Encode(cfg))
	if got.Name != "unitSI" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.Datatype.Class != ClassFloatPoint || !got.Dataspace.IsScalar() {
		t.Errorf("Datatype=%v Dataspace=%+v", got.Datatype, got.Dataspace)
	}
	if !bytes.Equal(got.Data, a.Data) {
		t.Errorf("Data = %v", got.Data)
	}
}

func TestAttributeV1Padding(t *testing.T) {
	dt := NewIntDatatype(4, true).Encode(cfg)
	ds := []byte{1, 0, 0, 0, 0, 0, 0, 0} // version 1 scalar

	e := binary.NewEncoder(cfg)
	e.Uint8(1)
	e.Uint8(0)
	e.Uint16(5) // "mass" + NUL
	e.Uint16(uint16(len(dt)))
	e.Uint16(uint16(len(ds)))
	e.Raw([]byte("mass\x00"))
	e.Pad(8)
	e.Raw(dt)
	e.Pad(8)
	e.Raw(ds)
	e.Pad(8)
	e.Uint32(42)

	got := parse[*Attribute](t, TypeAttribute, e.Bytes())
	if got.Name != "mass" {
		t.Errorf("Name = %q", got.Name)
	}
	if len(got.Data) != 4 || got.Data[0] != 42 {
		t.Errorf("Data = %v", got.Data)
	}
}

func TestLinkEncodeParse(t *testing.T) {
	hard := parse[*Link](t, TypeLink, NewHardLink("electrons", 800).Encode(cfg))
	if hard.LinkType != LinkHard || hard.Name != "electrons" || hard.Address != 800 {
		t.Errorf("hard = %+v", hard)
	}

	soft := parse[*Link](t, TypeLink, NewSoftLink("latest", "/data/100").Encode(cfg))
	if soft.LinkType != LinkSoft || soft.Target != "/data/100" {
		t.Errorf("soft = %+v", soft)
	}

	ext := parse[*Link](t, TypeLink, NewExternalLink("other", "a.h5", "/data").Encode(cfg))
	if ext.LinkType != LinkExternal || ext.ExternalFile != "a.h5" || ext.ExternalPath != "/data" {
		t.Errorf("external = %+v", ext)
	}

	long := string(bytes.Repeat([]byte("a"), 300))
	got := parse[*Link](t, TypeLink, NewHardLink(long, 8).Encode(cfg))
	if got.Name != long {
		t.Errorf("long name lost: %d bytes", len(got.Name))
	}
}

func TestLinkInfoCompact(t *testing.T) {
	got := parse[*LinkInfo](t, TypeLinkInfo, (&LinkInfo{}).Encode(cfg))
	if got.FractalHeap != ^uint64(0) {
		t.Errorf("FractalHeap = 0x%x", got.FractalHeap)
	}
}

func TestParseTruncated(t *testing.T) {
	_, err := Parse(TypeDataspace, []byte{2, 1, 0, 1, 5}, cfg)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestParseUnknown(t *testing.T) {
	m, err := Parse(Type(0x0012), []byte{1, 2, 3}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := m.(*Unknown); !ok || u.Type() != 0x0012 {
		t.Errorf("got %T", m)
	}
}

func TestFillValueParse(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		data []byte
		want []byte
	}{
		{"v3 defined", TypeFillValue, []byte{3, 0x22, 2, 0, 0, 0, 0xAB, 0xCD}, []byte{0xAB, 0xCD}},
		{"v3 undefined", TypeFillValue, []byte{3, 0x12}, nil},
		{"v3 default", TypeFillValue, []byte{3, 0x02}, nil},
		{"v2 defined", TypeFillValue, []byte{2, 1, 0, 1, 1, 0, 0, 0, 7}, []byte{7}},
		{"v2 undefined", TypeFillValue, []byte{2, 1, 0, 0}, nil},
		{"v1 always sized", TypeFillValue, []byte{1, 1, 0, 0, 1, 0, 0, 0, 5}, []byte{5}},
		{"old form", TypeFillValueOld, []byte{4, 0, 0, 0, 1, 2, 3, 4}, []byte{1, 2, 3, 4}},
		{"old form empty", TypeFillValueOld, []byte{0, 0, 0, 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse[*FillValue](t, tt.typ, tt.data)
			if got.Type() != tt.typ {
				t.Errorf("Type = 0x%04x", uint16(got.Type()))
			}
			if !bytes.Equal(got.Value, tt.want) || (got.Value == nil) != (tt.want == nil) {
				t.Errorf("Value = %v, want %v", got.Value, tt.want)
			}
		})
	}
}

func TestFillValueTruncated(t *testing.T) {
	for _, data := range [][]byte{{3, 0x22, 8, 0, 0, 0, 1}, {9, 0}} {
		if _, err := Parse(TypeFillValue, data, cfg); err == nil {
			t.Errorf("Parse(%v) succeeded", data)
		}
	}
}
