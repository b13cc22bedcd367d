package dtype

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	binpkg "github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/heap"
	"github.com/robert-malhotra/go-openpmd/internal/message"
)

func TestToFloat64(t *testing.T) {
	be := message.NewFloatDatatype(8)
	be.BigEndian = true
	beData := binary.BigEndian.AppendUint64(nil, math.Float64bits(-2.5))

	u32 := binary.LittleEndian.AppendUint32(nil, 0xFFFFFFFF)

	tests := []struct {
		name string
		dt   *message.Datatype
		data []byte
		want []float64
	}{
		{"float64", message.NewFloatDatatype(8), EncodeFloat64([]float64{1.5, -3e8}, 8), []float64{1.5, -3e8}},
		{"float32", message.NewFloatDatatype(4), EncodeFloat64([]float64{0.25}, 4), []float64{0.25}},
		{"big-endian", be, beData, []float64{-2.5}},
		{"int16", message.NewIntDatatype(2, true), EncodeInt64([]int64{-7, 300}, 2), []float64{-7, 300}},
		{"uint32", message.NewIntDatatype(4, false), u32, []float64{4294967295}},
		{"uint8", message.NewIntDatatype(1, false), []byte{200}, []float64{200}},
		{"enum", &message.Datatype{Class: message.ClassEnum, Size: 1, Base: message.NewIntDatatype(1, true)}, []byte{0xFF}, []float64{-1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToFloat64(tt.dt, tt.data, uint64(len(tt.want)))
			if err != nil {
				t.Fatal(err)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %g, want %g", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestToFloat64Errors(t *testing.T) {
	if _, err := ToFloat64(message.NewStringDatatype(4), []byte("abcd"), 1); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("string: expected ErrTypeMismatch, got %v", err)
	}
	if _, err := ToFloat64(message.NewFloatDatatype(8), make([]byte, 12), 2); !errors.Is(err, ErrShortData) {
		t.Errorf("short: expected ErrShortData, got %v", err)
	}
	if _, err := ToFloat64(message.NewFloatDatatype(8), make([]byte, 8), 1<<62); !errors.Is(err, ErrShortData) {
		t.Errorf("overflowing count: expected ErrShortData, got %v", err)
	}
	if _, err := ToFloat64(&message.Datatype{Class: message.ClassFixedPoint}, nil, 1<<40); !errors.Is(err, ErrUnsupported) {
		t.Errorf("zero size: expected ErrUnsupported, got %v", err)
	}
	if _, err := ToFloat64(message.NewFloatDatatype(2), make([]byte, 2), 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("float16: expected ErrUnsupported, got %v", err)
	}
	if _, err := ToFloat64(nil, nil, 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("nil: expected ErrUnsupported, got %v", err)
	}
}

func TestToInt64(t *testing.T) {
	got, err := ToInt64(message.NewIntDatatype(8, true), EncodeInt64([]int64{-1, 1 << 40}, 8), 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != -1 || got[1] != 1<<40 {
		t.Errorf("got %v", got)
	}

	u := EncodeUint64([]uint64{3, math.MaxUint64})
	if _, err := ToInt64(message.NewIntDatatype(8, false), u, 2); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected overflow error, got %v", err)
	}
	if _, err := ToInt64(message.NewFloatDatatype(8), make([]byte, 8), 1); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch for float, got %v", err)
	}
}

func TestToUint64(t *testing.T) {
	got, err := ToUint64(message.NewIntDatatype(8, false), EncodeUint64([]uint64{3, math.MaxUint64}), 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 3 || got[1] != math.MaxUint64 {
		t.Errorf("got %v", got)
	}
	if _, err := ToUint64(message.NewIntDatatype(4, true), make([]byte, 4), 1); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch for signed, got %v", err)
	}
}

func TestFixedStrings(t *testing.T) {
	vals := []string{"/data/%T/", "particles/", ""}
	size := FixedStringSize(vals)
	if size != 11 {
		t.Fatalf("FixedStringSize = %d", size)
	}
	data := EncodeFixedStrings(vals, size)

	got, err := ToStrings(message.NewStringDatatype(uint32(size)), data, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range vals {
		if got[i] != vals[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], vals[i])
		}
	}

	spaced := &message.Datatype{Class: message.ClassString, Size: 6, Padding: message.PadSpacePad}
	got, err = ToStrings(spaced, []byte("SI    "), 1, nil)
	if err != nil || got[0] != "SI" {
		t.Errorf("space padded = %q, %v", got, err)
	}
}

func TestVarLenStrings(t *testing.T) {
	cfg := binpkg.DefaultConfig()
	const collAt = 64

	var coll heap.Collection
	vals := []string{"electrons", "", "ions"}
	data := EncodeVarLenStrings(vals, &coll, collAt, cfg)
	if len(data) != 3*VarLenStringSize(cfg) {
		t.Fatalf("encoded %d bytes", len(data))
	}

	file := append(make([]byte, collAt), coll.Encode(cfg)...)
	r := binpkg.NewReader(bytes.NewReader(file), cfg)

	dt := message.NewVarLenStringDatatype(uint32(VarLenStringSize(cfg)), false)
	got, err := ToStrings(dt, data, 3, r)
	if err != nil {
		t.Fatal(err)
	}
	for i := range vals {
		if got[i] != vals[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], vals[i])
		}
	}

	if _, err := ToStrings(dt, data, 3, nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported without a reader, got %v", err)
	}
	narrow := message.NewVarLenStringDatatype(2, false)
	if _, err := ToStrings(narrow, data[:6], 3, r); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for 2-byte elements, got %v", err)
	}
}
