package synth_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/robert-malhotra/go-openpmd/hdf5"
	"github.com/robert-malhotra/go-openpmd/openpmd/synth"
)

func TestPlasma(t *testing.T) {
	f := synth.New()
	f.Iteration(7).SetTime(1.5, 0.5, 1e-15).Species("p").Plasma(5, 2, 3)
	data, err := f.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	h, err := hdf5.NewFile(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}

	tests := []struct {
		attr string
		want any
	}{
		{"/@basePath", "/data/%T/"},
		{"/data/7@time", 1.5},
		{"/data/7/particles/p/mass@value", 2.0},
		{"/data/7/particles/p/charge@value", 3.0},
		{"/data/7/particles/p/mass@shape", []uint64{5}},
	}
	for _, tt := range tests {
		a, err := h.Attr(tt.attr)
		if err != nil {
			t.Errorf("%s: %v", tt.attr, err)
			continue
		}
		var got any
		switch tt.want.(type) {
		case string:
			got, err = a.ReadString()
		case float64:
			got, err = a.ReadScalarFloat64()
		case []uint64:
			got, err = a.ReadUint64()
		}
		if err != nil || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s = %v (%v), want %v", tt.attr, got, err, tt.want)
		}
	}

	d, err := h.Dataset("/data/7/particles/p/weighting")
	if err != nil {
		t.Fatalf("weighting: %v", err)
	}
	w, err := d.ReadFloat64()
	if err != nil || !reflect.DeepEqual(w, []float64{1, 2, 3, 1, 2}) {
		t.Errorf("weighting = %v (%v)", w, err)
	}
}
