package hdf5

import (
	"errors"
	"testing"
)

func TestParseAttrPath(t *testing.T) {
	tests := []struct {
		path       string
		wantObject string
		wantAttr   string
		wantErr    bool
	}{
		{"/@basePath", "/", "basePath", false},
		{"/data@time", "/data", "time", false},
		{"/data/100/particles/electrons/mass@unitSI", "/data/100/particles/electrons/mass", "unitSI", false},
		{"data/@attr", "/data", "attr", false},
		{"@attr", "/", "attr", false},
		{"", "", "", true},
		{"/path/no/at", "", "", true},
		{"/path@", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			obj, attr, err := ParseAttrPath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("expected ErrInvalidPath for %q, got %v", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.path, err)
			}
			if obj != tt.wantObject || attr != tt.wantAttr {
				t.Errorf("got (%q, %q), want (%q, %q)", obj, attr, tt.wantObject, tt.wantAttr)
			}
			if back := JoinAttrPath(obj, attr); back != JoinAttrPath(tt.wantObject, tt.wantAttr) {
				t.Errorf("JoinAttrPath = %q", back)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/data", []string{"data"}},
		{"/data/100/particles/", []string{"data", "100", "particles"}},
		{"particles//electrons", []string{"particles", "electrons"}},
		{"./position/x", []string{"position", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := SplitPath(tt.path)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestCleanPath(t *testing.T) {
	tests := map[string]string{
		"":                "/",
		"/":               "/",
		"data":            "/data",
		"/data/100/":      "/data/100",
		"/data//100/./x":  "/data/100/x",
		"particles/../ok": "/ok",
	}
	for in, want := range tests {
		if got := CleanPath(in); got != want {
			t.Errorf("CleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}
