package hdf5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	binpkg "github.com/robert-malhotra/go-openpmd/internal/binary"
)

// sampleFile builds a small tree with every kind of link.
func sampleFile(t *testing.T) *File {
	t.Helper()
	b := NewBuilder()
	b.Root().SetAttr("software", "go-openpmd")
	e := b.Group("/data/100/particles/electrons")
	e.Group("position").Dataset("x", []float64{0, 1})
	e.Group("mass").SetAttr("value", 9.1e-31).SetAttr("shape", []uint64{2})
	b.Group("/data").SoftLink("latest", "/data/100")
	b.Group("/data/100/particles").SoftLink("e", "electrons")
	b.Root().
		SoftLink("loop", "/loop").
		SoftLink("dangling", "/nowhere").
		SoftLink("top", "/").
		ExternalLink("ext", "other.h5", "/data")
	return openBuilt(t, b)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	notHDF5 := filepath.Join(dir, "text.h5")
	if err := os.WriteFile(notHDF5, []byte("This is not an HDF5 file, but it is long enough to scan"), 0o644); err != nil {
		t.Fatal(err)
	}
	truncated := filepath.Join(dir, "truncated.h5")
	if err := os.WriteFile(truncated, []byte("\x89HDF\r\n\x1a\n\x02"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(notHDF5); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("text file: expected ErrNotHDF5, got %v", err)
	}
	if _, err := Open(truncated); err == nil {
		t.Error("truncated file: expected an error")
	}
	if _, err := Open(filepath.Join(dir, "missing.h5")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: expected os.ErrNotExist, got %v", err)
	}
	if _, err := Open(dir); err == nil {
		t.Error("directory: expected an error")
	}
}

func TestNavigation(t *testing.T) {
	f := sampleFile(t)

	data, err := f.Group("/data")
	if err != nil {
		t.Fatal(err)
	}
	members, err := data.Members()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(members, []string{"100", "latest"}) {
		t.Errorf("Members = %v", members)
	}

	ds, err := data.Dataset("100/particles/electrons/position/x")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Path() != "/data/100/particles/electrons/position/x" || ds.Name() != "x" {
		t.Errorf("Path=%q Name=%q", ds.Path(), ds.Name())
	}

	// Absolute paths resolve from the root whatever the starting group.
	if _, err := data.Group("/data/100"); err != nil {
		t.Errorf("absolute lookup: %v", err)
	}
	if f.Root().Name() != "/" || f.Root().Path() != "/" {
		t.Errorf("root Name=%q Path=%q", f.Root().Name(), f.Root().Path())
	}

	obj, err := f.Lookup("/data/100/particles/electrons/mass")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := obj.(*Group); !ok || !obj.HasAttr("value") {
		t.Errorf("mass: got %T with attrs %v", obj, obj.Attrs())
	}
}

func TestLookupErrors(t *testing.T) {
	f := sampleFile(t)

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"missing", func() error { _, err := f.Lookup("/data/200"); return err }, ErrNotFound},
		{"missing dataset", func() error { _, err := f.Dataset("/data/100/none"); return err }, ErrNotFound},
		{"group as dataset", func() error { _, err := f.Dataset("/data"); return err }, ErrNotDataset},
		{"dataset as group", func() error {
			_, err := f.Group("/data/100/particles/electrons/position/x")
			return err
		}, ErrNotGroup},
		{"through dataset", func() error {
			_, err := f.Lookup("/data/100/particles/electrons/position/x/y")
			return err
		}, ErrNotGroup},
		{"dot dot", func() error { _, err := f.Root().Lookup("data/../data"); return err }, ErrInvalidPath},
		{"soft loop", func() error { _, err := f.Lookup("/loop"); return err }, ErrLinkDepth},
		{"dangling", func() error { _, err := f.Lookup("/dangling"); return err }, ErrNotFound},
		{"external", func() error { _, err := f.Lookup("/ext"); return err }, ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSoftLinks(t *testing.T) {
	f := sampleFile(t)

	ds, err := f.Dataset("/data/latest/particles/e/position/x")
	if err != nil {
		t.Fatalf("through soft links: %v", err)
	}
	got, err := ds.ReadFloat64()
	if err != nil || !reflect.DeepEqual(got, []float64{0, 1}) {
		t.Errorf("got %v, %v", got, err)
	}

	latest, err := f.Group("/data/latest")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Path() != "/data/latest" {
		t.Errorf("link target reported as %q", latest.Path())
	}

	top, err := f.Group("/top")
	if err != nil {
		t.Fatal(err)
	}
	if !top.HasAttr("software") {
		t.Error("/top should resolve to the root group")
	}
}

func TestMaxLinkDepth(t *testing.T) {
	b := NewBuilder()
	b.Root().Dataset("target", []float64{1})
	b.Root().SoftLink("l1", "/target").SoftLink("l2", "/l1").SoftLink("l3", "/l2")
	data, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(bytes.NewReader(data), WithMaxLinkDepth(2))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Dataset("/l2"); err != nil {
		t.Errorf("two hops: %v", err)
	}
	if _, err := f.Dataset("/l3"); !errors.Is(err, ErrLinkDepth) {
		t.Errorf("three hops: expected ErrLinkDepth, got %v", err)
	}
}

func TestClose(t *testing.T) {
	p := filepath.Join(t.TempDir(), "close.h5")
	b := NewBuilder()
	b.Root().Dataset("x", []float64{1})
	if err := b.Create(p); err != nil {
		t.Fatal(err)
	}

	f, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := f.Dataset("x")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := f.Lookup("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Lookup after close: %v", err)
	}
	if _, err := f.Root().Members(); !errors.Is(err, ErrClosed) {
		t.Errorf("Members after close: %v", err)
	}
	if _, err := ds.ReadFloat64(); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadFloat64 after close: %v", err)
	}
}

func TestUserBlock(t *testing.T) {
	b := NewBuilder()
	b.Root().Dataset("x", []float64{4, 5})
	data, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	// Move the file behind a 512-byte user block: the base address
	// follows the superblock and its checksum is recomputed.
	sb := data[:48]
	binary.LittleEndian.PutUint64(sb[12:], 512)
	binary.LittleEndian.PutUint32(sb[44:], binpkg.Lookup3Checksum(sb[:44]))
	withBlock := append(make([]byte, 512), data...)

	f, err := NewFile(bytes.NewReader(withBlock))
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	ds, err := f.Dataset("x")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ds.ReadFloat64()
	if err != nil || !reflect.DeepEqual(got, []float64{4, 5}) {
		t.Errorf("got %v, %v", got, err)
	}
}
