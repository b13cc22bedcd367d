package hdf5

import (
	"errors"
	"reflect"
	"testing"
)

func TestWalk(t *testing.T) {
	b := NewBuilder()
	e := b.Group("/data/100/particles/electrons")
	e.Group("position").Dataset("x", []float64{1}).Dataset("y", []float64{2})
	e.Group("weighting").SetAttr("value", 1.0)
	b.Group("/data").SoftLink("up", "/data")
	b.Root().SoftLink("broken", "/missing")
	f := openBuilt(t, b)

	var visited, failed []string
	err := Walk(f.Root(), func(p string, obj Object, err error) error {
		if err != nil {
			failed = append(failed, p)
			return nil
		}
		visited = append(visited, p)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{
		"/",
		"/data",
		"/data/100",
		"/data/100/particles",
		"/data/100/particles/electrons",
		"/data/100/particles/electrons/position",
		"/data/100/particles/electrons/position/x",
		"/data/100/particles/electrons/position/y",
		"/data/100/particles/electrons/weighting",
	}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v\nwant %v", visited, want)
	}
	if !reflect.DeepEqual(failed, []string{"/broken"}) {
		t.Errorf("failed = %v", failed)
	}
}

func TestWalkSkipAndStop(t *testing.T) {
	b := NewBuilder()
	b.Group("/a/deep").Dataset("x", []float64{1})
	b.Group("/b").Dataset("y", []float64{1})
	f := openBuilt(t, b)

	var visited []string
	err := Walk(f.Root(), func(p string, obj Object, err error) error {
		visited = append(visited, p)
		switch p {
		case "/a":
			return SkipGroup
		case "/b/y":
			return ErrStopWalk
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if !reflect.DeepEqual(visited, []string{"/", "/a", "/b", "/b/y"}) {
		t.Errorf("visited %v", visited)
	}

	boom := errors.New("boom")
	err = Walk(f.Root(), func(p string, obj Object, err error) error {
		if p == "/a/deep" {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
