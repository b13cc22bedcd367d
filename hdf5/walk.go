package hdf5

import (
	"errors"
	"path"
)

// WalkFunc is called for each object visited by Walk. obj is nil when
// err reports that the object at path could not be opened. Returning
// SkipGroup from a call for a group skips its members; returning
// ErrStopWalk ends the walk without an error.
type WalkFunc func(path string, obj Object, err error) error

var (
	ErrStopWalk = errors.New("walk stopped")
	SkipGroup   = errors.New("skip this group")
)

// Walk visits g and everything below it, parents before members, in
// storage order.
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn, map[uint64]bool{})
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

// open holds the header addresses of the groups being walked, so that
// soft links pointing back up the tree are not followed.
func walkGroup(g *Group, fn WalkFunc, open map[uint64]bool) error {
	if err := fn(g.Path(), g, nil); err != nil {
		if err == SkipGroup {
			return nil
		}
		return err
	}
	names, err := g.Members()
	if err != nil {
		return fn(g.Path(), nil, err)
	}
	open[g.header.Address] = true
	defer delete(open, g.header.Address)

	for _, name := range names {
		childPath := path.Join(g.Path(), name)
		obj, err := g.Lookup(name)
		if err != nil {
			if err := fn(childPath, nil, err); err != nil {
				return err
			}
			continue
		}
		if sub, ok := obj.(*Group); ok {
			if open[sub.header.Address] {
				continue
			}
			if err := walkGroup(sub, fn, open); err != nil {
				return err
			}
			continue
		}
		if err := fn(childPath, obj, nil); err != nil && err != SkipGroup {
			return err
		}
	}
	return nil
}
