package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-openpmd/internal/btree"
	"github.com/robert-malhotra/go-openpmd/internal/heap"
	"github.com/robert-malhotra/go-openpmd/internal/message"
	"github.com/robert-malhotra/go-openpmd/internal/object"
)

// Group is an HDF5 group.
type Group struct {
	file   *File
	path   string
	header *object.Header
}

// member is one named entry of a group, from either a link message or a
// symbol table.
type member struct {
	name     string
	address  uint64
	soft     string
	external bool
}

// Name returns the last component of the group path.
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path returns the absolute path of the group.
func (g *Group) Path() string { return g.path }

func (g *Group) Attrs() []string             { return attrs{g.file, g.header}.Attrs() }
func (g *Group) Attr(name string) *Attribute { return attrs{g.file, g.header}.Attr(name) }
func (g *Group) HasAttr(name string) bool    { return attrs{g.file, g.header}.HasAttr(name) }

// Members returns the names of the group's links in storage order.
func (g *Group) Members() ([]string, error) {
	members, err := g.members()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.name
	}
	return names, nil
}

// NumObjects returns the number of links in the group.
func (g *Group) NumObjects() (int, error) {
	members, err := g.members()
	return len(members), err
}

func (g *Group) members() ([]member, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	if links := g.header.Links(); len(links) > 0 {
		out := make([]member, 0, len(links))
		for _, l := range links {
			out = append(out, linkMember(l))
		}
		return out, nil
	}
	if li := g.header.LinkInfo(); li != nil && !g.file.reader.IsUndefinedOffset(li.FractalHeap) {
		return nil, fmt.Errorf("group %s: dense link storage: %w", g.path, ErrUnsupported)
	}

	st := g.header.SymbolTable()
	if st == nil && g.path == "/" && g.file.superblock.RootBTree != 0 {
		// The root symbol table may only be cached in the superblock.
		st = &message.SymbolTable{BTree: g.file.superblock.RootBTree, LocalHeap: g.file.superblock.RootHeap}
	}
	if st == nil {
		return nil, nil
	}
	names, err := heap.ReadLocalHeap(g.file.reader, st.LocalHeap)
	if err != nil {
		return nil, fmt.Errorf("group %s: reading local heap: %w", g.path, err)
	}
	entries, err := btree.ReadGroupEntries(g.file.reader, st.BTree, names)
	if err != nil {
		return nil, fmt.Errorf("group %s: reading symbol table: %w", g.path, err)
	}
	out := make([]member, 0, len(entries))
	for _, e := range entries {
		m := member{name: e.Name, address: e.ObjectAddress}
		if e.SoftLink {
			m.soft = e.SoftLinkValue
		}
		out = append(out, m)
	}
	return out, nil
}

func linkMember(l *message.Link) member {
	m := member{name: l.Name}
	switch l.LinkType {
	case message.LinkHard:
		m.address = l.Address
	case message.LinkSoft:
		m.soft = l.Target
	default:
		m.external = true
	}
	return m
}

// Lookup returns the group or dataset at rel, a path relative to g. An
// absolute path is resolved from the root group.
func (g *Group) Lookup(rel string) (Object, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	start := g
	if path.IsAbs(rel) {
		start = g.file.root
	}
	obj, err := start.resolve(SplitPath(rel), 0)
	if err != nil {
		return nil, fmt.Errorf("looking up %q in %s: %w", rel, g.path, err)
	}
	return obj, nil
}

// Group returns the group at rel.
func (g *Group) Group(rel string) (*Group, error) {
	obj, err := g.Lookup(rel)
	if err != nil {
		return nil, err
	}
	sub, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", obj.Path(), ErrNotGroup)
	}
	return sub, nil
}

// Dataset returns the dataset at rel.
func (g *Group) Dataset(rel string) (*Dataset, error) {
	obj, err := g.Lookup(rel)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%s: %w", obj.Path(), ErrNotDataset)
	}
	return ds, nil
}

// resolve walks parts from g. hops counts the soft links followed so far.
func (g *Group) resolve(parts []string, hops int) (Object, error) {
	var cur Object = g
	for i, name := range parts {
		grp, ok := cur.(*Group)
		if !ok {
			return nil, fmt.Errorf("%s: %w", cur.Path(), ErrNotGroup)
		}
		if name == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, name)
		}
		m, err := grp.find(name)
		if err != nil {
			return nil, err
		}
		childPath := path.Join(grp.path, name)

		switch {
		case m.external:
			return nil, fmt.Errorf("%s is an external link: %w", childPath, ErrUnsupported)
		case m.soft != "":
			hops++
			if hops > g.file.opts.maxLinkDepth {
				return nil, fmt.Errorf("%s: %w", childPath, ErrLinkDepth)
			}
			target := m.soft
			if !path.IsAbs(target) {
				target = path.Join(grp.path, target)
			}
			if cur, err = g.file.root.resolve(SplitPath(target), hops); err != nil {
				return nil, fmt.Errorf("soft link %s -> %s: %w", childPath, m.soft, err)
			}
			if i == len(parts)-1 {
				return rename(cur, childPath), nil
			}
		default:
			if cur, err = g.file.objectAt(m.address, childPath); err != nil {
				return nil, err
			}
		}
	}
	return cur, nil
}

// rename reports an object reached through a soft link under the link's
// own path.
func rename(obj Object, p string) Object {
	switch o := obj.(type) {
	case *Group:
		cp := *o
		cp.path = p
		return &cp
	case *Dataset:
		cp := *o
		cp.path = p
		return &cp
	}
	return obj
}

func (g *Group) find(name string) (member, error) {
	members, err := g.members()
	if err != nil {
		return member{}, err
	}
	for _, m := range members {
		if m.name == name {
			return m, nil
		}
	}
	return member{}, fmt.Errorf("%s: %w", path.Join(g.path, name), ErrNotFound)
}
