package hdf5

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/robert-malhotra/go-openpmd/internal/alloc"
	"github.com/robert-malhotra/go-openpmd/internal/binary"
	"github.com/robert-malhotra/go-openpmd/internal/filter"
	"github.com/robert-malhotra/go-openpmd/internal/heap"
	"github.com/robert-malhotra/go-openpmd/internal/message"
	"github.com/robert-malhotra/go-openpmd/internal/object"
	"github.com/robert-malhotra/go-openpmd/internal/superblock"
)

// maxMessageSize is the largest message body an object header can hold.
const maxMessageSize = 0xFFFF

// VarLenString is an attribute value stored as a variable-length string
// in a global heap, the way h5py writes Python str attributes.
type VarLenString string

// Builder assembles a file in memory and writes it in one pass. Methods
// record the first error they hit; it is returned by Bytes, WriteTo and
// Create.
//
// Attribute values may be float64, float32, int, int64, int32, uint64,
// uint32, []float64, []int64, []uint64, string, []string or VarLenString.
// Dataset values may be []float64, []float32, []int64, []int32 or
// []uint64.
type Builder struct {
	cfg  binary.Config
	root *GroupBuilder
	err  error
}

// GroupBuilder is a group under construction.
type GroupBuilder struct {
	b     *Builder
	path  string
	attrs []attrDef
	links []builderLink
}

type builderLink struct {
	name    string
	group   *GroupBuilder
	dataset *datasetDef
	soft    string
	extFile string
	extPath string
}

type datasetDef struct {
	path     string
	datatype *message.Datatype
	dims     []uint64
	raw      []byte
	opts     *datasetOptions
}

// NewBuilder returns a builder holding an empty root group.
func NewBuilder(opts ...FileOption) *Builder {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}
	b := &Builder{cfg: binary.Config{OffsetSize: options.offsetSize, LengthSize: options.lengthSize}}
	b.root = &GroupBuilder{b: b, path: "/"}
	return b
}

// Root returns the root group.
func (b *Builder) Root() *GroupBuilder { return b.root }

// Group returns the group at an absolute path, creating missing groups.
func (b *Builder) Group(p string) *GroupBuilder { return b.root.Group(p) }

// Err returns the first error recorded while building.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

// Path returns the absolute path of the group.
func (g *GroupBuilder) Path() string { return g.path }

// Group returns the group at rel, creating missing groups along the way.
func (g *GroupBuilder) Group(rel string) *GroupBuilder {
	cur := g
	for _, name := range SplitPath(rel) {
		l := cur.link(name)
		switch {
		case l == nil:
			sub := &GroupBuilder{b: g.b, path: path.Join(cur.path, name)}
			cur.links = append(cur.links, builderLink{name: name, group: sub})
			cur = sub
		case l.group != nil:
			cur = l.group
		default:
			g.b.fail("%s: %w", path.Join(cur.path, name), ErrNotGroup)
			return &GroupBuilder{b: g.b, path: path.Join(cur.path, name)}
		}
	}
	return cur
}

func (g *GroupBuilder) link(name string) *builderLink {
	for i := range g.links {
		if g.links[i].name == name {
			return &g.links[i]
		}
	}
	return nil
}

func (g *GroupBuilder) addLink(l builderLink) {
	if l.name == "" || strings.Contains(l.name, "/") {
		g.b.fail("%w: link name %q in %s", ErrInvalidPath, l.name, g.path)
		return
	}
	if g.link(l.name) != nil {
		g.b.fail("%s: link %q already exists", g.path, l.name)
		return
	}
	g.links = append(g.links, l)
}

// SetAttr sets an attribute on the group, replacing one of the same name.
func (g *GroupBuilder) SetAttr(name string, value any) *GroupBuilder {
	for i := range g.attrs {
		if g.attrs[i].name == name {
			g.attrs[i].value = value
			return g
		}
	}
	g.attrs = append(g.attrs, attrDef{name: name, value: value})
	return g
}

// Dataset adds a dataset holding data.
func (g *GroupBuilder) Dataset(name string, data any, opts ...DatasetOption) *GroupBuilder {
	o := &datasetOptions{}
	for _, opt := range opts {
		opt(o)
	}
	p := path.Join(g.path, name)
	dt, raw, n, err := encodeData(data)
	if err != nil {
		g.b.fail("dataset %s: %w", p, err)
		return g
	}
	dims := []uint64{n}
	if o.shape != nil {
		if product(o.shape) != n {
			g.b.fail("dataset %s: shape %v does not hold %d values", p, o.shape, n)
			return g
		}
		dims = o.shape
	}
	g.addLink(builderLink{name: name, dataset: &datasetDef{path: p, datatype: dt, dims: dims, raw: raw, opts: o}})
	return g
}

// SoftLink adds a link to target, an absolute path or one relative to g.
func (g *GroupBuilder) SoftLink(name, target string) *GroupBuilder {
	g.addLink(builderLink{name: name, soft: target})
	return g
}

// ExternalLink adds a link to path inside another file.
func (g *GroupBuilder) ExternalLink(name, file, target string) *GroupBuilder {
	g.addLink(builderLink{name: name, extFile: file, extPath: target})
	return g
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// Bytes returns the encoded file.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	w := &writer{cfg: b.cfg, alloc: alloc.New(uint64(superblock.Size(b.cfg)))}

	// Variable-length strings share one global heap collection placed
	// after the superblock. A dry run over the attributes sizes it.
	var dry heap.Collection
	b.root.collectStrings(&dry)
	if dry.Len() > 0 {
		w.heap = &heap.Collection{}
		w.heapAddr = w.alloc.Alloc(uint64(len(dry.Encode(b.cfg))), "global heap")
	}

	root, err := w.group(b.root)
	if err != nil {
		return nil, err
	}
	if w.heap != nil {
		w.put(w.heapAddr, w.heap.Encode(b.cfg))
	}
	if err := w.alloc.Validate(); err != nil {
		return nil, fmt.Errorf("laying out file: %w", err)
	}

	out := make([]byte, w.alloc.EOF())
	copy(out, superblock.Encode(b.cfg, root, w.alloc.EOF()))
	for _, blk := range w.blobs {
		copy(out[blk.addr:], blk.data)
	}
	return out, nil
}

// WriteTo writes the encoded file to dst.
func (b *Builder) WriteTo(dst io.Writer) (int64, error) {
	data, err := b.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := dst.Write(data)
	return int64(n), err
}

// Create writes the encoded file to path, replacing any existing file.
func (b *Builder) Create(path string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func (g *GroupBuilder) collectStrings(coll *heap.Collection) {
	for _, l := range g.links {
		switch {
		case l.group != nil:
			l.group.collectStrings(coll)
		case l.dataset != nil:
			for _, a := range l.dataset.opts.attributes {
				if s, ok := a.value.(VarLenString); ok {
					coll.Add([]byte(s))
				}
			}
		}
	}
	for _, a := range g.attrs {
		if s, ok := a.value.(VarLenString); ok {
			coll.Add([]byte(s))
		}
	}
}

type blob struct {
	addr uint64
	data []byte
}

// writer lays objects out bottom-up so that every link target already
// has an address.
type writer struct {
	cfg      binary.Config
	alloc    *alloc.Allocator
	blobs    []blob
	heap     *heap.Collection
	heapAddr uint64
}

func (w *writer) put(addr uint64, data []byte) {
	w.blobs = append(w.blobs, blob{addr: addr, data: data})
}

func (w *writer) store(data []byte, tag string) uint64 {
	addr := w.alloc.Alloc(uint64(len(data)), tag)
	w.put(addr, data)
	return addr
}

func (w *writer) header(tag string, msgs []message.Encodable) (uint64, error) {
	for _, m := range msgs {
		if n := len(m.Encode(w.cfg)); n > maxMessageSize {
			return 0, fmt.Errorf("%s: message type 0x%04x of %d bytes does not fit an object header", tag, uint16(m.Type()), n)
		}
	}
	return w.store(object.Encode(w.cfg, msgs), tag), nil
}

func (w *writer) group(g *GroupBuilder) (uint64, error) {
	msgs := []message.Encodable{&message.LinkInfo{}, &message.GroupInfo{}}
	for _, l := range g.links {
		switch {
		case l.group != nil:
			addr, err := w.group(l.group)
			if err != nil {
				return 0, err
			}
			msgs = append(msgs, message.NewHardLink(l.name, addr))
		case l.dataset != nil:
			addr, err := w.dataset(l.dataset)
			if err != nil {
				return 0, err
			}
			msgs = append(msgs, message.NewHardLink(l.name, addr))
		case l.soft != "":
			msgs = append(msgs, message.NewSoftLink(l.name, l.soft))
		default:
			msgs = append(msgs, message.NewExternalLink(l.name, l.extFile, l.extPath))
		}
	}
	am, err := w.attributes(g.path, g.attrs)
	if err != nil {
		return 0, err
	}
	return w.header(g.path, append(msgs, am...))
}

func (w *writer) dataset(d *datasetDef) (uint64, error) {
	var (
		lay *message.DataLayout
		fp  *message.FilterPipeline
	)
	switch {
	case len(d.raw) == 0:
		lay = message.NewContiguousLayout(binary.Undefined(w.cfg.OffsetSize), 0)
	case d.opts.compact:
		lay = message.NewCompactLayout(d.raw)
	case d.opts.chunked:
		if len(d.opts.filters) > 0 {
			fp = &message.FilterPipeline{Filters: make([]message.FilterInfo, len(d.opts.filters))}
			copy(fp.Filters, d.opts.filters)
			for i := range fp.Filters {
				if fp.Filters[i].ID == message.FilterShuffle {
					fp.Filters[i].ClientData = []uint32{d.datatype.Size}
				}
			}
		}
		p, err := filter.NewPipeline(fp)
		if err != nil {
			return 0, fmt.Errorf("dataset %s: %w", d.path, err)
		}
		chunk, err := p.Encode(d.raw)
		if err != nil {
			return 0, fmt.Errorf("dataset %s: %w", d.path, err)
		}
		addr := w.store(chunk, d.path+" chunk")
		var filtered uint64
		if fp != nil {
			filtered = uint64(len(chunk))
		}
		lay = message.NewSingleChunkLayout(d.dims, d.datatype.Size, addr, filtered)
	default:
		lay = message.NewContiguousLayout(w.store(d.raw, d.path+" data"), uint64(len(d.raw)))
	}

	msgs := []message.Encodable{message.NewDataspace(d.dims...), d.datatype, lay}
	if fp != nil {
		msgs = append(msgs, fp)
	}
	am, err := w.attributes(d.path, d.opts.attributes)
	if err != nil {
		return 0, err
	}
	return w.header(d.path, append(msgs, am...))
}

func (w *writer) attributes(owner string, defs []attrDef) ([]message.Encodable, error) {
	var out []message.Encodable
	for _, a := range defs {
		m, err := w.attribute(a.name, a.value)
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", owner, a.name, err)
		}
		out = append(out, m)
	}
	return out, nil
}
