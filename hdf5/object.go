package hdf5

import "github.com/robert-malhotra/go-openpmd/internal/object"

// Object is a *Group or a *Dataset.
type Object interface {
	Name() string
	Path() string
	Attrs() []string
	Attr(name string) *Attribute
	HasAttr(name string) bool
}

var (
	_ Object = (*Group)(nil)
	_ Object = (*Dataset)(nil)
)

// attrs implements the attribute methods shared by groups and datasets.
type attrs struct {
	file   *File
	header *object.Header
}

// Attrs returns the attribute names in header order.
func (a attrs) Attrs() []string {
	var names []string
	for _, m := range a.header.Attributes() {
		names = append(names, m.Name)
	}
	return names
}

// Attr returns the named attribute, or nil if there is none.
func (a attrs) Attr(name string) *Attribute {
	for _, m := range a.header.Attributes() {
		if m.Name == name {
			return &Attribute{msg: m, reader: a.file.reader}
		}
	}
	return nil
}

// HasAttr reports whether the named attribute exists.
func (a attrs) HasAttr(name string) bool {
	return a.Attr(name) != nil
}
