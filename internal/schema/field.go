// Package schema describes the expected fields of a form as a read-only tree.
package schema

import (
	"fmt"
	"strings"
)

// Kind is the type of a schema field.
type Kind string

const (
	Structure Kind = "structure"
	Repeat    Kind = "repeat"
	Int       Kind = "int"
	Decimal   Kind = "decimal"
	GeoPoint  Kind = "geopoint"
	Text      Kind = "text"
	Binary    Kind = "binary" // attachment file name; rendered like Text
)

// IsContainer reports whether fields of this kind hold children.
func (k Kind) IsContainer() bool {
	return k == Structure || k == Repeat
}

// Field is one node of the schema tree. Fields are immutable once built and
// safe to share between concurrent conversions.
type Field struct {
	Name string
	Kind Kind

	children map[string]*Field
	order    []*Field
}

// New creates a field with the given children, in order. It panics on a
// duplicate child name or on children under a scalar kind; use Builder for
// configuration input.
func New(name string, kind Kind, children ...*Field) *Field {
	f := &Field{Name: name, Kind: kind}
	for _, child := range children {
		if err := f.add(child); err != nil {
			panic(err)
		}
	}
	return f
}

func (f *Field) add(child *Field) error {
	if !f.Kind.IsContainer() {
		return fmt.Errorf("%s field %q cannot have children", f.Kind, f.Name)
	}
	if f.children == nil {
		f.children = make(map[string]*Field)
	}
	if _, exists := f.children[child.Name]; exists {
		return fmt.Errorf("duplicate field %q under %q", child.Name, f.Name)
	}
	f.children[child.Name] = child
	f.order = append(f.order, child)
	return nil
}

// Child returns the direct child with the given name, or nil.
func (f *Field) Child(name string) *Field {
	if f == nil {
		return nil
	}
	return f.children[name]
}

// Children returns the direct children in declaration order.
func (f *Field) Children() []*Field {
	return f.order
}

// Tables returns every table this schema can be projected into: the root
// table followed by one table per repeat, in declaration pre-order.
// Table names are dot-joined field paths, e.g. "Submissions.household.member".
func (f *Field) Tables() []string {
	tables := []string{f.Name}
	var walk func(prefix string, field *Field)
	walk = func(prefix string, field *Field) {
		for _, child := range field.order {
			path := prefix + "." + child.Name
			if child.Kind == Repeat {
				tables = append(tables, path)
			}
			walk(path, child)
		}
	}
	walk(f.Name, f)
	return tables
}

// Lookup resolves a table name to its field: the root itself or a repeat.
func (f *Field) Lookup(table string) (*Field, error) {
	parts := strings.Split(table, ".")
	if parts[0] != f.Name {
		return nil, fmt.Errorf("table %q is not under root %q", table, f.Name)
	}

	current := f
	for _, part := range parts[1:] {
		next := current.Child(part)
		if next == nil {
			return nil, fmt.Errorf("table %q: no field %q under %q", table, part, current.Name)
		}
		current = next
	}

	if current != f && current.Kind != Repeat {
		return nil, fmt.Errorf("table %q: %s field %q is not a table", table, current.Kind, current.Name)
	}
	return current, nil
}

// Fields calls fn for every field below f in pre-order with its dotted path.
func (f *Field) Fields(fn func(path string, field *Field)) {
	var walk func(prefix string, field *Field)
	walk = func(prefix string, field *Field) {
		for _, child := range field.order {
			path := prefix + "." + child.Name
			fn(path, child)
			walk(path, child)
		}
	}
	walk(f.Name, f)
}
