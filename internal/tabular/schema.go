package tabular

import (
	"fmt"

	"github.com/Guliveer/vitalis/monitor/internal/monitor"
)

// DerivedTag identifies a synthesized field. DerivedNone marks a raw column.
type DerivedTag int

const (
	DerivedNone DerivedTag = iota
	DerivedErrors
	DerivedUtilization
)

func (t DerivedTag) String() string {
	switch t {
	case DerivedErrors:
		return "errors"
	case DerivedUtilization:
		return "utilization"
	default:
		return "none"
	}
}

// Field is one entry of a field registry. Column fields index into a Row;
// derived fields sum the row columns listed in Sum.
type Field struct {
	Name    string
	Column  int
	Derived DerivedTag
	Sum     []int
}

// IsDerived reports whether the field is computed rather than copied.
func (f Field) IsDerived() bool { return f.Derived != DerivedNone }

// Column declares a raw field read from row index idx.
func Column(name string, idx int) Field {
	return Field{Name: name, Column: idx}
}

// Derived declares a field computed as the sum of the given row indexes.
func Derived(name string, tag DerivedTag, cols ...int) Field {
	return Field{Name: name, Derived: tag, Sum: cols}
}

// Schema is an immutable field registry for one collector type.
type Schema struct {
	name   string
	fields map[string]Field
	order  []string
	width  int
}

// NewSchema builds a registry from fields. Names must be unique and every
// referenced column must exist in a row of the given width.
func NewSchema(name string, width int, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: make(map[string]Field, len(fields)),
		order:  make([]string, 0, len(fields)),
		width:  width,
	}
	for _, f := range fields {
		if _, dup := s.fields[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", name, f.Name)
		}
		switch f.Derived {
		case DerivedNone:
			if f.Column < 0 || f.Column >= width {
				return nil, fmt.Errorf("schema %s: field %q column %d out of range", name, f.Name, f.Column)
			}
		case DerivedErrors, DerivedUtilization:
			if len(f.Sum) < 2 {
				return nil, fmt.Errorf("schema %s: derived field %q needs at least two columns", name, f.Name)
			}
			for _, c := range f.Sum {
				if c < 0 || c >= width {
					return nil, fmt.Errorf("schema %s: derived field %q column %d out of range", name, f.Name, c)
				}
			}
			f.Sum = append([]int(nil), f.Sum...)
		default:
			return nil, fmt.Errorf("schema %s: field %q has unknown derived tag %d", name, f.Name, f.Derived)
		}
		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}
	return s, nil
}

// MustSchema is NewSchema for package-level registries.
func MustSchema(name string, width int, fields ...Field) *Schema {
	s, err := NewSchema(name, width, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.order...)
}

// Width is the number of tokens in a row of this schema.
func (s *Schema) Width() int { return s.width }

// Lookup resolves a single field name.
func (s *Schema) Lookup(name string) (Field, error) {
	f, ok := s.fields[name]
	if !ok {
		return Field{}, &monitor.FieldError{Monitor: s.name, Field: name}
	}
	return f, nil
}

// Resolve maps an ordered list of names to a Projection, failing on the
// first unknown name. Duplicates are kept.
func (s *Schema) Resolve(names []string) (Projection, error) {
	p := make(Projection, 0, len(names))
	for _, n := range names {
		f, err := s.Lookup(n)
		if err != nil {
			return nil, err
		}
		p = append(p, f)
	}
	return p, nil
}
