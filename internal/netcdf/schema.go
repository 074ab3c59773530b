package netcdf

import (
	"errors"
	"fmt"

	"github.com/ctessum/cdf"
)

// Dimension is a fixed-length named axis.
type Dimension struct {
	Name   string
	Length int
}

// Attribute is a named value attached to a variable or to the file.
// Value is normalized by NormalizeAttribute.
type Attribute struct {
	Name  string
	Value any
}

// Variable declares a typed array over named dimensions. A variable with no
// dimensions is a scalar.
type Variable struct {
	Name       string
	Type       Type
	Dimensions []string
	Attributes []Attribute
}

// Schema is the structure of a container: dimensions, variables, global
// attributes and optional initial data.
type Schema struct {
	Dimensions []Dimension
	Variables  []Variable
	Attributes []Attribute

	// Data holds initial values keyed by variable name. Variables without an
	// entry are filled with their _FillValue or the type default.
	Data map[string][]float64
}

// Variable returns the declaration of name.
func (s Schema) Variable(name string) (Variable, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Dimension returns the length of the named dimension.
func (s Schema) Dimension(name string) (int, bool) {
	for _, d := range s.Dimensions {
		if d.Name == name {
			return d.Length, true
		}
	}
	return 0, false
}

// Shape returns the dimension lengths of a variable.
func (s Schema) Shape(v Variable) []int {
	shape := make([]int, len(v.Dimensions))
	for i, name := range v.Dimensions {
		shape[i], _ = s.Dimension(name)
	}
	return shape
}

// Size returns the element count of a variable.
func (s Schema) Size(v Variable) int {
	n := 1
	for _, l := range s.Shape(v) {
		n *= l
	}
	return n
}

// Validate checks that the schema can be written as a classic container.
func (s Schema) Validate() error {
	var errs []error

	dims := map[string]bool{}
	for _, d := range s.Dimensions {
		switch {
		case d.Name == "":
			errs = append(errs, errors.New("dimension with empty name"))
		case dims[d.Name]:
			errs = append(errs, fmt.Errorf("duplicate dimension %q", d.Name))
		case d.Length <= 0:
			errs = append(errs, fmt.Errorf("dimension %q: length must be positive, got %d", d.Name, d.Length))
		}
		dims[d.Name] = true
	}

	errs = append(errs, validateAttributes("global", s.Attributes)...)

	vars := map[string]Variable{}
	for _, v := range s.Variables {
		if v.Name == "" {
			errs = append(errs, errors.New("variable with empty name"))
			continue
		}
		if _, dup := vars[v.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate variable %q", v.Name))
			continue
		}
		vars[v.Name] = v
		if v.Type.sample() == nil {
			errs = append(errs, fmt.Errorf("variable %q: unsupported type %s", v.Name, v.Type))
		}
		for _, d := range v.Dimensions {
			if !dims[d] {
				errs = append(errs, fmt.Errorf("variable %q: undefined dimension %q", v.Name, d))
			}
		}
		errs = append(errs, validateAttributes("variable "+v.Name, v.Attributes)...)
	}

	for name, values := range s.Data {
		v, ok := vars[name]
		if !ok {
			errs = append(errs, fmt.Errorf("data for undeclared variable %q", name))
			continue
		}
		if want := s.Size(v); len(values) != want && len(values) != 1 {
			errs = append(errs, fmt.Errorf("variable %q: %d data values for %d elements", name, len(values), want))
		}
	}

	return errors.Join(errs...)
}

func validateAttributes(owner string, attrs []Attribute) []error {
	var errs []error
	seen := map[string]bool{}
	for _, a := range attrs {
		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate attribute %q", owner, a.Name))
		}
		seen[a.Name] = true
		if _, err := NormalizeAttribute(a.Value); err != nil {
			errs = append(errs, fmt.Errorf("%s: attribute %q: %w", owner, a.Name, err))
		}
	}
	return errs
}

// header builds a defined cdf header. The schema must be valid.
func (s Schema) header() *cdf.Header {
	names := make([]string, len(s.Dimensions))
	lengths := make([]int, len(s.Dimensions))
	for i, d := range s.Dimensions {
		names[i], lengths[i] = d.Name, d.Length
	}

	h := cdf.NewHeader(names, lengths)
	for _, a := range s.Attributes {
		value, _ := NormalizeAttribute(a.Value)
		h.AddAttribute("", a.Name, value)
	}
	for _, v := range s.Variables {
		h.AddVariable(v.Name, v.Dimensions, v.Type.sample())
		for _, a := range v.Attributes {
			value, _ := NormalizeAttribute(a.Value)
			h.AddAttribute(v.Name, a.Name, value)
		}
	}
	h.Define()
	return h
}

// schemaFromHeader reads the structure of an existing file.
func schemaFromHeader(h *cdf.Header) (Schema, error) {
	var s Schema

	names := h.Dimensions("")
	lengths := h.Lengths("")
	if len(names) != len(lengths) {
		return Schema{}, fmt.Errorf("header lists %d dimensions and %d lengths", len(names), len(lengths))
	}
	for i, name := range names {
		if lengths[i] == 0 {
			return Schema{}, fmt.Errorf("dimension %q: unlimited dimensions are not supported", name)
		}
		s.Dimensions = append(s.Dimensions, Dimension{Name: name, Length: lengths[i]})
	}

	s.Attributes = attributesOf(h, "")
	for _, name := range h.Variables() {
		t, err := typeOf(h.ZeroValue(name, 0))
		if err != nil {
			return Schema{}, fmt.Errorf("variable %q: %w", name, err)
		}
		s.Variables = append(s.Variables, Variable{
			Name:       name,
			Type:       t,
			Dimensions: h.Dimensions(name),
			Attributes: attributesOf(h, name),
		})
	}
	return s, nil
}

func attributesOf(h *cdf.Header, variable string) []Attribute {
	var attrs []Attribute
	for _, name := range h.Attributes(variable) {
		attrs = append(attrs, Attribute{Name: name, Value: h.GetAttribute(variable, name)})
	}
	return attrs
}

// clone returns a deep copy of the declarations. Data is not copied.
func (s Schema) clone() Schema {
	out := Schema{
		Dimensions: append([]Dimension(nil), s.Dimensions...),
		Attributes: append([]Attribute(nil), s.Attributes...),
	}
	for _, v := range s.Variables {
		v.Dimensions = append([]string(nil), v.Dimensions...)
		v.Attributes = append([]Attribute(nil), v.Attributes...)
		out.Variables = append(out.Variables, v)
	}
	return out
}
