package netcdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
)

// ErrUnknownVariable is returned when a name is not declared in the schema.
var ErrUnknownVariable = errors.New("unknown variable")

// ErrClosed is returned by operations on a closed container.
var ErrClosed = errors.New("container closed")

// Container is an open NetCDF file. It is not safe for concurrent use.
type Container struct {
	path   string
	schema Schema
	data   map[string]any
	dirty  bool
	closed bool
}

// Create writes a new container at path, replacing any existing file.
// Variables are initialized from s.Data or filled.
func Create(path string, s Schema) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	data := make(map[string]any, len(s.Variables))
	for _, v := range s.Variables {
		n := s.Size(v)
		values, ok := s.Data[v.Name]
		if !ok {
			data[v.Name] = filled(v.Type, n, fillValue(v))
			continue
		}
		if len(values) == 1 && n != 1 {
			data[v.Name] = filled(v.Type, n, values[0])
			continue
		}
		typed, err := fromFloat64(v.Type, values)
		if err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
		data[v.Name] = typed
	}

	return write(path, s.clone(), data)
}

// Open loads the container at path into memory.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer f.Close()

	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	s, err := schemaFromHeader(nc.Header)
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	data := make(map[string]any, len(s.Variables))
	for _, v := range s.Variables {
		if v.Type == Char {
			return nil, fmt.Errorf("variable %q: char variables are not supported", v.Name)
		}
		r := nc.Reader(v.Name, nil, nil)
		buf := r.Zero(s.Size(v))
		n, err := r.Read(buf)
		if err := transferred(n, s.Size(v), err); err != nil {
			return nil, fmt.Errorf("read variable %q: %w", v.Name, err)
		}
		data[v.Name] = buf
	}

	return &Container{path: path, schema: s, data: data}, nil
}

// Update opens the container at path, calls fn and always closes it. A
// failed Close is reported when fn succeeded.
func Update(path string, fn func(*Container) error) (err error) {
	c, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// Path returns the file the container was opened from.
func (c *Container) Path() string { return c.path }

// Schema returns a copy of the current declarations.
func (c *Container) Schema() Schema { return c.schema.clone() }

// HasVariable reports whether name is declared.
func (c *Container) HasVariable(name string) bool {
	_, ok := c.schema.Variable(name)
	return ok
}

// Shape returns the dimension lengths of a variable.
func (c *Container) Shape(name string) ([]int, error) {
	v, ok := c.schema.Variable(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownVariable, name)
	}
	return c.schema.Shape(v), nil
}

// ReadFloat64 returns all values of a numeric variable in row-major order.
func (c *Container) ReadFloat64(name string) ([]float64, error) {
	if _, ok := c.schema.Variable(name); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownVariable, name)
	}
	return toFloat64(c.data[name]), nil
}

// WriteFloat64 stores values into a variable starting at the flat row-major
// offset begin.
func (c *Container) WriteFloat64(name string, begin int, values []float64) error {
	if c.closed {
		return ErrClosed
	}
	v, ok := c.schema.Variable(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownVariable, name)
	}
	size := c.schema.Size(v)
	if begin < 0 || begin+len(values) > size {
		return fmt.Errorf("write %q: range [%d, %d) outside %d elements", name, begin, begin+len(values), size)
	}
	typed, err := fromFloat64(v.Type, values)
	if err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}

	switch dst := c.data[name].(type) {
	case []uint8:
		copy(dst[begin:], typed.([]uint8))
	case []int16:
		copy(dst[begin:], typed.([]int16))
	case []int32:
		copy(dst[begin:], typed.([]int32))
	case []float32:
		copy(dst[begin:], typed.([]float32))
	case []float64:
		copy(dst[begin:], typed.([]float64))
	default:
		return fmt.Errorf("write %q: unsupported storage %T", name, dst)
	}
	c.dirty = true
	return nil
}

// Attribute returns an attribute of variable, or a global attribute when
// variable is empty.
func (c *Container) Attribute(variable, name string) (any, bool) {
	attrs, err := c.attributes(variable)
	if err != nil {
		return nil, false
	}
	for _, a := range *attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// SetAttribute adds or overwrites an attribute. variable "" addresses the
// global attributes.
func (c *Container) SetAttribute(variable, name string, value any) error {
	if c.closed {
		return ErrClosed
	}
	normalized, err := NormalizeAttribute(value)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	attrs, err := c.attributes(variable)
	if err != nil {
		return err
	}

	c.dirty = true
	for i := range *attrs {
		if (*attrs)[i].Name == name {
			(*attrs)[i].Value = normalized
			return nil
		}
	}
	*attrs = append(*attrs, Attribute{Name: name, Value: normalized})
	return nil
}

func (c *Container) attributes(variable string) (*[]Attribute, error) {
	if variable == "" {
		return &c.schema.Attributes, nil
	}
	for i := range c.schema.Variables {
		if c.schema.Variables[i].Name == variable {
			return &c.schema.Variables[i].Attributes, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownVariable, variable)
}

// Close writes pending changes back to disk. It is safe to call more than
// once.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if !c.dirty {
		return nil
	}
	return write(c.path, c.schema, c.data)
}

// write replaces path atomically with a container holding s and data.
func write(path string, s Schema, data map[string]any) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	nc, err := cdf.Create(tmp, s.header())
	if err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	for _, v := range s.Variables {
		end := s.Shape(v)
		w := nc.Writer(v.Name, make([]int, len(end)), end)
		n, werr := w.Write(data[v.Name])
		if err = transferred(n, s.Size(v), werr); err != nil {
			return fmt.Errorf("write variable %q: %w", v.Name, err)
		}
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync container: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close container: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace container: %w", err)
	}
	return nil
}

// transferred filters the error of a strided read or write of size
// elements. cdf reports io.EOF when a transfer ends exactly at the end of the
// stride, which is success once everything was moved.
func transferred(n, size int, err error) error {
	if errors.Is(err, io.EOF) && n >= size {
		return nil
	}
	return err
}

// fillValue returns the variable's _FillValue attribute or the type default.
func fillValue(v Variable) float64 {
	for _, a := range v.Attributes {
		if a.Name != "_FillValue" {
			continue
		}
		normalized, err := NormalizeAttribute(a.Value)
		if err != nil {
			break
		}
		if values := toFloat64(normalized); len(values) > 0 {
			return values[0]
		}
	}
	return DefaultFill(v.Type)
}
