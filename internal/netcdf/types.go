package netcdf

import (
	"fmt"
	"math"
)

// Type is a NetCDF classic external data type.
type Type int

const (
	Byte Type = iota + 1
	Char
	Short
	Int
	Float
	Double
)

var typeNames = map[Type]string{
	Byte:   "byte",
	Char:   "char",
	Short:  "short",
	Int:    "int",
	Float:  "float",
	Double: "double",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Default fill values from the NetCDF users guide.
const (
	FillByte   = -127
	FillShort  = -32767
	FillInt    = -2147483647
	FillFloat  = float32(9.9692099683868690e+36)
	FillDouble = 9.9692099683868690e+36
)

// sample returns the single-element slice cdf uses to infer a variable type.
func (t Type) sample() any {
	switch t {
	case Byte:
		return []uint8{0}
	case Short:
		return []int16{0}
	case Int:
		return []int32{0}
	case Float:
		return []float32{0}
	case Double:
		return []float64{0}
	}
	return nil
}

func typeOf(zero any) (Type, error) {
	switch zero.(type) {
	case []uint8:
		return Byte, nil
	case string:
		return Char, nil
	case []int16:
		return Short, nil
	case []int32:
		return Int, nil
	case []float32:
		return Float, nil
	case []float64:
		return Double, nil
	}
	return 0, fmt.Errorf("unsupported cdf value %T", zero)
}

// filled returns n copies of fill converted to t.
func filled(t Type, n int, fill float64) any {
	switch t {
	case Byte:
		out := make([]uint8, n)
		for i := range out {
			out[i] = uint8(int8(fill))
		}
		return out
	case Short:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(fill)
		}
		return out
	case Int:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(fill)
		}
		return out
	case Float:
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(fill)
		}
		return out
	case Double:
		out := make([]float64, n)
		for i := range out {
			out[i] = fill
		}
		return out
	}
	return nil
}

// DefaultFill returns the NetCDF default fill value for t.
func DefaultFill(t Type) float64 {
	switch t {
	case Byte:
		return FillByte
	case Short:
		return FillShort
	case Int:
		return FillInt
	case Float:
		return float64(FillFloat)
	}
	return FillDouble
}

// fromFloat64 converts values into a slice of t's Go representation.
func fromFloat64(t Type, values []float64) (any, error) {
	switch t {
	case Byte:
		out := make([]uint8, len(values))
		for i, v := range values {
			if v < math.MinInt8 || v > math.MaxInt8 {
				return nil, fmt.Errorf("value %v out of range for byte", v)
			}
			out[i] = uint8(int8(v))
		}
		return out, nil
	case Short:
		out := make([]int16, len(values))
		for i, v := range values {
			if v < math.MinInt16 || v > math.MaxInt16 {
				return nil, fmt.Errorf("value %v out of range for short", v)
			}
			out[i] = int16(v)
		}
		return out, nil
	case Int:
		out := make([]int32, len(values))
		for i, v := range values {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("value %v out of range for int", v)
			}
			out[i] = int32(v)
		}
		return out, nil
	case Float:
		out := make([]float32, len(values))
		for i, v := range values {
			out[i] = float32(v)
		}
		return out, nil
	case Double:
		return append([]float64(nil), values...), nil
	}
	return nil, fmt.Errorf("cannot store numbers in %s variable", t)
}

func toFloat64(data any) []float64 {
	switch d := data.(type) {
	case []uint8:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(int8(v))
		}
		return out
	case []int16:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out
	case []int32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out
	case []float32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out
	case []float64:
		return append([]float64(nil), d...)
	}
	return nil
}

// NormalizeAttribute converts an attribute value into one of the forms
// stored in a container: string, []uint8, []int16, []int32, []float32 or
// []float64. Go scalars become one-element slices; int and float64 scalars
// become int32 and float64.
func NormalizeAttribute(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []uint8, []int16, []int32, []float32, []float64:
		return v, nil
	case int8:
		return []uint8{uint8(v)}, nil
	case uint8:
		return []uint8{v}, nil
	case int16:
		return []int16{v}, nil
	case int32:
		return []int32{v}, nil
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("attribute value %d out of range for int", v)
		}
		return []int32{int32(v)}, nil
	case []int:
		out := make([]int32, len(v))
		for i, n := range v {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, fmt.Errorf("attribute value %d out of range for int", n)
			}
			out[i] = int32(n)
		}
		return out, nil
	case float32:
		return []float32{v}, nil
	case float64:
		return []float64{v}, nil
	}
	return nil, fmt.Errorf("unsupported attribute type %T", value)
}
