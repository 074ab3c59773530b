package cdl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/seaice-etl/internal/netcdf"
)

// literal is one constant from an attribute or data list. Strings have kind
// Char.
type literal struct {
	kind   netcdf.Type
	number float64
	text   string
}

// parseNumber interprets a CDL numeric constant. The suffix selects the
// type: b byte, s short, l int, f float, d double. Without a suffix a
// decimal point or exponent means double and anything else int.
func parseNumber(text string) (literal, error) {
	lower := strings.ToLower(text)
	unsigned := strings.TrimLeft(lower, "+-")
	negative := strings.HasPrefix(lower, "-")

	switch strings.TrimSuffix(unsigned, "f") {
	case "nan":
		return literal{kind: floatKind(unsigned), number: math.NaN()}, nil
	case "infinity", "inf":
		sign := 1
		if negative {
			sign = -1
		}
		return literal{kind: floatKind(unsigned), number: math.Inf(sign)}, nil
	}

	kind := netcdf.Int
	digits := lower
	switch {
	case strings.ContainsAny(lower, "u"):
		return literal{}, fmt.Errorf("unsigned constant %q requires the netCDF-4 format", text)
	case strings.HasSuffix(lower, "ll"):
		return literal{}, fmt.Errorf("64-bit constant %q requires the netCDF-4 format", text)
	case strings.HasSuffix(lower, "b"):
		kind, digits = netcdf.Byte, strings.TrimSuffix(lower, "b")
	case strings.HasSuffix(lower, "s"):
		kind, digits = netcdf.Short, strings.TrimSuffix(lower, "s")
	case strings.HasSuffix(lower, "l"):
		kind, digits = netcdf.Int, strings.TrimSuffix(lower, "l")
	case strings.HasSuffix(lower, "f"):
		kind, digits = netcdf.Float, strings.TrimSuffix(lower, "f")
	case strings.HasSuffix(lower, "d"):
		kind, digits = netcdf.Double, strings.TrimSuffix(lower, "d")
	case strings.ContainsAny(lower, ".e"):
		kind = netcdf.Double
	}

	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return literal{}, fmt.Errorf("invalid number %q", text)
	}
	if (kind == netcdf.Byte || kind == netcdf.Short || kind == netcdf.Int) && v != math.Trunc(v) {
		return literal{}, fmt.Errorf("invalid %s constant %q", kind, text)
	}
	return literal{kind: kind, number: v}, nil
}

func floatKind(s string) netcdf.Type {
	if strings.HasSuffix(s, "f") {
		return netcdf.Float
	}
	return netcdf.Double
}

// attributeValue converts a literal list into a typed attribute value.
// Strings are concatenated. Numeric lists take the type of their first
// element, widened to double when an integer list contains a real. A
// _FillValue takes the type of its variable.
func attributeValue(lits []literal, name string, varType netcdf.Type) (any, error) {
	if lits[0].kind == netcdf.Char {
		var b strings.Builder
		for _, l := range lits {
			if l.kind != netcdf.Char {
				return nil, fmt.Errorf("mixed string and numeric values")
			}
			b.WriteString(l.text)
		}
		return b.String(), nil
	}

	kind := lits[0].kind
	values := make([]float64, len(lits))
	for i, l := range lits {
		if l.kind == netcdf.Char {
			return nil, fmt.Errorf("mixed string and numeric values")
		}
		if isInteger(kind) && !isInteger(l.kind) {
			kind = netcdf.Double
		}
		values[i] = l.number
	}
	if name == "_FillValue" && varType != 0 && varType != netcdf.Char {
		kind = varType
	}

	switch kind {
	case netcdf.Byte:
		out := make([]uint8, len(values))
		for i, v := range values {
			if v < math.MinInt8 || v > math.MaxInt8 {
				return nil, fmt.Errorf("value %v out of range for byte", v)
			}
			out[i] = uint8(int8(v))
		}
		return out, nil
	case netcdf.Short:
		out := make([]int16, len(values))
		for i, v := range values {
			if v < math.MinInt16 || v > math.MaxInt16 {
				return nil, fmt.Errorf("value %v out of range for short", v)
			}
			out[i] = int16(v)
		}
		return out, nil
	case netcdf.Int:
		out := make([]int32, len(values))
		for i, v := range values {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("value %v out of range for int", v)
			}
			out[i] = int32(v)
		}
		return out, nil
	case netcdf.Float:
		out := make([]float32, len(values))
		for i, v := range values {
			out[i] = float32(v)
		}
		return out, nil
	}
	return values, nil
}

func isInteger(t netcdf.Type) bool { return t == netcdf.Byte || t == netcdf.Short || t == netcdf.Int }
