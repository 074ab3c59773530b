// Package schema renders CDL descriptor templates and compiles them into
// empty NetCDF containers.
package schema

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/seaice-etl/internal/domain"
)

// placeholder matches "$$", "$name" and "${name}". Names follow the usual
// identifier rules.
var placeholder = regexp.MustCompile(`\$(?:(\$)|([_a-zA-Z][_a-zA-Z0-9]*)|\{([_a-zA-Z][_a-zA-Z0-9]*)\})`)

// UnresolvedPlaceholderError lists placeholders left after strict rendering.
type UnresolvedPlaceholderError struct {
	Names []string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("unresolved placeholders: $%s", strings.Join(e.Names, ", $"))
}

func (e *UnresolvedPlaceholderError) Unwrap() error { return domain.ErrMissingVariable }

// Render replaces every placeholder whose name is in subs. Unknown names are
// left verbatim and "$$" becomes "$".
func Render(template string, subs domain.Substitutions) string {
	out, _ := render(template, subs)
	return out
}

// RenderStrict is Render but fails when any placeholder has no value.
func RenderStrict(template string, subs domain.Substitutions) (string, error) {
	out, missing := render(template, subs)
	if len(missing) > 0 {
		return "", &UnresolvedPlaceholderError{Names: missing}
	}
	return out, nil
}

func render(template string, subs domain.Substitutions) (string, []string) {
	var missing []string
	seen := map[string]bool{}

	out := placeholder.ReplaceAllStringFunc(template, func(match string) string {
		if match == "$$" {
			return "$"
		}
		name := strings.Trim(match, "${}")
		if value, ok := subs[name]; ok {
			return formatValue(value)
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})
	return out, missing
}

// Placeholders returns the distinct names referenced by template in order of
// first use.
func Placeholders(template string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		name := m[2] + m[3]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// formatValue stringifies a substitution. Integral floats keep a trailing
// ".0" so that they stay real-valued in CDL.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
