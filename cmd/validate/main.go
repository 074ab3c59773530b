// Command validate checks CDL descriptor templates and produced granules.
//
// Template checks render the template for every hemisphere and verify brace
// balance, the closing brace, the placeholder inventory and that the result
// parses as a valid classic schema. Granule checks verify dimensions,
// coordinate ordering and extent, the ICECON value range and the crs
// attributes.
//
// Usage:
//
//	go run ./cmd/validate -template templates/custom.cdl
//	go run ./cmd/validate /share/apps/nsidc0803/2024.01.05/*.nc
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/cdl"
	"github.com/couchcryptid/seaice-etl/internal/domain"
	"github.com/couchcryptid/seaice-etl/internal/netcdf"
	"github.com/couchcryptid/seaice-etl/internal/schema"
	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// maxIcecon is the largest legal value: the pole-hole sentinel after scaling.
const maxIcecon = domain.PoleHoleValue*domain.ScaleFactor + 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	notes  []string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	templatePath := flag.String("template", "", "CDL template to check")
	embedded := flag.Bool("embedded", false, "check the built-in NSIDC-0803 template")
	flag.Parse()

	if *templatePath == "" && !*embedded && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	if code := run(*templatePath, *embedded, flag.Args()); code != 0 {
		os.Exit(code)
	}
}

func run(templatePath string, embedded bool, granules []string) int {
	fmt.Println("=== Sea Ice Granule Validation ===")
	fmt.Println()

	var phases []*phase
	if embedded {
		phases = append(phases, checkTemplate("embedded template", schema.DefaultTemplate))
	}
	if templatePath != "" {
		text, err := schema.LoadTemplate(templatePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		phases = append(phases, checkTemplate("template "+templatePath, text))
	}
	for _, path := range granules {
		phases = append(phases, checkGranule(path))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-60s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Printf("      %s\n", n)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Templates ──

// sampleDate is the date templates are rendered for.
var sampleDate = time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)

func checkTemplate(name, text string) *phase {
	p := &phase{name: name}

	names := schema.Placeholders(text)
	p.notef("placeholders: %d (%s)", len(names), strings.Join(names, ", "))

	for _, h := range domain.Hemispheres() {
		spec, err := domain.SpecFor(h)
		if err != nil {
			p.errorf("%s: %v", h, err)
			continue
		}
		subs := domain.NewSubstitutions(sampleDate, spec, domain.ProductInfo{
			Version:    domain.DefaultVersion,
			Repository: domain.DefaultRepoURL,
		})

		rendered, err := schema.RenderStrict(text, subs)
		if err != nil {
			p.errorf("%s: %v", h, err)
			rendered = schema.Render(text, subs)
		}

		if depth := braceDepth(rendered); depth != 0 {
			p.errorf("%s: unbalanced braces (depth %d at end of file)", h, depth)
		}
		if !strings.HasSuffix(strings.TrimSpace(rendered), "}") {
			p.errorf("%s: descriptor does not end with a closing brace", h)
		}

		file, err := cdl.Parse(rendered)
		if err == nil {
			err = file.Schema.Validate()
		}
		if err != nil {
			p.errorf("%s: %v", h, err)
			continue
		}
		p.notef("%s: %d dimensions, %d variables, %d global attributes",
			h, len(file.Schema.Dimensions), len(file.Schema.Variables), len(file.Schema.Attributes))
	}
	return p
}

// braceDepth returns the count of '{' minus '}' outside quoted strings and
// comments.
func braceDepth(text string) int {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case c == '{':
			depth++
		case c == '}':
			depth--
		}
	}
	return depth
}

// ── Granules ──

func checkGranule(path string) *phase {
	p := &phase{name: "granule " + path}

	c, err := netcdf.Open(path)
	if err != nil {
		p.errorf("open: %v", err)
		return p
	}
	defer c.Close()

	spec, ok := detectGrid(c)
	if !ok {
		p.errorf("x/y dimensions match no known hemisphere grid")
		return p
	}
	p.notef("grid: %s (%dx%d)", spec.Hemisphere, spec.Width, spec.Height)

	for _, name := range []string{"time", "x", "y", "crs", "ICECON"} {
		if !c.HasVariable(name) {
			p.errorf("variable %q missing", name)
		}
	}
	if !p.passed() {
		return p
	}

	checkCoordinates(p, c, spec)
	checkIcecon(p, c, spec)
	checkCRS(p, c, spec)

	if got, _ := c.Attribute("", "geospatial_bounds_crs"); got != spec.BoundsCRS() {
		p.errorf("geospatial_bounds_crs = %v, want %s", got, spec.BoundsCRS())
	}
	return p
}

func detectGrid(c *netcdf.Container) (domain.HemisphereGridSpec, bool) {
	s := c.Schema()
	width, okX := s.Dimension("x")
	height, okY := s.Dimension("y")
	if !okX || !okY {
		return domain.HemisphereGridSpec{}, false
	}
	for _, h := range domain.Hemispheres() {
		spec, err := domain.SpecFor(h)
		if err == nil && spec.Width == width && spec.Height == height {
			return spec, true
		}
	}
	return domain.HemisphereGridSpec{}, false
}

func checkCoordinates(p *phase, c *netcdf.Container, spec domain.HemisphereGridSpec) {
	x, errX := c.ReadFloat64("x")
	y, errY := c.ReadFloat64("y")
	if errX != nil || errY != nil {
		p.errorf("read coordinates: %v", errors.Join(errX, errY))
		return
	}

	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			p.errorf("x not strictly increasing at index %d", i)
			break
		}
	}
	for j := 1; j < len(y); j++ {
		if y[j] >= y[j-1] {
			p.errorf("y not strictly decreasing at index %d", j)
			break
		}
	}
	if math.Abs(x[0]-spec.Transform.X(0)) > 1e-6 || math.Abs(y[0]-spec.Transform.Y(0)) > 1e-6 {
		p.errorf("first cell center (%v, %v), want (%v, %v)", x[0], y[0], spec.Transform.X(0), spec.Transform.Y(0))
	}

	corners := []geom.Point{
		{X: x[0], Y: y[0]},
		{X: x[len(x)-1], Y: y[0]},
		{X: x[len(x)-1], Y: y[len(y)-1]},
		{X: x[0], Y: y[len(y)-1]},
	}
	for _, pt := range corners {
		if pt.Within(spec.Bounds) == geom.Outside {
			p.errorf("cell center (%v, %v) lies outside the grid bounds", pt.X, pt.Y)
		}
	}

	tm, err := c.ReadFloat64("time")
	if err != nil || len(tm) != 1 || math.IsNaN(tm[0]) || math.IsInf(tm[0], 0) {
		p.errorf("time: want one finite value, got %v (%v)", tm, err)
	}
}

func checkIcecon(p *phase, c *netcdf.Container, spec domain.HemisphereGridSpec) {
	values, err := c.ReadFloat64("ICECON")
	if err != nil {
		p.errorf("read ICECON: %v", err)
		return
	}
	if len(values) != spec.Cells() {
		p.errorf("ICECON has %d values, want %d", len(values), spec.Cells())
		return
	}

	fill := netcdf.DefaultFill(netcdf.Float)
	if v, ok := c.Attribute("ICECON", "_FillValue"); ok {
		if f, ok := v.([]float32); ok && len(f) == 1 {
			fill = float64(f[0])
		}
	}

	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if v != fill {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		p.errorf("ICECON holds only fill values")
		return
	}

	lo, hi := floats.Min(valid), floats.Max(valid)
	p.notef("ICECON: %d valid cells, range [%g, %g]", len(valid), lo, hi)
	if lo < 0 || hi > maxIcecon {
		p.errorf("ICECON range [%g, %g] outside [0, %g]", lo, hi, domain.PoleHoleValue*domain.ScaleFactor)
	}
}

func checkCRS(p *phase, c *netcdf.Container, spec domain.HemisphereGridSpec) {
	for _, attr := range spec.CRSAttributes() {
		if _, ok := c.Attribute("crs", attr.Name); !ok {
			p.errorf("crs attribute %q missing", attr.Name)
		}
	}
	if got, _ := c.Attribute("crs", "srid"); got != fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", spec.EPSG) {
		p.errorf("crs:srid = %v, want EPSG %d", got, spec.EPSG)
	}
}
