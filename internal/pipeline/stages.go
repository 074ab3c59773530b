package pipeline

import (
	"fmt"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/domain"
	"github.com/couchcryptid/seaice-etl/internal/netcdf"
)

// Variable names every descriptor must declare.
const (
	VarTime   = "time"
	VarX      = "x"
	VarY      = "y"
	VarCRS    = "crs"
	VarIcecon = "ICECON"
)

func requireVariables(c *netcdf.Container, names ...string) error {
	for _, name := range names {
		if !c.HasVariable(name) {
			return fmt.Errorf("%w: container %s does not declare %q", domain.ErrMissingVariable, c.Path(), name)
		}
	}
	return nil
}

func requireShape(c *netcdf.Container, name string, want ...int) error {
	got, err := c.Shape(name)
	if err != nil {
		return err
	}
	if len(got) != len(want) {
		return fmt.Errorf("variable %q has shape %v, want %v", name, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("variable %q has shape %v, want %v", name, got, want)
		}
	}
	return nil
}

// InjectCoordinates writes the time value and the half-pixel-centered x and
// y coordinate arrays.
func InjectCoordinates(c *netcdf.Container, date time.Time, spec domain.HemisphereGridSpec) error {
	if err := requireVariables(c, VarTime, VarX, VarY); err != nil {
		return err
	}
	if err := requireShape(c, VarX, spec.Width); err != nil {
		return err
	}
	if err := requireShape(c, VarY, spec.Height); err != nil {
		return err
	}

	units, ok := c.Attribute(VarTime, "units")
	unitsText, isText := units.(string)
	if !ok || !isText {
		return fmt.Errorf("variable %q has no units attribute", VarTime)
	}
	calendar, _ := c.Attribute(VarTime, "calendar")
	calendarText, _ := calendar.(string)

	t, err := domain.EncodeTime(date, unitsText, calendarText)
	if err != nil {
		return fmt.Errorf("encode time: %w", err)
	}
	if err := c.WriteFloat64(VarTime, 0, []float64{t}); err != nil {
		return err
	}

	x := make([]float64, spec.Width)
	for i := range x {
		x[i] = spec.Transform.X(i)
	}
	if err := c.WriteFloat64(VarX, 0, x); err != nil {
		return err
	}

	y := make([]float64, spec.Height)
	for j := range y {
		y[j] = spec.Transform.Y(j)
	}
	return c.WriteFloat64(VarY, 0, y)
}

// DecodeGrid validates and decodes raw, writes ICECON at time index 0 and
// sets the hemisphere's CRS attributes on the crs variable. Nothing is
// written when raw has the wrong size.
func DecodeGrid(c *netcdf.Container, raw []byte, h domain.Hemisphere, spec domain.HemisphereGridSpec) error {
	if spec.Hemisphere != h {
		return fmt.Errorf("grid spec for %s used to decode %s", spec.Hemisphere, h)
	}
	values, err := domain.DecodeRawGrid(raw, spec)
	if err != nil {
		return err
	}

	if err := requireVariables(c, VarIcecon, VarCRS); err != nil {
		return err
	}
	shape, err := c.Shape(VarIcecon)
	if err != nil {
		return err
	}
	if len(shape) != 3 || shape[1] != spec.Height || shape[2] != spec.Width {
		return fmt.Errorf("variable %q has shape %v, want [time %d %d]", VarIcecon, shape, spec.Height, spec.Width)
	}

	if err := c.WriteFloat64(VarIcecon, 0, values); err != nil {
		return err
	}
	for _, attr := range spec.CRSAttributes() {
		if err := c.SetAttribute(VarCRS, attr.Name, attr.Value); err != nil {
			return err
		}
	}
	return nil
}
