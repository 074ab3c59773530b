package domain

import "gonum.org/v1/gonum/floats"

const (
	// HeaderSize is the fixed prefix of every raw binary file.
	HeaderSize = 300

	// PoleHoleValue replaces every sample inside the northern pole hole.
	PoleHoleValue = 251

	// ScaleFactor converts raw samples to concentration fraction.
	ScaleFactor = 0.004
)

// poleHoleRows lists, per row of the northern grid, the half-open column
// range [from, to) the sensor never observes.
var poleHoleRows = []struct{ row, from, to int }{
	{229, 150, 158},
	{230, 149, 159}, {231, 149, 159}, {232, 149, 159}, {233, 149, 159},
	{234, 149, 159}, {235, 149, 159}, {236, 149, 159}, {237, 149, 159},
	{238, 150, 158},
}

// Cell addresses one grid cell by row and column.
type Cell struct{ Row, Col int }

// PoleHoleCells returns every cell of the northern pole hole.
func PoleHoleCells() []Cell {
	var cells []Cell
	for _, r := range poleHoleRows {
		for c := r.from; c < r.to; c++ {
			cells = append(cells, Cell{Row: r.row, Col: c})
		}
	}
	return cells
}

// ApplyPoleHole overwrites the pole-hole cells of a row-major grid of the
// given width with PoleHoleValue.
func ApplyPoleHole(samples []uint8, width int) {
	for _, r := range poleHoleRows {
		base := r.row * width
		for c := r.from; c < r.to; c++ {
			samples[base+c] = PoleHoleValue
		}
	}
}

// ScaleSamples converts raw samples to physical values (v × ScaleFactor).
func ScaleSamples(samples []uint8) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v)
	}
	floats.Scale(ScaleFactor, out)
	return out
}

// DecodeRawGrid turns a raw binary file into row-major physical values of
// shape (spec.Height, spec.Width). raw is not modified.
func DecodeRawGrid(raw []byte, spec HemisphereGridSpec) ([]float64, error) {
	payload := max(len(raw)-HeaderSize, 0)
	if payload != spec.Cells() {
		return nil, &GridSizeMismatchError{Expected: spec.Cells(), Actual: payload}
	}

	samples := make([]uint8, payload)
	copy(samples, raw[HeaderSize:])

	if spec.Hemisphere == North {
		ApplyPoleHole(samples, spec.Width)
	}
	return ScaleSamples(samples), nil
}
