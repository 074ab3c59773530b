package domain

import (
	"fmt"
	"strings"
)

// Hemisphere identifies one of the two polar grids.
type Hemisphere string

const (
	North Hemisphere = "north"
	South Hemisphere = "south"
)

// Hemispheres returns both hemispheres in processing order.
func Hemispheres() []Hemisphere { return []Hemisphere{North, South} }

// ParseHemisphere accepts "north", "south", "n" or "s" in any case.
func ParseHemisphere(s string) (Hemisphere, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, nil
	case "south", "s":
		return South, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownHemisphere, s)
}

// Code is the single-letter code used in file names ("n" or "s"). It panics
// on a value that did not come from ParseHemisphere or the constants; jobs
// are checked with SpecFor before any name is built.
func (h Hemisphere) Code() string {
	switch h {
	case North:
		return "n"
	case South:
		return "s"
	}
	panic(fmt.Sprintf("domain: no file code for hemisphere %q", string(h)))
}

func (h Hemisphere) String() string { return string(h) }
