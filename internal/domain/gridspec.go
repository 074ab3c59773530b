package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// GeoTransform is a north-up affine transform from cell indices to projected
// meters. PixelY is negative so that row 0 is the top of the grid.
type GeoTransform struct {
	OriginX float64
	PixelX  float64
	OriginY float64
	PixelY  float64
}

// X returns the projected x coordinate of the center of column i.
func (g GeoTransform) X(i int) float64 { return g.OriginX + g.PixelX*(float64(i)+0.5) }

// Y returns the projected y coordinate of the center of row j.
func (g GeoTransform) Y(j int) float64 { return g.OriginY + g.PixelY*(float64(j)+0.5) }

// String renders the GDAL six-term form, e.g. "-3850000 25000 0 5850000 0 -25000".
func (g GeoTransform) String() string {
	return strings.Join([]string{
		formatCoord(g.OriginX), formatCoord(g.PixelX), "0",
		formatCoord(g.OriginY), "0", formatCoord(g.PixelY),
	}, " ")
}

// Attribute is a named CF attribute value: a string or a float64.
type Attribute struct {
	Name  string
	Value any
}

// HemisphereGridSpec describes one hemisphere's grid and reference system.
type HemisphereGridSpec struct {
	Hemisphere Hemisphere
	Width      int
	Height     int
	Transform  GeoTransform

	EPSG     int
	LongName string
	WKT      string

	LatitudeOfProjectionOrigin float64
	LongitudeOfOrigin          float64
	LatitudeOfStandardParallel float64

	// Bounds is the outer ring of the grid footprint in projected meters.
	Bounds geom.Polygon
	LatMin float64
	LatMax float64
}

// Cells returns width × height, the expected payload size in bytes.
func (s HemisphereGridSpec) Cells() int { return s.Width * s.Height }

// BoundsCRS returns the "EPSG:nnnn" identifier.
func (s HemisphereGridSpec) BoundsCRS() string { return "EPSG:" + strconv.Itoa(s.EPSG) }

// Extent returns the rectangle covered by the grid according to its transform.
func (s HemisphereGridSpec) Extent() *geom.Bounds {
	b := geom.NewBoundsPoint(geom.Point{X: s.Transform.OriginX, Y: s.Transform.OriginY})
	far := geom.Point{
		X: s.Transform.OriginX + s.Transform.PixelX*float64(s.Width),
		Y: s.Transform.OriginY + s.Transform.PixelY*float64(s.Height),
	}
	b.Extend(geom.NewBoundsPoint(far))
	return b
}

// BoundsWKT renders Bounds as a WKT POLYGON.
func (s HemisphereGridSpec) BoundsWKT() string {
	var b strings.Builder
	b.WriteString("POLYGON (")
	for i, ring := range s.Bounds {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, p := range ring {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatCoord(p.X))
			b.WriteString(" ")
			b.WriteString(formatCoord(p.Y))
		}
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

// CRSAttributes returns the CF grid-mapping attributes written onto the crs
// variable, in a fixed order.
func (s HemisphereGridSpec) CRSAttributes() []Attribute {
	return []Attribute{
		{"crs_wkt", s.WKT},
		{"semi_major_axis", hughesSemiMajor},
		{"semi_minor_axis", hughesSemiMajor * (1 - 1/hughesInverseFlattening)},
		{"inverse_flattening", hughesInverseFlattening},
		{"reference_ellipsoid_name", "Hughes 1980"},
		{"longitude_of_prime_meridian", 0.0},
		{"prime_meridian_name", "Greenwich"},
		{"geographic_crs_name", "Unspecified datum based upon the Hughes 1980 ellipsoid"},
		{"horizontal_datum_name", "Not_specified_based_on_Hughes_1980_ellipsoid"},
		{"projected_crs_name", s.LongName},
		{"grid_mapping_name", "polar_stereographic"},
		{"false_easting", 0.0},
		{"false_northing", 0.0},
		{"straight_vertical_longitude_from_pole", s.LongitudeOfOrigin},
		{"long_name", s.LongName},
		{"GeoTransform", s.Transform.String()},
		{"latitude_of_projection_origin", s.LatitudeOfProjectionOrigin},
		{"longitude_of_projection_origin", s.LongitudeOfOrigin},
		{"latitude_of_standard_parallel", s.LatitudeOfStandardParallel},
		{"srid", fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", s.EPSG)},
	}
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
