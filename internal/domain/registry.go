package domain

import (
	"fmt"

	"github.com/ctessum/geom"
)

const (
	hughesSemiMajor         = 6378273.0
	hughesInverseFlattening = 298.279411123064
)

const wktNorth = `PROJCS["NSIDC Sea Ice Polar Stereographic North",GEOGCS["Unspecified datum based upon the Hughes 1980 ellipsoid",DATUM["Not_specified_based_on_Hughes_1980_ellipsoid",SPHEROID["Hughes 1980",6378273,298.279411123064,AUTHORITY["EPSG","7058"]],AUTHORITY["EPSG","6054"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4054"]],PROJECTION["Polar_Stereographic"],PARAMETER["latitude_of_origin",70],PARAMETER["central_meridian",-45],PARAMETER["scale_factor",1],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AUTHORITY["EPSG","3411"]]`

const wktSouth = `PROJCS["NSIDC Sea Ice Polar Stereographic South",GEOGCS["Unspecified datum based upon the Hughes 1980 ellipsoid",DATUM["Not_specified_based_on_Hughes_1980_ellipsoid",SPHEROID["Hughes 1980",6378273,298.279411123064,AUTHORITY["EPSG","7058"]],AUTHORITY["EPSG","6054"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4054"]],PROJECTION["Polar_Stereographic"],PARAMETER["latitude_of_origin",-70],PARAMETER["central_meridian",0],PARAMETER["scale_factor",1],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AUTHORITY["EPSG","3412"]]`

// registry is built once and only read afterwards.
var registry = map[Hemisphere]HemisphereGridSpec{
	North: {
		Hemisphere: North,
		Width:      304,
		Height:     448,
		Transform:  GeoTransform{OriginX: -3850000, PixelX: 25000, OriginY: 5850000, PixelY: -25000},

		EPSG:     3411,
		LongName: "NSIDC Sea Ice Polar Stereographic North",
		WKT:      wktNorth,

		LatitudeOfProjectionOrigin: 90,
		LongitudeOfOrigin:          -45,
		LatitudeOfStandardParallel: 70,

		Bounds: rectangle(-3850000, 5850000, 3750000, -5350000),
		LatMin: 30.980564,
		LatMax: 90,
	},
	South: {
		Hemisphere: South,
		Width:      316,
		Height:     332,
		Transform:  GeoTransform{OriginX: -3950000, PixelX: 25000, OriginY: 4350000, PixelY: -25000},

		EPSG:     3412,
		LongName: "NSIDC Sea Ice Polar Stereographic South",
		WKT:      wktSouth,

		LatitudeOfProjectionOrigin: -90,
		LongitudeOfOrigin:          0,
		LatitudeOfStandardParallel: -70,

		Bounds: rectangle(-3950000, 4350000, 3950000, -3950000),
		LatMin: -90,
		LatMax: -39.23089,
	},
}

// SpecFor returns the grid parameters for h.
func SpecFor(h Hemisphere) (HemisphereGridSpec, error) {
	spec, ok := registry[h]
	if !ok {
		return HemisphereGridSpec{}, fmt.Errorf("%w: %q", ErrUnknownHemisphere, string(h))
	}
	spec.Bounds = clonePolygon(spec.Bounds)
	return spec, nil
}

// rectangle builds a closed ring starting at the upper-left corner and
// running clockwise, the order NSIDC publishes in geospatial_bounds.
func rectangle(left, top, right, bottom float64) geom.Polygon {
	return geom.Polygon{{
		{X: left, Y: top},
		{X: right, Y: top},
		{X: right, Y: bottom},
		{X: left, Y: bottom},
		{X: left, Y: top},
	}}
}

func clonePolygon(p geom.Polygon) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		out[i] = append([]geom.Point(nil), ring...)
	}
	return out
}
