package domain

import "time"

const isoSeconds = "2006-01-02T15:04:05Z"

// Substitutions maps template placeholder names to scalar values. Values are
// strings, ints or float64s.
type Substitutions map[string]any

// ProductInfo carries the release metadata stamped into every granule.
type ProductInfo struct {
	Version    string
	Repository string
}

// NewSubstitutions builds the placeholder values for one (date, hemisphere)
// job. date_created and date_modified come from the package clock.
func NewSubstitutions(date time.Time, spec HemisphereGridSpec, product ProductInfo) Substitutions {
	day := calendarDay(date).Format(time.DateOnly)
	stamp := now().Format(isoSeconds)

	return Substitutions{
		"xdim": spec.Width,
		"ydim": spec.Height,

		"crs_long_name":                 spec.LongName,
		"longitude_of_origin":           spec.LongitudeOfOrigin,
		"latitude_of_standard_parallel": spec.LatitudeOfStandardParallel,
		"GeoTransform":                  spec.Transform.String(),
		"crs_wkt":                       spec.WKT,

		"geospatial_bounds_crs": spec.BoundsCRS(),
		"geospatial_bounds":     spec.BoundsWKT(),
		"geospatial_lat_min":    spec.LatMin,
		"geospatial_lat_max":    spec.LatMax,

		"time_coverage_start": day + "T00:00:00Z",
		"time_coverage_end":   day + "T23:59:59Z",
		"date_created":        stamp,
		"date_modified":       stamp,

		"software_version_id": product.Version,
		"software_repository": product.Repository,
	}
}
