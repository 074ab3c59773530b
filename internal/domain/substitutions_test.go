package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubstitutions(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 1, 6, 3, 4, 5, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	spec, err := SpecFor(North)
	require.NoError(t, err)

	subs := NewSubstitutions(testDate, spec, ProductInfo{Version: "v2.0", Repository: DefaultRepoURL})

	assert.Len(t, subs, 17)
	assert.Equal(t, 304, subs["xdim"])
	assert.Equal(t, 448, subs["ydim"])
	assert.Equal(t, "NSIDC Sea Ice Polar Stereographic North", subs["crs_long_name"])
	assert.Equal(t, -45.0, subs["longitude_of_origin"])
	assert.Equal(t, 70.0, subs["latitude_of_standard_parallel"])
	assert.Equal(t, "-3850000 25000 0 5850000 0 -25000", subs["GeoTransform"])
	assert.Equal(t, "EPSG:3411", subs["geospatial_bounds_crs"])
	assert.Equal(t, spec.BoundsWKT(), subs["geospatial_bounds"])
	assert.Equal(t, 30.980564, subs["geospatial_lat_min"])
	assert.Equal(t, 90.0, subs["geospatial_lat_max"])
	assert.Equal(t, "2024-01-05T00:00:00Z", subs["time_coverage_start"])
	assert.Equal(t, "2024-01-05T23:59:59Z", subs["time_coverage_end"])
	assert.Equal(t, "2024-01-06T03:04:05Z", subs["date_created"])
	assert.Equal(t, subs["date_created"], subs["date_modified"])
	assert.Equal(t, "v2.0", subs["software_version_id"])
	assert.Equal(t, DefaultRepoURL, subs["software_repository"])
	assert.Equal(t, spec.WKT, subs["crs_wkt"])
}

func TestNewSubstitutions_South(t *testing.T) {
	spec, err := SpecFor(South)
	require.NoError(t, err)

	subs := NewSubstitutions(testDate.Add(15*time.Hour), spec, ProductInfo{})
	assert.Equal(t, 316, subs["xdim"])
	assert.Equal(t, 332, subs["ydim"])
	assert.Equal(t, "EPSG:3412", subs["geospatial_bounds_crs"])
	assert.Equal(t, "2024-01-05T00:00:00Z", subs["time_coverage_start"])
}
