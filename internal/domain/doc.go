// Package domain models the AMSR2 near-real-time sea ice concentration grids
// published as NSIDC-0803 daily granules.
//
// # Input Grids
//
// Each day produces one raw binary file per hemisphere, named
//
//	nt_{YYYYMMDD}_as2_nrt_{n|s}.bin
//
// The file starts with a 300-byte header that carries no information this
// service needs, followed by one unsigned byte per grid cell in row-major
// order (row = y, column = x, first row is the top of the map).
//
// # Grids
//
// Both hemispheres use the NSIDC 25 km polar stereographic grids on the
// Hughes 1980 ellipsoid:
//
//	North: 304 x 448 cells, EPSG:3411, upper-left corner (-3850000, 5850000)
//	South: 316 x 332 cells, EPSG:3412, upper-left corner (-3950000, 4350000)
//
// Grid parameters live in one immutable registry, see [SpecFor].
//
// # Sample Values
//
// Samples 0–250 are concentration in units of 0.4%, so the physical fraction
// is sample × 0.004. Values above 250 are flags. The northern grid has a
// region around the pole the sensor never observes; those cells are forced
// to 251 before scaling, which yields 1.004 in the output. Downstream
// consumers treat anything above 1.0 as "no observation".
//
// # Output
//
// One NetCDF file per (date, hemisphere):
//
//	{root}/YYYY.MM.DD/NSIDC-0803_SEAICE_AMSR2_{N|S}_{YYYYMMDD}_{version}.nc
package domain
