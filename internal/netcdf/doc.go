// Package netcdf reads and writes NetCDF classic containers.
//
// The classic header is immutable once written, so a Container keeps the
// schema and every variable's data in memory and rebuilds the file on Close.
// Unlimited (record) dimensions and char variables are not supported.
package netcdf
