package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/domain"
	"github.com/couchcryptid/seaice-etl/internal/netcdf"
	"github.com/couchcryptid/seaice-etl/internal/observability"
	"github.com/couchcryptid/seaice-etl/internal/pipeline"
	"github.com/couchcryptid/seaice-etl/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeFinder struct {
	dir string
}

func (f fakeFinder) Find(_ context.Context, date time.Time, h domain.Hemisphere) (string, error) {
	path := filepath.Join(f.dir, domain.BinaryFilename(date, h))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingInputFile, path)
	}
	return path, nil
}

type fakeLocator struct {
	dir string
}

func (l fakeLocator) OutputPath(date time.Time, h domain.Hemisphere) (string, error) {
	return filepath.Join(l.dir, domain.OutputFilename(date, h, domain.DefaultVersion)), nil
}

type failingCompiler struct{}

func (failingCompiler) Compile(_ context.Context, descriptor, _ string) (string, error) {
	return "", &domain.SchemaCompileError{Descriptor: descriptor, Diagnostic: "syntax error", Err: errors.New("exit status 1")}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeInput(t *testing.T, dir string, h domain.Hemisphere, value byte) {
	t.Helper()
	spec := mustSpec(t, h)
	path := filepath.Join(dir, domain.BinaryFilename(testDate, h))
	require.NoError(t, os.WriteFile(path, rawGrid(spec, value), 0o644))
}

func newGenerator(t *testing.T, compiler schema.Compiler, settings pipeline.GeneratorSettings) (*pipeline.Generator, string, string) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	if settings.Product.Version == "" {
		settings.Product = domain.ProductInfo{Version: domain.DefaultVersion, Repository: domain.DefaultRepoURL}
	}
	g := pipeline.NewGenerator(fakeFinder{in}, fakeLocator{out}, compiler, settings,
		discardLogger(), observability.NewMetricsForTesting())
	return g, in, out
}

// --- tests ---

func TestGenerator_SouthEndToEnd(t *testing.T) {
	g, in, out := newGenerator(t, schema.NativeCompiler{}, pipeline.GeneratorSettings{})
	writeInput(t, in, domain.South, 125)

	path, err := g.Generate(context.Background(), domain.NewJob(testDate, domain.South))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "NSIDC-0803_SEAICE_AMSR2_S_20240105_v2.0.nc"), path)
	assert.NoFileExists(t, schema.DescriptorPath(path))

	c, err := netcdf.Open(path)
	require.NoError(t, err)
	defer c.Close()

	shape, err := c.Shape("ICECON")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 332, 316}, shape)

	values, err := c.ReadFloat64("ICECON")
	require.NoError(t, err)
	for _, v := range values {
		require.InDelta(t, 0.5, v, 1e-6)
	}

	tm, err := c.ReadFloat64("time")
	require.NoError(t, err)
	assert.Equal(t, []float64{19727}, tm)

	srid, _ := c.Attribute("crs", "srid")
	assert.Equal(t, "urn:ogc:def:crs:EPSG::3412", srid)
	crsName, _ := c.Attribute("crs", "projected_crs_name")
	assert.Equal(t, "NSIDC Sea Ice Polar Stereographic South", crsName)
	bounds, _ := c.Attribute("", "geospatial_bounds_crs")
	assert.Equal(t, "EPSG:3412", bounds)
}

func TestGenerator_EmbeddedTemplateBothHemispheres(t *testing.T) {
	tests := []struct {
		hemisphere domain.Hemisphere
		value      byte
		want       float64
		srid       string
	}{
		{domain.North, 50, 0.2, "urn:ogc:def:crs:EPSG::3411"},
		{domain.South, 250, 1.0, "urn:ogc:def:crs:EPSG::3412"},
	}
	for _, tt := range tests {
		t.Run(string(tt.hemisphere), func(t *testing.T) {
			g, in, _ := newGenerator(t, schema.NativeCompiler{}, pipeline.GeneratorSettings{Template: schema.DefaultTemplate})
			writeInput(t, in, tt.hemisphere, tt.value)
			spec := mustSpec(t, tt.hemisphere)

			path, err := g.Generate(context.Background(), domain.NewJob(testDate, tt.hemisphere))
			require.NoError(t, err)

			c, err := netcdf.Open(path)
			require.NoError(t, err)
			defer c.Close()

			for _, attr := range spec.CRSAttributes() {
				_, ok := c.Attribute("crs", attr.Name)
				assert.True(t, ok, "crs:%s", attr.Name)
			}
			srid, _ := c.Attribute("crs", "srid")
			assert.Equal(t, tt.srid, srid)

			crs, err := c.ReadFloat64("crs")
			require.NoError(t, err)
			assert.Len(t, crs, 1)

			values, err := c.ReadFloat64("ICECON")
			require.NoError(t, err)
			require.Len(t, values, spec.Cells())
			assert.InDelta(t, tt.want, values[0], 1e-6)
			assert.InDelta(t, tt.want, values[len(values)-1], 1e-6)
		})
	}
}

func TestGenerator_MissingInput(t *testing.T) {
	g, _, out := newGenerator(t, schema.NativeCompiler{}, pipeline.GeneratorSettings{})

	_, err := g.Generate(context.Background(), domain.NewJob(testDate, domain.North))
	require.ErrorIs(t, err, domain.ErrMissingInputFile)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerator_UnknownHemisphere(t *testing.T) {
	g, _, _ := newGenerator(t, schema.NativeCompiler{}, pipeline.GeneratorSettings{})

	_, err := g.Generate(context.Background(), domain.Job{Date: testDate, Hemisphere: "east"})
	require.ErrorIs(t, err, domain.ErrUnknownHemisphere)
}

func TestGenerator_CompileFailureKeepsDescriptor(t *testing.T) {
	g, in, out := newGenerator(t, failingCompiler{}, pipeline.GeneratorSettings{})
	writeInput(t, in, domain.North, 10)

	_, err := g.Generate(context.Background(), domain.NewJob(testDate, domain.North))
	var compileErr *domain.SchemaCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, domain.ReasonSchemaCompile, domain.Classify(err))

	descriptor := schema.DescriptorPath(filepath.Join(out, domain.OutputFilename(testDate, domain.North, domain.DefaultVersion)))
	assert.FileExists(t, descriptor)
}

func TestGenerator_TruncatedInput(t *testing.T) {
	g, in, _ := newGenerator(t, schema.NativeCompiler{}, pipeline.GeneratorSettings{})
	path := filepath.Join(in, domain.BinaryFilename(testDate, domain.South))
	require.NoError(t, os.WriteFile(path, make([]byte, domain.HeaderSize+10), 0o644))

	_, err := g.Generate(context.Background(), domain.NewJob(testDate, domain.South))
	assert.Equal(t, domain.ReasonGridSize, domain.Classify(err))
}

func TestGenerator_StrictTemplate(t *testing.T) {
	template := "netcdf granule {\ndimensions:\n\tx = $xdim ;\nvariables:\n\tdouble x(x) ;\n// $not_a_key\n}\n"

	t.Run("strict", func(t *testing.T) {
		g, in, _ := newGenerator(t, schema.NativeCompiler{}, pipeline.GeneratorSettings{Template: template, Strict: true})
		writeInput(t, in, domain.South, 1)

		_, err := g.Generate(context.Background(), domain.NewJob(testDate, domain.South))
		var unresolved *schema.UnresolvedPlaceholderError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, []string{"not_a_key"}, unresolved.Names)
	})

	t.Run("lenient", func(t *testing.T) {
		g, in, _ := newGenerator(t, schema.NativeCompiler{}, pipeline.GeneratorSettings{Template: template})
		writeInput(t, in, domain.South, 1)

		// The descriptor compiles, but declares none of the variables the
		// later stages need.
		_, err := g.Generate(context.Background(), domain.NewJob(testDate, domain.South))
		require.ErrorIs(t, err, domain.ErrMissingVariable)
	})
}
