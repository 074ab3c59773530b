package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/seaice-etl/internal/adapter/filesystem"
	"github.com/couchcryptid/seaice-etl/internal/domain"
	"github.com/couchcryptid/seaice-etl/internal/netcdf"
	"github.com/couchcryptid/seaice-etl/internal/observability"
	"github.com/couchcryptid/seaice-etl/internal/pipeline"
	"github.com/couchcryptid/seaice-etl/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateGranule(t *testing.T, h domain.Hemisphere, value byte) string {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	spec, err := domain.SpecFor(h)
	require.NoError(t, err)
	raw := append(make([]byte, domain.HeaderSize), bytes.Repeat([]byte{value}, spec.Cells())...)
	require.NoError(t, os.WriteFile(filepath.Join(in, domain.BinaryFilename(sampleDate, h)), raw, 0o644))

	gen := pipeline.NewGenerator(filesystem.Finder{Root: in}, filesystem.Layout{Root: out}, schema.NativeCompiler{},
		pipeline.GeneratorSettings{Product: domain.ProductInfo{Version: domain.DefaultVersion}},
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	path, err := gen.Generate(context.Background(), domain.NewJob(sampleDate, h))
	require.NoError(t, err)
	return path
}

func TestCheckTemplate_Embedded(t *testing.T) {
	p := checkTemplate("embedded", schema.DefaultTemplate)
	assert.True(t, p.passed(), "errors: %v", p.errors)
	assert.NotEmpty(t, p.notes)
}

func TestCheckTemplate_Broken(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown placeholder", "netcdf g {\ndimensions:\n\tx = $xdim ;\n\ty = $nope ;\n}\n", "unresolved placeholders: $nope"},
		{"unbalanced", "netcdf g {\ndimensions:\n\tx = $xdim ;\n", "unbalanced braces"},
		{"parse error", "netcdf g {\ndimensions:\n\tx = ;\n}\n", "line 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := checkTemplate(tt.name, tt.text)
			require.False(t, p.passed())
			assert.Contains(t, p.errors[0], tt.want)
		})
	}
}

func TestBraceDepth(t *testing.T) {
	assert.Equal(t, 0, braceDepth(`netcdf g { :a = "}}" ; // {{ comment
}`))
	assert.Equal(t, 1, braceDepth(`netcdf g { :a = "\"}" ;`))
	assert.Equal(t, -1, braceDepth(`}`))
}

func TestCheckGranule(t *testing.T) {
	for _, h := range domain.Hemispheres() {
		t.Run(string(h), func(t *testing.T) {
			p := checkGranule(generateGranule(t, h, 200))
			assert.True(t, p.passed(), "errors: %v", p.errors)
		})
	}
}

func TestCheckGranule_OutOfRange(t *testing.T) {
	path := generateGranule(t, domain.South, 254)

	p := checkGranule(path)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "ICECON range")
}

func TestCheckGranule_MissingCRSAttribute(t *testing.T) {
	path := generateGranule(t, domain.South, 10)
	c, err := netcdf.Open(path)
	require.NoError(t, err)
	s := c.Schema()
	require.NoError(t, c.Close())

	for i, v := range s.Variables {
		if v.Name == "crs" {
			s.Variables[i].Attributes = nil
		}
	}
	stripped := filepath.Join(t.TempDir(), "stripped.nc")
	require.NoError(t, netcdf.Create(stripped, s))

	p := checkGranule(stripped)
	require.False(t, p.passed())
	assert.Contains(t, p.errors, `crs attribute "crs_wkt" missing`)
}

func TestCheckGranule_Missing(t *testing.T) {
	p := checkGranule(filepath.Join(t.TempDir(), "none.nc"))
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "open")
}
