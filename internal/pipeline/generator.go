package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/domain"
	"github.com/couchcryptid/seaice-etl/internal/netcdf"
	"github.com/couchcryptid/seaice-etl/internal/observability"
	"github.com/couchcryptid/seaice-etl/internal/schema"
)

// InputFinder locates the raw binary for a job.
type InputFinder interface {
	Find(ctx context.Context, date time.Time, h domain.Hemisphere) (string, error)
}

// OutputLocator returns the granule path for a job, creating its directory.
type OutputLocator interface {
	OutputPath(date time.Time, h domain.Hemisphere) (string, error)
}

// GeneratorSettings configures how descriptors are rendered.
type GeneratorSettings struct {
	Template string
	Strict   bool
	Product  domain.ProductInfo
}

// Generator produces one granule per job: render, compile, inject, decode.
type Generator struct {
	finder   InputFinder
	outputs  OutputLocator
	compiler schema.Compiler
	settings GeneratorSettings
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewGenerator creates a Generator. An empty settings.Template selects
// schema.DefaultTemplate.
func NewGenerator(finder InputFinder, outputs OutputLocator, compiler schema.Compiler, settings GeneratorSettings, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	if settings.Template == "" {
		settings.Template = schema.DefaultTemplate
	}
	return &Generator{
		finder:   finder,
		outputs:  outputs,
		compiler: compiler,
		settings: settings,
		logger:   logger,
		metrics:  metrics,
	}
}

// Generate runs every stage for job and returns the written granule path.
// A failed job may leave a partial output in place.
func (g *Generator) Generate(ctx context.Context, job domain.Job) (string, error) {
	spec, err := domain.SpecFor(job.Hemisphere)
	if err != nil {
		return "", err
	}

	input, err := g.finder.Find(ctx, job.Date, job.Hemisphere)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(input)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	output, err := g.outputs.OutputPath(job.Date, job.Hemisphere)
	if err != nil {
		return "", err
	}

	var text string
	err = g.stage("render", func() error {
		subs := domain.NewSubstitutions(job.Date, spec, g.settings.Product)
		if !g.settings.Strict {
			text = schema.Render(g.settings.Template, subs)
			return nil
		}
		var rerr error
		text, rerr = schema.RenderStrict(g.settings.Template, subs)
		return rerr
	})
	if err != nil {
		return "", err
	}

	descriptor, err := schema.WriteDescriptor(output, text)
	if err != nil {
		return "", err
	}
	g.logger.Debug("descriptor written", "path", descriptor)

	err = g.stage("compile", func() error {
		_, cerr := g.compiler.Compile(ctx, descriptor, output)
		return cerr
	})
	if err != nil {
		return "", err
	}

	err = netcdf.Update(output, func(c *netcdf.Container) error {
		if err := g.stage("inject", func() error { return InjectCoordinates(c, job.Date, spec) }); err != nil {
			return err
		}
		return g.stage("decode", func() error { return DecodeGrid(c, raw, job.Hemisphere, spec) })
	})
	if err != nil {
		return "", err
	}
	return output, nil
}

func (g *Generator) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	g.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
