package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/adapter/filesystem"
	httpadapter "github.com/couchcryptid/seaice-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/seaice-etl/internal/adapter/kafka"
	"github.com/couchcryptid/seaice-etl/internal/config"
	"github.com/couchcryptid/seaice-etl/internal/domain"
	"github.com/couchcryptid/seaice-etl/internal/observability"
	"github.com/couchcryptid/seaice-etl/internal/pipeline"
	"github.com/couchcryptid/seaice-etl/internal/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const dateLayout = "20060102"

// errJobsFailed is returned when at least one job did not produce a granule.
// The summary line has already been printed.
var errJobsFailed = errors.New("one or more jobs failed")

type options struct {
	startDate  string
	endDate    string
	hemisphere string
	verbose    bool
	configFile string
}

func newRootCmd(newMetrics func() *observability.Metrics) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "seaice-etl",
		Short: "Generate NSIDC-0803 sea-ice concentration granules.",
		Long: `seaice-etl reads daily AMSR2 NASA Team binaries and writes one CF-compliant
NetCDF granule per date and hemisphere.

Settings come from environment variables, then from the YAML file named by
--config or CONFIG_FILE, then from built-in defaults. Flags override all of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile := opts.configFile
			if configFile == "" {
				configFile = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applyFlags(cfg, cmd.Flags()); err != nil {
				return err
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
			}

			jobs, err := buildJobs(opts)
			if err != nil {
				return err
			}

			logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
			summary, err := execute(cmd.Context(), cfg, jobs, logger, newMetrics())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Processing complete: %d/%d files created successfully\n",
				summary.Succeeded, summary.Attempted)
			if !summary.OK() {
				return errJobsFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringP("binary-dir", "b", "", "directory searched recursively for input binaries (BINARY_DIR)")
	f.StringP("output-dir", "o", "", "root directory for granules (OUTPUT_DIR)")
	f.StringP("template", "t", "", "CDL template; the embedded NSIDC-0803 template when unset (TEMPLATE_PATH)")
	f.StringVarP(&opts.startDate, "start-date", "s", "", "first date to process, YYYYMMDD")
	f.StringVarP(&opts.endDate, "end-date", "e", "", "last date to process, YYYYMMDD (default start date)")
	f.StringVarP(&opts.hemisphere, "hemisphere", "h", "both", "north, south or both")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	f.StringVar(&opts.configFile, "config", "", "YAML configuration file (CONFIG_FILE)")
	f.Int("workers", 0, "jobs processed concurrently (WORKERS)")
	f.Bool("strict", false, "fail jobs whose template has unresolved placeholders (STRICT_TEMPLATE)")
	f.String("compiler", "", "schema compiler, ncgen or native (SCHEMA_COMPILER)")
	// -h selects the hemisphere, so help is long-form only.
	f.Bool("help", false, "help for seaice-etl")
	_ = cmd.MarkFlagRequired("start-date")

	return cmd
}

// applyFlags copies explicitly set flags over cfg and revalidates it.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	stringFlags := map[string]*string{
		"binary-dir": &cfg.BinaryDir,
		"output-dir": &cfg.OutputDir,
		"template":   &cfg.TemplatePath,
		"compiler":   &cfg.SchemaCompiler,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	cfg.SchemaCompiler = strings.ToLower(cfg.SchemaCompiler)

	if flags.Changed("workers") {
		v, err := flags.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = v
	}
	if flags.Changed("strict") {
		v, err := flags.GetBool("strict")
		if err != nil {
			return err
		}
		cfg.StrictTemplate = v
	}
	return cfg.Validate()
}

// buildJobs expands the date range and hemisphere selection into jobs.
func buildJobs(opts options) ([]domain.Job, error) {
	start, err := time.Parse(dateLayout, opts.startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: want YYYYMMDD", opts.startDate)
	}
	end := start
	if opts.endDate != "" {
		end, err = time.Parse(dateLayout, opts.endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: want YYYYMMDD", opts.endDate)
		}
	}

	hemispheres := domain.Hemispheres()
	if sel := strings.ToLower(opts.hemisphere); sel != "both" && sel != "" {
		h, err := domain.ParseHemisphere(sel)
		if err != nil {
			return nil, err
		}
		hemispheres = []domain.Hemisphere{h}
	}
	return domain.JobsForRange(start, end, hemispheres)
}

func newCompiler(cfg *config.Config) schema.Compiler {
	if cfg.SchemaCompiler == config.CompilerNative {
		return schema.NativeCompiler{}
	}
	return schema.NcgenCompiler{Path: cfg.NcgenPath, Format: cfg.NcgenFormat, Timeout: cfg.CompileTimeout}
}

// execute wires the adapters and runs every job. The HTTP server and the
// Kafka notifier are started only when configured.
func execute(ctx context.Context, cfg *config.Config, jobs []domain.Job, logger *slog.Logger, metrics *observability.Metrics) (pipeline.Summary, error) {
	template, err := schema.LoadTemplate(cfg.TemplatePath)
	if err != nil {
		return pipeline.Summary{}, err
	}

	gen := pipeline.NewGenerator(
		filesystem.Finder{Root: cfg.BinaryDir},
		filesystem.Layout{Root: cfg.OutputDir, Version: cfg.ProductVersion},
		newCompiler(cfg),
		pipeline.GeneratorSettings{
			Template: template,
			Strict:   cfg.StrictTemplate,
			Product:  domain.ProductInfo{Version: cfg.ProductVersion, Repository: cfg.SoftwareRepository},
		},
		logger, metrics,
	)

	var notifier pipeline.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		notifier = writer
		logger.Info("granule notifications enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(gen, notifier, logger, metrics, cfg.Workers)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, nil, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	return p.Run(ctx, jobs), nil
}
