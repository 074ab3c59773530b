package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Schema compiler choices for SCHEMA_COMPILER.
const (
	CompilerNcgen  = "ncgen"
	CompilerNative = "native"
)

// Config holds all settings. Values come from environment variables, then
// from the optional YAML file named by CONFIG_FILE, then from defaults.
type Config struct {
	BinaryDir    string
	OutputDir    string
	TemplatePath string // empty selects the embedded template

	SchemaCompiler string
	NcgenPath      string
	NcgenFormat    string
	CompileTimeout time.Duration
	StrictTemplate bool
	Workers        int

	ProductVersion     string
	SoftwareRepository string

	HTTPAddr        string // empty disables the health/metrics server
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaBrokers []string // empty disables granule notifications
	KafkaTopic   string

	ConfigFile string
}

// Load reads configuration, applying defaults where unset. The YAML file is
// taken from CONFIG_FILE.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML file. An empty path means no file.
func LoadFile(configFile string) (*Config, error) {
	src, err := newSource(configFile)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := src.shutdownTimeout()
	if err != nil {
		return nil, err
	}
	compileTimeout, err := time.ParseDuration(src.get("COMPILE_TIMEOUT", "2m"))
	if err != nil {
		return nil, errors.New("invalid COMPILE_TIMEOUT")
	}
	strict, err := strconv.ParseBool(src.get("STRICT_TEMPLATE", "false"))
	if err != nil {
		return nil, errors.New("invalid STRICT_TEMPLATE")
	}
	workers, err := strconv.Atoi(src.get("WORKERS", "1"))
	if err != nil {
		return nil, errors.New("invalid WORKERS")
	}

	var brokers []string
	if raw := src.get("KAFKA_BROKERS", ""); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		BinaryDir:    src.get("BINARY_DIR", "/disks/sidads_staging/DATASETS/nsidc0740_AS2_nrt_nasateam_seaice_v1/"),
		OutputDir:    src.get("OUTPUT_DIR", "/share/apps/nsidc0803/"),
		TemplatePath: src.get("TEMPLATE_PATH", ""),

		SchemaCompiler: strings.ToLower(src.get("SCHEMA_COMPILER", CompilerNcgen)),
		NcgenPath:      src.get("NCGEN_PATH", "ncgen"),
		NcgenFormat:    src.get("NCGEN_FORMAT", "classic"),
		CompileTimeout: compileTimeout,
		StrictTemplate: strict,
		Workers:        workers,

		ProductVersion:     src.get("PRODUCT_VERSION", "v2.0"),
		SoftwareRepository: src.get("SOFTWARE_REPOSITORY", "https://github.com/nsidc/nsidc0803"),

		HTTPAddr:        src.get("HTTP_ADDR", ""),
		LogLevel:        src.get("LOG_LEVEL", "info"),
		LogFormat:       src.get("LOG_FORMAT", "text"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   src.get("KAFKA_TOPIC", "seaice-granules"),

		ConfigFile: configFile,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings after flags have been applied.
func (c *Config) Validate() error {
	switch {
	case c.BinaryDir == "":
		return errors.New("BINARY_DIR is required")
	case c.OutputDir == "":
		return errors.New("OUTPUT_DIR is required")
	case c.SchemaCompiler != CompilerNcgen && c.SchemaCompiler != CompilerNative:
		return fmt.Errorf("SCHEMA_COMPILER must be %q or %q, got %q", CompilerNcgen, CompilerNative, c.SchemaCompiler)
	case c.CompileTimeout < 0:
		return errors.New("COMPILE_TIMEOUT must not be negative")
	case c.Workers < 1:
		return errors.New("WORKERS must be at least 1")
	case c.ProductVersion == "":
		return errors.New("PRODUCT_VERSION is required")
	case len(c.KafkaBrokers) > 0 && c.KafkaTopic == "":
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// source resolves a key from the environment first and the config file second.
type source struct {
	file map[string]string
}

func newSource(path string) (*source, error) {
	s := &source{file: map[string]string{}}
	if path == "" {
		return s, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	for k, v := range raw {
		s.file[strings.ToUpper(k)] = scalarString(v)
	}
	return s, nil
}

func (s *source) get(key, def string) string {
	if v, ok := s.file[key]; ok {
		def = v
	}
	return sharedcfg.EnvOrDefault(key, def)
}

func (s *source) shutdownTimeout() (time.Duration, error) {
	v, ok := s.file["SHUTDOWN_TIMEOUT"]
	if !ok || os.Getenv("SHUTDOWN_TIMEOUT") != "" {
		return sharedcfg.ParseShutdownTimeout()
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q in config file", v)
	}
	return d, nil
}

// scalarString flattens a YAML value. Lists become comma-separated.
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = scalarString(e)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
