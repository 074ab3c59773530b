package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/disks/sidads_staging/DATASETS/nsidc0740_AS2_nrt_nasateam_seaice_v1/", cfg.BinaryDir)
	assert.Equal(t, "/share/apps/nsidc0803/", cfg.OutputDir)
	assert.Empty(t, cfg.TemplatePath)
	assert.Equal(t, CompilerNcgen, cfg.SchemaCompiler)
	assert.Equal(t, "ncgen", cfg.NcgenPath)
	assert.Equal(t, "classic", cfg.NcgenFormat)
	assert.Equal(t, 2*time.Minute, cfg.CompileTimeout)
	assert.False(t, cfg.StrictTemplate)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "v2.0", cfg.ProductVersion)
	assert.Equal(t, "https://github.com/nsidc/nsidc0803", cfg.SoftwareRepository)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "seaice-granules", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("BINARY_DIR", "/data/binary")
	t.Setenv("OUTPUT_DIR", "/data/out")
	t.Setenv("TEMPLATE_PATH", "/etc/nsidc0803.cdl")
	t.Setenv("SCHEMA_COMPILER", "Native")
	t.Setenv("NCGEN_PATH", "/usr/local/bin/ncgen")
	t.Setenv("NCGEN_FORMAT", "64-bit offset")
	t.Setenv("COMPILE_TIMEOUT", "30s")
	t.Setenv("STRICT_TEMPLATE", "true")
	t.Setenv("WORKERS", "4")
	t.Setenv("PRODUCT_VERSION", "v3.0")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "granules")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/binary", cfg.BinaryDir)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, "/etc/nsidc0803.cdl", cfg.TemplatePath)
	assert.Equal(t, CompilerNative, cfg.SchemaCompiler)
	assert.Equal(t, "/usr/local/bin/ncgen", cfg.NcgenPath)
	assert.Equal(t, "64-bit offset", cfg.NcgenFormat)
	assert.Equal(t, 30*time.Second, cfg.CompileTimeout)
	assert.True(t, cfg.StrictTemplate)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "v3.0", cfg.ProductVersion)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "granules", cfg.KafkaTopic)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nsidc0803.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
binary_dir: /from/file
output_dir: /out/file
workers: 3
strict_template: true
shutdown_timeout: 45s
kafka_brokers:
  - a:9092
  - b:9092
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OUTPUT_DIR", "/out/env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "/from/file", cfg.BinaryDir)
	assert.Equal(t, "/out/env", cfg.OutputDir, "environment wins over the file")
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.StrictTemplate)
	assert.Equal(t, 45*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
}

func TestLoadFile_IgnoresConfigFileEnv(t *testing.T) {
	dir := t.TempDir()
	fromEnv := filepath.Join(dir, "env.yaml")
	explicit := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(fromEnv, []byte("binary_dir: /from/env-file\n"), 0o644))
	require.NoError(t, os.WriteFile(explicit, []byte("binary_dir: /from/explicit\n"), 0o644))
	t.Setenv("CONFIG_FILE", fromEnv)

	cfg, err := LoadFile(explicit)
	require.NoError(t, err)

	assert.Equal(t, explicit, cfg.ConfigFile)
	assert.Equal(t, "/from/explicit", cfg.BinaryDir)
	assert.Equal(t, fromEnv, os.Getenv("CONFIG_FILE"), "environment is left untouched")
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0o644))
		t.Setenv("CONFIG_FILE", path)
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad shutdown timeout", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("shutdown_timeout: soon"), 0o644))
		t.Setenv("CONFIG_FILE", path)
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
	})
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"COMPILE_TIMEOUT", "forever", "COMPILE_TIMEOUT"},
		{"COMPILE_TIMEOUT", "-1s", "COMPILE_TIMEOUT"},
		{"STRICT_TEMPLATE", "maybe", "STRICT_TEMPLATE"},
		{"WORKERS", "many", "WORKERS"},
		{"WORKERS", "0", "WORKERS"},
		{"SCHEMA_COMPILER", "gcc", "SCHEMA_COMPILER"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.KafkaTopic = ""
	assert.ErrorContains(t, cfg.Validate(), "KAFKA_TOPIC")

	cfg.KafkaTopic = "granules"
	cfg.BinaryDir = ""
	assert.ErrorContains(t, cfg.Validate(), "BINARY_DIR")
}
