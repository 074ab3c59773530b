package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/cdl"
	"github.com/couchcryptid/seaice-etl/internal/domain"
	"github.com/couchcryptid/seaice-etl/internal/netcdf"
)

// Compiler turns a descriptor file into an empty container at targetPath.
// An existing target is removed first. On success the descriptor is deleted;
// on failure it is kept and a *domain.SchemaCompileError is returned.
type Compiler interface {
	Compile(ctx context.Context, descriptorPath, targetPath string) (string, error)
}

// Defaults for NcgenCompiler.
const (
	DefaultNcgenPath   = "ncgen"
	DefaultNcgenFormat = "classic"
)

// NcgenCompiler shells out to the netCDF ncgen tool.
type NcgenCompiler struct {
	// Path is the ncgen executable. Defaults to DefaultNcgenPath.
	Path string
	// Format is the -k output kind. Defaults to DefaultNcgenFormat, the only
	// kind the pipeline can reopen.
	Format string
	// Timeout bounds one invocation. Zero means no limit.
	Timeout time.Duration
}

// Compile runs "ncgen -k <format> -o <target> <descriptor>".
func (c NcgenCompiler) Compile(ctx context.Context, descriptorPath, targetPath string) (string, error) {
	if err := removeTarget(targetPath); err != nil {
		return "", err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	path := c.Path
	if path == "" {
		path = DefaultNcgenPath
	}
	format := c.Format
	if format == "" {
		format = DefaultNcgenFormat
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-k", format, "-o", targetPath, descriptorPath)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		diagnostic := stderr.String()
		if ctxErr := ctx.Err(); ctxErr != nil {
			diagnostic = fmt.Sprintf("ncgen interrupted: %v", ctxErr)
			err = ctxErr
		}
		return "", &domain.SchemaCompileError{Descriptor: descriptorPath, Diagnostic: diagnostic, Err: err}
	}

	if err := os.Remove(descriptorPath); err != nil {
		return "", fmt.Errorf("remove descriptor: %w", err)
	}
	return targetPath, nil
}

// NativeCompiler parses the descriptor in-process and writes a NetCDF
// classic container. It needs no external tools.
type NativeCompiler struct{}

// Compile parses descriptorPath as CDL and creates targetPath from it.
func (NativeCompiler) Compile(ctx context.Context, descriptorPath, targetPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := removeTarget(targetPath); err != nil {
		return "", err
	}

	src, err := os.ReadFile(descriptorPath)
	if err != nil {
		return "", fmt.Errorf("read descriptor: %w", err)
	}
	file, err := cdl.Parse(string(src))
	if err == nil {
		err = file.Schema.Validate()
	}
	if err != nil {
		return "", &domain.SchemaCompileError{Descriptor: descriptorPath, Diagnostic: err.Error(), Err: err}
	}

	if err := netcdf.Create(targetPath, file.Schema); err != nil {
		return "", fmt.Errorf("create %s: %w", targetPath, err)
	}
	if err := os.Remove(descriptorPath); err != nil {
		return "", fmt.Errorf("remove descriptor: %w", err)
	}
	return targetPath, nil
}

func removeTarget(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove existing target: %w", err)
	}
	return nil
}
