package schema

import (
	_ "embed"
	"fmt"
	"os"
)

// DefaultTemplate is the NSIDC-0803 granule descriptor.
//
//go:embed templates/nsidc0803.cdl
var DefaultTemplate string

// LoadTemplate reads a template file. An empty path selects DefaultTemplate.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return DefaultTemplate, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}
	return string(b), nil
}
