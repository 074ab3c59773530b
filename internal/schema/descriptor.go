package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DescriptorPath returns the descriptor location for an output file: the
// same path with its extension replaced by ".cdl".
func DescriptorPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".cdl"
}

// WriteDescriptor writes text next to outputPath and returns its path.
func WriteDescriptor(outputPath, text string) (string, error) {
	path := DescriptorPath(outputPath)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write descriptor: %w", err)
	}
	return path, nil
}
