package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteArtifact writes one rendered document into the output directory,
// creating the directory on first use.
func WriteArtifact(outputDir, name, content string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	return nil
}
