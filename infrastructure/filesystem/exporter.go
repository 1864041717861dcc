package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"audio-trimmer/domain/export"
)

// DirExporter implements export.Exporter by writing files into a directory
type DirExporter struct {
	dir string
}

// NewDirExporter creates an exporter that writes into dir
func NewDirExporter(dir string) *DirExporter {
	return &DirExporter{dir: dir}
}

// Dir returns the target directory
func (e *DirExporter) Dir() string {
	return e.dir
}

// Export writes data to <dir>/<name>, replacing an existing file atomically
func (e *DirExporter) Export(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid output file name %q", name)
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	target := filepath.Join(e.dir, name)
	tmp, err := os.CreateTemp(e.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	return target, nil
}

// Ensure DirExporter implements export.Exporter
var _ export.Exporter = (*DirExporter)(nil)
