package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abgtour/planttour/internal/core/ports"
)

// FileSource reads the catalog CSV from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return s.path }

func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read catalog: %w", err)
	}
	return string(data), nil
}

// NewSource picks a FileSource for local paths and file:// URLs, and an
// HTTPSource otherwise.
func NewSource(location string, timeout time.Duration) ports.CatalogSource {
	switch {
	case strings.HasPrefix(location, "file://"):
		return NewFileSource(strings.TrimPrefix(location, "file://"))
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPSource(location, timeout)
	default:
		return NewFileSource(location)
	}
}
