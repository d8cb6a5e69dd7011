// Package extract is the text-extraction collaborator boundary. The scoring
// core only needs plain text for a stored document reference; PDF/DOCX
// parsing lives behind this interface and is out of scope here.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Extractor returns plain text for a stored document reference.
// Implementations must be deterministic for the same document and return an
// empty string, not an error, for a missing file.
type Extractor interface {
	Extract(ctx context.Context, documentRef string) (string, error)
}

// FileExtractor reads document text from files under a base directory.
// Only plain-text content is supported; references are expected to point at
// already-extracted .txt artifacts.
type FileExtractor struct {
	baseDir string
}

// NewFileExtractor creates a FileExtractor rooted at baseDir.
func NewFileExtractor(baseDir string) *FileExtractor {
	return &FileExtractor{baseDir: baseDir}
}

func (e *FileExtractor) Extract(ctx context.Context, documentRef string) (string, error) {
	if documentRef == "" {
		return "", nil
	}

	path := documentRef
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.baseDir, documentRef)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".txt" && ext != "" {
		return "", eris.Errorf("extract: unsupported document format %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("extract: document file missing",
				zap.String("document_ref", documentRef),
			)
			return "", nil
		}
		return "", eris.Wrapf(err, "extract: read %s", documentRef)
	}

	return string(data), nil
}
