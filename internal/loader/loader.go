package loader

import (
	"path/filepath"
	"strings"

	"recall/internal/domain"
)

// SupportedExtensions is the ingestion allow-list.
var SupportedExtensions = []string{".pdf", ".docx", ".pptx"}

// ForPath selects a loader by file extension. Anything outside the
// allow-list is an UnsupportedFormatError.
func ForPath(path string) (domain.Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return PDF{}, nil
	case ".docx":
		return DOCX{}, nil
	case ".pptx":
		return PPTX{}, nil
	default:
		return nil, &domain.UnsupportedFormatError{Path: path, Ext: ext}
	}
}
