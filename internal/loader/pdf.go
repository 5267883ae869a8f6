package loader

import (
	"errors"
	"strings"

	"github.com/ledongthuc/pdf"

	"recall/internal/domain"
)

// PDF loads a PDF file as one document per page.
type PDF struct{}

func (PDF) Load(path string) ([]domain.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &domain.DocumentLoadError{Path: path, Err: err}
	}
	defer f.Close()

	var docs []domain.Document
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &domain.DocumentLoadError{Path: path, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.Document{Text: text, Source: path, Section: i - 1})
	}
	if len(docs) == 0 {
		return nil, &domain.DocumentLoadError{Path: path, Err: errors.New("no text extracted")}
	}
	return docs, nil
}
