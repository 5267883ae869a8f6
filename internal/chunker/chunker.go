package chunker

import (
	"strings"
	"unicode/utf8"

	"recall/internal/domain"
)

// RecursiveChunker splits text into overlapping fixed-size segments. Size
// and overlap count Unicode characters, not bytes, so every chunk is valid
// UTF-8. Cut points prefer the earliest separator in the configured order
// that occurs inside the size window; when none does, the text is cut hard
// at the size bound. Consecutive chunks from the same document share
// exactly `overlap` characters.
type RecursiveChunker struct {
	size       int
	overlap    int
	separators []string
}

// NewRecursiveChunker validates the bounds 0 <= overlap < size at
// construction.
func NewRecursiveChunker(size, overlap int, separators []string) (*RecursiveChunker, error) {
	if size <= 0 {
		return nil, &domain.ConfigurationError{Field: "chunk_size", Reason: "must be positive"}
	}
	if overlap < 0 || overlap >= size {
		return nil, &domain.ConfigurationError{Field: "chunk_overlap", Reason: "must satisfy 0 <= overlap < chunk_size"}
	}
	if len(separators) == 0 {
		separators = []string{"\n\n", "\n", " ", ""}
	}
	return &RecursiveChunker{size: size, overlap: overlap, separators: separators}, nil
}

// Chunk is a pure function over the configuration and the document text.
func (c *RecursiveChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}
	runes := []rune(doc.Text)
	var chunks []domain.Chunk
	start, idx := 0, 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.cutPoint(runes, start, end)
		}
		chunks = append(chunks, domain.Chunk{
			Text:    string(runes[start:end]),
			Source:  doc.Source,
			Section: doc.Section,
			Index:   idx,
		})
		if end == len(runes) {
			break
		}
		// next chunk backs up by exactly `overlap` from the previous end
		start = end - c.overlap
		if start < 0 {
			start = 0
		}
		idx++
	}
	return chunks, nil
}

// cutPoint picks the end of the chunk starting at start whose hard limit is
// limit, both rune offsets. A candidate cut must leave the chunk longer
// than the overlap so the next chunk always advances. The empty separator
// means hard cut.
func (c *RecursiveChunker) cutPoint(runes []rune, start, limit int) int {
	window := string(runes[start:limit])
	for _, sep := range c.separators {
		if sep == "" {
			break
		}
		if i := strings.LastIndex(window, sep); i >= 0 {
			n := utf8.RuneCountInString(window[:i]) + utf8.RuneCountInString(sep)
			if n > c.overlap {
				return start + n
			}
		}
	}
	return limit
}
