package loader

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall/internal/domain"
)

func writeZip(t *testing.T, path string, parts map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func docxPart(paragraphs ...string) string {
	body := ""
	for _, p := range paragraphs {
		body += "<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>"
	}
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body + `</w:body></w:document>`
}

func slidePart(text string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
		`<p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p>` +
		`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestForPathSelectsByExtension(t *testing.T) {
	for _, p := range []string{"notes.pdf", "notes.DOCX", "deck.pptx"} {
		ld, err := ForPath(p)
		require.NoError(t, err, p)
		assert.NotNil(t, ld)
	}

	_, err := ForPath("notes.txt")
	var unsupported *domain.UnsupportedFormatError
	require.Error(t, err)
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, ".txt", unsupported.Ext)
}

func TestDOCXLoadExtractsParagraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.docx")
	writeZip(t, path, map[string]string{
		"word/document.xml": docxPart("First paragraph.", "Second paragraph."),
	})

	docs, err := DOCX{}.Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, path, docs[0].Source)
	assert.Equal(t, 0, docs[0].Section)
	assert.Contains(t, docs[0].Text, "First paragraph.\nSecond paragraph.")
}

func TestDOCXMissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	writeZip(t, path, map[string]string{"word/styles.xml": "<styles/>"})

	_, err := DOCX{}.Load(path)
	var loadErr *domain.DocumentLoadError
	require.Error(t, err)
	assert.True(t, errors.As(err, &loadErr))
}

func TestDOCXNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o644))

	_, err := DOCX{}.Load(path)
	var loadErr *domain.DocumentLoadError
	require.Error(t, err)
	assert.True(t, errors.As(err, &loadErr))
}

func TestPPTXLoadKeepsSlideOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	writeZip(t, path, map[string]string{
		"ppt/slides/slide10.xml": slidePart("tenth slide"),
		"ppt/slides/slide1.xml":  slidePart("first slide"),
		"ppt/slides/slide2.xml":  slidePart("second slide"),
	})

	docs, err := PPTX{}.Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Contains(t, docs[0].Text, "first slide")
	assert.Equal(t, 0, docs[0].Section)
	assert.Contains(t, docs[1].Text, "second slide")
	assert.Equal(t, 1, docs[1].Section)
	assert.Contains(t, docs[2].Text, "tenth slide")
	assert.Equal(t, 9, docs[2].Section)
}

func TestPPTXWithoutSlides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pptx")
	writeZip(t, path, map[string]string{"ppt/presentation.xml": "<p/>"})

	_, err := PPTX{}.Load(path)
	var loadErr *domain.DocumentLoadError
	require.Error(t, err)
	assert.True(t, errors.As(err, &loadErr))
}

func TestDOCXManyParagraphs(t *testing.T) {
	paragraphs := make([]string, 20)
	for i := range paragraphs {
		paragraphs[i] = fmt.Sprintf("Paragraph number %d with some body text.", i)
	}
	path := filepath.Join(t.TempDir(), "long.docx")
	writeZip(t, path, map[string]string{"word/document.xml": docxPart(paragraphs...)})

	docs, err := DOCX{}.Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	for _, p := range paragraphs {
		assert.Contains(t, docs[0].Text, p)
	}
}
