package loader

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"recall/internal/domain"
)

// DOCX loads a Word document's body text as a single document.
// WordprocessingML keeps visible text in w:t runs grouped into w:p
// paragraphs inside word/document.xml.
type DOCX struct{}

func (DOCX) Load(path string) ([]domain.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &domain.DocumentLoadError{Path: path, Err: err}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		text, err := readPartText(f)
		if err != nil {
			return nil, &domain.DocumentLoadError{Path: path, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			return nil, &domain.DocumentLoadError{Path: path, Err: errors.New("no text extracted")}
		}
		return []domain.Document{{Text: text, Source: path, Section: 0}}, nil
	}
	return nil, &domain.DocumentLoadError{Path: path, Err: errors.New("word/document.xml missing")}
}

// PPTX loads a PowerPoint file as one document per slide, in slide order.
// Slide text lives in a:t runs inside ppt/slides/slideN.xml.
type PPTX struct{}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (PPTX) Load(path string) ([]domain.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &domain.DocumentLoadError{Path: path, Err: err}
	}
	defer zr.Close()

	type slide struct {
		number int
		file   *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{number: n, file: f})
	}
	if len(slides) == 0 {
		return nil, &domain.DocumentLoadError{Path: path, Err: errors.New("no slides found")}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var docs []domain.Document
	for _, sl := range slides {
		text, err := readPartText(sl.file)
		if err != nil {
			return nil, &domain.DocumentLoadError{Path: path, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.Document{Text: text, Source: path, Section: sl.number - 1})
	}
	if len(docs) == 0 {
		return nil, &domain.DocumentLoadError{Path: path, Err: errors.New("no text extracted")}
	}
	return docs, nil
}

// readPartText collects character data from "t" elements of an OOXML part
// and emits a newline per "p" paragraph. Both WordprocessingML (w:) and
// DrawingML (a:) use these local names for runs and paragraphs.
func readPartText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
