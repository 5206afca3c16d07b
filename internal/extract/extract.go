// Package extract turns resume files into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/screener/internal/model"
)

// ErrNoText is returned for a readable file that holds no text.
var ErrNoText = errors.New("no text content found")

// maxConcurrent bounds how many files are parsed at once.
const maxConcurrent = 4

// Extractor reads .txt, .md, .pdf and .docx files.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the text of the file at path.
func (e *Extractor) Extract(path string) (string, error) {
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	case ".pdf":
		text, err = pdfText(path)
	case ".docx":
		text, err = docxText(path)
	default:
		return "", fmt.Errorf("unsupported file type %q: %s", ext, path)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("extract %s: %w", path, ErrNoText)
	}
	return text, nil
}

// Many extracts every path concurrently and returns one ResumeDocument per
// file with text, in input order. Files without text are skipped; any other
// failure aborts the batch.
func (e *Extractor) Many(ctx context.Context, paths []string) ([]model.ResumeDocument, error) {
	texts := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := e.Extract(path)
			if errors.Is(err, ErrNoText) {
				e.logger.Warn("skipping resume without text", "file", path)
				return nil
			}
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]model.ResumeDocument, 0, len(paths))
	for i, text := range texts {
		if text == "" {
			continue
		}
		docs = append(docs, model.NewResumeDocument(filepath.Base(paths[i]), text))
	}
	e.logger.Debug("extracted resumes", "files", len(paths), "documents", len(docs))
	return docs, nil
}

func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not lose the rest of the resume.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
)

func docxText(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	return docxContentText(doc.Editable().GetContent()), nil
}

// docxContentText reduces WordprocessingML to plain text, one line per paragraph.
func docxContentText(xml string) string {
	s := paragraphEnd.ReplaceAllStringFunc(xml, func(tag string) string {
		if tag == "<w:tab/>" {
			return "\t"
		}
		return "\n"
	})
	s = xmlTag.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}
