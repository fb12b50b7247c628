package common

import (
	"bytes"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dslipak/pdf"
)

// Document is the unit of work handed to extractors: the per-page text of one
// PDF plus enough provenance for filename hints and OCR re-reads.
type Document struct {
	Path  string
	Data  []byte
	Pages []string
}

// FullText returns all pages joined with newlines.
func (d *Document) FullText() string {
	return strings.Join(d.Pages, "\n")
}

// FirstPages returns the text of the first n pages joined with newlines.
// Banks place their identifying marks on different pages, so detection
// predicates scan a bounded prefix instead of the whole document.
func (d *Document) FirstPages(n int) string {
	if n > len(d.Pages) {
		n = len(d.Pages)
	}
	if n <= 0 {
		return ""
	}
	return strings.Join(d.Pages[:n], "\n")
}

// NumPages returns the page count seen by direct text extraction.
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// LoadDocument reads a PDF from disk and extracts its text page by page.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadDocumentBytes(data, path)
}

// LoadDocumentReader reads a PDF from an arbitrary reader (HTTP uploads).
func LoadDocumentReader(r io.Reader, name string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return LoadDocumentBytes(data, name)
}

// LoadDocumentBytes extracts row-joined text per page. Pages that fail text
// extraction are kept as empty strings so page indexes stay aligned; image-only
// PDFs come back with empty pages and are left for the OCR fallback.
func LoadDocumentBytes(data []byte, name string) (*Document, error) {
	doc := &Document{Path: name, Data: data}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	doc.Pages = make([]string, 0, numPages)

	for no := 1; no <= numPages; no++ {
		page := r.Page(no)
		rows, err := page.GetTextByRow()
		if err != nil {
			log.Printf("warning: text extraction failed on page %d of %s: %v", no, name, err)
			doc.Pages = append(doc.Pages, "")
			continue
		}

		var builder strings.Builder
		for _, row := range rows {
			for i, text := range row.Content {
				builder.WriteString(text.S)
				if i < len(row.Content)-1 {
					builder.WriteByte(' ')
				}
			}
			builder.WriteByte('\n')
		}
		doc.Pages = append(doc.Pages, builder.String())
	}

	return doc, nil
}

// NewTextDocument wraps pre-extracted text as a Document. Used by tests and by
// the OCR path, where recognition output replaces direct extraction.
func NewTextDocument(name string, pages ...string) *Document {
	return &Document{Path: name, Pages: pages}
}
