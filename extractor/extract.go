// Package extractor dispatches statement documents to the bank grammar that
// claims them and packages the extracted records for callers.
package extractor

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gzaln/fin/extractor/banamex"
	"github.com/gzaln/fin/extractor/banorte"
	"github.com/gzaln/fin/extractor/bbva"
	"github.com/gzaln/fin/extractor/common"
	"github.com/gzaln/fin/extractor/hsbc"
	"github.com/gzaln/fin/extractor/liverpool"
	"github.com/gzaln/fin/extractor/ocr"
)

var (
	// ErrBankNotRecognized means no extractor claimed the document.
	ErrBankNotRecognized = errors.New("bank not recognized")
	// ErrNoDataExtracted means an extractor claimed the document but
	// recovered neither a summary nor any line items.
	ErrNoDataExtracted = errors.New("no data extracted")
)

// Detector tries extractors in a fixed priority order and stops at the first
// claim. The order is a hand-tuned policy, not a score: most format-specific
// markers go first, and BBVA sits late because its single-word marker shows
// up inside other banks' interbank disclaimers. Ties are broken purely by
// list position.
type Detector struct {
	extractors []common.Extractor
}

// NewDetector builds the default priority list. src feeds the Liverpool
// extractors; nil disables their OCR fallback.
func NewDetector(src ocr.Source) *Detector {
	return &Detector{
		extractors: []common.Extractor{
			hsbc.New(),
			banamex.New(),
			banorte.New(),
			bbva.New(),
			liverpool.NewCredit(src),
			liverpool.NewDebit(src),
		},
	}
}

// NewDetectorWithExtractors builds a detector over an explicit ordered list.
func NewDetectorWithExtractors(extractors ...common.Extractor) *Detector {
	return &Detector{extractors: extractors}
}

// Detect returns the first extractor whose CanParse claims the document, or
// nil when none does.
func (d *Detector) Detect(doc *common.Document) common.Extractor {
	for _, e := range d.extractors {
		if e.CanParse(doc) {
			return e
		}
	}
	return nil
}

// GetBankName resolves the bank identifier for a document.
func (d *Detector) GetBankName(doc *common.Document) (string, error) {
	e := d.Detect(doc)
	if e == nil {
		return "", ErrBankNotRecognized
	}
	return e.BankName(), nil
}

// Process detects and parses a document. Partial results are success; the
// empty triple is reported as ErrNoDataExtracted, and extractor
// infrastructure failures (broken OCR) pass through so callers can tell
// "wrong extractor" from "right extractor, engine down".
func (d *Detector) Process(doc *common.Document) (common.Result, error) {
	e := d.Detect(doc)
	if e == nil {
		return common.Result{}, fmt.Errorf("%s: %w", doc.Path, ErrBankNotRecognized)
	}
	log.Printf("extracting %s statement from %s", e.BankName(), doc.Path)

	result, err := e.Parse(doc)
	if result.Empty() {
		if err != nil {
			return common.Result{}, err
		}
		return common.Result{}, fmt.Errorf("%s: %w", doc.Path, ErrNoDataExtracted)
	}
	if err != nil {
		log.Printf("warning: partial extraction from %s: %v", doc.Path, err)
	}
	return result, nil
}

// ProcessFile loads a PDF from disk and processes it.
func (d *Detector) ProcessFile(path string) (common.Result, error) {
	doc, err := common.LoadDocument(path)
	if err != nil {
		return common.Result{}, err
	}
	return d.Process(doc)
}

// ProcessReader loads a PDF from a reader (HTTP uploads) and processes it.
func (d *Detector) ProcessReader(r io.Reader, name string) (common.Result, error) {
	doc, err := common.LoadDocumentReader(r, name)
	if err != nil {
		return common.Result{}, err
	}
	return d.Process(doc)
}
