// Package ocr provides the text source used for image-only statements
// (Liverpool ships most of its PDFs as scans). Pages are rasterized at a fixed
// DPI and run through Tesseract with Spanish+English models; extractors consume
// the output exactly like directly extracted text.
package ocr

import (
	"errors"

	"github.com/gzaln/fin/extractor/common"
)

// ErrUnavailable marks failures of the OCR engine itself, as opposed to "no
// recognizable markers in the text". Callers use it to distinguish "wrong
// extractor" from "right extractor, OCR broken".
var ErrUnavailable = errors.New("ocr engine unavailable")

// Source turns document pages into recognized text. firstPage/lastPage are
// 1-based and inclusive; lastPage 0 means "through the end".
type Source interface {
	Text(doc *common.Document, firstPage, lastPage int) (string, error)
}
