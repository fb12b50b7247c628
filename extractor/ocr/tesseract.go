package ocr

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"

	"github.com/gzaln/fin/extractor/common"
)

// Config carries the OCR tunables. They are constructor parameters rather
// than package constants so tests and callers can vary them per document.
type Config struct {
	DPI       float64
	Languages []string
}

// DefaultConfig renders at 300 DPI with Spanish and English models, the
// combination that reads Liverpool scans best.
func DefaultConfig() Config {
	return Config{
		DPI:       300,
		Languages: []string{"spa", "eng"},
	}
}

// Tesseract renders PDF pages to images and recognizes them with the
// system Tesseract installation.
type Tesseract struct {
	cfg Config
}

// New returns a Tesseract source with the given configuration. Zero values
// fall back to the defaults.
func New(cfg Config) *Tesseract {
	def := DefaultConfig()
	if cfg.DPI <= 0 {
		cfg.DPI = def.DPI
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = def.Languages
	}
	return &Tesseract{cfg: cfg}
}

// Text implements Source. Any rendering or recognition failure is wrapped in
// ErrUnavailable; per-page text that was recognized before the failure is
// still returned alongside the error.
func (t *Tesseract) Text(doc *common.Document, firstPage, lastPage int) (string, error) {
	data := doc.Data
	if data == nil && doc.Path != "" {
		var err error
		data, err = os.ReadFile(doc.Path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if data == nil {
		return "", fmt.Errorf("%w: document has no backing bytes", ErrUnavailable)
	}

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if firstPage < 1 {
		firstPage = 1
	}
	if lastPage <= 0 || lastPage > numPages {
		lastPage = numPages
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.cfg.Languages...); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out strings.Builder
	for no := firstPage; no <= lastPage; no++ {
		text, err := t.recognizePage(reader, client, no)
		if err != nil {
			return out.String(), fmt.Errorf("%w: page %d: %v", ErrUnavailable, no, err)
		}
		out.WriteString(text)
		out.WriteByte('\n')
	}
	return out.String(), nil
}

func (t *Tesseract) recognizePage(reader *model.PdfReader, client *gosseract.Client, pageNo int) (string, error) {
	page, err := reader.GetPage(pageNo)
	if err != nil {
		return "", err
	}

	device := render.NewImageDevice()
	if box, err := page.GetMediaBox(); err == nil && box != nil {
		device.OutputWidth = int(box.Width() / 72.0 * t.cfg.DPI)
	}

	img, err := device.Render(page)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", err
	}
	return client.Text()
}
