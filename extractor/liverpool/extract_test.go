package liverpool

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gzaln/fin/extractor/common"
	"github.com/gzaln/fin/extractor/ocr"
)

// fakeSource serves canned OCR text, or a canned failure.
type fakeSource struct {
	text  string
	err   error
	calls int
}

func (f *fakeSource) Text(doc *common.Document, firstPage, lastPage int) (string, error) {
	f.calls++
	return f.text, f.err
}

// Direct-text statement: the PDF has a text layer and the Liverpool marker.
func directTextDocument() *common.Document {
	page1 := `LIVERPOOL TARJETA DE CREDITO
Periodo: 01/12/2025 al 31/12/2025
Pago minimo: $ 500.00
Pago total: $ 4,350.00
Tarjeta: **** 7788
15/12/2025 COMPRA LIVERPOOL CENTRO $ 1,200.00
20/12/2025 FABRICAS DE FRANCIA POLANCO $ 650.00
28/12/2025 SALDO ANTERIOR $ 300.00
COMPRA TELEVISION 3 de 12 MESES $ 500.00`
	return common.NewTextDocument("liverpool_dic_2025.pdf", page1)
}

// Image-only statement: no text layer at all.
func scannedDocument() *common.Document {
	return common.NewTextDocument("statement_scan.pdf", "", "")
}

func TestCanParse_DirectText(t *testing.T) {
	if !NewCredit(nil).CanParse(directTextDocument()) {
		t.Error("Expected credit statement to be claimed from direct text")
	}
}

func TestCanParse_FilenameHint(t *testing.T) {
	doc := common.NewTextDocument("liverpool_enero.pdf", "")
	if !NewCredit(nil).CanParse(doc) {
		t.Error("Expected filename hint to claim the document")
	}
}

func TestCanParse_DebitFilenameHint(t *testing.T) {
	doc := common.NewTextDocument("liverpool_debito_enero.pdf", "")
	if !NewDebit(nil).CanParse(doc) {
		t.Error("Expected debit filename hint to claim the document")
	}
	if NewCredit(nil).CanParse(doc) {
		t.Error("Expected credit extractor to leave debit files alone")
	}
}

func TestCanParse_OCRMarker(t *testing.T) {
	src := &fakeSource{text: "FABRICAS DE FRANCIA LIVERPOOL ESTADO DE CUENTA"}
	if !NewCredit(src).CanParse(scannedDocument()) {
		t.Error("Expected OCR marker to claim the scan")
	}
}

func TestCanParse_OCRFailureMeansNotClaimed(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("%w: tesseract not installed", ocr.ErrUnavailable)}
	if NewCredit(src).CanParse(scannedDocument()) {
		t.Error("Expected OCR failure to mean not claimed")
	}
}

func TestParse_DirectText(t *testing.T) {
	result, err := NewCredit(nil).Parse(directTextDocument())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	s := result.Summary
	if s.PeriodEnd == nil || s.PeriodEnd.Day() != 31 {
		t.Errorf("Expected period end day 31, got %v", s.PeriodEnd)
	}
	if s.AccountNumberLast4 != "7788" {
		t.Errorf("Expected last4 '7788', got '%s'", s.AccountNumberLast4)
	}
	if s.MinimumPayment == nil || s.MinimumPayment.String() != "500" {
		t.Errorf("Expected minimum payment 500, got %v", s.MinimumPayment)
	}

	// The SALDO row is excluded
	if len(result.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(result.Transactions))
	}
	if result.Transactions[0].Description != "COMPRA LIVERPOOL CENTRO" {
		t.Errorf("Expected 'COMPRA LIVERPOOL CENTRO', got '%s'", result.Transactions[0].Description)
	}
	if result.Transactions[0].Amount.String() != "1200" {
		t.Errorf("Expected 1200, got '%s'", result.Transactions[0].Amount.String())
	}
}

func TestParse_MSIRow(t *testing.T) {
	result, _ := NewCredit(nil).Parse(directTextDocument())

	if len(result.Plans) != 1 {
		t.Fatalf("Expected 1 plan, got %d", len(result.Plans))
	}

	plan := result.Plans[0]
	if plan.Description != "COMPRA TELEVISION" {
		t.Errorf("Expected 'COMPRA TELEVISION', got '%s'", plan.Description)
	}
	if plan.CurrentInstallment != 3 || plan.TotalInstallments != 12 {
		t.Errorf("Expected 3 of 12, got %d of %d", plan.CurrentInstallment, plan.TotalInstallments)
	}
	// Pending and original are reconstructed from the monthly payment
	if plan.PendingBalance.String() != "5000" {
		t.Errorf("Expected pending 5000, got '%s'", plan.PendingBalance.String())
	}
	if plan.OriginalAmount.String() != "6000" {
		t.Errorf("Expected original 6000, got '%s'", plan.OriginalAmount.String())
	}
	// Start date inferred from the period, end date recomputed
	if plan.StartDate == nil || plan.StartDate.Month() != time.December {
		t.Errorf("Expected start in December, got %v", plan.StartDate)
	}
	if plan.EndDateCalculated == nil || plan.EndDateCalculated.Month() != time.December || plan.EndDateCalculated.Year() != 2026 {
		t.Errorf("Expected end date Dec 2026, got %v", plan.EndDateCalculated)
	}
}

func TestParse_DebitSkipsMSI(t *testing.T) {
	page := `LIVERPOOL CUENTA DE DEBITO
Periodo: 01/12/2025 al 31/12/2025
15/12/2025 DEPOSITO NOMINA $ 8,000.00
COMPRA TELEVISION 3 de 12 MESES $ 500.00`
	result, err := NewDebit(nil).Parse(common.NewTextDocument("liverpool_debito.pdf", page))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Plans) != 0 {
		t.Errorf("Expected debit statements to carry no installment plans, got %d", len(result.Plans))
	}
}

func TestParse_OCRFallback(t *testing.T) {
	src := &fakeSource{text: `LIVERPOOL ESTADO DE CUENTA
Periodo: 01/01/2026 al 31/01/2026
12.DIC COMPRA OXXO 89.50
05 ENE FARMACIA SAN PABLO 120.00`}

	result, err := NewCredit(src).Parse(scannedDocument())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.calls == 0 {
		t.Fatal("Expected the OCR source to be used")
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(result.Transactions))
	}

	// December row on a January-cut statement belongs to the previous year
	dec := result.Transactions[0]
	if dec.Description != "COMPRA OXXO" {
		t.Errorf("Expected 'COMPRA OXXO', got '%s'", dec.Description)
	}
	if dec.Date.Year() != 2025 || dec.Date.Month() != time.December || dec.Date.Day() != 12 {
		t.Errorf("Expected 12-Dec-2025, got %v", dec.Date)
	}

	jan := result.Transactions[1]
	if jan.Date.Year() != 2026 || jan.Date.Month() != time.January {
		t.Errorf("Expected Jan 2026, got %v", jan.Date)
	}
}

func TestParse_OCRUnavailable(t *testing.T) {
	_, err := NewCredit(nil).Parse(scannedDocument())
	if err == nil {
		t.Fatal("Expected an error for a scan without an OCR source")
	}
	if !errors.Is(err, ocr.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestParse_OCREngineFailure(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("%w: tesseract crashed", ocr.ErrUnavailable)}
	_, err := NewCredit(src).Parse(scannedDocument())
	if err == nil {
		t.Fatal("Expected engine failure to surface")
	}
	if !errors.Is(err, ocr.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestParse_PartialOCRKeepsResults(t *testing.T) {
	// Recognition produced one usable page before failing
	src := &fakeSource{
		text: "LIVERPOOL\nPeriodo: 01/12/2025 al 31/12/2025\n15/12/2025 COMPRA SEARS $ 300.00",
		err:  fmt.Errorf("%w: page 2 render failed", ocr.ErrUnavailable),
	}

	result, err := NewCredit(src).Parse(scannedDocument())
	if err == nil {
		t.Fatal("Expected the engine error to surface alongside partial results")
	}
	if len(result.Transactions) != 1 {
		t.Errorf("Expected the recovered transaction to be kept, got %d", len(result.Transactions))
	}
}

func TestParse_MaskedCardWithoutLabel(t *testing.T) {
	// Scans often print only a masked card number with no Tarjeta/Cuenta label.
	doc := common.NewTextDocument("liverpool_masked.pdf", `LIVERPOOL TARJETA DE CREDITO
Titular ****9123
Periodo: 01/12/2025 al 31/12/2025`)

	result, err := NewCredit(nil).Parse(doc)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Summary.AccountNumberLast4 != "9123" {
		t.Errorf("Expected last4 '9123', got '%s'", result.Summary.AccountNumberLast4)
	}
}
