package extractor

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gzaln/fin/extractor/common"
)

// fakeExtractor is a scriptable extractor for dispatcher tests.
type fakeExtractor struct {
	name   string
	claims bool
	result common.Result
	err    error
}

func (f *fakeExtractor) BankName() string               { return f.name }
func (f *fakeExtractor) CanParse(*common.Document) bool { return f.claims }
func (f *fakeExtractor) Parse(*common.Document) (common.Result, error) {
	return f.result, f.err
}

func summaryResult(bank string) common.Result {
	return common.Result{Summary: common.NewSummary(bank, common.SourceCreditCard, "test.pdf")}
}

func TestDetect_PriorityOrder(t *testing.T) {
	// Both HSBC and BBVA markers present: HSBC wins because BBVA's single-word
	// marker also shows up in other banks' interbank disclaimers.
	doc := common.NewTextDocument("mixed.pdf", `HSBC MEXICO ESTADO DE CUENTA
Para transferencias desde BBVA use la CLABE`)

	bank, err := NewDetector(nil).GetBankName(doc)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if bank != common.BankHSBC {
		t.Errorf("Expected 'hsbc', got '%s'", bank)
	}
}

func TestDetect_BBVAWhenAlone(t *testing.T) {
	doc := common.NewTextDocument("bbva.pdf", "BBVA MEXICO ESTADO DE CUENTA")

	bank, err := NewDetector(nil).GetBankName(doc)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if bank != common.BankBBVA {
		t.Errorf("Expected 'bbva', got '%s'", bank)
	}
}

func TestDetect_Unrecognized(t *testing.T) {
	doc := common.NewTextDocument("unknown.pdf", "BANCO DESCONOCIDO ESTADO DE CUENTA")

	_, err := NewDetector(nil).GetBankName(doc)
	if !errors.Is(err, ErrBankNotRecognized) {
		t.Errorf("Expected ErrBankNotRecognized, got %v", err)
	}
}

func TestDetect_FirstClaimWins(t *testing.T) {
	first := &fakeExtractor{name: "first", claims: true}
	second := &fakeExtractor{name: "second", claims: true}
	d := NewDetectorWithExtractors(first, second)

	got := d.Detect(common.NewTextDocument("any.pdf", "text"))
	if got == nil || got.BankName() != "first" {
		t.Error("Expected the first claiming extractor to win")
	}
}

func TestProcess_EmptyResultIsError(t *testing.T) {
	e := &fakeExtractor{name: "empty", claims: true}
	d := NewDetectorWithExtractors(e)

	_, err := d.Process(common.NewTextDocument("empty.pdf", "text"))
	if !errors.Is(err, ErrNoDataExtracted) {
		t.Errorf("Expected ErrNoDataExtracted, got %v", err)
	}
}

func TestProcess_PartialResultIsSuccess(t *testing.T) {
	e := &fakeExtractor{name: "partial", claims: true, result: summaryResult("partial")}
	d := NewDetectorWithExtractors(e)

	result, err := d.Process(common.NewTextDocument("partial.pdf", "text"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Summary == nil {
		t.Fatal("Expected the partial summary to be returned")
	}
}

func TestProcess_PartialWithEngineError(t *testing.T) {
	// Infrastructure trouble with usable partial output: keep the output
	e := &fakeExtractor{
		name:   "flaky",
		claims: true,
		result: summaryResult("flaky"),
		err:    fmt.Errorf("ocr engine unavailable"),
	}
	d := NewDetectorWithExtractors(e)

	result, err := d.Process(common.NewTextDocument("flaky.pdf", "text"))
	if err != nil {
		t.Fatalf("Expected partial result to win over the warning, got %v", err)
	}
	if result.Summary == nil {
		t.Fatal("Expected the partial summary")
	}
}

func TestProcess_EmptyWithEngineError(t *testing.T) {
	engineErr := fmt.Errorf("ocr engine unavailable")
	e := &fakeExtractor{name: "broken", claims: true, err: engineErr}
	d := NewDetectorWithExtractors(e)

	_, err := d.Process(common.NewTextDocument("broken.pdf", "text"))
	if !errors.Is(err, engineErr) {
		t.Errorf("Expected the engine error to pass through, got %v", err)
	}
}

func TestProcess_SignConventionEndToEnd(t *testing.T) {
	amount := decimal.NewFromFloat(811.55)
	e := &fakeExtractor{
		name:   "bank",
		claims: true,
		result: common.Result{
			Transactions: []common.Transaction{
				common.BuildTransaction(time.Now(), nil, "CANTIA SA DE CV", amount, "+"),
				common.BuildTransaction(time.Now(), nil, "PAGO SPEI", decimal.NewFromInt(1000), ""),
			},
		},
	}
	d := NewDetectorWithExtractors(e)

	result, err := d.Process(common.NewTextDocument("signs.pdf", "text"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Transactions[0].Amount.IsPositive() {
		t.Error("Expected explicit-plus charge to stay positive")
	}
	if !result.Transactions[1].Amount.IsNegative() {
		t.Error("Expected keyword-classified payment to be negative")
	}
}
