// Package liverpool parses Liverpool store-card statements (credit and
// debit). These PDFs are frequently image-only scans, so the extractor falls
// back to an OCR text source and runs the same grammar passes over the
// noisier output: day-month tokens may come glued or with a stray period
// where the scan misread a hyphen, and years are inferred from the statement
// period.
package liverpool

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gzaln/fin/extractor/common"
	"github.com/gzaln/fin/extractor/ocr"
)

type Extractor struct {
	bank       string
	sourceType string
	src        ocr.Source
}

// NewCredit returns the credit-card extractor. src may be nil; detection then
// relies on direct text and filename hints only, and Parse reports the OCR
// engine as unavailable for image-only documents.
func NewCredit(src ocr.Source) *Extractor {
	return &Extractor{bank: common.BankLiverpoolCredit, sourceType: common.SourceCreditCard, src: src}
}

// NewDebit returns the debit-card extractor. Debit statements have no
// installment table; everything else is shared with credit.
func NewDebit(src ocr.Source) *Extractor {
	return &Extractor{bank: common.BankLiverpoolDebit, sourceType: common.SourceDebitCard, src: src}
}

func (e *Extractor) BankName() string { return e.bank }

var (
	periodRegex     = regexp.MustCompile(`(?i)(?:Periodo:?|Del)\s*(\d{2}/\d{2}/\d{4}\s+(?:al|a)\s+\d{2}/\d{2}/\d{4})`)
	minPayRegex     = regexp.MustCompile(`(?i)Pago\s+minimo:?\s*\$?\s*([\d,]+\.?\d*)`)
	noInterestRegex = regexp.MustCompile(`(?i)Pago\s+(?:total|para\s+no\s+generar(?:\s+intereses)?):?\s*\$?\s*([\d,]+\.?\d*)`)
	accountRegex    = regexp.MustCompile(`(?i)(?:Tarjeta|Cuenta):?\s*[*\d\s]*?(\d{4})\b`)

	fullDateRowRegex = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+\$?\s*([\d,]+\.\d{2})\s*$`)
	// OCR rows drop the year and often glue or dot the month: "12.DIC" or
	// "12DIC".
	ocrRowRegex = regexp.MustCompile(`(?i)^(\d{1,2})\s*[.\-]?\s*(ENE|FEB|MAR|ABR|MAY|JUN|JUL|AGO|SEP|OCT|NOV|DIC)\.?\s+(.+?)\s+\$?\s*([\d,]+\.\d{2})\s*$`)
	msiRowRegex = regexp.MustCompile(`(?i)^(.+?)\s+(\d+)\s+de\s+(\d+)\s+MESES\s+\$?\s*([\d,]+\.?\d*)\s*$`)
)

// CanParse tries direct text, then filename hints, then OCR on the first
// page. Any OCR failure here means "not claimed"; Parse is where engine
// failures are surfaced.
func (e *Extractor) CanParse(doc *common.Document) (claimed bool) {
	defer func() {
		if recover() != nil {
			claimed = false
		}
	}()

	if e.matchesMarker(doc.FirstPages(2)) {
		return true
	}
	if e.matchesFilename(doc.Path) {
		return true
	}
	if e.src == nil {
		return false
	}
	text, err := e.src.Text(doc, 1, 1)
	if err != nil {
		return false
	}
	return e.matchesOCRMarker(text)
}

func (e *Extractor) matchesMarker(text string) bool {
	upper := strings.ToUpper(common.StripAccents(text))
	if !strings.Contains(upper, "LIVERPOOL") {
		return false
	}
	if e.sourceType == common.SourceDebitCard {
		return strings.Contains(upper, "DEBITO") || strings.Contains(upper, "CUENTA")
	}
	return strings.Contains(upper, "CREDITO")
}

func (e *Extractor) matchesFilename(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if !strings.Contains(name, "liverpool") {
		return false
	}
	isDebit := strings.Contains(name, "debito") || strings.Contains(name, "debit")
	if e.sourceType == common.SourceDebitCard {
		return isDebit
	}
	return !isDebit
}

func (e *Extractor) matchesOCRMarker(text string) bool {
	upper := strings.ToUpper(common.StripAccents(text))
	if e.sourceType == common.SourceDebitCard {
		return strings.Contains(upper, "LIVERPOOL") &&
			(strings.Contains(upper, "DEBITO") || strings.Contains(upper, "CUENTA"))
	}
	return strings.Contains(upper, "LIVERPOOL") || strings.Contains(upper, "FABRICAS")
}

// Parse prefers direct text when it carries the Liverpool marker and falls
// back to OCR otherwise. Summary, transaction and MSI passes are independent:
// whatever was recovered is returned even when a later step finds nothing.
func (e *Extractor) Parse(doc *common.Document) (common.Result, error) {
	text := doc.FullText()
	var srcErr error
	if !e.matchesMarker(text) {
		if e.src == nil {
			return common.Result{}, fmt.Errorf("%w: document needs OCR and no source is configured", ocr.ErrUnavailable)
		}
		ocrText, err := e.src.Text(doc, 1, 0)
		if err != nil {
			// Recognition may have produced usable pages before failing;
			// keep those and still surface the engine error.
			if strings.TrimSpace(ocrText) == "" {
				return common.Result{}, err
			}
			srcErr = err
		}
		text = ocrText
	}
	text = common.StripAccents(text)

	summary := common.NewSummary(e.bank, e.sourceType, doc.Path)
	e.extractSummary(text, summary)

	result := common.Result{
		Summary:      summary,
		Transactions: e.extractTransactions(text, summary),
	}
	if e.sourceType == common.SourceCreditCard {
		result.Plans = e.extractMSI(text, summary)
	}
	return result, srcErr
}

func (e *Extractor) extractSummary(text string, summary *common.StatementSummary) {
	if m := periodRegex.FindStringSubmatch(text); m != nil {
		if start, end, ok := common.ParseDateRange(m[1]); ok {
			summary.PeriodStart = &start
			summary.PeriodEnd = &end
		}
	}
	if m := minPayRegex.FindStringSubmatch(text); m != nil {
		if v, ok := common.ParseAmount(m[1]); ok {
			summary.MinimumPayment = &v
		}
	}
	if m := noInterestRegex.FindStringSubmatch(text); m != nil {
		if v, ok := common.ParseAmount(m[1]); ok {
			summary.PaymentNoInterest = &v
		}
	}
	if m := accountRegex.FindStringSubmatch(text); m != nil {
		summary.AccountNumberLast4 = m[1]
	} else if last4, ok := common.ExtractCardDigits(text); ok {
		// Scans often print only a masked card number with no label.
		summary.AccountNumberLast4 = last4
	}
}

func (e *Extractor) extractTransactions(text string, summary *common.StatementSummary) []common.Transaction {
	var transactions []common.Transaction

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := fullDateRowRegex.FindStringSubmatch(line); m != nil {
			description := strings.TrimSpace(m[2])
			if skipRow(description) {
				continue
			}
			date, okDate := parseSlashDate(m[1])
			amt, okAmt := common.ParseAmount(m[3])
			if !okDate || !okAmt {
				continue
			}
			transactions = append(transactions, common.BuildTransaction(date, nil, description, amt, ""))
			continue
		}

		m := ocrRowRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[3])
		if skipRow(description) {
			continue
		}
		date, ok := e.inferDate(m[1], m[2], summary)
		if !ok {
			continue
		}
		amt, ok := common.ParseAmount(m[4])
		if !ok {
			continue
		}
		transactions = append(transactions, common.BuildTransaction(date, nil, description, amt, ""))
	}
	return transactions
}

// inferDate resolves a year-less OCR date against the statement period: a
// month more than one ahead of the cut month belongs to the previous year.
func (e *Extractor) inferDate(dayToken, monthToken string, summary *common.StatementSummary) (time.Time, bool) {
	month, ok := common.MonthFromAbbrev(monthToken)
	if !ok {
		return time.Time{}, false
	}
	anchor := summary.PeriodEnd
	if anchor == nil {
		anchor = summary.StatementDate
	}
	if anchor == nil {
		return time.Time{}, false
	}
	day := 0
	for _, r := range dayToken {
		day = day*10 + int(r-'0')
	}
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	year := common.InferYear(month, *anchor)
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local), true
}

// extractMSI reads "DESCRIPTION N de M MESES $PAYMENT" rows. The statement
// does not print the pending balance, so it is reconstructed from the
// remaining payments; the start date is inferred from the period.
func (e *Extractor) extractMSI(text string, summary *common.StatementSummary) []common.InstallmentPlan {
	var plans []common.InstallmentPlan

	for _, raw := range strings.Split(text, "\n") {
		m := msiRowRegex.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[1])
		if skipRow(description) {
			continue
		}
		cur, total, ok := common.ExtractInstallmentInfo(m[2] + " DE " + m[3])
		if !ok {
			continue
		}
		payment, ok := common.ParseAmount(m[4])
		if !ok {
			continue
		}

		plan := common.InstallmentPlan{
			Description:        description,
			MonthlyPayment:     payment,
			CurrentInstallment: cur,
			TotalInstallments:  total,
			PendingBalance:     payment.Mul(decimal.NewFromInt(int64(total - cur + 1))),
			OriginalAmount:     payment.Mul(decimal.NewFromInt(int64(total))),
			HasInterest:        false,
			SourceBank:         e.bank,
			PlanType:           common.PlanMSI,
			Status:             "active",
		}
		if summary.PeriodStart != nil {
			start := *summary.PeriodStart
			plan.StartDate = &start
		}
		plan.CalculateEndDate()

		plans = append(plans, plan)
	}
	return plans
}

func skipRow(description string) bool {
	if description == "" {
		return true
	}
	upper := strings.ToUpper(description)
	if strings.Contains(upper, "FECHA") || strings.Contains(upper, "DESCRIPCION") {
		return true
	}
	return common.HasExcludedKeyword(description)
}

func parseSlashDate(token string) (time.Time, bool) {
	d, err := time.ParseInLocation("02/01/2006", token, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
