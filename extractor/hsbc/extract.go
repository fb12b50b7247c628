// Package hsbc parses HSBC Mexico credit card statements (Air, 2Now). The
// identifying marker sits on page 2, rows carry explicit +/- sign tokens, and
// deferred charges live in a "COMPRAS Y CARGOS DIFERIDOS A MESES CON
// INTERESES" table with per-row rate and interest columns.
package hsbc

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gzaln/fin/extractor/common"
)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) BankName() string { return common.BankHSBC }

type summaryField struct {
	name   string
	re     *regexp.Regexp
	assign func(s *common.StatementSummary, m []string)
}

var summaryFields = []summaryField{
	{
		"period",
		regexp.MustCompile(`(?i)Periodo:\s*(\d{1,2}-[A-Z]{3}-\d{4})\s+al\s+(\d{1,2}-[A-Z]{3}-\d{4})`),
		func(s *common.StatementSummary, m []string) {
			if d, ok := common.ParseSpanishDate(m[1]); ok {
				s.PeriodStart = &d
			}
			if d, ok := common.ParseSpanishDate(m[2]); ok {
				s.PeriodEnd = &d
			}
		},
	},
	{
		"statement_date",
		regexp.MustCompile(`(?i)Fecha\s+de\s+corte:\s*(\d{1,2}-[A-Z]{3}-\d{4})`),
		func(s *common.StatementSummary, m []string) {
			if d, ok := common.ParseSpanishDate(m[1]); ok {
				s.StatementDate = &d
			}
		},
	},
	{
		// The due date line may carry a reference digit and a weekday:
		// "d) Fecha limite de pago: 1 sabado, 10-Ene-2026".
		"due_date",
		regexp.MustCompile(`(?i)Fecha\s+limite\s+de\s+pago:.*?(\d{1,2}-[A-Z]{3}-\d{4})`),
		func(s *common.StatementSummary, m []string) {
			if d, ok := common.ParseSpanishDate(m[1]); ok {
				s.DueDate = &d
			}
		},
	},
	{
		"payment_no_interest",
		regexp.MustCompile(`(?i)PAGO\s+PARA\s+NO\s+GENERAR\s+INTERESES:?\s*\$?\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.PaymentNoInterest = amount(m[1]) },
	},
	{
		// "g) Pago minimo : 4 $ 2,721.44" - a reference digit may sit between
		// the label and the currency value. It must be whitespace-delimited
		// so it cannot swallow the amount's leading digit when no "$"
		// separates them.
		"minimum_payment",
		regexp.MustCompile(`(?i)Pago\s+minimo\s*:?\s*(?:\d+\s+)?\$?\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.MinimumPayment = amount(m[1]) },
	},
	{
		"account_last4",
		regexp.MustCompile(`(?i)NUMERO\s+DE\s+CUENTA:\s*\d+\s+\d+\s+\d+\s+(\d{4})`),
		func(s *common.StatementSummary, m []string) { s.AccountNumberLast4 = m[1] },
	},
	{
		"credit_limit",
		regexp.MustCompile(`(?i)Limite\s+de\s+credito:?\s*\$?\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.CreditLimit = amount(m[1]) },
	},
	{
		"available_credit",
		regexp.MustCompile(`(?i)Credito\s+disponible:?\s*\$?\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.AvailableCredit = amount(m[1]) },
	},
}

var (
	regularSectionRegex  = regexp.MustCompile(`(?is)CARGOS,?\s*ABONOS\s*Y\s*COMPRAS\s*REGULARES\s*\(NO\s*A\s*MESES\s*\).*?\n(.*?)(?:ATENCION DE QU|Informacion SPEI|$)`)
	deferredSectionRegex = regexp.MustCompile(`(?is)COMPRAS\s+Y\s+CARGOS\s+DIFERIDOS\s+A\s+MESES\s+CON\s+INTERESES.*?\n(.*?)(?:CARGOS,?\s*ABONOS\s*Y\s*COMPRAS\s*REGULARES|$)`)

	transactionRegex = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}-\d{4})\s+(\d{1,2}-[A-Z]{3}-\d{4})\s+(.+?)\s+([+-])\s*\$\s*([\d,]+\.\d{2})`)
	// DATE DESC $ORIGINAL $PENDING $INTEREST $IVA $PAYMENT N de M RATE%
	deferredRegex = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}-\d{4})\s+(.+?)\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+(\d+)\s+de\s+(\d+)\s+([\d.]+)\s*%`)
)

// CanParse scans the first two pages; the HSBC marker is printed on page 2.
func (e *Extractor) CanParse(doc *common.Document) (claimed bool) {
	defer func() {
		if recover() != nil {
			claimed = false
		}
	}()
	text := strings.ToUpper(common.StripAccents(doc.FirstPages(2)))
	return strings.Contains(text, "HSBC AIR") || strings.Contains(text, "HSBC MEXICO")
}

func (e *Extractor) Parse(doc *common.Document) (common.Result, error) {
	text := common.StripAccents(doc.FullText())

	summary := common.NewSummary(common.BankHSBC, common.SourceCreditCard, doc.Path)
	for _, f := range summaryFields {
		if m := f.re.FindStringSubmatch(text); m != nil {
			f.assign(summary, m)
		}
	}

	return common.Result{
		Summary:      summary,
		Transactions: e.extractTransactions(text),
		Plans:        e.extractBalanceTransfers(text),
	}, nil
}

// extractTransactions parses the regular (non-installment) charges section.
// Rows always carry two full dates and an explicit sign token, which is
// honored as-is.
func (e *Extractor) extractTransactions(text string) []common.Transaction {
	var transactions []common.Transaction

	section := regularSectionRegex.FindStringSubmatch(text)
	if section == nil {
		return transactions
	}

	for _, line := range strings.Split(section[1], "\n") {
		m := transactionRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[3])
		if description == "" || common.HasExcludedKeyword(description) {
			continue
		}

		date, okDate := common.ParseSpanishDate(m[1])
		amt, okAmt := common.ParseAmount(m[5])
		if !okDate || !okAmt {
			continue
		}
		var postDate *time.Time
		if pd, ok := common.ParseSpanishDate(m[2]); ok {
			postDate = &pd
		}

		transactions = append(transactions, common.BuildTransaction(date, postDate, description, amt, m[4]))
	}
	return transactions
}

// extractBalanceTransfers parses the deferred-charges table. Columns are
// original, pending, interest this period, IVA, payment, counter and rate;
// the IVA column is read past, not stored.
func (e *Extractor) extractBalanceTransfers(text string) []common.InstallmentPlan {
	var plans []common.InstallmentPlan

	section := deferredSectionRegex.FindStringSubmatch(text)
	if section == nil {
		return plans
	}

	for _, line := range strings.Split(section[1], "\n") {
		m := deferredRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		plan := common.InstallmentPlan{
			Description: strings.TrimSpace(m[2]),
			HasInterest: true,
			SourceBank:  common.BankHSBC,
			PlanType:    common.PlanBalanceTransfer,
			Status:      "active",
		}
		if v, ok := common.ParseAmount(m[3]); ok {
			plan.OriginalAmount = v
		}
		if v, ok := common.ParseAmount(m[4]); ok {
			plan.PendingBalance = v
		}
		if v, ok := common.ParseAmount(m[5]); ok {
			plan.InterestThisPeriod = &v
		}
		if v, ok := common.ParseAmount(m[7]); ok {
			plan.MonthlyPayment = v
		}
		if cur, total, ok := common.ExtractInstallmentInfo(m[8] + " DE " + m[9]); ok {
			plan.CurrentInstallment = cur
			plan.TotalInstallments = total
		}
		if rate, err := decimal.NewFromString(m[10]); err == nil {
			plan.InterestRate = &rate
		}
		if d, ok := common.ParseSpanishDate(m[1]); ok {
			plan.StartDate = &d
		}
		plan.CalculateEndDate()

		plans = append(plans, plan)
	}
	return plans
}

func amount(text string) *decimal.Decimal {
	v, ok := common.ParseAmount(text)
	if !ok {
		return nil
	}
	return &v
}
