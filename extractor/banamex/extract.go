// Package banamex parses Banamex credit card statements (Clasica, Joy). The
// layout interleaves regular charges and installment rows in one table, so a
// single line pass tries the richer MSI grammar first and falls back to the
// plain transaction grammar.
package banamex

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gzaln/fin/extractor/common"
)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) BankName() string { return common.BankBanamex }

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
		"due_date",
		regexp.MustCompile(`(?i)Fecha\s+limite.*?(\d{1,2}-[A-Z]{3}-\d{4})`),
		func(s *common.StatementSummary, m []string) {
			if d, ok := common.ParseSpanishDate(m[1]); ok {
				s.DueDate = &d
			}
		},
	},
	{
		"payment_no_interest",
		regexp.MustCompile(`(?i)pago\s+para\s+no\s+generar\s+intereses\s*\$?\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.PaymentNoInterest = amount(m[1]) },
	},
	{
		// "CLABE Interbancaria Pago minimo:4 $1,250.00" - an optional
		// reference digit sits between label and value. The digit must be
		// whitespace-delimited so it cannot swallow the amount's leading
		// digit when no "$" separates them.
		"minimum_payment",
		regexp.MustCompile(`(?i)(?:El\s+)?Pago\s+minimo:?\s*(?:\d+\s+)?\$?\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.MinimumPayment = amount(m[1]) },
	},
	{
		"account_last4",
		regexp.MustCompile(`(?i)Numero\s+de\s+tarjeta:?\s*[\d\s]*(\d{4})\b`),
		func(s *common.StatementSummary, m []string) { s.AccountNumberLast4 = m[1] },
	},
}

var (
	// DATE DESC $ORIGINAL $PENDING $PAYMENT N de M
	msiRegex = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}-\d{4})\s+(.+?)\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+(\d+)\s+de\s+(\d+)`)
	// DATE DESC [sign] $AMOUNT
	transactionRegex = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}-\d{4})\s+(.+?)\s+(?:([+-])\s*)?\$\s*([\d,]+\.\d{2})`)
)

// CanParse checks the first page. Banamex does not always print its own name,
// so the card-number label plus the monthly-statement header also claims.
func (e *Extractor) CanParse(doc *common.Document) (claimed bool) {
	defer func() {
		if recover() != nil {
			claimed = false
		}
	}()
	text := common.StripAccents(doc.FirstPages(1))
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "BANAMEX") {
		return true
	}
	return strings.Contains(upper, "NUMERO DE TARJETA") && strings.Contains(upper, "ESTADO DE CUENTA MENSUAL")
}

func (e *Extractor) Parse(doc *common.Document) (common.Result, error) {
	text := common.StripAccents(doc.FullText())

	summary := common.NewSummary(common.BankBanamex, common.SourceCreditCard, doc.Path)
	for _, f := range summaryFields {
		if m := f.re.FindStringSubmatch(text); m != nil {
			f.assign(summary, m)
		}
	}

	transactions, plans := e.extractLineItems(text)
	return common.Result{Summary: summary, Transactions: transactions, Plans: plans}, nil
}

// extractLineItems classifies each row as MSI or regular transaction. The MSI
// grammar is tried first because its prefix is a superset of the transaction
// grammar.
func (e *Extractor) extractLineItems(text string) ([]common.Transaction, []common.InstallmentPlan) {
	var transactions []common.Transaction
	var plans []common.InstallmentPlan

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := msiRegex.FindStringSubmatch(line); m != nil {
			plan := common.InstallmentPlan{
				Description: strings.TrimSpace(m[2]),
				HasInterest: false,
				SourceBank:  common.BankBanamex,
				PlanType:    common.PlanMSI,
				Status:      "active",
			}
			if v, ok := common.ParseAmount(m[3]); ok {
				plan.OriginalAmount = v
			}
			if v, ok := common.ParseAmount(m[4]); ok {
				plan.PendingBalance = v
			}
			if v, ok := common.ParseAmount(m[5]); ok {
				plan.MonthlyPayment = v
			}
			if cur, total, ok := common.ExtractInstallmentInfo(m[6] + " DE " + m[7]); ok {
				plan.CurrentInstallment = cur
				plan.TotalInstallments = total
			}
			if d, ok := common.ParseSpanishDate(m[1]); ok {
				plan.StartDate = &d
			}
			plan.CalculateEndDate()

			plans = append(plans, plan)
			continue
		}

		m := transactionRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[2])
		if description == "" || common.HasExcludedKeyword(description) {
			continue
		}

		date, okDate := common.ParseSpanishDate(m[1])
		amt, okAmt := common.ParseAmount(m[4])
		if !okDate || !okAmt {
			continue
		}

		transactions = append(transactions, common.BuildTransaction(date, nil, description, amt, m[3]))
	}
	return transactions, plans
}

func amount(text string) *decimal.Decimal {
	v, ok := common.ParseAmount(text)
	if !ok {
		return nil
	}
	return &v
}
