// Package bbva parses BBVA credit card statements. The layout splits line
// items into three tables: regular charges ("OPERACIONES DEL PERIODO"),
// interest-free installments ("COMPRAS A MESES SIN INTERESES") and
// interest-bearing installments ("COMPRAS/DISPOSICIONES A MESES"), each with
// its own row grammar.
package bbva

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gzaln/fin/extractor/common"
)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) BankName() string { return common.BankBBVA }

// summaryField binds one labeled header pattern to its assignment. Patterns
// run over accent-stripped text, so literals are written without accents.
type summaryField struct {
	name   string
	re     *regexp.Regexp
	assign func(s *common.StatementSummary, m []string)
}

var summaryFields = []summaryField{
	{
		"period",
		regexp.MustCompile(`(?i)PERIODO\D*?(\d{1,2}-[A-Z]{3}-\d{4})\s+AL\s+(\d{1,2}-[A-Z]{3}-\d{4})`),
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
		regexp.MustCompile(`(?i)FECHA DE CORTE\D*?(\d{1,2}-[A-Z]{3}-\d{4})`),
		func(s *common.StatementSummary, m []string) {
			if d, ok := common.ParseSpanishDate(m[1]); ok {
				s.StatementDate = &d
			}
		},
	},
	{
		"due_date",
		regexp.MustCompile(`(?i)FECHA LIMITE DE PAGO\D*?(\d{1,2}-[A-Z]{3}-\d{4})`),
		func(s *common.StatementSummary, m []string) {
			if d, ok := common.ParseSpanishDate(m[1]); ok {
				s.DueDate = &d
			}
		},
	},
	{
		"previous_balance",
		regexp.MustCompile(`(?i)SALDO ANTERIOR.*?\$\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.PreviousBalance = amount(m[1]) },
	},
	{
		"current_balance",
		regexp.MustCompile(`(?i)SALDO DEUDOR TOTAL.*?\$\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.CurrentBalance = amount(m[1]) },
	},
	{
		"minimum_payment",
		regexp.MustCompile(`(?i)PAGO MINIMO.*?\$\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.MinimumPayment = amount(m[1]) },
	},
	{
		"payment_no_interest",
		regexp.MustCompile(`(?i)PAGO PARA NO GENERAR INTERESES.*?\$\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.PaymentNoInterest = amount(m[1]) },
	},
	{
		"credit_limit",
		regexp.MustCompile(`(?i)LIMITE DE CREDITO.*?\$\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.CreditLimit = amount(m[1]) },
	},
	{
		"available_credit",
		regexp.MustCompile(`(?i)CREDITO DISPONIBLE.*?\$\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.AvailableCredit = amount(m[1]) },
	},
	{
		"account_last4",
		regexp.MustCompile(`(?i)TARJETA\D*?(\d{4})\b`),
		func(s *common.StatementSummary, m []string) { s.AccountNumberLast4 = m[1] },
	},
}

var (
	// Dates in BBVA line items usually carry the year, but older layouts drop
	// it; the year is then inferred from the statement period.
	transactionRegex = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}(?:-\d{4})?)\s+(\d{1,2}-[A-Z]{3}(?:-\d{4})?)\s+(.+?)\s+(?:([+-])\s*)?\$?\s*([\d,]+\.\d{2})\s*$`)
	msiRegex         = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}(?:-\d{4})?)\s+(.+?)\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+(\d+)\s+DE\s+(\d+)`)
	msiInterestRegex = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}(?:-\d{4})?)\s+(.+?)\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})(?:\s+(\d+)\s+DE\s+(\d+))?(?:\s+([\d.]+)\s*%)?`)
)

func (e *Extractor) CanParse(doc *common.Document) (claimed bool) {
	defer func() {
		if recover() != nil {
			claimed = false
		}
	}()
	return strings.Contains(strings.ToUpper(doc.FirstPages(2)), "BBVA")
}

func (e *Extractor) Parse(doc *common.Document) (common.Result, error) {
	text := common.StripAccents(doc.FullText())

	summary := common.NewSummary(common.BankBBVA, common.SourceCreditCard, doc.Path)
	for _, f := range summaryFields {
		if m := f.re.FindStringSubmatch(text); m != nil {
			f.assign(summary, m)
		}
	}

	result := common.Result{
		Summary:      summary,
		Transactions: e.extractTransactions(text, summary),
	}
	result.Plans = append(result.Plans, e.extractMSI(text, summary)...)
	result.Plans = append(result.Plans, e.extractMSIWithInterest(text, summary)...)
	return result, nil
}

// extractTransactions walks the regular-charges section. The section opens at
// "OPERACIONES DEL PERIODO" (or the "FECHA OPERACION" column header) and
// closes at the installment tables or the closing summary.
func (e *Extractor) extractTransactions(text string, summary *common.StatementSummary) []common.Transaction {
	var transactions []common.Transaction

	inSection := false
	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "OPERACIONES DEL PERIODO") || strings.Contains(upper, "FECHA OPERACION") {
			inSection = true
			continue
		}
		if inSection && (strings.Contains(upper, "COMPRAS A MESES") || strings.Contains(upper, "RESUMEN")) {
			break
		}
		if !inSection {
			continue
		}

		m := transactionRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		description := m[3]
		if description == "" || common.HasExcludedKeyword(description) {
			continue
		}

		date, ok := rowDate(m[1], summary.PeriodEnd)
		if !ok {
			continue
		}
		amt, ok := common.ParseAmount(m[5])
		if !ok {
			continue
		}
		var postDate *time.Time
		if pd, ok := rowDate(m[2], summary.PeriodEnd); ok {
			postDate = &pd
		}

		transactions = append(transactions, common.BuildTransaction(date, postDate, description, amt, m[4]))
	}
	return transactions
}

// extractMSI reads the "COMPRAS A MESES SIN INTERESES" table. Rows carry the
// original amount, pending balance, monthly payment and an "N DE M" counter.
func (e *Extractor) extractMSI(text string, summary *common.StatementSummary) []common.InstallmentPlan {
	var plans []common.InstallmentPlan

	inSection := false
	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "COMPRAS A MESES SIN INTERESES") {
			inSection = true
			continue
		}
		if inSection && (strings.Contains(upper, "COMPRAS/DISPOSICIONES A MESES") || strings.Contains(upper, "TOTAL")) {
			break
		}
		if !inSection {
			continue
		}

		m := msiRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		plan := common.InstallmentPlan{
			Description: strings.TrimSpace(m[2]),
			HasInterest: false,
			SourceBank:  common.BankBBVA,
			PlanType:    common.PlanMSI,
			Status:      "active",
		}
		zero := decimal.Zero
		plan.InterestRate = &zero
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
		if d, ok := rowDate(m[1], summary.PeriodEnd); ok {
			plan.StartDate = &d
		}
		plan.CalculateEndDate()

		plans = append(plans, plan)
	}
	return plans
}

// extractMSIWithInterest reads the "COMPRAS/DISPOSICIONES A MESES" table.
// Rows there may include an installment counter and a rate; lines flagged
// "EFECTIVO INMEDIATO" are the bank's cash-advance variant of the same plan.
func (e *Extractor) extractMSIWithInterest(text string, summary *common.StatementSummary) []common.InstallmentPlan {
	var plans []common.InstallmentPlan

	inSection := false
	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "COMPRAS/DISPOSICIONES A MESES") && !strings.Contains(upper, "SIN INTERESES") {
			inSection = true
			continue
		}
		if inSection && strings.Contains(upper, "TOTAL") {
			break
		}
		if !inSection {
			continue
		}

		m := msiInterestRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[2])
		if description == "" || common.HasExcludedKeyword(description) {
			continue
		}

		planType := common.PlanMSIWithInterest
		if strings.Contains(upper, "EFECTIVO INMEDIATO") {
			planType = common.PlanEfectivo
		}

		plan := common.InstallmentPlan{
			Description: description,
			HasInterest: true,
			SourceBank:  common.BankBBVA,
			PlanType:    planType,
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
		if m[6] != "" && m[7] != "" {
			if cur, total, ok := common.ExtractInstallmentInfo(m[6] + " DE " + m[7]); ok {
				plan.CurrentInstallment = cur
				plan.TotalInstallments = total
			}
		}
		if m[8] != "" {
			if rate, ok := common.ParseAmount(m[8]); ok {
				plan.InterestRate = &rate
			}
		}
		if d, ok := rowDate(m[1], summary.PeriodEnd); ok {
			plan.StartDate = &d
		}
		plan.CalculateEndDate()

		plans = append(plans, plan)
	}
	return plans
}

// rowDate parses a line-item date, inferring the year from the statement
// period when the row omits it.
func rowDate(token string, periodEnd *time.Time) (time.Time, bool) {
	if d, ok := common.ParseSpanishDate(token); ok {
		return d, true
	}
	if periodEnd == nil {
		return time.Time{}, false
	}
	if d, ok := common.ParseSpanishDate(token + "-" + periodEnd.Format("2006")); ok {
		return common.FixDateYear(d, *periodEnd), true
	}
	return time.Time{}, false
}

func amount(text string) *decimal.Decimal {
	v, ok := common.ParseAmount(text)
	if !ok {
		return nil
	}
	return &v
}
