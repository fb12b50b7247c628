// Package banorte parses Banorte credit card statements. Rows carry two full
// dates and explicit sign tokens; the installment system surfaces as
// "BALANCE TRANSFER" and "CONVENIENCE CHECK" rows with interest, IVA and rate
// columns.
package banorte

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gzaln/fin/extractor/common"
)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) BankName() string { return common.BankBanorte }

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
		regexp.MustCompile(`(?i)Fecha\s+limite\s+de\s+pago:.*?(\d{1,2}-[A-Z]{3}-\d{4})`),
		func(s *common.StatementSummary, m []string) {
			if d, ok := common.ParseSpanishDate(m[1]); ok {
				s.DueDate = &d
			}
		},
	},
	{
		"payment_no_interest",
		regexp.MustCompile(`(?i)Pago\s+para\s+no\s+generar\s+intereses:?\s*\$?\s*([\d,]+\.\d{2})`),
		func(s *common.StatementSummary, m []string) { s.PaymentNoInterest = amount(m[1]) },
	},
	{
		// An optional whitespace-delimited reference digit may precede the
		// amount; it must not swallow the amount's leading digit when no
		// "$" separates them.
		"minimum_payment",
		regexp.MustCompile(`(?i)Pago\s+minimo:?\s*(?:\d+\s+)?\$?\s*([\d,]+\.?\d*)`),
		func(s *common.StatementSummary, m []string) { s.MinimumPayment = amount(m[1]) },
	},
	{
		// "Numero de Cuenta: 4931-7300-3738-6081" - only the last four
		// digits are kept.
		"account_last4",
		regexp.MustCompile(`(?i)Numero\s+de\s+(?:Cuenta|Tarjeta):\s*([\d-]+)`),
		func(s *common.StatementSummary, m []string) {
			digits := strings.ReplaceAll(m[1], "-", "")
			if len(digits) >= 4 {
				s.AccountNumberLast4 = digits[len(digits)-4:]
			}
		},
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
	transactionRegex = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}-\d{4})\s+(\d{1,2}-[A-Z]{3}-\d{4})\s+(.+?)\s+([+-])\s*\$\s*([\d,]+\.\d{2})`)
	// DATE LABEL $ORIGINAL $PENDING $INTEREST $IVA $PAYMENT N/M RATE%
	planRegex = regexp.MustCompile(`(?i)^(\d{1,2}-[A-Z]{3}-\d{4})\s+(BALANCE\s+TRANSFER|CONVENIENCE\s+CHECK)(\s+DEBIT)?\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+\$\s*([\d,]+\.\d{2})\s+(\d+)/(\d+)\s+([\d.]+)\s*%`)
	// In the regular table, installment payments reference their plan with a
	// bare "16/24" counter.
	slashCounterRegex = regexp.MustCompile(`\b\d+/\d+\b`)
)

// CanParse scans the first three pages; Banorte's mark can sit past page 1.
func (e *Extractor) CanParse(doc *common.Document) (claimed bool) {
	defer func() {
		if recover() != nil {
			claimed = false
		}
	}()
	text := strings.ToUpper(common.StripAccents(doc.FirstPages(3)))
	return strings.Contains(text, "BANORTE")
}

func (e *Extractor) Parse(doc *common.Document) (common.Result, error) {
	text := common.StripAccents(doc.FullText())

	summary := common.NewSummary(common.BankBanorte, common.SourceCreditCard, doc.Path)
	for _, f := range summaryFields {
		if m := f.re.FindStringSubmatch(text); m != nil {
			f.assign(summary, m)
		}
	}

	return common.Result{
		Summary:      summary,
		Transactions: e.extractTransactions(text),
		Plans:        e.extractPlans(text),
	}, nil
}

func (e *Extractor) extractTransactions(text string) []common.Transaction {
	var transactions []common.Transaction

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		// Plan rows match the transaction shape too; they belong to the
		// installment pass.
		if planRegex.MatchString(line) {
			continue
		}
		m := transactionRegex.FindStringSubmatch(line)
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

		tx := common.BuildTransaction(date, postDate, description, amt, m[4])
		descUpper := strings.ToUpper(description)
		if strings.Contains(descUpper, "BALANCE TRANSFER") || slashCounterRegex.MatchString(description) {
			tx.IsInstallmentPayment = true
		}
		transactions = append(transactions, tx)
	}
	return transactions
}

func (e *Extractor) extractPlans(text string) []common.InstallmentPlan {
	var plans []common.InstallmentPlan

	for _, raw := range strings.Split(text, "\n") {
		m := planRegex.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}

		label := strings.ToUpper(whitespaceJoin(m[2]))
		planType := common.PlanBalanceTransfer
		if strings.HasPrefix(label, "CONVENIENCE") {
			planType = common.PlanConvenienceCheck
		}
		description := label
		if m[3] != "" {
			description += " DEBIT"
		}

		plan := common.InstallmentPlan{
			Description: description,
			HasInterest: true,
			SourceBank:  common.BankBanorte,
			PlanType:    planType,
			Status:      "active",
		}
		if v, ok := common.ParseAmount(m[4]); ok {
			plan.OriginalAmount = v
		}
		if v, ok := common.ParseAmount(m[5]); ok {
			plan.PendingBalance = v
		}
		if v, ok := common.ParseAmount(m[6]); ok {
			plan.InterestThisPeriod = &v
		}
		// m[7] is the IVA column.
		if v, ok := common.ParseAmount(m[8]); ok {
			plan.MonthlyPayment = v
		}
		if cur, total, ok := common.ExtractInstallmentInfo(m[9] + " DE " + m[10]); ok {
			plan.CurrentInstallment = cur
			plan.TotalInstallments = total
		}
		if rate, err := decimal.NewFromString(m[11]); err == nil {
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

func whitespaceJoin(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func amount(text string) *decimal.Decimal {
	v, ok := common.ParseAmount(text)
	if !ok {
		return nil
	}
	return &v
}
