package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bank identifiers. These strings are stable: the database, the classifier
// and the API all key off them.
const (
	BankBBVA            = "bbva"
	BankHSBC            = "hsbc"
	BankBanamex         = "banamex"
	BankBanorte         = "banorte"
	BankLiverpoolCredit = "liverpool_credit"
	BankLiverpoolDebit  = "liverpool_debit"
)

// Source types.
const (
	SourceCreditCard = "credit_card"
	SourceDebitCard  = "debit_card"
)

// Transaction types.
const (
	TypeExpense  = "expense"
	TypePayment  = "payment"
	TypeInterest = "interest"
	TypeFee      = "fee"
)

// Installment plan types.
const (
	PlanMSI              = "msi"
	PlanMSIWithInterest  = "msi_with_interest"
	PlanBalanceTransfer  = "balance_transfer"
	PlanConvenienceCheck = "convenience_check"
	PlanEfectivo         = "efectivo_inmediato"
	PlanInstallment      = "installment"
)

// StatementSummary holds the header-level fields of a parsed statement.
// Every field except Bank, SourceType and SourceFile is optional: a missing
// label in the PDF leaves the field nil rather than failing the parse.
type StatementSummary struct {
	Bank       string `json:"bank"`
	SourceType string `json:"source_type"`

	PeriodStart   *time.Time `json:"period_start,omitempty"`
	PeriodEnd     *time.Time `json:"period_end,omitempty"`
	StatementDate *time.Time `json:"statement_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`

	PreviousBalance   *decimal.Decimal `json:"previous_balance,omitempty"`
	CurrentBalance    *decimal.Decimal `json:"current_balance,omitempty"`
	MinimumPayment    *decimal.Decimal `json:"minimum_payment,omitempty"`
	PaymentNoInterest *decimal.Decimal `json:"payment_no_interest,omitempty"`
	CreditLimit       *decimal.Decimal `json:"credit_limit,omitempty"`
	AvailableCredit   *decimal.Decimal `json:"available_credit,omitempty"`

	AccountNumberLast4 string `json:"account_number_last4,omitempty"`
	SourceFile         string `json:"source_file"`
}

// Transaction is a single statement row. Amount follows the sign convention:
// charges positive, payments and credits negative.
type Transaction struct {
	Date                  time.Time       `json:"date"`
	PostDate              *time.Time      `json:"post_date,omitempty"`
	Description           string          `json:"description"`
	DescriptionNormalized string          `json:"description_normalized"`
	Merchant              string          `json:"merchant,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	Type                  string          `json:"type"`
	HasInterest           bool            `json:"has_interest"`
	IsInstallmentPayment  bool            `json:"is_installment_payment"`

	// Filled downstream by the rule classifier, not by extraction.
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
}

// InstallmentPlan is one row of a deferred-purchase table (MSI, balance
// transfer, convenience check, efectivo inmediato).
type InstallmentPlan struct {
	Description    string          `json:"description"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`

	CurrentInstallment int `json:"current_installment"`
	TotalInstallments  int `json:"total_installments"`

	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDateCalculated *time.Time `json:"end_date_calculated,omitempty"`

	HasInterest        bool             `json:"has_interest"`
	InterestRate       *decimal.Decimal `json:"interest_rate,omitempty"`
	InterestThisPeriod *decimal.Decimal `json:"interest_this_period,omitempty"`

	SourceBank string `json:"source_bank"`
	PlanType   string `json:"plan_type"`
	Status     string `json:"status"`
}

// CalculateEndDate derives EndDateCalculated from StartDate plus
// TotalInstallments calendar months. Statements print the end date
// inconsistently or not at all, so it is always recomputed and never parsed.
func (p *InstallmentPlan) CalculateEndDate() {
	if p.StartDate == nil || p.TotalInstallments <= 0 {
		return
	}
	end := p.StartDate.AddDate(0, p.TotalInstallments, 0)
	p.EndDateCalculated = &end
}

// Result is the triple an extractor hands back to the caller. Partial results
// are valid: a summary with zero transactions, or transactions with a nil
// summary, both count as successful extractions.
type Result struct {
	Summary      *StatementSummary `json:"summary,omitempty"`
	Transactions []Transaction     `json:"transactions"`
	Plans        []InstallmentPlan `json:"installment_plans"`
}

// Empty reports whether nothing at all was recovered.
func (r Result) Empty() bool {
	return r.Summary == nil && len(r.Transactions) == 0 && len(r.Plans) == 0
}

// Extractor is the capability contract every bank grammar implements.
// CanParse must be total: it never panics and converts any internal failure
// into "does not claim this document". Parse returns whatever it recovered;
// the error is reserved for infrastructure failures (for example a broken OCR
// engine) and may accompany partial results.
type Extractor interface {
	BankName() string
	CanParse(doc *Document) bool
	Parse(doc *Document) (Result, error)
}
