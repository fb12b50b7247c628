package common

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BuildTransaction assembles a transaction record from the fields a row
// grammar captured: classification, normalization and the sign policy are
// applied here so every bank produces records the same way. signToken is the
// explicit "+"/"-" marker when the grammar captured one, empty otherwise.
func BuildTransaction(date time.Time, postDate *time.Time, description string, amount decimal.Decimal, signToken string) Transaction {
	description = strings.TrimSpace(description)
	txType, hasInterest := ClassifyTransaction(description)
	_, _, isInstallment := ExtractInstallmentInfo(description)

	return Transaction{
		Date:                  date,
		PostDate:              postDate,
		Description:           description,
		DescriptionNormalized: NormalizeDescription(description),
		Merchant:              ExtractMerchantName(description),
		Amount:                ApplySign(amount, signToken, txType),
		Type:                  txType,
		HasInterest:           hasInterest,
		IsInstallmentPayment:  isInstallment,
	}
}

// NewSummary returns a summary shell for one parse invocation.
func NewSummary(bank, sourceType, sourceFile string) *StatementSummary {
	return &StatementSummary{
		Bank:       bank,
		SourceType: sourceType,
		SourceFile: sourceFile,
	}
}
