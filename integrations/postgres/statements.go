package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gzaln/fin/extractor/common"
)

// StatementExists checks if a statement already exists using the natural key
// (bank, account_last4, statement_date).
func (db *DB) StatementExists(ctx context.Context, bank, accountLast4 string, statementDate time.Time) (bool, string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM statements
		WHERE bank = $1 AND account_last4 = $2 AND statement_date = $3
	`, bank, accountLast4, statementDate).Scan(&id)

	if err != nil {
		if err.Error() == "no rows in result set" {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check statement: %w", err)
	}

	return true, id, nil
}

// CreateStatement inserts a new statement and returns its id.
func (db *DB) CreateStatement(ctx context.Context, summary *common.StatementSummary) (string, error) {
	id := uuid.NewString()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO statements (
			id, bank, source_type, account_last4, statement_date,
			period_start, period_end, due_date,
			previous_balance, current_balance, minimum_payment,
			payment_no_interest, credit_limit, available_credit,
			source_file
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		id, summary.Bank, summary.SourceType, summary.AccountNumberLast4, summary.StatementDate,
		summary.PeriodStart, summary.PeriodEnd, summary.DueDate,
		summary.PreviousBalance, summary.CurrentBalance, summary.MinimumPayment,
		summary.PaymentNoInterest, summary.CreditLimit, summary.AvailableCredit,
		summary.SourceFile,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create statement: %w", err)
	}

	return id, nil
}

// DeleteStatement removes a statement and its transactions and plans (cascade)
func (db *DB) DeleteStatement(ctx context.Context, statementID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM statements WHERE id = $1`, statementID)
	if err != nil {
		return fmt.Errorf("failed to delete statement: %w", err)
	}
	return nil
}
