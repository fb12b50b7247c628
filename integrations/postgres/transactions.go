package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gzaln/fin/extractor/common"
)

// CreateTransactions bulk inserts transactions for a statement. Sequence is
// the row order within the statement, which together with the statement id
// forms the uniqueness guarantee.
func (db *DB) CreateTransactions(ctx context.Context, statementID string, transactions []common.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, tx := range transactions {
		batch.Queue(`
			INSERT INTO transactions (
				id, statement_id, sequence, date, post_date,
				description, description_normalized, merchant, amount, type,
				has_interest, is_installment_payment, category, subcategory
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			uuid.NewString(), statementID, i+1, tx.Date, tx.PostDate,
			tx.Description, tx.DescriptionNormalized, tx.Merchant, tx.Amount, tx.Type,
			tx.HasInterest, tx.IsInstallmentPayment, tx.Category, tx.Subcategory,
		)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range transactions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	return nil
}

// CreatePlans bulk inserts installment plans for a statement.
func (db *DB) CreatePlans(ctx context.Context, statementID string, plans []common.InstallmentPlan) error {
	if len(plans) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range plans {
		batch.Queue(`
			INSERT INTO installment_plans (
				id, statement_id, description,
				original_amount, pending_balance, monthly_payment,
				current_installment, total_installments,
				interest_rate, interest_this_period, has_interest,
				source_bank, plan_type, status,
				start_date, end_date_calculated
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`,
			uuid.NewString(), statementID, p.Description,
			p.OriginalAmount, p.PendingBalance, p.MonthlyPayment,
			p.CurrentInstallment, p.TotalInstallments,
			p.InterestRate, p.InterestThisPeriod, p.HasInterest,
			p.SourceBank, p.PlanType, p.Status,
			p.StartDate, p.EndDateCalculated,
		)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range plans {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert installment plan: %w", err)
		}
	}

	return nil
}
