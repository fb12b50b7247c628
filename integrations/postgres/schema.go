package postgres

import (
	"context"
	"fmt"
)

const ddl = `
-- Statements table with natural key (bank, account_last4, statement_date)
CREATE TABLE IF NOT EXISTS statements (
    id UUID PRIMARY KEY,
    bank VARCHAR(50) NOT NULL,
    source_type VARCHAR(20) NOT NULL,
    account_last4 VARCHAR(4) NOT NULL DEFAULT '',
    statement_date DATE,
    period_start DATE,
    period_end DATE,
    due_date DATE,
    previous_balance NUMERIC(18,2),
    current_balance NUMERIC(18,2),
    minimum_payment NUMERIC(18,2),
    payment_no_interest NUMERIC(18,2),
    credit_limit NUMERIC(18,2),
    available_credit NUMERIC(18,2),
    source_file TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ DEFAULT NOW(),

    -- Natural key for deduplication
    UNIQUE(bank, account_last4, statement_date)
);

-- Transactions table
CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY,
    statement_id UUID NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    date DATE NOT NULL,
    post_date DATE,
    description TEXT NOT NULL,
    description_normalized TEXT NOT NULL,
    merchant TEXT NOT NULL DEFAULT '',
    amount NUMERIC(18,2) NOT NULL,
    type VARCHAR(20) NOT NULL,
    has_interest BOOLEAN DEFAULT false,
    is_installment_payment BOOLEAN DEFAULT false,
    category VARCHAR(50) DEFAULT '',
    subcategory VARCHAR(50) DEFAULT '',
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(statement_id, sequence)
);

-- Installment plans table
CREATE TABLE IF NOT EXISTS installment_plans (
    id UUID PRIMARY KEY,
    statement_id UUID NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    original_amount NUMERIC(18,2) NOT NULL,
    pending_balance NUMERIC(18,2) NOT NULL,
    monthly_payment NUMERIC(18,2) NOT NULL,
    current_installment INTEGER NOT NULL,
    total_installments INTEGER NOT NULL,
    interest_rate NUMERIC(8,4),
    interest_this_period NUMERIC(18,2),
    has_interest BOOLEAN DEFAULT false,
    source_bank VARCHAR(50) NOT NULL,
    plan_type VARCHAR(30) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    start_date DATE,
    end_date_calculated DATE,
    created_at TIMESTAMPTZ DEFAULT NOW()
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_statements_bank ON statements(bank);
CREATE INDEX IF NOT EXISTS idx_statements_date ON statements(statement_date);
CREATE INDEX IF NOT EXISTS idx_transactions_statement_id ON transactions(statement_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_normalized ON transactions(description_normalized);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category) WHERE category != '';
CREATE INDEX IF NOT EXISTS idx_plans_statement_id ON installment_plans(statement_id);
CREATE INDEX IF NOT EXISTS idx_plans_status ON installment_plans(status);
`

// migrateDDL adds columns introduced after the first release.
const migrateDDL = `
-- Add category columns if not exists
DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'transactions' AND column_name = 'category') THEN
        ALTER TABLE transactions ADD COLUMN category VARCHAR(50) DEFAULT '';
    END IF;
END $$;

DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'transactions' AND column_name = 'subcategory') THEN
        ALTER TABLE transactions ADD COLUMN subcategory VARCHAR(50) DEFAULT '';
    END IF;
END $$;

DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'transactions' AND column_name = 'merchant') THEN
        ALTER TABLE transactions ADD COLUMN merchant TEXT NOT NULL DEFAULT '';
    END IF;
END $$;

-- Add recomputed end date if not exists
DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'installment_plans' AND column_name = 'end_date_calculated') THEN
        ALTER TABLE installment_plans ADD COLUMN end_date_calculated DATE;
    END IF;
END $$;
`

// EnsureSchema creates tables if they don't exist and runs migrations
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err = db.Pool.Exec(ctx, migrateDDL)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
