package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/shopspring/decimal"
)

// transactionRow holds the typed column values for one ledger line.
type transactionRow struct {
	date    sql.NullTime
	debit   decimal.NullDecimal
	credit  decimal.NullDecimal
	balance decimal.Decimal
}

// toRow converts the string amounts of a transaction. A missing debit or
// credit leg is stored as NULL.
func toRow(tx common.Transaction) (transactionRow, error) {
	var row transactionRow

	if date, err := common.ParseDate(tx.Date); err == nil {
		row.date = sql.NullTime{Time: date, Valid: true}
	}

	var err error
	if row.debit, err = nullAmount(tx.Debit); err != nil {
		return row, fmt.Errorf("invalid debit %q: %w", tx.Debit, err)
	}
	if row.credit, err = nullAmount(tx.Credit); err != nil {
		return row, fmt.Errorf("invalid credit %q: %w", tx.Credit, err)
	}
	if row.balance, err = common.ParseAmount(tx.Balance); err != nil {
		return row, fmt.Errorf("invalid balance %q: %w", tx.Balance, err)
	}
	return row, nil
}

func nullAmount(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := common.ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// createTransactions inserts the ledger lines of a statement, numbered in
// document order.
func createTransactions(ctx context.Context, q querier, statementID string, transactions []common.Transaction) error {
	for i, tx := range transactions {
		row, err := toRow(tx)
		if err != nil {
			return fmt.Errorf("transaction #%d: %w", i+1, err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO transactions (
				statement_id, sequence, date, date_text, description, debit, credit, balance
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			statementID, i+1, row.date, tx.Date, tx.Description, row.debit, row.credit, row.balance,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction #%d: %w", i+1, err)
		}
	}

	return nil
}
