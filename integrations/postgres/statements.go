package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/jackc/pgx/v5"
)

// Period is the date range covered by a statement's transactions.
type Period struct {
	Start time.Time
	End   time.Time
}

// StatementPeriod derives the natural-key period from the first and last
// transaction dates.
func StatementPeriod(stmt common.Statement) (Period, error) {
	start, err := common.ParseDate(stmt.TransactionStartDate)
	if err != nil {
		return Period{}, fmt.Errorf("invalid start date %q: %w", stmt.TransactionStartDate, err)
	}
	end, err := common.ParseDate(stmt.TransactionEndDate)
	if err != nil {
		return Period{}, fmt.Errorf("invalid end date %q: %w", stmt.TransactionEndDate, err)
	}
	return Period{Start: start, End: end}, nil
}

// StatementExists checks if a statement already exists using natural key
func (db *DB) StatementExists(ctx context.Context, accountNo string, period Period) (bool, string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM statements
		WHERE account_no = $1 AND period_start = $2 AND period_end = $3
	`, accountNo, period.Start, period.End).Scan(&id)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check statement: %w", err)
	}

	return true, id, nil
}

// createStatement inserts a new statement row
func createStatement(ctx context.Context, q querier, stmt common.Statement, period Period) (string, error) {
	var id string
	d := stmt.AccountDetails

	err := q.QueryRow(ctx, `
		INSERT INTO statements (
			source, account_no, account_name, address, open_date,
			sanction_limit, interest_rate, period_start, period_end,
			opening_balance, closing_balance, total_debit, total_credit,
			discontinuities
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`,
		stmt.Source, d[common.KeyAccountNo], d[common.KeyAccountName], d[common.KeyAddress], d[common.KeyOpenDate],
		d[common.KeySanctionLimit], d[common.KeyInterestRate], period.Start, period.End,
		stmt.OpeningBalance, stmt.ClosingBalance, stmt.TotalDebit, stmt.TotalCredit,
		stmt.Discontinuities,
	).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create statement: %w", err)
	}

	return id, nil
}

// deleteStatement removes a statement and its transactions (cascade)
func deleteStatement(ctx context.Context, q querier, statementID string) error {
	_, err := q.Exec(ctx, `DELETE FROM statements WHERE id = $1`, statementID)
	if err != nil {
		return fmt.Errorf("failed to delete statement: %w", err)
	}
	return nil
}

// DeleteStatement removes a statement and its transactions (cascade)
func (db *DB) DeleteStatement(ctx context.Context, statementID string) error {
	return deleteStatement(ctx, db.Pool, statementID)
}

// SaveStatement stores a statement and its transactions in one database
// transaction, replacing the statement identified by replaceID when set.
func (db *DB) SaveStatement(ctx context.Context, stmt common.Statement, period Period, replaceID string) (string, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}

	id, err := saveStatement(ctx, tx, stmt, period, replaceID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

func saveStatement(ctx context.Context, q querier, stmt common.Statement, period Period, replaceID string) (string, error) {
	if replaceID != "" {
		if err := deleteStatement(ctx, q, replaceID); err != nil {
			return "", err
		}
	}

	id, err := createStatement(ctx, q, stmt, period)
	if err != nil {
		return "", err
	}

	if err := createTransactions(ctx, q, id, stmt.Transactions); err != nil {
		return "", err
	}
	return id, nil
}
