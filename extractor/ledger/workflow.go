package ledger

import (
	"log"
	"time"

	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/shopspring/decimal"
)

// Extract builds a statement from flattened document text using the
// built-in patterns.
func Extract(source string, text string) common.Statement {
	return defaultPatterns.Extract(source, text)
}

// Extract runs both extractors over text and derives the statement summary.
// Balance discontinuities are logged and counted, never rejected.
func (p Patterns) Extract(source string, text string) common.Statement {
	startTime := time.Now()
	log.Printf("Starting LEDGER extraction: %s", source)

	lines := p.scan(text)
	statement := common.Statement{
		Source:         source,
		AccountDetails: p.AccountDetails(text),
		Transactions:   make([]common.Transaction, 0, len(lines)),
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	var previous decimal.Decimal
	for i, l := range lines {
		tx := l.record()
		statement.Transactions = append(statement.Transactions, tx)

		debit, err := common.ParseAmount(tx.Debit)
		if err != nil {
			log.Printf("\t✗ Unreadable debit %q on %s: %v", tx.Debit, tx.Date, err)
		}
		credit, err := common.ParseAmount(tx.Credit)
		if err != nil {
			log.Printf("\t✗ Unreadable credit %q on %s: %v", tx.Credit, tx.Date, err)
		}
		balance, err := signedBalance(l)
		if err != nil {
			log.Printf("\t✗ Unreadable balance %q on %s: %v", tx.Balance, tx.Date, err)
		}

		statement.TotalDebit = statement.TotalDebit.Add(debit)
		statement.TotalCredit = statement.TotalCredit.Add(credit)

		if i == 0 {
			statement.OpeningBalance = balance
		} else if expected := previous.Sub(debit).Add(credit); !expected.Equal(balance) {
			statement.Discontinuities++
			log.Printf("\t✗ Balance discontinuity at #%d (%s): expected %s, got %s", i+1, tx.Date, expected, balance)
		}
		previous = balance
	}

	if n := len(statement.Transactions); n > 0 {
		statement.ClosingBalance = previous
		statement.TransactionStartDate = statement.Transactions[0].Date
		statement.TransactionEndDate = statement.Transactions[n-1].Date
	}

	if statement.Discontinuities == 0 {
		log.Printf("\t✓ Running balance is continuous")
	}
	log.Printf("Found %d account details and %d transactions in %v", len(statement.AccountDetails), len(statement.Transactions), time.Since(startTime))

	return statement
}

// signedBalance reads the balance token, negative when overdrawn.
func signedBalance(l line) (decimal.Decimal, error) {
	balance, err := common.ParseAmount(l.balance)
	if err != nil {
		return decimal.Zero, err
	}
	if l.overdrawn() {
		balance = balance.Neg()
	}
	return balance, nil
}
