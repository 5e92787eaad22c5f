package ledger

import (
	"strings"

	"github.com/aqlanhadi/statex/extractor/common"
)

// ExtractTransactions applies the built-in ledger-line pattern to text.
func ExtractTransactions(text string) []common.Transaction {
	return defaultPatterns.Transactions(text)
}

// Transactions returns every non-overlapping ledger line in text order. The
// result is empty, never nil, when nothing matches.
func (p Patterns) Transactions(text string) []common.Transaction {
	lines := p.scan(text)

	transactions := make([]common.Transaction, 0, len(lines))
	for _, l := range lines {
		transactions = append(transactions, l.record())
	}
	return transactions
}

// line keeps the raw tokens of a match so the balance direction survives for
// the continuity check.
type line struct {
	date        string
	description string
	debit       string
	credit      string
	balance     string
}

func (l line) record() common.Transaction {
	return common.Transaction{
		Date:        l.date,
		Description: common.Trim(l.description),
		Debit:       common.NormalizeAmount(l.debit),
		Credit:      common.NormalizeAmount(l.credit),
		Balance:     common.NormalizeAmount(l.balance),
	}
}

// overdrawn reports whether the balance carries the Dr marker.
func (l line) overdrawn() bool {
	return strings.HasSuffix(l.balance, "Dr")
}

func (p Patterns) scan(text string) []line {
	if text == "" {
		return nil
	}

	matches := p.Transaction.FindAllStringSubmatch(text, -1)
	lines := make([]line, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, line{
			date:        group(m, p.groups.date),
			description: group(m, p.groups.description),
			debit:       coalesce(group(m, p.groups.debit), group(m, p.groups.debit1)),
			credit:      coalesce(group(m, p.groups.credit), group(m, p.groups.credit1)),
			balance:     group(m, p.groups.balance),
		})
	}
	return lines
}

func group(match []string, idx int) string {
	if idx < 0 || idx >= len(match) {
		return ""
	}
	return match[idx]
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
