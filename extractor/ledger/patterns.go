package ledger

import (
	"fmt"
	"regexp"

	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/spf13/viper"
)

// ConfigKey is the viper prefix holding pattern overrides, e.g.
// statement.LEDGER.patterns.account_no.
const ConfigKey = "statement.LEDGER.patterns"

// amount matches a grouped decimal such as 12,345.00.
const amount = `[\d,]+\.\d{2}`

// fieldPatterns holds one single-group pattern per account detail. Account
// number and open date may sit on the row below their label.
var fieldPatterns = map[string]string{
	common.KeyAccountNo:     `Account No[ \t]*:[ \t]*\n?[ \t]*(\d+)`,
	common.KeyAccountName:   `A/C Name[ \t]*:[ \t]*([^\n]*)`,
	common.KeyAddress:       `(?s)Address[ \t]*:[ \t]*(.*?)\n[ \t]*City`,
	common.KeyOpenDate:      `Open Date[ \t]*:[ \t]*\n?[ \t]*(\d{2}-\d{2}-\d{4})`,
	common.KeySanctionLimit: `Sanction Limit[ \t]*:[ \t]*([^\n]*)`,
	common.KeyInterestRate:  `Interest Rate[ \t]*:[ \t]*([^\n]*)`,
}

// DefaultFieldPatterns returns a copy of the built-in field patterns.
func DefaultFieldPatterns() map[string]string {
	fields := make(map[string]string, len(fieldPatterns))
	for key, expr := range fieldPatterns {
		fields[key] = expr
	}
	return fields
}

// DefaultTransactionPattern matches one ledger line. The legs before the
// balance are either a debit and a credit, a lone debit carrying Dr, or a
// lone credit. The balance always carries Dr or Cr.
const DefaultTransactionPattern = `(?P<date>\d{2}-[A-Za-z]{3}-\d{4})\s+(?P<description>.*?)\s+` +
	`(?:(?P<debit>` + amount + `(?:Dr|Cr)?)\s+(?P<credit>` + amount + `(?:Dr|Cr)?)\s+` +
	`|(?P<debit1>` + amount + `Dr)\s+` +
	`|(?P<credit1>` + amount + `(?:Cr)?)\s+)?` +
	`(?P<balance>` + amount + `(?:Dr|Cr))`

// Patterns is a compiled rule set. The zero value is not usable; build one
// with DefaultPatterns, Compile or LoadPatterns. Compiled patterns are safe
// for concurrent use.
type Patterns struct {
	Fields      map[string]*regexp.Regexp
	Transaction *regexp.Regexp

	groups txGroups
}

type txGroups struct {
	date, description, debit, credit, debit1, credit1, balance int
}

var defaultPatterns = mustCompile(fieldPatterns, DefaultTransactionPattern)

// DefaultPatterns returns the built-in rule set.
func DefaultPatterns() Patterns {
	return defaultPatterns
}

func mustCompile(fields map[string]string, transaction string) Patterns {
	p, err := Compile(fields, transaction)
	if err != nil {
		panic(err)
	}
	return p
}

// Compile builds a rule set. Every field pattern must have exactly one
// capture group; the transaction pattern must name the date, description
// and balance groups.
func Compile(fields map[string]string, transaction string) (Patterns, error) {
	p := Patterns{Fields: make(map[string]*regexp.Regexp, len(fields))}

	for key, expr := range fields {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Patterns{}, fmt.Errorf("invalid %s pattern: %w", key, err)
		}
		if re.NumSubexp() != 1 {
			return Patterns{}, fmt.Errorf("invalid %s pattern: expected 1 capture group, got %d", key, re.NumSubexp())
		}
		p.Fields[key] = re
	}

	re, err := regexp.Compile(transaction)
	if err != nil {
		return Patterns{}, fmt.Errorf("invalid transaction pattern: %w", err)
	}
	p.Transaction = re
	p.groups = txGroups{
		date:        re.SubexpIndex("date"),
		description: re.SubexpIndex("description"),
		debit:       re.SubexpIndex("debit"),
		credit:      re.SubexpIndex("credit"),
		debit1:      re.SubexpIndex("debit1"),
		credit1:     re.SubexpIndex("credit1"),
		balance:     re.SubexpIndex("balance"),
	}
	for name, idx := range map[string]int{"date": p.groups.date, "description": p.groups.description, "balance": p.groups.balance} {
		if idx < 0 {
			return Patterns{}, fmt.Errorf("invalid transaction pattern: missing named group %q", name)
		}
	}

	return p, nil
}

// LoadPatterns compiles the rule set from viper, falling back to the
// built-in pattern for every key that is not configured.
func LoadPatterns() (Patterns, error) {
	fields := DefaultFieldPatterns()
	for _, key := range common.AccountDetailKeys {
		if override := viper.GetString(ConfigKey + "." + key); override != "" {
			fields[key] = override
		}
	}

	transaction := DefaultTransactionPattern
	if override := viper.GetString(ConfigKey + ".transaction"); override != "" {
		transaction = override
	}

	return Compile(fields, transaction)
}
