package common

import (
	"github.com/shopspring/decimal"
)

// Account detail keys, in the order they are rendered.
const (
	KeyAccountNo     = "account_no"
	KeyAccountName   = "account_name"
	KeyAddress       = "address"
	KeyOpenDate      = "open_date"
	KeySanctionLimit = "sanction_limit"
	KeyInterestRate  = "interest_rate"
)

// AccountDetailKeys lists every key an AccountDetails map may hold.
var AccountDetailKeys = []string{
	KeyAccountNo,
	KeyAccountName,
	KeyAddress,
	KeyOpenDate,
	KeySanctionLimit,
	KeyInterestRate,
}

// AccountDetails maps a detail key to its trimmed value. A key that was not
// found in the text is absent; a present empty value was found but blank.
type AccountDetails map[string]string

// Lookup reports the value for key and whether it was found.
func (d AccountDetails) Lookup(key string) (string, bool) {
	v, ok := d[key]
	return v, ok
}

// Transaction is one ledger line. Amounts are plain decimal strings without
// thousands separators or direction suffixes; Debit and Credit are empty when
// the line has no such leg.
type Transaction struct {
	Date        string `json:"date" csv:"Date"`
	Description string `json:"description" csv:"Description"`
	Debit       string `json:"debit" csv:"Debit"`
	Credit      string `json:"credit" csv:"Credit"`
	Balance     string `json:"balance" csv:"Balance"`
}

type Statement struct {
	Source               string          `json:"source"`
	AccountDetails       AccountDetails  `json:"account_details"`
	Transactions         []Transaction   `json:"transactions"`
	TotalDebit           decimal.Decimal `json:"total_debit"`
	TotalCredit          decimal.Decimal `json:"total_credit"`
	OpeningBalance       decimal.Decimal `json:"opening_balance"`
	ClosingBalance       decimal.Decimal `json:"closing_balance"`
	TransactionStartDate string          `json:"transaction_start_date,omitempty"`
	TransactionEndDate   string          `json:"transaction_end_date,omitempty"`
	Discontinuities      int             `json:"discontinuities"`
}
