package ledger

import (
	"testing"

	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/stretchr/testify/assert"
)

// Synthetic statement text - mimics a linearised statement with fake data
const testStatement = `STATEMENT OF ACCOUNT
Account No : 123456789
A/C Name : JOHN DOE
Address : 12 MG ROAD
BANGALORE 560001
City : BANGALORE
Open Date : 01-04-2019
Sanction Limit : 5,00,000.00
Interest Rate : 10.50%
Date Description Debit Credit Balance
15-Jan-2024 ATM Withdrawal 5,000.00Dr 45,000.00Cr
20-Feb-2024 Salary Credit 50,000.00 95,000.00Cr
25-Feb-2024 Cheque 1001 1,500.00Dr 93,500.00Cr
`

func TestExtractAccountDetails_AllFields(t *testing.T) {
	details := ExtractAccountDetails(testStatement)

	expected := common.AccountDetails{
		common.KeyAccountNo:     "123456789",
		common.KeyAccountName:   "JOHN DOE",
		common.KeyAddress:       "12 MG ROAD\nBANGALORE 560001",
		common.KeyOpenDate:      "01-04-2019",
		common.KeySanctionLimit: "5,00,000.00",
		common.KeyInterestRate:  "10.50%",
	}
	assert.Equal(t, expected, details)
}

func TestExtractAccountDetails_AccountNo(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"spaced colon", "Account No : 123456\n"},
		{"no spaces", "Account No:123456"},
		{"tabs", "Account No\t:\t123456  \n"},
		{"embedded in text", "header\nSavings Account No : 123456 Branch: MAIN\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := ExtractAccountDetails(tt.input)
			assert.Equal(t, "123456", details[common.KeyAccountNo])
		})
	}
}

func TestExtractAccountDetails_NoLabels(t *testing.T) {
	details := ExtractAccountDetails("nothing to see here\n15-Jan-2024 ATM 1.00Dr 2.00Cr\n")

	assert.NotNil(t, details)
	assert.Empty(t, details)
}

func TestExtractAccountDetails_EmptyInput(t *testing.T) {
	details := ExtractAccountDetails("")

	assert.NotNil(t, details)
	assert.Empty(t, details)
}

func TestExtractAccountDetails_FirstMatchWins(t *testing.T) {
	details := ExtractAccountDetails("A/C Name : FIRST HOLDER\nA/C Name : SECOND HOLDER\n")

	assert.Equal(t, "FIRST HOLDER", details[common.KeyAccountName])
}

func TestExtractAccountDetails_CaseSensitive(t *testing.T) {
	details := ExtractAccountDetails("account no : 123456\nA/C NAME : JOHN\n")

	_, found := details.Lookup(common.KeyAccountNo)
	assert.False(t, found)
	_, found = details.Lookup(common.KeyAccountName)
	assert.False(t, found)
}

func TestExtractAccountDetails_FoundButEmpty(t *testing.T) {
	details := ExtractAccountDetails("Sanction Limit :   \nInterest Rate : 9%\n")

	value, found := details.Lookup(common.KeySanctionLimit)
	assert.True(t, found)
	assert.Equal(t, "", value)
	assert.Equal(t, "9%", details[common.KeyInterestRate])
}

func TestExtractAccountDetails_LastLineWithoutNewline(t *testing.T) {
	details := ExtractAccountDetails("A/C Name : JANE DOE")

	assert.Equal(t, "JANE DOE", details[common.KeyAccountName])
}

func TestExtractAccountDetails_AddressNeedsCity(t *testing.T) {
	details := ExtractAccountDetails("Address : 1 LONELY STREET\nPIN 000000\n")

	_, found := details.Lookup(common.KeyAddress)
	assert.False(t, found)
}

func TestExtractAccountDetails_OpenDateFormat(t *testing.T) {
	details := ExtractAccountDetails("Open Date : 2019-04-01\n")
	_, found := details.Lookup(common.KeyOpenDate)
	assert.False(t, found, "only DD-MM-YYYY is accepted")

	details = ExtractAccountDetails("Open Date: 31-12-2020\n")
	assert.Equal(t, "31-12-2020", details[common.KeyOpenDate])
}

func TestExtractAccountDetails_Idempotent(t *testing.T) {
	first := ExtractAccountDetails(testStatement)
	second := ExtractAccountDetails(testStatement)

	assert.Equal(t, first, second)
}

func TestExtractAccountDetails_ValueOnNextRow(t *testing.T) {
	details := ExtractAccountDetails("A/C Name : JOHN DOE\nAccount No :\n123456\nOpen Date :\n  01-04-2019\n")

	assert.Equal(t, "123456", details[common.KeyAccountNo])
	assert.Equal(t, "01-04-2019", details[common.KeyOpenDate])
	assert.Equal(t, "JOHN DOE", details[common.KeyAccountName])
}

func TestExtractAccountDetails_ValueNotBeyondNextRow(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"blank row between", "Account No :\n\n123456\n"},
		{"next row is a label", "Account No :\nA/C Name : 123456\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found := ExtractAccountDetails(tt.input).Lookup(common.KeyAccountNo)
			assert.False(t, found)
		})
	}
}
