// Package export renders extracted statements into spreadsheet formats.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/xuri/excelize/v2"
)

const (
	DetailsSheet      = "Account Details"
	TransactionsSheet = "Transactions"
)

// TransactionHeader is the column order of the transactions sheet and CSV.
var TransactionHeader = []string{"Date", "Description", "Debit", "Credit", "Balance"}

// WorkbookName derives the download name for an uploaded file.
func WorkbookName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_statement.xlsx"
}

// WriteWorkbook writes a two-sheet xlsx workbook: account details as
// Field/Value rows and the transaction ledger.
func WriteWorkbook(w io.Writer, statement common.Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DetailsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeDetails(f, statement.AccountDetails); err != nil {
		return err
	}

	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", TransactionsSheet, err)
	}
	if err := writeTransactions(f, statement.Transactions); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeDetails(f *excelize.File, details common.AccountDetails) error {
	if err := f.SetSheetRow(DetailsSheet, "A1", &[]string{"Field", "Value"}); err != nil {
		return fmt.Errorf("failed to write %s header: %w", DetailsSheet, err)
	}

	row := 2
	for _, key := range common.AccountDetailKeys {
		value, ok := details.Lookup(key)
		if !ok {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(DetailsSheet, cell, &[]string{key, value}); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", DetailsSheet, row, err)
		}
		row++
	}
	return nil
}

func writeTransactions(f *excelize.File, transactions []common.Transaction) error {
	if err := f.SetSheetRow(TransactionsSheet, "A1", &TransactionHeader); err != nil {
		return fmt.Errorf("failed to write %s header: %w", TransactionsSheet, err)
	}

	for i, tx := range transactions {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []string{tx.Date, tx.Description, tx.Debit, tx.Credit, tx.Balance}
		if err := f.SetSheetRow(TransactionsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", TransactionsSheet, i+2, err)
		}
	}
	return nil
}
