package export

import (
	"fmt"
	"io"

	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/gocarina/gocsv"
)

// WriteCSV writes the transaction ledger as CSV with a header row.
func WriteCSV(w io.Writer, transactions []common.Transaction) error {
	if transactions == nil {
		transactions = []common.Transaction{}
	}
	if err := gocsv.Marshal(&transactions, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
