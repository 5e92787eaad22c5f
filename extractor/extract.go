package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/aqlanhadi/statex/extractor/ledger"
	"github.com/spf13/viper"
)

// DefaultMaxTextBytes bounds the text handed to the pattern engine when
// limits.max_text_bytes is not configured.
const DefaultMaxTextBytes = 16 << 20

var (
	// ErrMalformedInput means the input is not usable text.
	ErrMalformedInput = errors.New("input is not valid UTF-8 text")
	// ErrInputTooLarge means the text exceeds the configured size limit.
	ErrInputTooLarge = errors.New("input text exceeds size limit")
	// ErrNoTransactions means the document is not a recognised statement.
	ErrNoTransactions = errors.New("no transactions found")
)

// MaxTextBytes returns the configured text size limit.
func MaxTextBytes() int {
	if n := viper.GetInt("limits.max_text_bytes"); n > 0 {
		return n
	}
	return DefaultMaxTextBytes
}

// ProcessText extracts a statement from flattened document text. A statement
// without transactions is returned together with ErrNoTransactions.
func ProcessText(source string, text string) (common.Statement, error) {
	if len(text) > MaxTextBytes() {
		return common.Statement{Source: source}, fmt.Errorf("%s: %w (%d bytes)", source, ErrInputTooLarge, len(text))
	}
	if !utf8.ValidString(text) {
		return common.Statement{Source: source}, fmt.Errorf("%s: %w", source, ErrMalformedInput)
	}

	patterns, err := ledger.LoadPatterns()
	if err != nil {
		return common.Statement{Source: source}, fmt.Errorf("failed to load patterns: %w", err)
	}

	statement := patterns.Extract(source, text)
	if len(statement.Transactions) == 0 {
		return statement, fmt.Errorf("%s: %w", source, ErrNoTransactions)
	}
	return statement, nil
}

// ReadText linearises a document: .txt files are read as-is, anything else
// is treated as a PDF.
func ReadText(reader io.Reader, filename string) (string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".txt") {
		b, err := io.ReadAll(io.LimitReader(reader, int64(MaxTextBytes())+1))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return common.ExtractTextFromPDFReader(reader)
}

// ProcessReader linearises the document in reader and extracts a statement.
func ProcessReader(reader io.Reader, filename string) (common.Statement, error) {
	source := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	text, err := ReadText(reader, filename)
	if err != nil {
		return common.Statement{Source: source}, fmt.Errorf("%s: failed to read text: %w", source, err)
	}

	return ProcessText(source, text)
}

func ProcessFile(path string) (common.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return common.Statement{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ProcessReader(f, path)
}

// IsSupportedFile reports whether the file name has an extension the
// extractor can read.
func IsSupportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt":
		return true
	}
	return false
}

// ExecuteAgainstPath extracts one file, or every supported file in a
// directory, and writes the result as JSON to out. Files without
// transactions are skipped.
func ExecuteAgainstPath(path string, out io.Writer, transactionOnly, statementOnly bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	if !info.IsDir() {
		log.Println("📄 Scanning ", path)
		statement, err := ProcessFile(path)
		if err != nil {
			log.Printf("\t❌ %v", err)
			return json.NewEncoder(out).Encode(struct{}{})
		}
		return json.NewEncoder(out).Encode(CreateFinalOutput(statement, transactionOnly, statementOnly))
	}

	log.Println("📂 Scanning ", path)
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	result := []interface{}{}
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFile(e.Name()) {
			continue
		}
		statement, err := ProcessFile(filepath.Join(path, e.Name()))
		if err != nil {
			log.Printf("\t❌ %v", err)
			continue
		}
		result = append(result, CreateFinalOutput(statement, transactionOnly, statementOnly))
	}

	return json.NewEncoder(out).Encode(result)
}

// CreateFinalOutput shapes a statement for JSON output: only the
// transactions, only the summary, or both.
func CreateFinalOutput(statement common.Statement, transactionOnly, statementOnly bool) interface{} {
	if transactionOnly {
		return statement.Transactions
	}

	output := map[string]interface{}{
		"source":                 statement.Source,
		"total_debit":            statement.TotalDebit,
		"total_credit":           statement.TotalCredit,
		"opening_balance":        statement.OpeningBalance,
		"closing_balance":        statement.ClosingBalance,
		"discontinuities":        statement.Discontinuities,
		"transaction_start_date": statement.TransactionStartDate,
		"transaction_end_date":   statement.TransactionEndDate,
	}

	if len(statement.AccountDetails) > 0 {
		output["account_details"] = statement.AccountDetails
	}

	if !statementOnly {
		output["transactions"] = statement.Transactions
	}

	return output
}
