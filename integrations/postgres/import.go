package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aqlanhadi/statex/extractor"
	"github.com/aqlanhadi/statex/extractor/common"
)

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

func (r *ImportResult) add(other ImportResult) {
	r.Processed += other.Processed
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

func (r *ImportResult) fail(format string, args ...interface{}) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	Force   bool // Force reprocessing of existing statements
	Verbose bool // Enable verbose logging
}

// ImportFile extracts a single statement file and stores it in the database
func (db *DB) ImportFile(ctx context.Context, filePath string, opts ImportOptions) ImportResult {
	fileName := filepath.Base(filePath)

	statement, err := extractor.ProcessFile(filePath)
	if err != nil {
		var result ImportResult
		result.fail("%s: %v", fileName, err)
		return result
	}

	return db.ImportStatement(ctx, fileName, statement, opts)
}

// ImportStatement stores an extracted statement, skipping it when a
// statement with the same account and period already exists.
func (db *DB) ImportStatement(ctx context.Context, fileName string, statement common.Statement, opts ImportOptions) ImportResult {
	var result ImportResult

	accountNo := statement.AccountDetails[common.KeyAccountNo]
	if accountNo == "" {
		result.fail("%s: no account number extracted", fileName)
		return result
	}

	period, err := StatementPeriod(statement)
	if err != nil {
		result.fail("%s [%s]: %v", fileName, accountNo, err)
		return result
	}

	// Check if statement exists (natural key: account_no + period)
	exists, existingID, err := db.StatementExists(ctx, accountNo, period)
	if err != nil {
		result.fail("%s [%s]: check error: %v", fileName, accountNo, err)
		return result
	}

	if exists && !opts.Force {
		if opts.Verbose {
			log.Printf("SKIP %s [%s] (already exists)", fileName, accountNo)
		}
		result.Skipped++
		return result
	}

	if _, err := db.SaveStatement(ctx, statement, period, existingID); err != nil {
		result.fail("%s [%s]: %v", fileName, accountNo, err)
		return result
	}

	if opts.Verbose {
		log.Printf("OK   %s [%s] (%d transactions)", fileName, accountNo, len(statement.Transactions))
	}
	result.Processed++
	return result
}

// ImportDirectory processes all supported statement files in a directory
func (db *DB) ImportDirectory(ctx context.Context, dirPath string, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var dataFiles []string
	for _, e := range entries {
		if e.IsDir() || !extractor.IsSupportedFile(e.Name()) {
			continue
		}
		dataFiles = append(dataFiles, filepath.Join(dirPath, e.Name()))
	}

	log.Printf("Scanning: %s", dirPath)
	log.Printf("Found %d files (PDF/TXT)\n", len(dataFiles))

	for _, filePath := range dataFiles {
		fileResult := db.ImportFile(ctx, filePath, opts)
		result.add(fileResult)

		// Log failures if verbose
		if opts.Verbose {
			for _, errMsg := range fileResult.Errors {
				log.Printf("FAIL %s", errMsg)
			}
		}
	}

	return result, nil
}

// Import handles both file and directory imports
func (db *DB) Import(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return db.ImportDirectory(ctx, path, opts)
	}

	result := db.ImportFile(ctx, path, opts)
	return &result, nil
}
