package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gzaln/fin/classification"
	"github.com/gzaln/fin/extractor"
)

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	Force   bool // Force reprocessing of existing statements
	Verbose bool // Enable verbose logging
}

// ImportFile extracts one PDF and stores it. A statement that already exists
// under its natural key is skipped unless Force replaces it.
func (db *DB) ImportFile(ctx context.Context, detector *extractor.Detector, classifier *classification.Engine, filePath string, opts ImportOptions) (processed, skipped, failed int, errors []string) {
	fileName := filepath.Base(filePath)

	result, err := detector.ProcessFile(filePath)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: %v", fileName, err)}
	}
	if result.Summary == nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: no statement summary extracted", fileName)}
	}
	if result.Summary.StatementDate == nil && result.Summary.PeriodEnd == nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s [%s]: no statement date extracted", fileName, result.Summary.Bank)}
	}

	// The natural key needs a date even when the statement only prints the
	// period.
	if result.Summary.StatementDate == nil {
		result.Summary.StatementDate = result.Summary.PeriodEnd
	}

	if classifier != nil {
		classifier.Apply(result.Transactions)
	}

	exists, existingID, err := db.StatementExists(ctx, result.Summary.Bank, result.Summary.AccountNumberLast4, *result.Summary.StatementDate)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s [%s]: check error: %v", fileName, result.Summary.Bank, err)}
	}

	if exists && !opts.Force {
		if opts.Verbose {
			log.Printf("SKIP %s [%s] (already exists)", fileName, result.Summary.Bank)
		}
		return 0, 1, 0, nil
	}
	if exists && opts.Force {
		if err := db.DeleteStatement(ctx, existingID); err != nil {
			return 0, 0, 1, []string{fmt.Sprintf("%s [%s]: delete error: %v", fileName, result.Summary.Bank, err)}
		}
	}

	statementID, err := db.CreateStatement(ctx, result.Summary)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s [%s]: statement error: %v", fileName, result.Summary.Bank, err)}
	}

	if err := db.CreateTransactions(ctx, statementID, result.Transactions); err != nil {
		_ = db.DeleteStatement(ctx, statementID)
		return 0, 0, 1, []string{fmt.Sprintf("%s [%s]: transactions error: %v", fileName, result.Summary.Bank, err)}
	}
	if err := db.CreatePlans(ctx, statementID, result.Plans); err != nil {
		_ = db.DeleteStatement(ctx, statementID)
		return 0, 0, 1, []string{fmt.Sprintf("%s [%s]: plans error: %v", fileName, result.Summary.Bank, err)}
	}

	if opts.Verbose {
		log.Printf("OK   %s [%s] (%d transactions, %d plans)", fileName, result.Summary.Bank, len(result.Transactions), len(result.Plans))
	}
	return 1, 0, 0, nil
}

// ImportDirectory processes all PDF files in a directory
func (db *DB) ImportDirectory(ctx context.Context, detector *extractor.Detector, classifier *classification.Engine, dirPath string, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var pdfFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			pdfFiles = append(pdfFiles, filepath.Join(dirPath, e.Name()))
		}
	}

	log.Printf("Scanning: %s", dirPath)
	log.Printf("Found %d PDF files", len(pdfFiles))

	for _, filePath := range pdfFiles {
		processed, skipped, failed, errors := db.ImportFile(ctx, detector, classifier, filePath, opts)

		result.Processed += processed
		result.Skipped += skipped
		result.Failed += failed
		result.Errors = append(result.Errors, errors...)

		if opts.Verbose && failed > 0 {
			for _, errMsg := range errors {
				log.Printf("FAIL %s", errMsg)
			}
		}
	}

	return result, nil
}

// Import handles both file and directory imports
func (db *DB) Import(ctx context.Context, detector *extractor.Detector, classifier *classification.Engine, path string, opts ImportOptions) (*ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return db.ImportDirectory(ctx, detector, classifier, path, opts)
	}

	result := &ImportResult{}
	processed, skipped, failed, errors := db.ImportFile(ctx, detector, classifier, path, opts)

	result.Processed = processed
	result.Skipped = skipped
	result.Failed = failed
	result.Errors = errors

	return result, nil
}
