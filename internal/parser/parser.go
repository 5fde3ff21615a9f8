// Package parser normalizes uploaded bank statement files into canonical
// parsed transactions. Delimited-text and spreadsheet inputs share one
// row-mapping strategy; PDF text goes through a line-based heuristic.
// Individual rows that fail field extraction are dropped; a statement that
// yields zero rows is an error.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/shopspring/decimal"
)

// ParsedTransaction is the canonical shape every statement format is
// normalized into before persistence. Amount is always a non-negative
// magnitude rounded to 2 fraction digits; the sign lives in Type.
type ParsedTransaction struct {
	TransactionDate time.Time
	Description     string
	Amount          decimal.Decimal
	Type            string
	Balance         *decimal.Decimal
	Reference       string
}

var supportedExtensions = []string{".csv", ".xlsx", ".xls", ".pdf"}

// Parse dispatches on the file extension and returns the ordered sequence of
// transactions extracted from the statement. An unrecognized extension fails
// with apperrors.ErrUnsupportedFormat; a recognized file from which no row
// survives fails with apperrors.ErrEmptyStatement.
func Parse(filename string, r io.Reader) ([]ParsedTransaction, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		txns []ParsedTransaction
		err  error
	)
	switch ext {
	case ".csv":
		txns, err = parseCSV(r)
	case ".xlsx", ".xls":
		txns, err = parseSpreadsheet(r)
	case ".pdf":
		txns, err = parsePDF(r)
	default:
		return nil, apperrors.UnsupportedFormat(ext, supportedExtensions)
	}
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrEmptyStatement, filename)
	}
	return txns, nil
}

// parseAmount strips thousands separators and surrounding noise, keeping the
// sign, then parses the remainder as a decimal.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}

// normalizeType maps an explicit type cell onto the canonical constants.
// Returns "" when the cell is not recognizable, in which case the caller
// falls back to the amount sign.
func normalizeType(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDIT", "CR", "C":
		return models.TypeCredit
	case "DEBIT", "DR", "D":
		return models.TypeDebit
	default:
		return ""
	}
}
