package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// Column synonyms per logical field, matched case-insensitively against the
// header row. The heuristic is deliberately simple; a header literally named
// "type" always wins the type slot even if the column means something else.
var headerSynonyms = map[string][]string{
	"date":        {"date", "transaction_date", "txn_date", "value_date", "posting_date"},
	"description": {"description", "narration", "details", "particulars", "remarks"},
	"amount":      {"amount", "value", "amt"},
	"type":        {"type", "transaction_type", "dr_cr", "cr_dr", "debit_credit"},
	"balance":     {"balance", "running_balance", "closing_balance", "available_balance"},
	"reference":   {"reference", "ref", "ref_no", "reference_number", "cheque_no"},
}

func parseCSV(r io.Reader) ([]ParsedTransaction, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	// Sniff the delimiter from the first KB.
	sample := raw
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if !bytes.Contains(sample, []byte(",")) && bytes.Contains(sample, []byte("\t")) {
		reader.Comma = '\t'
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, record)
	}
	return mapRows(rows), nil
}

func parseSpreadsheet(r io.Reader) ([]ParsedTransaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		// Covers corrupt workbooks and legacy OLE .xls files, which the
		// xlsx reader cannot open.
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreadableFile, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return mapRows(rows), nil
}

// mapRows applies the shared row-mapping strategy: resolve columns from the
// header via synonym lists, then map each data row, dropping any row whose
// date, description or amount cannot be extracted.
func mapRows(rows [][]string) []ParsedTransaction {
	if len(rows) < 2 {
		return nil
	}

	cols := resolveColumns(rows[0])
	dateIdx, hasDate := cols["date"]
	descIdx, hasDesc := cols["description"]
	amountIdx, hasAmount := cols["amount"]
	if !hasDate || !hasDesc || !hasAmount {
		return nil
	}

	var txns []ParsedTransaction
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		txn, ok := mapRow(row, cols, dateIdx, descIdx, amountIdx)
		if !ok {
			continue
		}
		txns = append(txns, txn)
	}
	return txns
}

func mapRow(row []string, cols map[string]int, dateIdx, descIdx, amountIdx int) (ParsedTransaction, bool) {
	date, ok := cell(row, dateIdx)
	if !ok {
		return ParsedTransaction{}, false
	}
	txnDate, err := NormalizeDate(date)
	if err != nil {
		return ParsedTransaction{}, false
	}

	desc, ok := cell(row, descIdx)
	if !ok {
		return ParsedTransaction{}, false
	}

	amountCell, ok := cell(row, amountIdx)
	if !ok {
		return ParsedTransaction{}, false
	}
	amount, err := parseAmount(amountCell)
	if err != nil {
		return ParsedTransaction{}, false
	}

	txnType := ""
	if idx, ok := cols["type"]; ok {
		if c, ok := cell(row, idx); ok {
			txnType = normalizeType(c)
		}
	}
	if txnType == "" {
		// No usable type column: the sign decides, then the amount
		// becomes a magnitude.
		if amount.IsNegative() {
			txnType = models.TypeDebit
		} else {
			txnType = models.TypeCredit
		}
	}

	txn := ParsedTransaction{
		TransactionDate: txnDate,
		Description:     desc,
		Amount:          amount.Abs().Round(2),
		Type:            txnType,
	}

	if idx, ok := cols["balance"]; ok {
		if c, ok := cell(row, idx); ok {
			if b, err := parseAmount(c); err == nil {
				b = b.Round(2)
				txn.Balance = &b
			}
		}
	}
	if idx, ok := cols["reference"]; ok {
		if c, ok := cell(row, idx); ok {
			txn.Reference = c
		}
	}
	return txn, true
}

func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for i, raw := range header {
		name := normalizeHeader(raw)
		for field, synonyms := range headerSynonyms {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, syn := range synonyms {
				if name == syn {
					cols[field] = i
					break
				}
			}
		}
	}
	return cols
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ".", "")
	return s
}

func cell(row []string, idx int) (string, bool) {
	if idx >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[idx])
	if v == "" {
		return "", false
	}
	return v, true
}

func blankRow(row []string) bool {
	return strings.TrimSpace(strings.Join(row, "")) == ""
}
