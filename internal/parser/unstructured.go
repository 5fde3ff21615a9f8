package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/dslipak/pdf"
)

var (
	dateTokenRegex   = regexp.MustCompile(`\b\d{1,4}[/-]\d{1,2}[/-]\d{2,4}\b`)
	numberTokenRegex = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
	digitsRegex      = regexp.MustCompile(`\d`)
	spacesRegex      = regexp.MustCompile(`\s+`)
)

func parsePDF(r io.Reader) ([]ParsedTransaction, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreadableFile, err)
	}

	var lines []string
	for no := 1; no <= reader.NumPage(); no++ {
		page := reader.Page(no)
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var b strings.Builder
			for i, text := range row.Content {
				b.WriteString(text.S)
				if i < len(row.Content)-1 {
					b.WriteByte(' ')
				}
			}
			if b.Len() > 0 {
				lines = append(lines, b.String())
			}
		}
	}
	return parseLines(lines), nil
}

// parseLines applies the unstructured-text strategy: a line qualifies only if
// it carries a recognizable date token and at least one numeric token. The
// last numeric token is the amount; the text between the date and that
// amount, digits stripped, is the description.
func parseLines(lines []string) []ParsedTransaction {
	var txns []ParsedTransaction
	for _, line := range lines {
		txn, ok := parseLine(line)
		if !ok {
			continue
		}
		txns = append(txns, txn)
	}
	return txns
}

func parseLine(line string) (ParsedTransaction, bool) {
	dateLoc := dateTokenRegex.FindStringIndex(line)
	if dateLoc == nil {
		return ParsedTransaction{}, false
	}
	txnDate, err := NormalizeDate(line[dateLoc[0]:dateLoc[1]])
	if err != nil {
		return ParsedTransaction{}, false
	}

	// Last numeric token that does not overlap the date token.
	var amountLoc []int
	for _, loc := range numberTokenRegex.FindAllStringIndex(line, -1) {
		if loc[0] < dateLoc[1] && loc[1] > dateLoc[0] {
			continue
		}
		amountLoc = loc
	}
	if amountLoc == nil {
		return ParsedTransaction{}, false
	}
	amount, err := parseAmount(line[amountLoc[0]:amountLoc[1]])
	if err != nil {
		return ParsedTransaction{}, false
	}

	descStart, descEnd := dateLoc[1], amountLoc[0]
	if amountLoc[0] < dateLoc[0] {
		descStart, descEnd = amountLoc[1], dateLoc[0]
	}
	desc := digitsRegex.ReplaceAllString(line[descStart:descEnd], "")
	desc = strings.TrimSpace(spacesRegex.ReplaceAllString(desc, " "))

	txn := ParsedTransaction{
		TransactionDate: txnDate,
		Description:     desc,
		Amount:          amount.Abs().Round(2),
		Type:            lineType(line, amount.IsNegative()),
	}
	return txn, true
}

// lineType defaults to CREDIT unless the amount is negative or the line
// carries a debit keyword; an explicit credit keyword forces CREDIT.
func lineType(line string, negative bool) string {
	words := strings.Fields(strings.ToLower(line))
	for _, w := range words {
		switch strings.Trim(w, ".,()") {
		case "cr", "credit":
			return models.TypeCredit
		case "dr", "debit", "withdrawal":
			return models.TypeDebit
		}
	}
	if negative {
		return models.TypeDebit
	}
	return models.TypeCredit
}
