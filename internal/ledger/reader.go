// Package ledger reads exchange transaction statements. It resolves column
// aliases (English and Polish exports), detects the delimiter, and reports
// missing required columns before any row is handed to the processor.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/modek4/crypto-tax/internal/model"
)

var requiredColumns = []string{"UTC_Time", "Operation", "Coin", "Change", "Account"}

// columnAliases maps canonical column names to header spellings seen in
// exchange exports ("Generate All Statements", Polish locale included).
var columnAliases = map[string][]string{
	"UTC_Time":  {"UTC_Time", "Czas", "Time", "Date", "Datetime", "utc_time", "timestamp"},
	"Operation": {"Operation", "Operacja", "Type", "operation", "type"},
	"Coin":      {"Coin", "Moneta", "Asset", "Currency", "coin", "asset"},
	"Change":    {"Change", "Zmień", "Amount", "Quantity", "change", "amount"},
	"Account":   {"Account", "Konto", "account"},
	"Remark":    {"Remark", "Uwagi", "Note", "remark"},
}

// MissingColumnsError is fatal to the whole run: it is raised before any row
// is processed and names every required column the header lacks.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("ledger: missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Read parses a delimited statement into raw rows. separator 0 means detect
// from the header line. Rows without a timestamp or operation are skipped;
// everything else is kept verbatim for the processor to judge.
func Read(r io.Reader, separator rune) ([]model.RawRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}
	content := strings.TrimPrefix(string(raw), "\ufeff")
	if strings.TrimSpace(content) == "" {
		return nil, &MissingColumnsError{Columns: requiredColumns}
	}

	if separator == 0 {
		separator = detectSeparator(headerLine(content))
	}

	cr := csv.NewReader(strings.NewReader(content))
	cr.Comma = separator
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	colIdx := mapColumns(header)

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := colIdx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	var rows []model.RawRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		get := func(canonical string) string {
			i, ok := colIdx[canonical]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		if get("UTC_Time") == "" || get("Operation") == "" {
			continue
		}
		rows = append(rows, model.RawRow{
			UTCTime:   get("UTC_Time"),
			Operation: get("Operation"),
			Coin:      strings.ToUpper(get("Coin")),
			Change:    get("Change"),
			Account:   get("Account"),
			Remark:    get("Remark"),
		})
	}
	return rows, nil
}

func headerLine(content string) string {
	if i := strings.IndexAny(content, "\r\n"); i >= 0 {
		return content[:i]
	}
	return content
}

// detectSeparator counts candidate delimiters outside quotes on the header
// line and picks the most frequent one.
func detectSeparator(line string) rune {
	count := func(sep rune) int {
		inside := false
		n := 0
		for _, ch := range line {
			if ch == '"' {
				inside = !inside
				continue
			}
			if !inside && ch == sep {
				n++
			}
		}
		return n
	}
	best := ','
	bestCount := count(',')
	for _, sep := range []rune{';', '\t'} {
		if c := count(sep); c > bestCount {
			best = sep
			bestCount = c
		}
	}
	return best
}

func mapColumns(header []string) map[string]int {
	idx := make(map[string]int)
	for canonical, aliases := range columnAliases {
		for i, h := range header {
			h = strings.Trim(strings.TrimSpace(h), `"`)
			for _, a := range aliases {
				if strings.EqualFold(a, h) {
					idx[canonical] = i
					break
				}
			}
			if _, ok := idx[canonical]; ok {
				break
			}
		}
	}
	return idx
}
