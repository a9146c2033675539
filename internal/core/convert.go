package core

// convert.go turns the messy cell text found in prospect sheets into values.
//
// Size columns arrive in many shapes:
//   - Thousands separators ("5,000")
//   - Currency symbols ("$1,200")
//   - Accounting negatives ("(42)")
//   - Open-ended buckets ("10000+")
//
// Anything else is left for the caller to mark Missing.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain number after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses a cell as a number.
// Returns false for empty or unparseable input.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "+")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatNumber renders a number without trailing zeros.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// CleanCell trims whitespace and strips an Excel formula wrapper (="...").
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// NewTable builds a raw text table from a header and records.
//
// Short records are padded with Missing cells and long ones truncated, so
// every row shares the header's column set. Headers must be non-empty and
// unique after trimming.
func NewTable(header []string, records [][]string) (Table, error) {
	if len(header) == 0 {
		return Table{}, fmt.Errorf("%w: no header row", ErrFormat)
	}

	cols := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := CleanCell(h)
		if name == "" {
			return Table{}, fmt.Errorf("%w: column %d has an empty header", ErrFormat, i+1)
		}
		if seen[name] {
			return Table{}, fmt.Errorf("%w: duplicate column %q", ErrFormat, name)
		}
		seen[name] = true
		cols[i] = name
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if isBlankRecord(rec) {
			continue
		}
		row := make(Row, len(cols))
		for i := range cols {
			if i < len(rec) {
				row[i] = Text(rec[i])
			} else {
				row[i] = Missing("")
			}
		}
		rows = append(rows, row)
	}

	return Table{Columns: cols, Rows: rows}, nil
}

// isBlankRecord reports whether every cell in a record is empty.
func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
