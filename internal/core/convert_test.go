package core

import (
	"errors"
	"testing"
)

// ============================================================================
// ParseNumber Tests
// ============================================================================

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"integer", "50", 50, true},
		{"decimal", "12.5", 12.5, true},
		{"thousands separator", "5,000", 5000, true},
		{"currency", "$1,200", 1200, true},
		{"euro", "€99", 99, true},
		{"accounting negative", "(42)", -42, true},
		{"open bucket", "10000+", 10000, true},
		{"surrounding whitespace", "  7  ", 7, true},
		{"scientific", "1e3", 1000, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"text", "abc", 0, false},
		{"range bucket", "51-200", 0, false},
		{"mixed", "12abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Tech  ", "Tech"},
		{`="00123"`, "00123"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ============================================================================
// NewTable Tests
// ============================================================================

func TestNewTable_PadsAndTruncates(t *testing.T) {
	tbl, err := NewTable(
		[]string{"A", "B"},
		[][]string{{"1"}, {"1", "2", "3"}},
	)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if len(tbl.Rows[0]) != 2 || !tbl.Rows[0][1].IsMissing() {
		t.Errorf("short row not padded: %#v", tbl.Rows[0])
	}
	if len(tbl.Rows[1]) != 2 || tbl.Rows[1][1].String() != "2" {
		t.Errorf("long row not truncated: %#v", tbl.Rows[1])
	}
}

func TestNewTable_SkipsBlankRecords(t *testing.T) {
	tbl, err := NewTable([]string{"A"}, [][]string{{"x"}, {""}, {"  "}, {"y"}})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}
}

func TestNewTable_HeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"no header", nil},
		{"empty column name", []string{"A", " "}},
		{"duplicate column", []string{"A", "A"}},
		{"duplicate after trim", []string{"A", " A "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.header, nil)
			if !errors.Is(err, ErrFormat) {
				t.Errorf("NewTable() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	if got := Number(5000, "5,000").String(); got != "5,000" {
		t.Errorf("Number with source = %q, want %q", got, "5,000")
	}
	if got := Number(12.5, "").String(); got != "12.5" {
		t.Errorf("Number without source = %q, want %q", got, "12.5")
	}
	if got := Missing("abc").String(); got != "abc" {
		t.Errorf("Missing with source = %q, want %q", got, "abc")
	}
	if !Text("").IsMissing() {
		t.Error("Text(\"\") should be missing")
	}
}
