package core

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindMissing ValueKind = iota
	KindText
	KindNumber
)

// Value is a single table cell.
//
// Missing cells may still carry the source text (an unparseable entry in a
// numeric column), which is shown and exported but never matched.
type Value struct {
	Kind ValueKind
	Str  string  // Source text, trimmed
	Num  float64 // Valid when Kind == KindNumber
}

// Text returns a text cell. Empty strings become Missing.
func Text(s string) Value {
	if s == "" {
		return Value{Kind: KindMissing}
	}
	return Value{Kind: KindText, Str: s}
}

// Number returns a numeric cell that remembers its source text.
func Number(n float64, src string) Value {
	return Value{Kind: KindNumber, Str: src, Num: n}
}

// Missing returns a missing cell, optionally keeping the source text.
func Missing(src string) Value {
	return Value{Kind: KindMissing, Str: src}
}

// IsMissing reports whether the cell has no usable value.
func (v Value) IsMissing() bool {
	return v.Kind == KindMissing
}

// String returns the display text of the cell.
func (v Value) String() string {
	if v.Kind == KindNumber && v.Str == "" {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// Row is one record, aligned to Table.Columns.
type Row []Value

// Table is an ordered set of rows sharing one column set.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of a column, or -1 if absent.
func (t Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Has reports whether the table contains a column.
func (t Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Records returns the table as display strings, one slice per row.
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.String()
		}
		out[i] = rec
	}
	return out
}

// ColumnKind decides which control a filter column gets.
type ColumnKind string

const (
	Categorical ColumnKind = "categorical"
	Numeric     ColumnKind = "numeric"
	TextSearch  ColumnKind = "text_search"
)

// Kinds maps filter column names to their decided kind.
type Kinds map[string]ColumnKind

// FilterColumn is one of the recognized filter columns.
type FilterColumn struct {
	Name string
	// Kind is the declared kind. Numeric columns fall back to Categorical
	// when too few cells parse as numbers.
	Kind ColumnKind
}

// FilterColumns is the fixed, ordered set of columns the panel offers.
// Other table columns pass through unfiltered.
var FilterColumns = []FilterColumn{
	{Name: "Keyword", Kind: Categorical},
	{Name: "Industry", Kind: Categorical},
	{Name: "Headcount", Kind: Numeric},
	{Name: "Employee Size", Kind: Numeric},
	{Name: "Company Location", Kind: TextSearch},
	{Name: "Title", Kind: TextSearch},
	{Name: "Person Location", Kind: TextSearch},
}

// NumericCandidates returns the filter columns declared numeric.
func NumericCandidates() []string {
	var names []string
	for _, fc := range FilterColumns {
		if fc.Kind == Numeric {
			names = append(names, fc.Name)
		}
	}
	return names
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether n lies within the range.
func (r Range) Contains(n float64) bool {
	return n >= r.Min && n <= r.Max
}

// Covers reports whether r includes all of other.
func (r Range) Covers(other Range) bool {
	return r.Min <= other.Min && r.Max >= other.Max
}

// LoadEvent records a single fetch of a source.
type LoadEvent struct {
	ID       uuid.UUID     `json:"id"`
	Source   string        `json:"source"` // Redacted source label
	Rows     int           `json:"rows"`
	Columns  int           `json:"columns"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Code     string        `json:"code,omitempty"`
	At       time.Time     `json:"at"`
}
