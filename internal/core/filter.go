package core

import (
	"sort"
	"strings"
)

// TextMatch is a free-text constraint: comma-separated tokens matched as
// case-insensitive substrings.
type TextMatch struct {
	Tokens []string `json:"tokens"`
	// All requires every token to match (AND). Otherwise any token will do.
	All bool `json:"all"`
}

// Selection is the set of user constraints across filter columns.
// The zero value imposes no constraint.
type Selection struct {
	Values   map[string][]string  `json:"values,omitempty"`
	Ranges   map[string]Range     `json:"ranges,omitempty"`
	Contains map[string]TextMatch `json:"contains,omitempty"`
}

// IsEmpty reports whether the selection imposes no constraint.
func (s Selection) IsEmpty() bool {
	for _, v := range s.Values {
		if len(v) > 0 {
			return false
		}
	}
	for _, m := range s.Contains {
		if len(m.Tokens) > 0 {
			return false
		}
	}
	return len(s.Ranges) == 0
}

// Clamp returns a copy of the selection fitted to the observed bounds.
//
// Range bounds are clamped to the observed range and swapped if inverted.
// A range that still covers the observed range, or whose column is
// degenerate (min == max) or not numeric, is dropped: it is no constraint.
// Empty value sets and token lists are dropped too.
func (s Selection) Clamp(bounds map[string]Range) Selection {
	out := Selection{}

	for col, vals := range s.Values {
		if len(vals) == 0 {
			continue
		}
		if out.Values == nil {
			out.Values = make(map[string][]string)
		}
		out.Values[col] = append([]string(nil), vals...)
	}

	for col, r := range s.Ranges {
		b, ok := bounds[col]
		if !ok || b.Min == b.Max {
			continue
		}
		if r.Min > r.Max {
			r.Min, r.Max = r.Max, r.Min
		}
		r.Min = clampFloat(r.Min, b.Min, b.Max)
		r.Max = clampFloat(r.Max, b.Min, b.Max)
		if r.Covers(b) {
			continue
		}
		if out.Ranges == nil {
			out.Ranges = make(map[string]Range)
		}
		out.Ranges[col] = r
	}

	for col, m := range s.Contains {
		if len(m.Tokens) == 0 {
			continue
		}
		if out.Contains == nil {
			out.Contains = make(map[string]TextMatch)
		}
		out.Contains[col] = TextMatch{Tokens: append([]string(nil), m.Tokens...), All: m.All}
	}

	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tokenize splits comma-separated search text into trimmed, non-empty tokens.
func Tokenize(text string) []string {
	var tokens []string
	for _, t := range strings.Split(text, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// predicate tests one cell.
type predicate struct {
	col  int
	test func(Value) bool
}

// compile resolves the selection against a table's columns.
// Constraints on columns the table lacks are ignored.
func (s Selection) compile(t Table) []predicate {
	var preds []predicate

	// Sorted for a stable evaluation order; the result does not depend on it.
	for _, col := range sortedKeys(s.Values) {
		vals := s.Values[col]
		idx := t.Index(col)
		if idx < 0 || len(vals) == 0 {
			continue
		}
		set := make(map[string]bool, len(vals))
		for _, v := range vals {
			set[v] = true
		}
		preds = append(preds, predicate{col: idx, test: func(v Value) bool {
			return !v.IsMissing() && set[v.String()]
		}})
	}

	for _, col := range sortedKeys(s.Ranges) {
		r := s.Ranges[col]
		idx := t.Index(col)
		if idx < 0 {
			continue
		}
		preds = append(preds, predicate{col: idx, test: func(v Value) bool {
			return v.Kind == KindNumber && r.Contains(v.Num)
		}})
	}

	for _, col := range sortedKeys(s.Contains) {
		m := s.Contains[col]
		idx := t.Index(col)
		if idx < 0 || len(m.Tokens) == 0 {
			continue
		}
		needles := make([]string, len(m.Tokens))
		for i, tok := range m.Tokens {
			needles[i] = strings.ToLower(tok)
		}
		all := m.All
		preds = append(preds, predicate{col: idx, test: func(v Value) bool {
			if v.IsMissing() {
				return false
			}
			hay := strings.ToLower(v.String())
			for _, n := range needles {
				hit := strings.Contains(hay, n)
				if all && !hit {
					return false
				}
				if !all && hit {
					return true
				}
			}
			return all
		}})
	}

	return preds
}

// Filter returns the rows of t that satisfy every constraint in s.
//
// Every range present in s is treated as active, so rows with a Missing cell
// in that column are excluded. Pass the selection through Clamp first to drop
// ranges that do not narrow the observed bounds.
//
// The result shares the column set of t and keeps row order. Rows are shared
// with t, not copied.
func Filter(t Table, s Selection) Table {
	preds := s.compile(t)
	if len(preds) == 0 {
		return t
	}

	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if matches(row, preds) {
			rows = append(rows, row)
		}
	}
	return Table{Columns: t.Columns, Rows: rows}
}

func matches(row Row, preds []predicate) bool {
	for _, p := range preds {
		if !p.test(row[p.col]) {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
