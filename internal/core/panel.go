package core

import (
	"bytes"
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Control describes the widget offered for one filter column.
type Control struct {
	Column string
	Kind   ColumnKind

	// Categorical
	Options  []string
	Selected []string

	// Numeric
	Bounds     Range
	Current    Range
	Degenerate bool // min == max, matches all rows

	// TextSearch
	Tokens   []string
	MatchAll bool
}

// Active reports whether the control currently constrains the view.
func (c Control) Active() bool {
	switch c.Kind {
	case Categorical:
		return len(c.Selected) > 0
	case Numeric:
		return !c.Degenerate && !c.Current.Covers(c.Bounds)
	case TextSearch:
		return len(c.Tokens) > 0
	}
	return false
}

// Bounds returns the observed [min, max] of every Numeric column with at
// least one number.
func Bounds(t Table, kinds Kinds) map[string]Range {
	out := make(map[string]Range)
	for col, kind := range kinds {
		if kind != Numeric {
			continue
		}
		idx := t.Index(col)
		if idx < 0 {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, row := range t.Rows {
			v := row[idx]
			if v.Kind != KindNumber || math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
				continue
			}
			lo = math.Min(lo, v.Num)
			hi = math.Max(hi, v.Num)
		}
		if lo <= hi {
			out[col] = Range{Min: lo, Max: hi}
		}
	}
	return out
}

// DistinctValues returns the sorted distinct non-missing display values of a
// column. Ordering uses English collation with a byte-wise tie-break so the
// result is deterministic.
func DistinctValues(t Table, column string) []string {
	idx := t.Index(column)
	if idx < 0 {
		return nil
	}

	seen := make(map[string]bool)
	var vals []string
	for _, row := range t.Rows {
		v := row[idx]
		if v.IsMissing() {
			continue
		}
		s := v.String()
		if !seen[s] {
			seen[s] = true
			vals = append(vals, s)
		}
	}

	c := collate.New(language.English)
	sort.SliceStable(vals, func(i, j int) bool {
		if r := c.CompareString(vals[i], vals[j]); r != 0 {
			return r < 0
		}
		return bytes.Compare([]byte(vals[i]), []byte(vals[j])) < 0
	})
	return vals
}

// BuildPanel derives the controls for every filter column present in t, in
// the fixed FilterColumns order, reflecting the current selection.
//
// t must be the full normalized table, not a filtered view: options and
// bounds come from it. The selection is clamped to the observed bounds.
func BuildPanel(t Table, kinds Kinds, sel Selection) []Control {
	bounds := Bounds(t, kinds)
	sel = sel.Clamp(bounds)

	var controls []Control
	for _, fc := range FilterColumns {
		kind, ok := kinds[fc.Name]
		if !ok || !t.Has(fc.Name) {
			continue
		}

		c := Control{Column: fc.Name, Kind: kind}
		switch kind {
		case Numeric:
			b, ok := bounds[fc.Name]
			if !ok {
				// Numeric kind but no finite numbers: offer raw values.
				c.Kind = Categorical
				c.Options = DistinctValues(t, fc.Name)
				c.Selected = sel.Values[fc.Name]
				break
			}
			c.Bounds = b
			c.Degenerate = b.Min == b.Max
			c.Current = b
			if r, ok := sel.Ranges[fc.Name]; ok {
				c.Current = r
			}
		case TextSearch:
			if m, ok := sel.Contains[fc.Name]; ok {
				c.Tokens = m.Tokens
				c.MatchAll = m.All
			}
		default:
			c.Options = DistinctValues(t, fc.Name)
			c.Selected = sel.Values[fc.Name]
		}
		controls = append(controls, c)
	}
	return controls
}

// Reset returns the "no constraint" selection.
func Reset() Selection {
	return Selection{}
}
