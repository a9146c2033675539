package core

import "fmt"

// DefaultNumericThreshold is the fraction of non-empty cells that must parse
// as numbers for a size column to be treated as Numeric. The comparison is
// strict: exactly half is not enough.
const DefaultNumericThreshold = 0.5

// NormalizeOptions controls numeric coercion.
type NormalizeOptions struct {
	// NumericColumns are coerced to numbers. Defaults to NumericCandidates().
	NumericColumns []string

	// Threshold is the parsed/non-empty fraction that must be exceeded.
	// Values outside (0, 1] fall back to DefaultNumericThreshold.
	Threshold float64
}

func (o NormalizeOptions) withDefaults() NormalizeOptions {
	if o.NumericColumns == nil {
		o.NumericColumns = NumericCandidates()
	}
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = DefaultNumericThreshold
	}
	return o
}

// Normalize trims column names and cells, coerces the numeric candidate
// columns, and decides a kind for every filter column present.
//
// The input is not modified. The result depends only on the input table and
// options.
func Normalize(raw Table, opts NormalizeOptions) (Table, Kinds, error) {
	opts = opts.withDefaults()

	header := make([]string, len(raw.Columns))
	copy(header, raw.Columns)
	records := make([][]string, len(raw.Rows))
	for i, row := range raw.Rows {
		rec := make([]string, len(header))
		for j := range header {
			if j < len(row) {
				rec[j] = row[j].Str
			}
		}
		records[i] = rec
	}

	// NewTable trims headers and rejects duplicates that only differed by
	// surrounding whitespace.
	t, err := NewTable(header, records)
	if err != nil {
		return Table{}, nil, err
	}
	for _, row := range t.Rows {
		for j, v := range row {
			row[j] = Text(CleanCell(v.Str))
		}
	}

	kinds := make(Kinds)
	for _, fc := range FilterColumns {
		if t.Has(fc.Name) {
			kind := fc.Kind
			if kind == Numeric {
				kind = Categorical
			}
			kinds[fc.Name] = kind
		}
	}

	for _, col := range opts.NumericColumns {
		idx := t.Index(col)
		if idx < 0 {
			continue
		}
		if coerceColumn(t, idx, opts.Threshold) {
			kinds[col] = Numeric
		} else if _, ok := kinds[col]; !ok {
			kinds[col] = Categorical
		}
	}

	return t, kinds, nil
}

// coerceColumn converts a column to numbers in place when enough cells parse.
// Unparseable cells become Missing but keep their text.
func coerceColumn(t Table, idx int, threshold float64) bool {
	nonEmpty, parsed := 0, 0
	for _, row := range t.Rows {
		if row[idx].IsMissing() {
			continue
		}
		nonEmpty++
		if _, ok := ParseNumber(row[idx].Str); ok {
			parsed++
		}
	}

	if nonEmpty == 0 || float64(parsed)/float64(nonEmpty) <= threshold {
		return false
	}

	for _, row := range t.Rows {
		v := row[idx]
		if v.IsMissing() {
			continue
		}
		if n, ok := ParseNumber(v.Str); ok {
			row[idx] = Number(n, v.Str)
		} else {
			row[idx] = Missing(v.Str)
		}
	}
	return true
}

// String describes the kinds for logging.
func (k Kinds) String() string {
	s := ""
	for _, fc := range FilterColumns {
		if kind, ok := k[fc.Name]; ok {
			if s != "" {
				s += ", "
			}
			s += fmt.Sprintf("%s=%s", fc.Name, kind)
		}
	}
	return s
}
