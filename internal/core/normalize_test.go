package core

import (
	"errors"
	"testing"
)

func rawTable(t *testing.T, header []string, records ...[]string) Table {
	t.Helper()
	tbl, err := NewTable(header, records)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return tbl
}

func TestNormalize_TrimsNamesAndCells(t *testing.T) {
	raw := Table{
		Columns: []string{" Industry ", "Name"},
		Rows: []Row{
			{Text("  Tech "), Text(" Acme ")},
		},
	}

	tbl, kinds, err := Normalize(raw, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if tbl.Columns[0] != "Industry" {
		t.Errorf("Columns[0] = %q, want %q", tbl.Columns[0], "Industry")
	}
	if got := tbl.Rows[0][0].String(); got != "Tech" {
		t.Errorf("cell = %q, want %q", got, "Tech")
	}
	if got := tbl.Rows[0][1].String(); got != "Acme" {
		t.Errorf("cell = %q, want %q", got, "Acme")
	}
	if kinds["Industry"] != Categorical {
		t.Errorf("kinds[Industry] = %q, want categorical", kinds["Industry"])
	}
	if _, ok := kinds["Name"]; ok {
		t.Error("non-filter column should have no kind")
	}
	// Input untouched
	if raw.Rows[0][0].Str != "  Tech " {
		t.Errorf("input mutated: %q", raw.Rows[0][0].Str)
	}
}

func TestNormalize_NumericCoercion(t *testing.T) {
	raw := rawTable(t, []string{"Headcount", "Company"},
		[]string{"10", "a"}, []string{"20", "b"}, []string{"abc", "c"}, []string{"", "d"},
	)

	t.Run("threshold met", func(t *testing.T) {
		// 2 of 3 non-empty cells parse: 0.67 > 0.5
		tbl, kinds, err := Normalize(raw, NormalizeOptions{Threshold: 0.5})
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if kinds["Headcount"] != Numeric {
			t.Fatalf("kind = %q, want numeric", kinds["Headcount"])
		}

		col := make([]Value, tbl.Len())
		for i, row := range tbl.Rows {
			col[i] = row[0]
		}
		if col[0].Kind != KindNumber || col[0].Num != 10 {
			t.Errorf("row 0 = %#v, want 10", col[0])
		}
		if col[1].Kind != KindNumber || col[1].Num != 20 {
			t.Errorf("row 1 = %#v, want 20", col[1])
		}
		if !col[2].IsMissing() || col[2].String() != "abc" {
			t.Errorf("row 2 = %#v, want missing with text", col[2])
		}
		if !col[3].IsMissing() {
			t.Errorf("row 3 = %#v, want missing", col[3])
		}
	})

	t.Run("threshold not met", func(t *testing.T) {
		tbl, kinds, err := Normalize(raw, NormalizeOptions{Threshold: 0.7})
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if kinds["Headcount"] != Categorical {
			t.Fatalf("kind = %q, want categorical", kinds["Headcount"])
		}
		if tbl.Rows[2][0].Kind != KindText {
			t.Errorf("categorical column should keep text, got %#v", tbl.Rows[2][0])
		}
	})
}

func TestNormalize_ExactlyHalfIsCategorical(t *testing.T) {
	raw := rawTable(t, []string{"Employee Size"}, []string{"10"}, []string{"n/a"})

	_, kinds, err := Normalize(raw, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if kinds["Employee Size"] != Categorical {
		t.Errorf("kind = %q, want categorical", kinds["Employee Size"])
	}
}

func TestNormalize_AllEmptyIsCategorical(t *testing.T) {
	raw := rawTable(t, []string{"Headcount", "Other"}, []string{"", "x"})

	_, kinds, err := Normalize(raw, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if kinds["Headcount"] != Categorical {
		t.Errorf("kind = %q, want categorical", kinds["Headcount"])
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := rawTable(t, []string{"Industry", "Headcount", "Title"},
		[]string{"Tech", "5,000", "CTO"},
		[]string{"Retail", "200", "VP Sales"},
	)

	_, first, err := Normalize(raw, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		_, again, _ := Normalize(raw, NormalizeOptions{})
		if first.String() != again.String() {
			t.Fatalf("kinds changed between runs: %s vs %s", first, again)
		}
	}
	if first["Title"] != TextSearch {
		t.Errorf("kinds[Title] = %q, want text_search", first["Title"])
	}
}

func TestNormalize_DuplicateAfterTrim(t *testing.T) {
	raw := Table{Columns: []string{"A", "A "}, Rows: nil}
	_, _, err := Normalize(raw, NormalizeOptions{})
	if !errors.Is(err, ErrFormat) {
		t.Errorf("Normalize() error = %v, want ErrFormat", err)
	}
}
