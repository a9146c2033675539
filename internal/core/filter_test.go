package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// prospects is a small normalized table used across filter tests.
func prospects(t *testing.T) (Table, Kinds) {
	t.Helper()
	raw := rawTable(t,
		[]string{"Industry", "Headcount", "Title", "Company"},
		[]string{"Tech", "50", "CTO", "Acme, Inc."},
		[]string{"Tech", "5000", "VP Engineering", "Globex"},
		[]string{"Retail", "200", "Head of Sales", "Initech"},
		[]string{"Finance", "", "Chief Technology Officer", "Umbrella"},
		[]string{"Retail", "1,200", "CTO", "Hooli"},
	)
	tbl, kinds, err := Normalize(raw, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return tbl, kinds
}

func cell(t Table, row int, col string) string {
	return t.Rows[row][t.Index(col)].String()
}

func TestFilter_Scenario(t *testing.T) {
	raw := rawTable(t, []string{"Industry", "Headcount"},
		[]string{"Tech", "50"},
		[]string{"Tech", "5000"},
		[]string{"Retail", "200"},
	)
	tbl, kinds, err := Normalize(raw, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	sel := Selection{
		Values: map[string][]string{"Industry": {"Tech"}},
		Ranges: map[string]Range{"Headcount": {Min: 0, Max: 1000}},
	}
	got := Render(tbl, kinds, sel).Filtered

	want := [][]string{{"Tech", "50"}}
	if diff := cmp.Diff(want, got.Records()); diff != "" {
		t.Errorf("filtered rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_Identity(t *testing.T) {
	tbl, _ := prospects(t)

	got := Filter(tbl, Selection{})
	if diff := cmp.Diff(tbl, got); diff != "" {
		t.Errorf("empty selection changed table (-want +got):\n%s", diff)
	}

	// Empty sets and token lists are no constraint either.
	got = Filter(tbl, Selection{
		Values:   map[string][]string{"Industry": {}},
		Contains: map[string]TextMatch{"Title": {}},
	})
	if diff := cmp.Diff(tbl, got); diff != "" {
		t.Errorf("empty constraints changed table (-want +got):\n%s", diff)
	}
}

func TestFilter_SubsetAndPredicates(t *testing.T) {
	tbl, kinds := prospects(t)

	selections := map[string]Selection{
		"values": {Values: map[string][]string{"Industry": {"Retail", "Finance"}}},
		"range":  {Ranges: map[string]Range{"Headcount": {Min: 100, Max: 2000}}},
		"contains any": {Contains: map[string]TextMatch{
			"Title": {Tokens: []string{"cto", "chief"}},
		}},
		"contains all": {Contains: map[string]TextMatch{
			"Title": {Tokens: []string{"chief", "officer"}, All: true},
		}},
		"combined": {
			Values: map[string][]string{"Industry": {"Tech", "Retail"}},
			Ranges: map[string]Range{"Headcount": {Min: 0, Max: 1500}},
			Contains: map[string]TextMatch{
				"Title": {Tokens: []string{"CTO"}},
			},
		},
	}

	for name, sel := range selections {
		t.Run(name, func(t *testing.T) {
			sel = sel.Clamp(Bounds(tbl, kinds))
			got := Filter(tbl, sel)

			if diff := cmp.Diff(tbl.Columns, got.Columns); diff != "" {
				t.Errorf("column set changed (-want +got):\n%s", diff)
			}
			if got.Len() > tbl.Len() {
				t.Fatalf("filtered %d rows from %d", got.Len(), tbl.Len())
			}

			preds := sel.compile(tbl)
			for _, row := range got.Rows {
				if !containsRow(tbl, row) {
					t.Errorf("row %v not in source table", row)
				}
				if !matches(row, preds) {
					t.Errorf("row %v violates the selection", row)
				}
			}
		})
	}
}

func containsRow(t Table, row Row) bool {
	for _, r := range t.Rows {
		if cmp.Equal(r, row) {
			return true
		}
	}
	return false
}

func TestFilter_Idempotent(t *testing.T) {
	tbl, kinds := prospects(t)
	sel := Selection{
		Values: map[string][]string{"Industry": {"Tech", "Retail"}},
		Ranges: map[string]Range{"Headcount": {Min: 60, Max: 2000}},
	}.Clamp(Bounds(tbl, kinds))

	once := Filter(tbl, sel)
	twice := Filter(once, sel)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second application changed result (-once +twice):\n%s", diff)
	}
}

func TestFilter_OrderIndependent(t *testing.T) {
	tbl, kinds := prospects(t)
	full := Selection{
		Values: map[string][]string{"Industry": {"Tech", "Retail"}},
		Ranges: map[string]Range{"Headcount": {Min: 0, Max: 1500}},
		Contains: map[string]TextMatch{
			"Title": {Tokens: []string{"cto", "sales"}},
		},
	}.Clamp(Bounds(tbl, kinds))

	parts := []Selection{
		{Values: full.Values},
		{Ranges: full.Ranges},
		{Contains: full.Contains},
	}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {1, 2, 0}}

	want := Filter(tbl, full).Records()
	for _, order := range orders {
		got := tbl
		for _, i := range order {
			got = Filter(got, parts[i])
		}
		if diff := cmp.Diff(want, got.Records()); diff != "" {
			t.Errorf("order %v mismatch (-want +got):\n%s", order, diff)
		}
	}
}

func TestFilter_MissingInRange(t *testing.T) {
	tbl, kinds := prospects(t)
	bounds := Bounds(tbl, kinds)

	// Full observed range: no constraint, the Finance row (missing) stays.
	full := Selection{Ranges: map[string]Range{"Headcount": bounds["Headcount"]}}.Clamp(bounds)
	if got := Filter(tbl, full); got.Len() != tbl.Len() {
		t.Errorf("full range kept %d rows, want %d", got.Len(), tbl.Len())
	}

	// Wider than observed is clamped and dropped too.
	wide := Selection{Ranges: map[string]Range{"Headcount": {Min: -1e9, Max: 1e9}}}.Clamp(bounds)
	if got := Filter(tbl, wide); got.Len() != tbl.Len() {
		t.Errorf("wide range kept %d rows, want %d", got.Len(), tbl.Len())
	}

	// Narrower range excludes the missing row.
	narrow := Selection{Ranges: map[string]Range{"Headcount": {Min: 50, Max: 4999}}}.Clamp(bounds)
	got := Filter(tbl, narrow)
	for i := range got.Rows {
		if cell(got, i, "Industry") == "Finance" {
			t.Error("row with missing headcount survived a narrowing range")
		}
	}
	if got.Len() != 3 {
		t.Errorf("narrow range kept %d rows, want 3", got.Len())
	}
}

func TestFilter_UnknownColumnIgnored(t *testing.T) {
	tbl, _ := prospects(t)
	got := Filter(tbl, Selection{Values: map[string][]string{"Keyword": {"x"}}})
	if got.Len() != tbl.Len() {
		t.Errorf("constraint on absent column removed rows: %d", got.Len())
	}
}

func TestSelectionClamp(t *testing.T) {
	bounds := map[string]Range{
		"Headcount":     {Min: 10, Max: 100},
		"Employee Size": {Min: 5, Max: 5},
	}

	got := Selection{Ranges: map[string]Range{
		"Headcount":     {Min: 200, Max: 20}, // inverted, partly outside
		"Employee Size": {Min: 0, Max: 1},    // degenerate column
		"Industry":      {Min: 0, Max: 1},    // not numeric
	}}.Clamp(bounds)

	want := map[string]Range{"Headcount": {Min: 20, Max: 100}}
	if diff := cmp.Diff(want, got.Ranges); diff != "" {
		t.Errorf("clamped ranges mismatch (-want +got):\n%s", diff)
	}
	if !(Selection{}).IsEmpty() {
		t.Error("zero selection should be empty")
	}
	if got.IsEmpty() {
		t.Error("clamped selection with an active range should not be empty")
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize(" new york, ,London ,")
	want := []string{"new york", "London"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
	if Tokenize("  ") != nil {
		t.Error("blank text should yield no tokens")
	}
}
