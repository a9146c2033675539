package core

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExportCSV_RoundTrip(t *testing.T) {
	tbl := rawTable(t, []string{"Company", "Note", "Headcount"},
		[]string{"Acme, Inc.", `says "hi"`, "50"},
		[]string{"Globex", "line one\nline two", ""},
	)

	data, err := ExportCSV(tbl)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse exported CSV: %v", err)
	}

	want := append([][]string{tbl.Columns}, tbl.Records()...)
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if records[1][0] != "Acme, Inc." {
		t.Errorf("comma value = %q, want %q", records[1][0], "Acme, Inc.")
	}
}

func TestExportCSV_FilteredView(t *testing.T) {
	tbl, kinds := prospects(t)
	view := Render(tbl, kinds, Selection{Values: map[string][]string{"Industry": {"Retail"}}})

	data, err := ExportCSV(view.Filtered)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	want := strings.Join([]string{
		"Industry,Headcount,Title,Company",
		"Retail,200,Head of Sales,Initech",
		`Retail,"1,200",CTO,Hooli`,
		"",
	}, "\n")
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestExportCSV_HeaderOnly(t *testing.T) {
	data, err := ExportCSV(Table{Columns: []string{"A", "B"}})
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	if string(data) != "A,B\n" {
		t.Errorf("export = %q, want %q", data, "A,B\n")
	}
}

func TestExportCSV_NumericKeepsSourceText(t *testing.T) {
	raw := rawTable(t, []string{"Company", "Headcount"},
		[]string{"Acme", "5,000"},
		[]string{"Beta", "50"},
		[]string{"Gamma", "n/a"},
	)
	tbl, kinds, err := Normalize(raw, NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if kinds["Headcount"] != Numeric {
		t.Fatalf("Headcount kind = %q, want numeric", kinds["Headcount"])
	}

	data, err := ExportCSV(tbl)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	want := "Company,Headcount\nAcme,\"5,000\"\nBeta,50\nGamma,n/a\n"
	if got := string(data); got != want {
		t.Errorf("ExportCSV() = %q, want %q", got, want)
	}
}
