// Package templates renders the HTML views. Components are written in
// .templ files; run `templ generate` after editing them.
package templates

import (
	"net/url"
	"strconv"
	"time"

	"github.com/JonMunkholm/sheetfilter/internal/core"
)

// AppTitle is shown in the page title and header.
const AppTitle = "Google Sheets Filter UI"

// PageData is everything the main page renders.
type PageData struct {
	SourceLabel  string
	CSVURL       string // User-entered override, echoed back into the form
	AllowUserURL bool
	LoadedAt     time.Time

	Error *core.UserMessage // Load or input failure, shown above any table

	HasTable bool
	View     core.View
	MaxRows  int    // Display cap; the download is never capped
	Query    string // Raw query of the current request
}

// DownloadURL links to the CSV of the current filtered view.
func (p PageData) DownloadURL() string {
	if p.Query == "" {
		return "/download"
	}
	return "/download?" + p.Query
}

// ClearURL drops every filter but keeps a user-entered source.
func (p PageData) ClearURL() string {
	if p.CSVURL == "" {
		return "/"
	}
	return "/?" + url.Values{ParamCSVURL: {p.CSVURL}}.Encode()
}

func (p PageData) loadedAtISO() string {
	return p.LoadedAt.UTC().Format(time.RFC3339)
}

func (p PageData) loadedAtText() string {
	return p.LoadedAt.UTC().Format("2006-01-02 15:04:05 MST")
}

// visibleRows caps t's rows for display. maxRows <= 0 means no cap.
func visibleRows(t core.Table, maxRows int) []core.Row {
	if maxRows > 0 && len(t.Rows) > maxRows {
		return t.Rows[:maxRows]
	}
	return t.Rows
}

func selectedSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// selectSize shows up to 8 options before scrolling.
func selectSize(options int) string {
	return strconv.Itoa(min(options, 8))
}

// rangeInput is one side of a numeric control.
type rangeInput struct {
	Label string
	Name  string
	Value string
}

func rangeInputs(c core.Control) []rangeInput {
	return []rangeInput{
		{Label: "From", Name: Param(PrefixMin, c.Column), Value: core.FormatNumber(c.Current.Min)},
		{Label: "To", Name: Param(PrefixMax, c.Column), Value: core.FormatNumber(c.Current.Max)},
	}
}

// textOperators lists the match modes of a text search control.
var textOperators = []string{OpAny, OpAll}

func opSelected(op string, matchAll bool) bool {
	return (op == OpAll) == matchAll
}
