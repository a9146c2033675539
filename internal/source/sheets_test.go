package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JonMunkholm/sheetfilter/internal/core"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// fakeReader serves fixed rows and records what it was asked for.
type fakeReader struct {
	rows    [][]string
	err     error
	sheetID string
	tabID   string
}

func (f *fakeReader) ReadTab(_ context.Context, sheetID, tabID string) ([][]string, error) {
	f.sheetID, f.tabID = sheetID, tabID
	return f.rows, f.err
}

func fakeFetcher(r *fakeReader) *SheetsFetcher {
	return &SheetsFetcher{NewReader: func(context.Context, []byte) (SheetReader, error) {
		return r, nil
	}}
}

func TestSheetsFetcher_Fetch(t *testing.T) {
	r := &fakeReader{rows: [][]string{
		{"Industry", "Headcount"},
		{"Tech", "50"},
		{"Retail"},
	}}

	d := Descriptor{Credential: testServiceAccount, SheetID: "sheet-1", TabID: "123"}
	tbl, err := fakeFetcher(r).Fetch(context.Background(), d)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if r.sheetID != "sheet-1" || r.tabID != "123" {
		t.Errorf("reader called with %q/%q", r.sheetID, r.tabID)
	}
	want := [][]string{{"Tech", "50"}, {"Retail", ""}}
	if diff := cmp.Diff(want, tbl.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestSheetsFetcher_Errors(t *testing.T) {
	tests := []struct {
		name     string
		cred     string
		rows     [][]string
		readErr  error
		want     error
		wantCode string
	}{
		{
			name:     "malformed credential",
			cred:     "{broken",
			want:     core.ErrCredential,
			wantCode: "CRED001",
		},
		{
			name:     "empty sheet",
			cred:     testServiceAccount,
			want:     core.ErrFormat,
			wantCode: "FMT001",
		},
		{
			name:     "forbidden",
			cred:     testServiceAccount,
			readErr:  &googleapi.Error{Code: http.StatusForbidden, Message: "caller does not have permission"},
			want:     core.ErrAccessDenied,
			wantCode: "CRED002",
		},
		{
			name:     "token rejected",
			cred:     testServiceAccount,
			readErr:  fmt.Errorf("get: %w", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 400}}),
			want:     core.ErrCredential,
			wantCode: "CRED001",
		},
		{
			name:     "not found",
			cred:     testServiceAccount,
			readErr:  &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."},
			want:     core.ErrSourceUnavailable,
			wantCode: "SRC001",
		},
		{
			name:     "network",
			cred:     testServiceAccount,
			readErr:  errors.New("dial tcp: connection refused"),
			want:     core.ErrSourceUnavailable,
			wantCode: "SRC001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeReader{rows: tt.rows, err: tt.readErr}
			d := Descriptor{Credential: tt.cred, SheetID: "s"}

			_, err := fakeFetcher(r).Fetch(context.Background(), d)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Fetch() error = %v, want %v", err, tt.want)
			}
			if got := core.MapError(err).Code; got != tt.wantCode {
				t.Errorf("MapError code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestResolveTab(t *testing.T) {
	tabs := []TabProperties{
		{ID: 0, Title: "Leads"},
		{ID: 918273, Title: "Archive"},
		{ID: 5, Title: "2024"},
	}

	tests := []struct {
		tabID   string
		want    string
		wantErr bool
	}{
		{"", "Leads", false},
		{"918273", "Archive", false},
		{"Archive", "Archive", false},
		{"archive", "Archive", false},
		{"2024", "2024", false}, // not a gid, falls back to title
		{"Missing", "", true},
	}

	for _, tt := range tests {
		got, err := ResolveTab(tabs, tt.tabID)
		if tt.wantErr {
			if !errors.Is(err, core.ErrSourceUnavailable) {
				t.Errorf("ResolveTab(%q) error = %v, want ErrSourceUnavailable", tt.tabID, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ResolveTab(%q) = %q, %v; want %q", tt.tabID, got, err, tt.want)
		}
	}

	if _, err := ResolveTab(nil, ""); !errors.Is(err, core.ErrFormat) {
		t.Errorf("ResolveTab(nil) error = %v, want ErrFormat", err)
	}
}

func TestQuoteTab(t *testing.T) {
	if got := quoteTab("Bob's Leads"); got != "'Bob''s Leads'" {
		t.Errorf("quoteTab() = %q", got)
	}
}

func TestNewGoogleReader_RejectsNonServiceAccount(t *testing.T) {
	_, err := NewGoogleReader(context.Background(), []byte(`{"type":"authorized_user"}`))
	if !errors.Is(err, core.ErrCredential) {
		t.Errorf("NewGoogleReader() error = %v, want ErrCredential", err)
	}
}
