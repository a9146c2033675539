package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetfilter/internal/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetReader reads every cell of one tab as rows of formatted text.
type SheetReader interface {
	ReadTab(ctx context.Context, sheetID, tabID string) ([][]string, error)
}

// ReaderFactory builds a SheetReader authenticated with a credential.
type ReaderFactory func(ctx context.Context, credential []byte) (SheetReader, error)

// SheetsFetcher loads a tab through the Sheets API.
type SheetsFetcher struct {
	NewReader ReaderFactory
}

// NewSheetsFetcher creates a fetcher backed by the Google Sheets API.
func NewSheetsFetcher() *SheetsFetcher {
	return &SheetsFetcher{NewReader: NewGoogleReader}
}

// Fetch authenticates, resolves the tab, and returns its cells with the first
// row as header.
func (f *SheetsFetcher) Fetch(ctx context.Context, d Descriptor) (core.Table, error) {
	cred, err := ParseCredential(d.Credential)
	if err != nil {
		return core.Table{}, err
	}

	reader, err := f.NewReader(ctx, cred)
	if err != nil {
		return core.Table{}, err
	}

	rows, err := reader.ReadTab(ctx, d.SheetID, d.TabID)
	if err != nil {
		return core.Table{}, classifyAPIError(err)
	}
	if len(rows) == 0 {
		return core.Table{}, fmt.Errorf("%w: empty sheet", core.ErrFormat)
	}

	return core.NewTable(rows[0], rows[1:])
}

// googleReader is the SheetReader backed by sheets/v4.
type googleReader struct {
	svc *sheets.Service
}

// NewGoogleReader authenticates a service account with read-only scope.
func NewGoogleReader(ctx context.Context, credential []byte) (SheetReader, error) {
	cfg, err := google.JWTConfigFromJSON(credential, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCredential, err)
	}

	svc, err := sheets.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%w: create sheets client: %w", core.ErrSourceUnavailable, err)
	}
	return &googleReader{svc: svc}, nil
}

// ReadTab reads formatted values of the resolved tab.
func (g *googleReader) ReadTab(ctx context.Context, sheetID, tabID string) ([][]string, error) {
	ss, err := g.svc.Spreadsheets.Get(sheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	props := make([]TabProperties, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			props = append(props, TabProperties{ID: s.Properties.SheetId, Title: s.Properties.Title})
		}
	}

	title, err := ResolveTab(props, tabID)
	if err != nil {
		return nil, err
	}

	resp, err := g.svc.Spreadsheets.Values.Get(sheetID, quoteTab(title)).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}
	return rows, nil
}

// TabProperties identifies one tab of a spreadsheet.
type TabProperties struct {
	ID    int64
	Title string
}

// ResolveTab picks the tab named by tabID: a numeric gid, then an exact
// title, then a case-insensitive title. An empty tabID selects the first tab.
func ResolveTab(tabs []TabProperties, tabID string) (string, error) {
	if len(tabs) == 0 {
		return "", fmt.Errorf("%w: spreadsheet has no tabs", core.ErrFormat)
	}

	tabID = strings.TrimSpace(tabID)
	if tabID == "" {
		return tabs[0].Title, nil
	}

	if gid, err := strconv.ParseInt(tabID, 10, 64); err == nil {
		for _, t := range tabs {
			if t.ID == gid {
				return t.Title, nil
			}
		}
	}
	for _, t := range tabs {
		if t.Title == tabID {
			return t.Title, nil
		}
	}
	for _, t := range tabs {
		if strings.EqualFold(t.Title, tabID) {
			return t.Title, nil
		}
	}

	return "", fmt.Errorf("%w: tab %q not found", core.ErrSourceUnavailable, tabID)
}

// quoteTab turns a title into an A1 range covering the whole tab.
func quoteTab(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// classifyAPIError maps API and token failures onto the load taxonomy.
func classifyAPIError(err error) error {
	if errors.Is(err, core.ErrSourceUnavailable) || errors.Is(err, core.ErrFormat) || errors.Is(err, core.ErrCredential) {
		return err
	}

	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return fmt.Errorf("%w: token exchange failed: %v", core.ErrCredential, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", core.ErrAccessDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: spreadsheet not found: %v", core.ErrSourceUnavailable, err)
		}
	}

	return fmt.Errorf("%w: %w", core.ErrSourceUnavailable, err)
}
