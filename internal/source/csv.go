package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/JonMunkholm/sheetfilter/internal/core"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxBytes caps a CSV response body (50MB).
const DefaultMaxBytes = 50 << 20

// CSVFetcher downloads and parses a published CSV.
type CSVFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// NewCSVFetcher creates a fetcher with the given request timeout.
func NewCSVFetcher(timeout time.Duration, maxBytes int64) *CSVFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &CSVFetcher{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

// Fetch GETs rawURL and parses the body as CSV with a header row.
//
// Transport failures, timeouts and non-2xx responses wrap
// core.ErrSourceUnavailable. Unparseable content wraps core.ErrFormat.
func (f *CSVFetcher) Fetch(ctx context.Context, rawURL string) (core.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return core.Table{}, fmt.Errorf("%w: build request: %v", core.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.Client.Do(req)
	if err != nil {
		return core.Table{}, fmt.Errorf("%w: %w", core.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return core.Table{}, fmt.Errorf("%w: GET returned %s", core.ErrSourceUnavailable, resp.Status)
	}

	// Unpublished sheets redirect to an HTML sign-in page.
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mt == "text/html" {
		return core.Table{}, fmt.Errorf("%w: got an HTML page instead of CSV", core.ErrFormat)
	}

	body := &limitedReader{r: resp.Body, remaining: f.MaxBytes}
	t, err := ParseCSV(body)
	if err != nil {
		if body.exceeded {
			return core.Table{}, fmt.Errorf("%w: response exceeds %d bytes", core.ErrFormat, f.MaxBytes)
		}
		return core.Table{}, err
	}
	if body.exceeded {
		return core.Table{}, fmt.Errorf("%w: response exceeds %d bytes", core.ErrFormat, f.MaxBytes)
	}
	return t, nil
}

// ParseCSV reads comma-separated text, treating the first record as header.
// A UTF-8 or UTF-16 byte order mark is honored and stripped.
func ParseCSV(r io.Reader) (core.Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1 // Sheets exports trim trailing empty cells
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.Table{}, fmt.Errorf("%w: empty file", core.ErrFormat)
	}
	if err != nil {
		return core.Table{}, wrapReadError(err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.Table{}, wrapReadError(err)
		}
		records = append(records, rec)
	}

	return core.NewTable(header, records)
}

// wrapReadError classifies a read failure. Parse errors are format errors;
// anything else came from the transport.
func wrapReadError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) || errors.Is(err, errBodyTooLarge) {
		return fmt.Errorf("%w: %v", core.ErrFormat, err)
	}
	return fmt.Errorf("%w: read body: %w", core.ErrSourceUnavailable, err)
}

var errBodyTooLarge = errors.New("body too large")

// limitedReader fails once more than remaining bytes are read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		l.exceeded = true
		return 0, errBodyTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, errBodyTooLarge
	}
	return n, err
}
