package source

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/sheetfilter/internal/core"
	"github.com/JonMunkholm/sheetfilter/internal/logging"
)

// Options configures a Loader.
type Options struct {
	Timeout    time.Duration // Per fetch; exceeded fetches are SourceUnavailable
	MaxBytes   int64
	CacheTTL   time.Duration
	MaxEntries int
	Normalize  core.NormalizeOptions
}

// Loader fetches, normalizes and caches record tables.
type Loader struct {
	csv     *CSVFetcher
	sheets  *SheetsFetcher
	cache   *Cache
	history core.HistoryStore
	timeout time.Duration
	norm    core.NormalizeOptions
}

// NewLoader creates a Loader. history may be nil.
func NewLoader(opts Options, history core.HistoryStore) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Loader{
		csv:     NewCSVFetcher(opts.Timeout, opts.MaxBytes),
		sheets:  NewSheetsFetcher(),
		cache:   NewCache(opts.CacheTTL, opts.MaxEntries),
		history: history,
		timeout: opts.Timeout,
		norm:    opts.Normalize,
	}
}

// WithFetchers replaces the fetchers. Intended for tests.
func (l *Loader) WithFetchers(csv *CSVFetcher, sheets *SheetsFetcher) *Loader {
	if csv != nil {
		l.csv = csv
	}
	if sheets != nil {
		l.sheets = sheets
	}
	return l
}

// Cache exposes the loader's cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Pin keeps the descriptor's entry out of maxEntries eviction. Used for the
// configured default source.
func (l *Loader) Pin(d Descriptor) {
	l.cache.Pin(d.Key())
}

// Load returns the normalized table for d, fetching only on a cache miss.
// Each descriptor has its own entry; loading one never evicts another
// except through the cache size bound.
func (l *Loader) Load(ctx context.Context, d Descriptor) (Entry, error) {
	if err := d.Validate(); err != nil {
		return Entry{}, err
	}
	return l.cache.Get(ctx, d.Key(), l.fetcher(d))
}

// Reload fetches d again. If the fetch fails, the previously loaded entry
// (if any) is returned with the error and stays cached.
func (l *Loader) Reload(ctx context.Context, d Descriptor) (Entry, error) {
	if err := d.Validate(); err != nil {
		return Entry{}, err
	}
	return l.cache.Refresh(ctx, d.Key(), l.fetcher(d))
}

// Invalidate drops the cached entry for d.
func (l *Loader) Invalidate(d Descriptor) {
	l.cache.Invalidate(d.Key())
}

// Recent returns recent load events, newest first.
func (l *Loader) Recent(ctx context.Context, limit int) ([]core.LoadEvent, error) {
	if l.history == nil {
		return nil, nil
	}
	return l.history.Recent(ctx, limit)
}

func (l *Loader) fetcher(d Descriptor) LoadFunc {
	return func(ctx context.Context) (Entry, error) {
		return l.fetch(ctx, d)
	}
}

// fetch runs one fetch + normalize and records it in the history.
func (l *Loader) fetch(ctx context.Context, d Descriptor) (Entry, error) {
	logger := logging.WithFields(ctx, "component", "loader", "source", d.Label())
	ev := core.NewLoadEvent(d.Label())

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var (
		raw core.Table
		err error
	)
	if d.IsCSV() {
		raw, err = l.csv.Fetch(ctx, d.CSVURL)
	} else {
		raw, err = l.sheets.Fetch(ctx, d)
	}

	var (
		table core.Table
		kinds core.Kinds
	)
	if err == nil {
		table, kinds, err = core.Normalize(raw, l.norm)
	}

	ev.Finish(table, err)
	if l.history != nil {
		// History is best effort; a failed write must not fail the load.
		if herr := l.history.Record(context.WithoutCancel(ctx), ev); herr != nil {
			logger.Warn("record load event failed", "error", herr)
		}
	}

	if err != nil {
		logger.Warn("load failed",
			"code", ev.Code,
			"duration_ms", ev.Duration.Milliseconds(),
			"error", core.RedactURLs(err.Error()),
		)
		return Entry{}, fmt.Errorf("load %s: %w", d.Label(), err)
	}

	logger.Info("load complete",
		"rows", table.Len(),
		"columns", len(table.Columns),
		"kinds", kinds.String(),
		"duration_ms", ev.Duration.Milliseconds(),
	)

	return Entry{
		Label:    d.Label(),
		Table:    table,
		Kinds:    kinds,
		LoadedAt: ev.At,
	}, nil
}
