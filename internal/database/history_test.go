package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetfilter/internal/core"
)

func TestNullText(t *testing.T) {
	if v := nullText(""); v.Valid {
		t.Error("empty string should be NULL")
	}
	if v := nullText("SRC001"); !v.Valid || v.String != "SRC001" {
		t.Errorf("nullText() = %+v", v)
	}
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://user@localhost:notaport/db", PoolOptions{})
	if err == nil {
		t.Fatal("Connect() expected error for malformed URL")
	}
}

// TestHistoryStore_RoundTrip needs a live database in TEST_DATABASE_URL.
func TestHistoryStore_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, url, PoolOptions{MaxConns: 2})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer pool.Close()

	store, err := NewHistoryStore(ctx, pool)
	if err != nil {
		t.Fatalf("NewHistoryStore() error = %v", err)
	}

	ok := core.NewLoadEvent("csv example.com/pub")
	ok.Finish(core.Table{Columns: []string{"A", "B"}, Rows: []core.Row{{core.Text("x"), core.Text("y")}}}, nil)

	failed := core.NewLoadEvent("csv example.com/pub")
	failed.At = ok.At.Add(time.Second)
	failed.Finish(core.Table{}, errors.Join(core.ErrSourceUnavailable, errors.New("503")))

	for _, ev := range []core.LoadEvent{ok, failed} {
		if err := store.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d events, want 2", len(got))
	}
	if got[0].ID != failed.ID || got[0].Code != "SRC001" {
		t.Errorf("newest event = %+v, want failed load", got[0])
	}
	if got[1].ID != ok.ID || got[1].Rows != 1 || got[1].Columns != 2 || got[1].Error != "" {
		t.Errorf("older event = %+v, want successful load", got[1])
	}
}
