package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetfilter/internal/config"
	"github.com/JonMunkholm/sheetfilter/internal/core"
	"github.com/JonMunkholm/sheetfilter/internal/source"
)

const prospectsCSV = "Industry,Headcount,Title\n" +
	"Tech,50,CTO\n" +
	"Tech,5000,CEO\n" +
	"Retail,200,Store Manager\n"

// csvSource serves body as CSV until fail is set.
func csvSource(t *testing.T, body string) (*httptest.Server, *atomic.Bool) {
	t.Helper()
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &fail
}

func testConfig(csvURL string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Source:   config.SourceConfig{CSVURL: csvURL, Timeout: 5 * time.Second, MaxBytes: 1 << 20},
		Filter:   config.FilterConfig{NumericThreshold: 0.5, MaxDisplayRows: 100},
		Security: config.SecurityConfig{EnableCSP: true},
		History:  config.HistoryConfig{Limit: 10},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	loader := source.NewLoader(source.Options{
		Timeout:   cfg.Source.Timeout,
		MaxBytes:  cfg.Source.MaxBytes,
		Normalize: core.NormalizeOptions{Threshold: cfg.Filter.NumericThreshold},
	}, core.NewMemoryHistory(cfg.History.Limit))
	loader.Pin(cfg.Descriptor())

	s := NewServer(loader, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func get(t *testing.T, s *Server, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandlePage_Unfiltered(t *testing.T) {
	src, _ := csvSource(t, prospectsCSV)
	s := newTestServer(t, testConfig(src.URL))

	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	for _, want := range []string{
		"Showing 3 of 3 rows",
		"Clear filters",
		`<option value="Retail">`,
		`name="min[Headcount]"`,
		`name="q[Title]"`,
		"Store Manager",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHandlePage_Filtered(t *testing.T) {
	src, _ := csvSource(t, prospectsCSV)
	s := newTestServer(t, testConfig(src.URL))

	tests := []struct {
		name    string
		query   url.Values
		want    string
		present []string
		absent  []string
	}{
		{
			name:    "industry and headcount",
			query:   url.Values{"in[Industry]": {"Tech"}, "min[Headcount]": {"100"}},
			want:    "Showing 1 of 3 rows",
			present: []string{"CEO"},
			absent:  []string{"Store Manager", ">CTO<"},
		},
		{
			name:    "title any",
			query:   url.Values{"q[Title]": {"ceo, manager"}},
			want:    "Showing 2 of 3 rows",
			present: []string{"CEO", "Store Manager"},
		},
		{
			name:  "title all",
			query: url.Values{"q[Title]": {"store, manager"}, "op[Title]": {"AND"}},
			want:  "Showing 1 of 3 rows",
		},
		{
			name:  "range covering bounds is no constraint",
			query: url.Values{"min[Headcount]": {"50"}, "max[Headcount]": {"5000"}},
			want:  "Showing 3 of 3 rows",
		},
		{
			name:  "unknown column ignored",
			query: url.Values{"in[Secret]": {"x"}},
			want:  "Showing 3 of 3 rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/?"+tt.query.Encode())
			body := rec.Body.String()
			if !strings.Contains(body, tt.want) {
				t.Errorf("page missing %q", tt.want)
			}
			for _, p := range tt.present {
				if !strings.Contains(body, p) {
					t.Errorf("page missing row %q", p)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(body, a) {
					t.Errorf("page contains filtered-out %q", a)
				}
			}
		})
	}
}

func TestHandlePage_HTMXPartial(t *testing.T) {
	src, _ := csvSource(t, prospectsCSV)
	s := newTestServer(t, testConfig(src.URL))

	rec := get(t, s, "/", "HX-Request", "true")
	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE") {
		t.Error("HTMX request received the full document")
	}
	if !strings.Contains(body, "Showing 3 of 3 rows") {
		t.Error("HTMX fragment missing results")
	}
}

func TestHandlePage_SourceUnavailable(t *testing.T) {
	src, fail := csvSource(t, prospectsCSV)
	fail.Store(true)
	s := newTestServer(t, testConfig(src.URL))

	rec := get(t, s, "/")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "SRC001") {
		t.Error("error code not rendered")
	}
	if strings.Contains(body, "Showing") {
		t.Error("table rendered without data")
	}
}

func TestHandlePage_FormatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>sign in</html>"))
	}))
	defer srv.Close()
	s := newTestServer(t, testConfig(srv.URL))

	rec := get(t, s, "/")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Publish to web") {
		t.Error("format guidance not rendered")
	}
}

func TestHandleReload(t *testing.T) {
	src, fail := csvSource(t, prospectsCSV)
	s := newTestServer(t, testConfig(src.URL))

	if rec := get(t, s, "/"); rec.Code != http.StatusOK {
		t.Fatalf("initial load status = %d", rec.Code)
	}

	t.Run("success redirects back", func(t *testing.T) {
		rec := postForm(t, s, "/reload", url.Values{"return": {"in%5BIndustry%5D=Tech"}})
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/?in%5BIndustry%5D=Tech" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("failure keeps prior table", func(t *testing.T) {
		fail.Store(true)
		defer fail.Store(false)

		rec := postForm(t, s, "/reload", url.Values{"return": {"in%5BIndustry%5D=Tech"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 with stale table", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "SRC001") {
			t.Error("reload error not shown")
		}
		if !strings.Contains(body, "Showing 2 of 3 rows") {
			t.Error("prior table with selection not shown")
		}

		// The cached table still serves later requests.
		if rec := get(t, s, "/"); !strings.Contains(rec.Body.String(), "Showing 3 of 3 rows") {
			t.Error("prior table lost after failed reload")
		}
	})
}

func TestHandleDownload(t *testing.T) {
	src, _ := csvSource(t, "Industry,Headcount,Notes\nTech,50,\"a, b\"\nRetail,200,x\n")
	cfg := testConfig(src.URL)
	cfg.Filter.MaxDisplayRows = 1
	s := newTestServer(t, cfg)

	rec := get(t, s, "/download?"+url.Values{"in[Industry]": {"Tech"}}.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "filtered_results.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	want := "Industry,Headcount,Notes\nTech,50,\"a, b\"\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}

	// The display cap never truncates the download.
	rec = get(t, s, "/download")
	if lines := strings.Count(rec.Body.String(), "\n"); lines != 3 {
		t.Errorf("unfiltered download has %d lines, want 3", lines)
	}
}

func TestUserURL(t *testing.T) {
	def, _ := csvSource(t, prospectsCSV)
	other, _ := csvSource(t, "Industry\nMining\n")

	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(t, testConfig(def.URL))
		rec := get(t, s, "/?"+url.Values{"csv_url": {other.URL}}.Encode())
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "CFG003") || strings.Contains(body, "CFG001") {
			t.Errorf("disabled URL error not rendered: %s", body)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := testConfig(def.URL)
		cfg.Source.AllowUserURL = true
		s := newTestServer(t, cfg)

		rec := get(t, s, "/?"+url.Values{"csv_url": {other.URL}}.Encode())
		body := rec.Body.String()
		if !strings.Contains(body, "Mining") || !strings.Contains(body, "Showing 1 of 1 rows") {
			t.Errorf("user source not loaded: %s", body)
		}
		if !strings.Contains(body, `name="csv_url"`) {
			t.Error("source form missing")
		}
	})

	t.Run("enabled rejects non-http", func(t *testing.T) {
		cfg := testConfig(def.URL)
		cfg.Source.AllowUserURL = true
		s := newTestServer(t, cfg)

		rec := get(t, s, "/?csv_url=file%3A%2F%2F%2Fetc%2Fpasswd")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "CFG002") {
			t.Error("invalid URL error not rendered")
		}
	})
}

func TestUserURL_SessionsAreIndependent(t *testing.T) {
	def, _ := csvSource(t, prospectsCSV)
	other, failOther := csvSource(t, "Industry\nMining\n")
	cfg := testConfig(def.URL)
	cfg.Source.AllowUserURL = true
	s := newTestServer(t, cfg)

	userPage := "/?" + url.Values{"csv_url": {other.URL}}.Encode()
	if rec := get(t, s, userPage); !strings.Contains(rec.Body.String(), "Showing 1 of 1 rows") {
		t.Fatalf("user source not loaded: %s", rec.Body.String())
	}
	// Another session renders the configured source.
	if rec := get(t, s, "/"); !strings.Contains(rec.Body.String(), "Showing 3 of 3 rows") {
		t.Fatalf("default source not loaded: %s", rec.Body.String())
	}

	failOther.Store(true)
	rec := postForm(t, s, "/reload", url.Values{"csv_url": {other.URL}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with prior table", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "SRC001") || !strings.Contains(body, "Mining") {
		t.Errorf("user table lost after the other session loaded: %s", body)
	}
}

func TestHandleHistory(t *testing.T) {
	src, _ := csvSource(t, prospectsCSV)
	s := newTestServer(t, testConfig(src.URL))
	get(t, s, "/")

	rec := get(t, s, "/api/history?limit=5")
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp struct {
		Events []core.LoadEvent `json:"events"`
		Count  int              `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Events[0].Rows != 3 || resp.Events[0].Error != "" {
		t.Errorf("history = %+v, want one successful load of 3 rows", resp)
	}
}

func TestHandleHealth(t *testing.T) {
	src, _ := csvSource(t, prospectsCSV)
	s := newTestServer(t, testConfig(src.URL))

	rec := get(t, s, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	src, _ := csvSource(t, prospectsCSV)
	s := newTestServer(t, testConfig(src.URL))

	rec := get(t, s, "/healthz")
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Referrer-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestStaticCSS(t *testing.T) {
	src, _ := csvSource(t, prospectsCSV)
	s := newTestServer(t, testConfig(src.URL))

	rec := get(t, s, "/static/app.css")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "table.data") {
		t.Errorf("static css = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	src, _ := csvSource(t, prospectsCSV)
	cfg := testConfig(src.URL)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ReloadLimit: 1}
	s := newTestServer(t, cfg)

	if rec := postForm(t, s, "/reload", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("first reload status = %d", rec.Code)
	}
	rec := postForm(t, s, "/reload", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second reload status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("requests within budget rejected")
	}
	if rl.allow("a") {
		t.Error("third request allowed")
	}
	if !rl.allow("b") {
		t.Error("other client throttled")
	}

	now = now.Add(2 * time.Minute)
	if !rl.allow("a") {
		t.Error("budget not restored after window")
	}
}
