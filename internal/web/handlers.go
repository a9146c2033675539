package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/sheetfilter/internal/core"
	"github.com/JonMunkholm/sheetfilter/internal/logging"
	"github.com/JonMunkholm/sheetfilter/internal/source"
	"github.com/JonMunkholm/sheetfilter/internal/web/templates"
)

// pageState is one render of the main page.
type pageState struct {
	query    url.Values
	rawQuery string
	userURL  string
	label    string
	entry    source.Entry
	err      error
}

// handlePage renders the source panel, filter panel and filtered table.
// The selection lives entirely in the query string.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st := pageState{query: q, rawQuery: r.URL.RawQuery}

	d, userURL, err := s.descriptorFor(q)
	st.userURL = userURL
	if err != nil {
		st.err = err
		s.renderPage(w, r, st)
		return
	}

	st.label = d.Label()
	st.entry, st.err = s.loader.Load(r.Context(), d)
	s.renderPage(w, r, st)
}

// handleReload refetches the current source. On success it redirects back
// to the page; on failure it renders the error above the prior table.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ret := returnQuery(r.PostForm.Get(templates.ParamReturn))
	q, _ := url.ParseQuery(ret)
	if u := r.PostForm.Get(templates.ParamCSVURL); u != "" {
		q.Set(templates.ParamCSVURL, u)
	}
	st := pageState{query: q, rawQuery: q.Encode()}

	d, userURL, err := s.descriptorFor(q)
	st.userURL = userURL
	if err != nil {
		st.err = err
		s.renderPage(w, r, st)
		return
	}

	st.label = d.Label()
	st.entry, st.err = s.loader.Reload(r.Context(), d)
	if st.err != nil {
		s.renderPage(w, r, st)
		return
	}

	logging.FromContext(r.Context()).Info("source reloaded",
		"source", d.Label(),
		"rows", st.entry.Table.Len(),
	)
	target := "/"
	if st.rawQuery != "" {
		target += "?" + st.rawQuery
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// renderPage writes the page, or only the results fragment for HTMX.
// A load error is shown above the previous table when one exists.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, st pageState) {
	data := templates.PageData{
		SourceLabel:  st.label,
		CSVURL:       st.userURL,
		AllowUserURL: s.cfg.Source.AllowUserURL,
		MaxRows:      s.cfg.Filter.MaxDisplayRows,
		Query:        st.rawQuery,
	}

	status := http.StatusOK
	if st.err != nil {
		msg := core.MapError(st.err)
		data.Error = &msg
		status = statusFor(st.err)
		logError(r, st.err, status, msg)
	}

	if len(st.entry.Table.Columns) > 0 {
		data.HasTable = true
		data.LoadedAt = st.entry.LoadedAt
		data.View = core.Render(st.entry.Table, st.entry.Kinds, parseSelection(st.query))
		// Stale data is still a usable page
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	page := templates.Page(data)
	if isHTMX(r) {
		page = templates.Results(data)
	}
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleDownload streams the filtered view as CSV. The download is never
// truncated to the display cap.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	d, _, err := s.descriptorFor(q)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	entry, err := s.loader.Load(r.Context(), d)
	if err != nil {
		if len(entry.Table.Columns) == 0 {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		logging.FromContext(r.Context()).Warn("serving stale table", "source", d.Label(), "error", err)
	}

	sel := parseSelection(q).Clamp(core.Bounds(entry.Table, entry.Kinds))
	body, err := core.ExportCSV(core.Filter(entry.Table, sel))
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.ExportFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Write(body)
}

// handleHistory returns recent load events, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", s.cfg.History.Limit)
	if limit > s.cfg.History.Limit {
		limit = s.cfg.History.Limit
	}

	events, err := s.loader.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []core.LoadEvent{}
	}

	writeJSON(w, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// handleHealth reports liveness and the number of cached sources.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":         "ok",
		"cached_sources": s.loader.Cache().Len(),
	})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
