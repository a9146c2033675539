package web

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetfilter/internal/core"
	"github.com/JonMunkholm/sheetfilter/internal/source"
	"github.com/JonMunkholm/sheetfilter/internal/web/templates"
)

// filterColumns is the set of column names the query may constrain.
var filterColumns = func() map[string]bool {
	m := make(map[string]bool, len(core.FilterColumns))
	for _, fc := range core.FilterColumns {
		m[fc.Name] = true
	}
	return m
}()

// parseSelection reads a Selection from query parameters:
//
//	in[Industry]=Tech&in[Industry]=Retail
//	min[Headcount]=10&max[Headcount]=500
//	q[Title]=cto, founder&op[Title]=AND
//
// Unknown columns and unparseable numbers are ignored. A range with one side
// missing is open on that side.
func parseSelection(q url.Values) core.Selection {
	sel := core.Selection{}
	ranges := make(map[string]*core.Range)

	for key, values := range q {
		prefix, col, ok := templates.SplitParam(key)
		if !ok || !filterColumns[col] {
			continue
		}

		switch prefix {
		case templates.PrefixValues:
			vals := nonEmpty(values)
			if len(vals) == 0 {
				continue
			}
			if sel.Values == nil {
				sel.Values = make(map[string][]string)
			}
			sel.Values[col] = vals

		case templates.PrefixMin, templates.PrefixMax:
			n, ok := parseBound(values)
			if !ok {
				continue
			}
			r, exists := ranges[col]
			if !exists {
				r = &core.Range{Min: math.Inf(-1), Max: math.Inf(1)}
				ranges[col] = r
			}
			if prefix == templates.PrefixMin {
				r.Min = n
			} else {
				r.Max = n
			}

		case templates.PrefixText:
			tokens := core.Tokenize(strings.Join(values, ","))
			if len(tokens) == 0 {
				continue
			}
			if sel.Contains == nil {
				sel.Contains = make(map[string]core.TextMatch)
			}
			sel.Contains[col] = core.TextMatch{
				Tokens: tokens,
				All:    strings.EqualFold(q.Get(templates.Param(templates.PrefixOp, col)), templates.OpAll),
			}
		}
	}

	for col, r := range ranges {
		if sel.Ranges == nil {
			sel.Ranges = make(map[string]core.Range)
		}
		sel.Ranges[col] = *r
	}
	return sel
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseBound(values []string) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	s := strings.TrimSpace(values[0])
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// descriptorFor resolves the source for a request: the configured default,
// or a user-entered CSV URL when the server allows it.
func (s *Server) descriptorFor(q url.Values) (source.Descriptor, string, error) {
	userURL := strings.TrimSpace(q.Get(templates.ParamCSVURL))
	if userURL == "" {
		return s.cfg.Descriptor(), "", nil
	}
	if !s.cfg.Source.AllowUserURL {
		return source.Descriptor{}, userURL, core.ErrURLDisabled
	}
	d := source.Descriptor{CSVURL: userURL}
	if err := d.Validate(); err != nil {
		return source.Descriptor{}, userURL, err
	}
	return d, userURL, nil
}

// returnQuery sanitizes the query a form posts back for the redirect. Only
// a query string is accepted so the redirect always stays on "/".
func returnQuery(raw string) string {
	raw = strings.TrimPrefix(raw, "?")
	q, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	return q.Encode()
}
