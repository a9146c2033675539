package templates

import "strings"

// Query parameter names shared by the filter form and the handlers.
// Column-scoped parameters take the form prefix[Column].
const (
	ParamCSVURL = "csv_url"
	ParamReturn = "return"

	PrefixValues = "in"
	PrefixMin    = "min"
	PrefixMax    = "max"
	PrefixText   = "q"
	PrefixOp     = "op"
)

// Operators for text search controls.
const (
	OpAny = "OR"
	OpAll = "AND"
)

// Param returns the column-scoped parameter name prefix[column].
func Param(prefix, column string) string {
	return prefix + "[" + column + "]"
}

// SplitParam is the inverse of Param. ok is false for names that are not
// column-scoped.
func SplitParam(name string) (prefix, column string, ok bool) {
	open := strings.IndexByte(name, '[')
	if open <= 0 || len(name) < open+3 || name[len(name)-1] != ']' {
		return "", "", false
	}
	return name[:open], name[open+1 : len(name)-1], true
}
