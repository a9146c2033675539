// Package source loads the record table from a Google Sheet.
//
// Two paths are supported: a published CSV URL fetched over plain HTTP, and
// the Sheets API authenticated with a service account. Both produce a raw
// core.Table that the loader normalizes and caches per Descriptor.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/JonMunkholm/sheetfilter/internal/core"
)

// Descriptor identifies a data source. Exactly one of CSVURL or
// (Credential, SheetID) is set.
type Descriptor struct {
	CSVURL     string
	Credential string // Inline JSON, file path, or base64
	SheetID    string
	TabID      string // Optional: numeric gid or tab title
}

// IsCSV reports whether the descriptor uses the published CSV path.
func (d Descriptor) IsCSV() bool {
	return d.CSVURL != ""
}

// Validate checks that the descriptor names exactly one usable source.
func (d Descriptor) Validate() error {
	hasCSV := strings.TrimSpace(d.CSVURL) != ""
	hasAPI := strings.TrimSpace(d.Credential) != "" || strings.TrimSpace(d.SheetID) != ""

	switch {
	case hasCSV && hasAPI:
		return fmt.Errorf("%w: CSV URL and service credential are mutually exclusive", core.ErrConfig)
	case hasCSV:
		u, err := url.Parse(d.CSVURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: must be an absolute http(s) URL", core.ErrInvalidURL)
		}
		return nil
	case hasAPI:
		if strings.TrimSpace(d.Credential) == "" {
			return fmt.Errorf("%w: SHEET_ID is set but no service credential", core.ErrConfig)
		}
		if strings.TrimSpace(d.SheetID) == "" {
			return fmt.Errorf("%w: service credential is set but no SHEET_ID", core.ErrConfig)
		}
		return nil
	default:
		return core.ErrConfig
	}
}

// Key is the cache identity of the descriptor. The credential is hashed so
// secrets never appear in keys or logs.
func (d Descriptor) Key() string {
	if d.IsCSV() {
		return "csv:" + d.CSVURL
	}
	sum := sha256.Sum256([]byte(d.Credential))
	return fmt.Sprintf("sheets:%s/%s#%s", d.SheetID, d.TabID, hex.EncodeToString(sum[:6]))
}

// Label is a redacted description for logs, history, and the UI.
func (d Descriptor) Label() string {
	if d.IsCSV() {
		u, err := url.Parse(d.CSVURL)
		if err != nil {
			return "csv"
		}
		return "csv " + u.Host + u.Path
	}
	if d.TabID != "" {
		return fmt.Sprintf("sheet %s (tab %s)", d.SheetID, d.TabID)
	}
	return "sheet " + d.SheetID
}
