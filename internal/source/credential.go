package source

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/sheetfilter/internal/core"
)

// serviceAccount holds the fields checked before handing the key to oauth2.
type serviceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// ParseCredential resolves a service account credential given inline, as a
// file path, or base64 encoded, and returns its JSON.
//
// Anything that does not resolve to a service account key wraps
// core.ErrCredential.
func ParseCredential(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", core.ErrCredential)
	}

	data, err := resolveCredential(raw)
	if err != nil {
		return nil, err
	}

	var sa serviceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", core.ErrCredential, err)
	}
	if sa.Type != "service_account" {
		return nil, fmt.Errorf("%w: type is %q, want service_account", core.ErrCredential, sa.Type)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("%w: client_email and private_key are required", core.ErrCredential)
	}

	return data, nil
}

// ServiceAccountEmail returns the client_email of a parsed credential, for
// display in "share the sheet with" hints.
func ServiceAccountEmail(data []byte) string {
	var sa serviceAccount
	if json.Unmarshal(data, &sa) != nil {
		return ""
	}
	return sa.ClientEmail
}

func resolveCredential(raw string) ([]byte, error) {
	if strings.HasPrefix(raw, "{") {
		return []byte(raw), nil
	}

	if info, err := os.Stat(raw); err == nil && !info.IsDir() {
		data, err := os.ReadFile(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", core.ErrCredential, raw, err)
		}
		return data, nil
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(raw); err == nil && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			return data, nil
		}
	}

	return nil, fmt.Errorf("%w: not inline JSON, a readable file, or base64 JSON", core.ErrCredential)
}
