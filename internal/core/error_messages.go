package core

// # Error Codes Reference
//
// User-facing messages carry a code so users can quote it when asking for
// help. Codes are grouped by category:
//
// # Configuration (CFG001-CFG003)
//
//	CFG001 - No data source: neither a CSV URL nor credential + sheet id
//	         Action: Set SHEET_CSV_URL, or SERVICE_ACCOUNT_CREDENTIAL and SHEET_ID
//	         Matches: ErrConfig
//
//	CFG002 - Invalid URL: the CSV URL is not an absolute http(s) URL
//	         Action: Use the published CSV link
//	         Matches: ErrInvalidURL
//
//	CFG003 - URL disabled: a user-entered CSV URL the server does not accept
//	         Action: Use the configured sheet or enable SOURCE_ALLOW_USER_URL
//	         Matches: ErrURLDisabled
//
// # Source (SRC001-SRC002)
//
//	SRC001 - Source unavailable: the sheet could not be reached
//	         Action: Check the URL or network and reload
//	         Matches: ErrSourceUnavailable
//
//	SRC002 - Timeout: the sheet took too long to respond
//	         Action: Reload; large sheets may need a longer SOURCE_TIMEOUT
//	         Matches: "context deadline exceeded", "timeout"
//
// # Format (FMT001)
//
//	FMT001 - Not tabular: content is not comma-separated data
//	         Action: Publish the sheet to the web as CSV
//	         Matches: ErrFormat
//
// # Credential (CRED001-CRED002)
//
//	CRED001 - Credential invalid: the service account JSON is malformed
//	          Action: Re-check the service account secret
//	          Matches: ErrCredential
//
//	CRED002 - Access denied: the service account cannot read the sheet
//	          Action: Share the sheet with the service account email
//	          Matches: ErrAccessDenied
//
// # Default Error (ERR000)
//
// Sentinel matches (errors.Is) are tried before text patterns, in order.
// The first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// Load error taxonomy. Wrap these with fmt.Errorf("...: %w", ErrX).
var (
	ErrConfig            = errors.New("no data source configured")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrFormat            = errors.New("invalid csv")
	ErrCredential        = errors.New("invalid credential")
	// ErrAccessDenied is a CredentialError raised by the sheet API rather
	// than by parsing.
	ErrAccessDenied = fmt.Errorf("%w: access denied", ErrCredential)

	// ErrInvalidURL and ErrURLDisabled are ConfigErrors caused by a CSV URL
	// rather than by missing settings.
	ErrInvalidURL  = fmt.Errorf("%w: invalid CSV URL", ErrConfig)
	ErrURLDisabled = fmt.Errorf("%w: custom CSV URL disabled", ErrConfig)
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message   string // What happened (user-friendly)
	Action    string // What to do about it
	Code      string // Error code for support reference
	Retryable bool   // A reload may succeed
}

// errorMatch maps a sentinel or a text pattern to a user message.
type errorMatch struct {
	target  error
	pattern string
	msg     UserMessage
}

// errorMatches is ordered: specific before general.
var errorMatches = []errorMatch{
	{
		target: ErrURLDisabled,
		msg: UserMessage{
			Message: "Loading a custom CSV URL is disabled on this server",
			Action:  "Use the configured sheet, or set SOURCE_ALLOW_USER_URL=true",
			Code:    "CFG003",
		},
	},
	{
		target: ErrInvalidURL,
		msg: UserMessage{
			Message: "The CSV URL is not a valid web address",
			Action:  "Use an absolute http(s) link, such as the CSV link from File > Share > Publish to web",
			Code:    "CFG002",
		},
	},
	{
		target: ErrConfig,
		msg: UserMessage{
			Message: "No data source is configured",
			Action:  "Set SHEET_CSV_URL, or SERVICE_ACCOUNT_CREDENTIAL and SHEET_ID",
			Code:    "CFG001",
		},
	},
	{
		target: ErrAccessDenied,
		msg: UserMessage{
			Message: "The service account cannot read this sheet",
			Action:  "Share the sheet with the service account email and reload",
			Code:    "CRED002",
		},
	},
	{
		target: ErrCredential,
		msg: UserMessage{
			Message: "The service account credential is invalid",
			Action:  "Re-check the credential secret (inline JSON, file path, or base64)",
			Code:    "CRED001",
		},
	},
	{
		target: ErrFormat,
		msg: UserMessage{
			Message: "The sheet content is not valid CSV",
			Action:  "Make sure the sheet is published to the web as CSV (File > Share > Publish to web)",
			Code:    "FMT001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message:   "The sheet took too long to respond",
			Action:    "Reload, or raise SOURCE_TIMEOUT for large sheets",
			Code:      "SRC002",
			Retryable: true,
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message:   "The sheet took too long to respond",
			Action:    "Reload, or raise SOURCE_TIMEOUT for large sheets",
			Code:      "SRC002",
			Retryable: true,
		},
	},
	{
		target: ErrSourceUnavailable,
		msg: UserMessage{
			Message:   "The sheet could not be reached",
			Action:    "Check the URL and your network, then reload",
			Code:      "SRC001",
			Retryable: true,
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message:   "Too many requests",
			Action:    "Please wait a moment before trying again",
			Code:      "RATE001",
			Retryable: true,
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again; check the server logs if it persists",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, m := range errorMatches {
		if m.target != nil && errors.Is(err, m.target) {
			return m.msg
		}
		if m.pattern != "" && strings.Contains(errStr, m.pattern) {
			return m.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
