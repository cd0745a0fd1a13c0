// Package core provides the business logic for the suicide dataset explorer.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code shown on the dashboard.
//
// # Data Errors (DATA001-DATA099)
//
//	DATA001 - Data unavailable: The dataset file could not be read
//	          Action: Check that the data file exists at the configured path
//	          Match: ErrDataUnavailable, "data unavailable"
//
//	DATA002 - Invalid CSV: The dataset is not valid comma-separated text
//	          Action: Ensure the file is comma-separated with a header row
//	          Patterns: "invalid csv"
//
//	DATA003 - Empty file: The dataset file is empty
//	          Action: Replace the data file with the full dataset
//	          Patterns: "empty file"
//
//	DATA004 - File too large: The dataset exceeds the size limit
//	          Action: Use the original dataset file
//	          Patterns: "file too large"
//
// # Schema Errors (SCHEMA001-SCHEMA099)
//
//	SCHEMA001 - Schema mismatch: A column required for cleaning is missing
//	            Action: Check the header row against the column documentation
//	            Match: ErrSchemaMismatch, "missing required column"
//
//	SCHEMA002 - Column collision: Two columns have the same cleaned name
//	            Action: Rename one of the conflicting columns in the source file
//	            Match: ErrColumnCollision, "column collision"
//
// # Publish Errors (PUB001-PUB099)
//
//	PUB001 - Publishing disabled: No database is configured
//	         Action: Set DATABASE_URL to enable publishing
//	         Patterns: "publishing disabled"
//
//	PUB002 - Publish busy: Another publish is still running
//	         Action: Wait for it to finish and try again
//	         Match: ErrPublishBusy, "publish in progress"
//
//	DB004  - Connection refused: Unable to connect to database
//	DB005  - Connection reset: Database connection was interrupted
//	DB006  - Timeout: Operation timed out
//
// # Request Errors
//
//	REQ001 - Request cancelled ("context canceled")
//	REQ002 - Request timeout ("context deadline exceeded")
//	RATE001 - Rate limited ("rate limit")
//	AUTH001 - Missing or invalid API key ("api key")
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Sentinel errors are matched with errors.Is first, from most to least
// specific. Remaining errors are matched case-insensitively against the
// pattern table with strings.Contains; the first matching pattern wins.
package core

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgDataUnavailable = UserMessage{
		Message: "The dataset file could not be read",
		Action:  "Check that the data file exists at the configured path",
		Code:    "DATA001",
	}
	msgInvalidCSV = UserMessage{
		Message: "The dataset is not valid comma-separated text",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "DATA002",
	}
	msgEmptyFile = UserMessage{
		Message: "The dataset file is empty",
		Action:  "Replace the data file with the full dataset",
		Code:    "DATA003",
	}
	msgFileTooLarge = UserMessage{
		Message: "The dataset exceeds the size limit",
		Action:  "Use the original dataset file",
		Code:    "DATA004",
	}
	msgSchemaMismatch = UserMessage{
		Message: "A column required for cleaning is missing",
		Action:  "Check the header row against the column documentation",
		Code:    "SCHEMA001",
	}
	msgColumnCollision = UserMessage{
		Message: "Two columns have the same cleaned name",
		Action:  "Rename one of the conflicting columns in the source file",
		Code:    "SCHEMA002",
	}
	msgPublishBusy = UserMessage{
		Message: "Another publish is still running",
		Action:  "Wait for it to finish and try again",
		Code:    "PUB002",
	}
)

// sentinelMessages is checked with errors.Is before the pattern table.
// Order matters: collisions also match ErrSchemaMismatch.
var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrColumnCollision, msgColumnCollision},
	{ErrSchemaMismatch, msgSchemaMismatch},
	{ErrPublishBusy, msgPublishBusy},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. More specific patterns come first.
var errorPatterns = []errorPattern{
	// Data errors: the specific causes precede the generic sentinel text.
	{pattern: "invalid csv", msg: msgInvalidCSV},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "data unavailable", msg: msgDataUnavailable},

	// Schema errors
	{pattern: "column collision", msg: msgColumnCollision},
	{pattern: "missing required column", msg: msgSchemaMismatch},
	{pattern: "schema mismatch", msg: msgSchemaMismatch},

	// Publish and database errors
	{pattern: "publish in progress", msg: msgPublishBusy},
	{
		pattern: "publishing disabled",
		msg: UserMessage{
			Message: "Publishing is not configured",
			Action:  "Set DATABASE_URL to enable publishing",
			Code:    "PUB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// Request errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "api key",
		msg: UserMessage{
			Message: "Missing or invalid API key",
			Action:  "Provide a valid key in the X-API-Key header",
			Code:    "AUTH001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error and ERR000 when nothing matches.
//
// Example:
//
//	_, err := core.Load("missing.csv")
//	msg := core.MapError(err)
//	// msg.Code == "DATA001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// Error() returns the user message; Unwrap() exposes the original for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
