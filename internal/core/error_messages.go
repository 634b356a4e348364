package core

// error_messages.go maps technical errors to user-friendly messages with a
// code for support reference.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Unsupported file type: only .csv and .xlsx are accepted
//	FILE002 - Parse error: file content could not be read as a table
//	FILE003 - File too large: file exceeds the configured size limit
//	FILE004 - No file: no file was selected
//	FILE005 - Empty file: the file has no header row
//	FILE006 - Too many files: the session already holds the maximum
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column: a selected column does not exist in the file
//
// # Imputation Warnings (IMP001-IMP099)
//
//	IMP001 - No data for imputation: a numeric column has no values to average
//
// # Operation Errors (OP001-OP099)
//
//	OP001 - Unknown operation: cleaning operation is not supported
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid request: a request field is missing or malformed
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: session not found or timed out
//	SES002 - File not found: the file is not part of this session
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application logs
// for the original technical error when users report ERR000.
//
// # Matching
//
// Sentinel errors are checked first with errors.Is, in order, so a wrapped
// error always maps to its most specific code. Errors from outside this module
// (context, net/http) fall back to case-insensitive substring patterns.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is checked before errorPatterns. ErrEmptyFile must come
// before ErrParse because empty-file errors wrap both.
var sentinelMessages = []sentinelMessage{
	{
		target: codec.ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE001",
		},
	},
	{
		target: codec.ErrEmptyFile,
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		target: codec.ErrParse,
		msg: UserMessage{
			Message: "The file could not be read as a table",
			Action:  "Check that every row has the same number of columns as the header",
			Code:    "FILE002",
		},
	},
	{
		target: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE003",
		},
	},
	{
		target: ErrNoFile,
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select one or more .csv or .xlsx files",
			Code:    "FILE004",
		},
	},
	{
		target: ErrTooManyFiles,
		msg: UserMessage{
			Message: "This session already holds the maximum number of files",
			Action:  "Remove a file before uploading another",
			Code:    "FILE006",
		},
	},
	{
		target: table.ErrUnknownColumn,
		msg: UserMessage{
			Message: "A selected column does not exist in this file",
			Action:  "Pick columns from the file's column list",
			Code:    "COL001",
		},
	},
	{
		target: table.ErrNoDataForImputation,
		msg: UserMessage{
			Message: "A numeric column has no values to average",
			Action:  "Its missing cells were left empty",
			Code:    "IMP001",
		},
	},
	{
		target: ErrUnknownOperation,
		msg: UserMessage{
			Message: "Unknown cleaning operation",
			Action:  "Choose remove duplicates or fill missing values",
			Code:    "OP001",
		},
	},
	{
		target: ErrInvalidRequest,
		msg: UserMessage{
			Message: "The request was not valid",
			Action:  "Check the submitted fields and try again",
			Code:    "REQ001",
		},
	},
	{
		target: ErrSessionNotFound,
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Reload the page and upload your files again",
			Code:    "SES001",
		},
	},
	{
		target: ErrFileNotFound,
		msg: UserMessage{
			Message: "File not found",
			Action:  "The file may have been removed. Upload it again",
			Code:    "SES002",
		},
	},
	{
		target: ErrTooManyUploads,
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that lost their sentinel on the way, such as
// messages from net/http or a multipart reader. First match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select one or more .csv or .xlsx files",
			Code:    "FILE004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
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
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := codec.Decode(data, codec.CSV)
//	msg := MapError(err)
//	// msg.Code == "FILE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
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
