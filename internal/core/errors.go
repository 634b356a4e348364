package core

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrFileNotFound is returned for unknown file IDs within a session.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when a batch contains no files.
	ErrNoFile = errors.New("no file provided")

	// ErrTooManyFiles is returned when a session would exceed its file cap.
	ErrTooManyFiles = errors.New("too many files in session")

	// ErrUnknownOperation is returned for cleaning operations other than
	// remove_duplicates and fill_missing.
	ErrUnknownOperation = errors.New("unknown cleaning operation")

	// ErrInvalidRequest is returned for malformed request payloads.
	ErrInvalidRequest = errors.New("invalid request")
)
