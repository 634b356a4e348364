// Package core orchestrates the per-file data sweeping pipeline.
//
// This package sits between the HTTP layer and the pure table operations.
// It holds no UI logic and can be driven by web handlers, tests, or any other
// caller without modification.
//
// # Pipeline
//
// Every uploaded file moves through the same stages:
//
//	Uploaded → Decoded → (Cleaned)* → Projected → (Previewed | Visualized)* → Exported
//
// Decoding is mandatory and ends the file's pipeline on failure. Cleaning may
// be applied any number of times in any order. Projection defaults to every
// original column. Exporting never changes the working table, so it can be
// repeated in different formats.
//
// Two entry points share the same building blocks:
//
//   - [Run] is a pure function of (file, plan). It is handy for batch jobs and tests.
//   - [Pipeline] is the stateful form kept inside a [Session] for interactive use.
//
// # Sessions
//
// A [Service] keeps sessions in memory, keyed by a random UUID. Each session
// owns its pipelines exclusively; nothing is shared across sessions, so
// independent sessions can be driven concurrently. Idle sessions are expired
// by [Service.StartSessionSweeper].
//
// # Batches
//
// [Service.Ingest] processes uploaded files sequentially. A file that fails
// (unsupported extension, malformed content, too large) is reported in its
// own [FileOutcome] and never stops the rest of the batch.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (format, parsing, size)
//   - COL001: Column selection errors
//   - IMP001: Imputation warnings
//   - OP001: Unknown cleaning operation
//   - REQ001: Malformed request payloads
//   - SES001-SES002: Session and file lookup errors
//   - UPL002-UPL005: Request errors (busy, cancelled, timeout)
package core
