// Package diag defines the error and diagnostic model of the kernel front end.
//
// # Errors
//
// Every contract violation found while translating a kernel is raised as a
// single error type, *Error, carrying a Code and a token.Pos. Errors travel
// up the recursive traversal unchanged; there is no local recovery. Use
// CodeOf / Is to inspect an error that may have been wrapped with %w.
//
// # Diagnostics
//
// The driver converts a failed compilation unit into a Diagnostic (resolved
// token.Position, severity, message, notes) and stores it through a Reporter,
// usually a BagReporter feeding a Bag. Bag supports limits, sorting and
// deduplication so that output from parallel lowering stays deterministic.
//
// # Codes
//
//   - SYN2xxx: structural errors from dispatch and scope bookkeeping
//     (UnsupportedConstruct, DuplicateDeclaration, ShadowedLoopVariable).
//   - LOW3xxx: errors raised by the translators.
//   - IO4xxx, PRJ5xxx, OBS6xxx: driver, manifest and observability.
//
// Rendering lives in internal/diagfmt; this package performs no IO.
package diag
