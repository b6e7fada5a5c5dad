// Package builder holds the per-unit state of kernel translation and the
// dispatch table that drives it.
//
// A Dispatcher maps each syntax.Kind to a Handler; Build looks the node up and
// calls the handler, or fails with an UnsupportedConstruct error that names
// the node and, when a dumper is configured, includes its structure.
//
// Two contexts exist, one per translator generation:
//
//   - Context (legacy): scopes record names only, and a scope entered with a
//     statement sink emits `del(name)` teardown on exit. Name lookups report
//     presence only; there is no global fallback.
//   - IRContext: scopes bind names to ir.Values and Lookup falls back to the
//     read-only global namespace. No teardown is emitted.
//
// Both embed Kernel, the metadata supplied by the invocation layer, and own
// a scope stack and a loop control stack for the lifetime of one unit.
package builder
