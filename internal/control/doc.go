// Package control tracks loop status while a kernel body is translated.
//
// Every loop construct enters a Frame for the duration of its translation.
// break and continue handlers set the innermost Status; the loop handler
// observes it after each body statement, skips or stops accordingly, and
// resets it to Normal before the next iteration. A frame marked static is
// unrolled at compile time instead of becoming a runtime loop.
package control
