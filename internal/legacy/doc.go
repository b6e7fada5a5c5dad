// Package legacy is the source-to-source kernel translator.
//
// It keeps the kernel as Go code and makes variable lifetimes explicit: when
// a function body, block or loop scope ends, a del(name) statement is
// emitted for each variable declared in it, most recent first. Names are
// tracked for presence only and there is no global namespace.
package legacy
