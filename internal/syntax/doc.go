// Package syntax classifies go/ast nodes for the kernel translators.
//
// Kernels are written as ordinary Go functions and parsed with go/parser.
// The translators never look up handlers by reflection or by name; instead
// KindOf maps each node to a closed Kind enumeration that indexes a static
// dispatch table (see internal/builder).
package syntax
