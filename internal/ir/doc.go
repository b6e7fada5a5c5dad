// Package ir is the structured intermediate representation produced by the
// kernel lowerer. Loops and conditionals own nested blocks rather than
// branching between basic blocks; the parallel backend consumes this form.
package ir
