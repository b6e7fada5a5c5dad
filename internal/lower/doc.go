// Package lower translates kernels written as Go functions into weft IR.
//
// Every node kind the translator understands has a handler registered in a
// builder.Dispatcher; handlers recurse through the dispatcher and keep their
// bookkeeping in a builder.IRContext. Names resolve innermost scope first,
// then in the global namespace built from package-level constants.
//
// Loops over static(n) are unrolled: the body is translated once per
// iteration with the loop variable bound to a constant, and break or
// continue only change the loop status. Every other loop becomes an IR loop
// whose break and continue are emitted as instructions.
package lower
