// Package scope tracks lexical scopes while a kernel is translated.
//
// A Stack holds one Frame per active scope. Entering a scope-introducing
// construct (function body, block, loop body) pushes a frame through Enter,
// which returns a Guard; the caller defers Guard.Exit so the frame is popped
// on every path out of the construct, including errors and panics.
//
// Each frame may carry an ExitAction. The legacy source-to-source translator
// uses EmitDeletes to append `del(name)` statements, newest first, to the
// statement list being built. The IR translator passes nil: its IR owns values
// structurally and needs no teardown.
//
// Rules:
//
//   - Declare fails with DuplicateDeclaration only for the innermost frame;
//     shadowing an outer frame is allowed.
//   - IsDeclared and RejectIfShadowingLoopVar look at every active frame.
//   - Resolve never leaves the stack; a global fallback is layered on top by
//     the IR builder context.
package scope
