package builder

import (
	"go/ast"
	"go/token"

	"weft/internal/control"
	"weft/internal/diag"
	"weft/internal/scope"
)

// Context is the legacy builder context used by the source-to-source
// translator. Scopes record only which names exist; leaving a scope can emit
// `del(name)` teardown statements into the statement list being built.
type Context struct {
	Kernel

	Vars  *scope.Stack[struct{}]
	Loops *control.Stack

	// Returns accumulates the expressions of every translated return.
	Returns []ast.Expr
}

// NewContext creates the context for one compilation unit.
func NewContext(k Kernel) *Context {
	return &Context{
		Kernel: k,
		Vars:   scope.NewStack[struct{}](),
		Loops:  control.NewStack(),
	}
}

// VariableScope enters a scope for a function body, block or module. When
// sink is non-nil, leaving the scope appends teardown statements to it.
func (c *Context) VariableScope(sink *[]ast.Stmt) *scope.Guard[struct{}] {
	return c.Vars.Enter(scope.EmitDeletes[struct{}](sink))
}

// ControlScope enters a loop frame.
func (c *Context) ControlScope() *control.Guard {
	return c.Loops.Enter()
}

// CurrentScope returns the innermost scope.
func (c *Context) CurrentScope() (*scope.Frame[struct{}], error) {
	return c.Vars.Current()
}

// IsVarDeclared reports whether name is declared in any active scope.
func (c *Context) IsVarDeclared(name string) bool {
	return c.Vars.IsDeclared(name)
}

// IsCreation reports whether assigning to name would create a variable.
func (c *Context) IsCreation(name string) bool {
	return !c.IsVarDeclared(name)
}

// CreateVariable declares name in the innermost scope.
func (c *Context) CreateVariable(name string, pos token.Pos) error {
	return at(c.Vars.Declare(name, struct{}{}), pos)
}

// CheckLoopVar rejects a loop variable that reuses a visible name.
func (c *Context) CheckLoopVar(name string, pos token.Pos) error {
	return at(c.Vars.RejectIfShadowingLoopVar(name), pos)
}

func at(err error, pos token.Pos) error {
	if de, ok := err.(*diag.Error); ok {
		return de.At(pos)
	}
	return err
}
