package builder

import (
	"go/token"

	"weft/internal/control"
	"weft/internal/ir"
	"weft/internal/scope"
)

// IRContext is the builder context of the IR translator. Scopes bind names to
// IR values; lookups fall back to the enclosing global namespace.
type IRContext struct {
	Kernel

	Vars    *scope.Stack[*ir.Value]
	Loops   *control.Stack
	Builder *ir.Builder

	// Globals is shared between units and only read here.
	Globals      scope.Globals[*ir.Value]
	ArgumentData map[string]ArgData

	// ReturnData holds the values of the most recent return.
	ReturnData []*ir.Value
}

// NewIRContext creates the context for one compilation unit.
func NewIRContext(k Kernel, globals scope.Globals[*ir.Value], argData map[string]ArgData) *IRContext {
	return &IRContext{
		Kernel:       k,
		Vars:         scope.NewStack[*ir.Value](),
		Loops:        control.NewStack(),
		Builder:      ir.NewBuilder(k.Name, k.IsKernel),
		Globals:      globals,
		ArgumentData: argData,
	}
}

// VariableScope enters a scope. IR scopes emit no teardown.
func (c *IRContext) VariableScope() *scope.Guard[*ir.Value] {
	return c.Vars.Enter(nil)
}

// ControlScope enters a loop frame.
func (c *IRContext) ControlScope() *control.Guard {
	return c.Loops.Enter()
}

// CurrentScope returns the innermost scope.
func (c *IRContext) CurrentScope() (*scope.Frame[*ir.Value], error) {
	return c.Vars.Current()
}

// LoopStatus returns the innermost loop status, Normal outside loops.
func (c *IRContext) LoopStatus() control.Status {
	return c.Loops.Status()
}

// SetLoopStatus changes the innermost loop status.
func (c *IRContext) SetLoopStatus(s control.Status) error {
	return c.Loops.SetStatus(s)
}

// MarkStaticLoop flags the innermost loop for unrolling.
func (c *IRContext) MarkStaticLoop() error {
	return c.Loops.MarkStatic()
}

// InStaticLoop reports whether the innermost loop is unrolled.
func (c *IRContext) InStaticLoop() bool {
	return c.Loops.IsStatic()
}

// IsVarDeclared reports whether name is declared in any active scope.
func (c *IRContext) IsVarDeclared(name string) bool {
	return c.Vars.IsDeclared(name)
}

// CreateVariable binds name to v in the innermost scope.
func (c *IRContext) CreateVariable(name string, v *ir.Value, pos token.Pos) error {
	return at(c.Vars.Declare(name, v), pos)
}

// CheckLoopVar rejects a loop variable that reuses a visible name.
func (c *IRContext) CheckLoopVar(name string, pos token.Pos) error {
	return at(c.Vars.RejectIfShadowingLoopVar(name), pos)
}

// Lookup resolves name innermost scope first, then in Globals. The caller
// decides whether absence is an error.
func (c *IRContext) Lookup(name string) (*ir.Value, bool) {
	if v, ok := c.Vars.Resolve(name); ok {
		return v, true
	}
	if c.Globals == nil {
		return nil, false
	}
	return c.Globals.Lookup(name)
}
