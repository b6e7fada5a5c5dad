package lower

import (
	"go/ast"
	"go/token"

	"weft/internal/builder"
	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/scope"
)

// EvalConst folds e to a compile-time constant. Names resolve in globals
// only. It is used to build the global namespace from package constants.
func EvalConst(fset *token.FileSet, e ast.Expr, globals scope.Globals[*ir.Value]) (ir.Constant, error) {
	l := New(fset, nil)
	ctx := builder.NewIRContext(builder.Kernel{Name: "const"}, globals, nil)
	g := ctx.VariableScope()
	defer g.Exit()
	v, err := l.build(ctx, e)
	if err != nil {
		return ir.Constant{}, err
	}
	if !v.IsConst() {
		return ir.Constant{}, diag.Errorf(diag.StaticRangeBound, e.Pos(), "%s is not a compile-time constant", describeExpr(e))
	}
	return *v.Const, nil
}
