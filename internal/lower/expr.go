package lower

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"weft/internal/builder"
	"weft/internal/diag"
	"weft/internal/ir"
)

const (
	loadElement  = "ndarray.load"
	storeElement = "ndarray.store"
)

func describeExpr(e ast.Expr) string { return types.ExprString(e) }

func (l *Lowerer) buildIdent(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	id := n.(*ast.Ident)
	if v, ok := ctx.Lookup(id.Name); ok {
		if v.Kind == ir.ValueVar {
			return ctx.Builder.Load(v), nil
		}
		return v, nil
	}
	switch id.Name {
	case "true":
		return ir.NewConst(ir.BoolConst(true)), nil
	case "false":
		return ir.NewConst(ir.BoolConst(false)), nil
	}
	return nil, diag.Errorf(diag.UndefinedName, id.Pos(), "undefined: %s", id.Name)
}

func (l *Lowerer) buildBasicLit(_ *builder.IRContext, n ast.Node) (*ir.Value, error) {
	lit := n.(*ast.BasicLit)
	c, err := literal(lit)
	if err != nil {
		return nil, err
	}
	return ir.NewConst(c), nil
}

func literal(lit *ast.BasicLit) (ir.Constant, error) {
	switch lit.Kind {
	case token.INT:
		v, err := strconv.ParseInt(lit.Value, 0, 64)
		if err != nil {
			return ir.Constant{}, diag.Errorf(diag.UnsupportedConstruct, lit.Pos(), "integer literal %s: %v", lit.Value, err)
		}
		return ir.IntConst(v), nil
	case token.FLOAT:
		v, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return ir.Constant{}, diag.Errorf(diag.UnsupportedConstruct, lit.Pos(), "float literal %s: %v", lit.Value, err)
		}
		return ir.FloatConst(v), nil
	}
	return ir.Constant{}, diag.Errorf(diag.UnsupportedConstruct, lit.Pos(), "%s literals are not supported in kernels", lit.Kind)
}

func (l *Lowerer) buildParen(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	return l.build(ctx, n.(*ast.ParenExpr).X)
}

func (l *Lowerer) buildUnary(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	ue := n.(*ast.UnaryExpr)
	x, err := l.build(ctx, ue.X)
	if err != nil {
		return nil, err
	}
	if x == nil {
		return nil, diag.Errorf(diag.UnsupportedConstruct, ue.X.Pos(), "operand has no value")
	}
	switch ue.Op {
	case token.ADD, token.SUB, token.NOT, token.XOR:
	default:
		return nil, diag.Errorf(diag.UnsupportedOperator, ue.OpPos, "unsupported unary operator %s", ue.Op)
	}
	if x.IsConst() {
		c, err := foldUnary(ue.Op, *x.Const, ue.OpPos)
		if err != nil {
			return nil, err
		}
		return ir.NewConst(c), nil
	}
	if ue.Op == token.ADD {
		return x, nil
	}
	return ctx.Builder.Unary(ue.Op.String(), x), nil
}

func (l *Lowerer) buildBinary(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	be := n.(*ast.BinaryExpr)
	x, err := l.build(ctx, be.X)
	if err != nil {
		return nil, err
	}
	y, err := l.build(ctx, be.Y)
	if err != nil {
		return nil, err
	}
	if x == nil || y == nil {
		return nil, diag.Errorf(diag.UnsupportedConstruct, be.Pos(), "operand of %s has no value", be.Op)
	}
	return l.binary(ctx, be.Op, x, y, be.OpPos)
}

// binary folds constant operands and emits an instruction otherwise.
func (l *Lowerer) binary(ctx *builder.IRContext, op token.Token, x, y *ir.Value, pos token.Pos) (*ir.Value, error) {
	if !binaryOps[op] {
		return nil, diag.Errorf(diag.UnsupportedOperator, pos, "unsupported binary operator %s", op)
	}
	if x.IsConst() && y.IsConst() {
		c, err := foldBinary(op, *x.Const, *y.Const, pos)
		if err != nil {
			return nil, err
		}
		return ir.NewConst(c), nil
	}
	return ctx.Builder.Binary(op.String(), l.materialize(ctx, x), l.materialize(ctx, y)), nil
}

var binaryOps = map[token.Token]bool{
	token.ADD: true, token.SUB: true, token.MUL: true, token.QUO: true, token.REM: true,
	token.AND: true, token.OR: true, token.XOR: true, token.SHL: true, token.SHR: true,
	token.AND_NOT: true, token.LAND: true, token.LOR: true,
	token.EQL: true, token.NEQ: true, token.LSS: true, token.LEQ: true, token.GTR: true, token.GEQ: true,
}

// builtins maps callable names to whether they produce a value.
var builtins = map[string]bool{
	"abs": true, "sqrt": true, "sin": true, "cos": true, "tan": true,
	"exp": true, "log": true, "floor": true, "ceil": true, "pow": true,
	"min": true, "max": true, "atomic_add": true,
	"int": true, "float32": true, "float64": true,
	"print": false,
}

func (l *Lowerer) buildCall(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	call := n.(*ast.CallExpr)
	var callee string
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		callee = fun.Name
	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		if !ok || pkg.Name != "math" {
			return nil, diag.Errorf(diag.UnknownBuiltin, call.Pos(), "unknown function %s", describeExpr(call.Fun))
		}
		callee = "math." + fun.Sel.Name
	default:
		return nil, diag.Errorf(diag.UnknownBuiltin, call.Pos(), "cannot call %s", describeExpr(call.Fun))
	}

	if callee == staticRange {
		return l.staticValue(ctx, call)
	}

	args := make([]*ir.Value, len(call.Args))
	for i, a := range call.Args {
		v, err := l.value(ctx, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if _, ok := l.funcs[callee]; ok {
		return l.callNested(ctx, call, callee, args)
	}
	hasResult, ok := builtins[callee]
	if !ok && strings.HasPrefix(callee, "math.") {
		hasResult, ok = true, true
	}
	if !ok {
		return nil, diag.Errorf(diag.UnknownBuiltin, call.Pos(), "unknown function %s", callee)
	}
	return ctx.Builder.Call(callee, args, hasResult), nil
}

// staticValue evaluates `static(x)`, which must fold to a constant.
func (l *Lowerer) staticValue(ctx *builder.IRContext, call *ast.CallExpr) (*ir.Value, error) {
	if len(call.Args) != 1 {
		return nil, diag.Errorf(diag.ArgumentMismatch, call.Pos(), "static takes 1 argument, got %d", len(call.Args))
	}
	v, err := l.build(ctx, call.Args[0])
	if err != nil {
		return nil, err
	}
	if !v.IsConst() {
		return nil, diag.Errorf(diag.StaticRangeBound, call.Args[0].Pos(),
			"%s is not a compile-time constant", describeExpr(call.Args[0]))
	}
	return v, nil
}

func (l *Lowerer) callNested(ctx *builder.IRContext, call *ast.CallExpr, name string, args []*ir.Value) (*ir.Value, error) {
	f, err := l.lowerNested(ctx, name, call.Pos())
	if err != nil {
		return nil, err
	}
	if len(args) != len(f.Params) {
		return nil, diag.Errorf(diag.ArgumentMismatch, call.Pos(),
			"%s takes %d arguments, got %d", name, len(f.Params), len(args))
	}
	if f.Results > 1 {
		return nil, diag.Errorf(diag.UnsupportedConstruct, call.Pos(), "%s returns %d values", name, f.Results)
	}
	return ctx.Builder.Call(name, args, f.Results == 1), nil
}

func (l *Lowerer) buildIndex(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	base, idx, err := l.element(ctx, n.(*ast.IndexExpr))
	if err != nil {
		return nil, err
	}
	return ctx.Builder.Call(loadElement, append([]*ir.Value{base}, idx...), true), nil
}

// element resolves `a[i][j]` into the array argument and its indices.
func (l *Lowerer) element(ctx *builder.IRContext, e *ast.IndexExpr) (*ir.Value, []*ir.Value, error) {
	var exprs []ast.Expr
	var x ast.Expr = e
	for {
		ie, ok := x.(*ast.IndexExpr)
		if !ok {
			break
		}
		exprs = append([]ast.Expr{ie.Index}, exprs...)
		x = ie.X
	}
	id, ok := x.(*ast.Ident)
	if !ok {
		return nil, nil, diag.Errorf(diag.UnsupportedConstruct, x.Pos(), "cannot index %s", describeExpr(x))
	}
	base, ok := ctx.Lookup(id.Name)
	if !ok {
		return nil, nil, diag.Errorf(diag.UndefinedName, id.Pos(), "undefined: %s", id.Name)
	}
	if base.Kind != ir.ValueArg {
		return nil, nil, diag.Errorf(diag.InvalidAssignTarget, id.Pos(), "%s is not an array argument", id.Name)
	}
	idx := make([]*ir.Value, len(exprs))
	for i, ie := range exprs {
		v, err := l.value(ctx, ie)
		if err != nil {
			return nil, nil, err
		}
		idx[i] = v
	}
	return base, idx, nil
}
