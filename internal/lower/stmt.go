package lower

import (
	"go/ast"
	"go/token"

	"weft/internal/builder"
	"weft/internal/control"
	"weft/internal/diag"
	"weft/internal/ir"
)

func (l *Lowerer) buildFuncDecl(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	fn := n.(*ast.FuncDecl)
	if fn.Body == nil {
		return nil, diag.Errorf(diag.UnsupportedConstruct, fn.Pos(), "function %s has no body", fn.Name.Name)
	}
	g := ctx.VariableScope()
	defer g.Exit()

	for _, field := range fn.Type.Params.List {
		for _, name := range field.Names {
			if err := l.bindParam(ctx, name); err != nil {
				return nil, err
			}
		}
	}
	ctx.Builder.SetResults(ctx.ResultCount())
	return nil, l.buildStmts(ctx, fn.Body.List)
}

// bindParam declares one parameter. Excluded parameters become constants
// taken from the argument data instead of runtime parameters.
func (l *Lowerer) bindParam(ctx *builder.IRContext, name *ast.Ident) error {
	if name.Name == "_" {
		ctx.Builder.Param("_", "")
		return nil
	}
	if ctx.IsExcluded(name.Name) {
		data, ok := ctx.ArgumentData[name.Name]
		if !ok {
			return diag.Errorf(diag.ExcludedParameter, name.Pos(),
				"excluded parameter %s has no argument data", name.Name)
		}
		return ctx.CreateVariable(name.Name, ctx.Builder.Const(data.Value), name.Pos())
	}
	feature := ""
	if f, ok := ctx.FeatureOf(name.Name); ok {
		feature = f.String()
	}
	return ctx.CreateVariable(name.Name, ctx.Builder.Param(name.Name, feature), name.Pos())
}

// buildStmts translates a statement list in the current scope. It stops
// early once the innermost loop leaves Normal status or the insertion block
// is terminated; whatever follows is unreachable.
func (l *Lowerer) buildStmts(ctx *builder.IRContext, list []ast.Stmt) error {
	for _, st := range list {
		if ctx.LoopStatus() != control.Normal || ctx.Builder.Terminated() {
			return nil
		}
		if _, err := l.build(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) buildBlock(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	g := ctx.VariableScope()
	defer g.Exit()
	return nil, l.buildStmts(ctx, n.(*ast.BlockStmt).List)
}

func (l *Lowerer) buildExprStmt(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	_, err := l.build(ctx, n.(*ast.ExprStmt).X)
	return nil, err
}

func (l *Lowerer) buildEmpty(*builder.IRContext, ast.Node) (*ir.Value, error) {
	return nil, nil
}

func (l *Lowerer) buildDeclStmt(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	gen, ok := n.(*ast.DeclStmt).Decl.(*ast.GenDecl)
	if !ok || (gen.Tok != token.VAR && gen.Tok != token.CONST) {
		return nil, diag.Errorf(diag.UnsupportedConstruct, n.Pos(), "only var and const declarations are supported in kernels")
	}
	for _, spec := range gen.Specs {
		vs := spec.(*ast.ValueSpec)
		if len(vs.Values) != 0 && len(vs.Values) != len(vs.Names) {
			return nil, diag.Errorf(diag.ArgumentMismatch, vs.Pos(),
				"%d names declared with %d values", len(vs.Names), len(vs.Values))
		}
		for i, name := range vs.Names {
			var init *ir.Value
			if len(vs.Values) > 0 {
				v, err := l.value(ctx, vs.Values[i])
				if err != nil {
					return nil, err
				}
				init = v
			}
			if name.Name == "_" {
				continue
			}
			if gen.Tok == token.CONST {
				if init == nil || !init.IsConst() {
					return nil, diag.Errorf(diag.StaticRangeBound, name.Pos(),
						"constant %s is not a compile-time value", name.Name)
				}
				if err := ctx.CreateVariable(name.Name, init, name.Pos()); err != nil {
					return nil, err
				}
				continue
			}
			if init == nil {
				init = ctx.Builder.Const(zeroOf(vs.Type))
			}
			if err := ctx.CreateVariable(name.Name, ctx.Builder.Alloca(name.Name, init), name.Pos()); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// zeroOf returns the zero constant for a declared scalar type.
func zeroOf(typ ast.Expr) ir.Constant {
	if id, ok := typ.(*ast.Ident); ok {
		switch id.Name {
		case "float32", "float64":
			return ir.FloatConst(0)
		case "bool":
			return ir.BoolConst(false)
		}
	}
	return ir.IntConst(0)
}

func (l *Lowerer) buildAssign(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	as := n.(*ast.AssignStmt)
	switch as.Tok {
	case token.DEFINE:
		return nil, l.define(ctx, as)
	case token.ASSIGN:
		return nil, l.assign(ctx, as)
	}
	op, ok := compoundOps[as.Tok]
	if !ok {
		return nil, diag.Errorf(diag.UnsupportedOperator, as.TokPos, "unsupported assignment operator %s", as.Tok)
	}
	if len(as.Lhs) != 1 || len(as.Rhs) != 1 {
		return nil, diag.Errorf(diag.ArgumentMismatch, as.Pos(), "%s takes one target and one value", as.Tok)
	}
	rhs, err := l.value(ctx, as.Rhs[0])
	if err != nil {
		return nil, err
	}
	return nil, l.update(ctx, as.Lhs[0], op, rhs)
}

var compoundOps = map[token.Token]token.Token{
	token.ADD_ASSIGN:     token.ADD,
	token.SUB_ASSIGN:     token.SUB,
	token.MUL_ASSIGN:     token.MUL,
	token.QUO_ASSIGN:     token.QUO,
	token.REM_ASSIGN:     token.REM,
	token.AND_ASSIGN:     token.AND,
	token.OR_ASSIGN:      token.OR,
	token.XOR_ASSIGN:     token.XOR,
	token.SHL_ASSIGN:     token.SHL,
	token.SHR_ASSIGN:     token.SHR,
	token.AND_NOT_ASSIGN: token.AND_NOT,
}

func (l *Lowerer) rhsValues(ctx *builder.IRContext, as *ast.AssignStmt) ([]*ir.Value, error) {
	if len(as.Lhs) != len(as.Rhs) {
		return nil, diag.Errorf(diag.ArgumentMismatch, as.Pos(),
			"assignment has %d targets and %d values", len(as.Lhs), len(as.Rhs))
	}
	vals := make([]*ir.Value, len(as.Rhs))
	for i, e := range as.Rhs {
		v, err := l.value(ctx, e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// define handles `:=`. Every named target is a new variable in the current
// scope; reusing a name already declared in this scope is an error.
func (l *Lowerer) define(ctx *builder.IRContext, as *ast.AssignStmt) error {
	vals, err := l.rhsValues(ctx, as)
	if err != nil {
		return err
	}
	for i, lhs := range as.Lhs {
		id, ok := lhs.(*ast.Ident)
		if !ok {
			return diag.Errorf(diag.InvalidAssignTarget, lhs.Pos(), "cannot declare %s", describeExpr(lhs))
		}
		if id.Name == "_" {
			continue
		}
		if err := ctx.CreateVariable(id.Name, ctx.Builder.Alloca(id.Name, vals[i]), id.Pos()); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) assign(ctx *builder.IRContext, as *ast.AssignStmt) error {
	vals, err := l.rhsValues(ctx, as)
	if err != nil {
		return err
	}
	for i, lhs := range as.Lhs {
		if err := l.store(ctx, lhs, vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) buildIncDec(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	st := n.(*ast.IncDecStmt)
	op := token.ADD
	if st.Tok == token.DEC {
		op = token.SUB
	}
	return nil, l.update(ctx, st.X, op, ctx.Builder.Const(ir.IntConst(1)))
}

// update lowers `target op= rhs`.
func (l *Lowerer) update(ctx *builder.IRContext, target ast.Expr, op token.Token, rhs *ir.Value) error {
	cur, err := l.value(ctx, target)
	if err != nil {
		return err
	}
	next, err := l.binary(ctx, op, cur, rhs, target.Pos())
	if err != nil {
		return err
	}
	return l.store(ctx, target, next)
}

// store writes v to an identifier slot or an ndarray element.
func (l *Lowerer) store(ctx *builder.IRContext, target ast.Expr, v *ir.Value) error {
	switch t := target.(type) {
	case *ast.ParenExpr:
		return l.store(ctx, t.X, v)
	case *ast.Ident:
		if t.Name == "_" {
			return nil
		}
		slot, ok := ctx.Lookup(t.Name)
		if !ok {
			return diag.Errorf(diag.UndefinedName, t.Pos(), "undefined: %s", t.Name)
		}
		if slot.Kind != ir.ValueVar {
			return diag.Errorf(diag.InvalidAssignTarget, t.Pos(), "cannot assign to %s (%s)", t.Name, slot.Kind)
		}
		ctx.Builder.Store(slot, v)
		return nil
	case *ast.IndexExpr:
		base, idx, err := l.element(ctx, t)
		if err != nil {
			return err
		}
		args := append([]*ir.Value{base}, idx...)
		ctx.Builder.Call(storeElement, append(args, v), false)
		return nil
	}
	return diag.Errorf(diag.InvalidAssignTarget, target.Pos(), "cannot assign to %s", describeExpr(target))
}

func (l *Lowerer) buildIf(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	st := n.(*ast.IfStmt)
	g := ctx.VariableScope()
	defer g.Exit()
	if st.Init != nil {
		if _, err := l.build(ctx, st.Init); err != nil {
			return nil, err
		}
	}
	cond, err := l.build(ctx, st.Cond)
	if err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, diag.Errorf(diag.UnsupportedConstruct, st.Cond.Pos(), "condition has no value")
	}

	// A compile-time condition selects one branch; only that branch is
	// translated, so it may steer an unrolled loop.
	if cond.IsConst() {
		if cond.Const.Kind != ir.ConstBool {
			return nil, diag.Errorf(diag.UnsupportedOperator, st.Cond.Pos(), "condition %s is not boolean", cond.Const)
		}
		if cond.Const.Bool {
			_, err = l.build(ctx, st.Body)
		} else if st.Else != nil {
			_, err = l.build(ctx, st.Else)
		}
		return nil, err
	}

	then, els := ctx.Builder.If(cond)
	if err := l.branch(ctx, then, st.Body); err != nil {
		return nil, err
	}
	if st.Else != nil {
		if err := l.branch(ctx, els, st.Else); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// branch translates one arm of a runtime if. An unrolled loop cannot be
// left from inside it: the status would apply to every iteration.
func (l *Lowerer) branch(ctx *builder.IRContext, blk *ir.Block, arm ast.Stmt) error {
	err := ctx.Builder.WithBlock(blk, func() error {
		_, err := l.build(ctx, arm)
		return err
	})
	if err != nil {
		return err
	}
	if ctx.InStaticLoop() && ctx.LoopStatus() != control.Normal {
		return diag.Errorf(diag.RuntimeStaticBranch, arm.Pos(),
			"%s of an unrolled loop depends on a runtime condition", ctx.LoopStatus())
	}
	return nil
}

func (l *Lowerer) buildBranch(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	st := n.(*ast.BranchStmt)
	if st.Label != nil {
		return nil, diag.Errorf(diag.UnsupportedConstruct, st.Pos(), "labeled %s is not supported", st.Tok)
	}
	var status control.Status
	switch st.Tok {
	case token.BREAK:
		status = control.Break
	case token.CONTINUE:
		status = control.Continue
	default:
		return nil, diag.Errorf(diag.UnsupportedConstruct, st.Pos(), "%s is not supported", st.Tok)
	}
	if ctx.Loops.Depth() == 0 {
		return nil, diag.Errorf(diag.BranchOutsideLoop, st.Pos(), "%s is not in a loop", st.Tok)
	}
	if ctx.InStaticLoop() {
		return nil, ctx.SetLoopStatus(status)
	}
	if status == control.Break {
		ctx.Builder.Break()
	} else {
		ctx.Builder.Continue()
	}
	return nil, nil
}

func (l *Lowerer) buildReturn(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	st := n.(*ast.ReturnStmt)
	if want := ctx.ResultCount(); len(st.Results) != want {
		return nil, diag.Errorf(diag.ReturnMismatch, st.Pos(),
			"%s returns %d values, got %d", ctx.Name, want, len(st.Results))
	}
	vals := make([]*ir.Value, len(st.Results))
	for i, e := range st.Results {
		v, err := l.value(ctx, e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	ctx.ReturnData = vals
	ctx.Builder.Return(vals)
	return nil, nil
}
