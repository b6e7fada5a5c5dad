package lower

import (
	"go/ast"
	"go/token"

	"weft/internal/builder"
	"weft/internal/control"
	"weft/internal/diag"
	"weft/internal/ir"
)

const (
	// staticRange marks a range clause unrolled at compile time:
	// `for i := range static(n)` or `for i := range static(begin, end)`.
	staticRange = "static"
	// ndRange spells a runtime range with an explicit start:
	// `for i := range ndrange(begin, end)`.
	ndRange = "ndrange"
)

// buildFor lowers the three-clause, condition-only and infinite for loops
// into a runtime loop. The condition is checked at the top of the body.
func (l *Lowerer) buildFor(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	st := n.(*ast.ForStmt)
	g := ctx.VariableScope()
	defer g.Exit()

	if st.Init != nil {
		if as, ok := st.Init.(*ast.AssignStmt); ok && as.Tok == token.DEFINE {
			for _, lhs := range as.Lhs {
				if id, ok := lhs.(*ast.Ident); ok && id.Name != "_" {
					if err := ctx.CheckLoopVar(id.Name, id.Pos()); err != nil {
						return nil, err
					}
				}
			}
		}
		if _, err := l.build(ctx, st.Init); err != nil {
			return nil, err
		}
	}

	cg := ctx.ControlScope()
	defer cg.Exit()

	body, post := ctx.Builder.Loop()
	err := ctx.Builder.WithBlock(body, func() error {
		if st.Cond != nil {
			cond, err := l.value(ctx, st.Cond)
			if err != nil {
				return err
			}
			stop, _ := ctx.Builder.If(ctx.Builder.Unary(token.NOT.String(), cond))
			_ = ctx.Builder.WithBlock(stop, func() error {
				ctx.Builder.Break()
				return nil
			})
		}
		_, err := l.build(ctx, st.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	if st.Post != nil {
		err = ctx.Builder.WithBlock(post, func() error {
			_, err := l.build(ctx, st.Post)
			return err
		})
	}
	ctx.Loops.ResetStatus()
	return nil, err
}

func (l *Lowerer) buildRange(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	st := n.(*ast.RangeStmt)
	if st.Value != nil {
		return nil, diag.Errorf(diag.UnsupportedConstruct, st.Value.Pos(), "range with a value variable is not supported")
	}
	var key *ast.Ident
	if st.Key != nil {
		id, ok := st.Key.(*ast.Ident)
		if !ok || st.Tok != token.DEFINE {
			return nil, diag.Errorf(diag.InvalidAssignTarget, st.Key.Pos(), "loop variable must be declared with :=")
		}
		if id.Name != "_" {
			if err := ctx.CheckLoopVar(id.Name, id.Pos()); err != nil {
				return nil, err
			}
			key = id
		}
	}

	if call, ok := rangeCall(st.X, staticRange); ok {
		return nil, l.unroll(ctx, st, key, call)
	}
	return nil, l.runtimeRange(ctx, st, key)
}

func rangeCall(x ast.Expr, name string) (*ast.CallExpr, bool) {
	call, ok := x.(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	id, ok := call.Fun.(*ast.Ident)
	return call, ok && id.Name == name
}

// bounds evaluates the one- or two-argument form of a range call.
func (l *Lowerer) bounds(ctx *builder.IRContext, call *ast.CallExpr) (begin, end *ir.Value, err error) {
	switch len(call.Args) {
	case 1:
		end, err = l.operand(ctx, call.Args[0])
		return nil, end, err
	case 2:
		if begin, err = l.operand(ctx, call.Args[0]); err != nil {
			return nil, nil, err
		}
		end, err = l.operand(ctx, call.Args[1])
		return begin, end, err
	}
	return nil, nil, diag.Errorf(diag.ArgumentMismatch, call.Pos(), "%s takes 1 or 2 arguments, got %d",
		describeExpr(call.Fun), len(call.Args))
}

func staticInt(v *ir.Value, pos token.Pos) (int64, error) {
	if !v.IsConst() {
		return 0, diag.Errorf(diag.StaticRangeBound, pos, "range bound %s is not a compile-time constant", v)
	}
	i, ok := v.Const.AsInt()
	if !ok || v.Const.Kind != ir.ConstInt {
		return 0, diag.Errorf(diag.StaticRangeBound, pos, "range bound %s is not an integer", v.Const)
	}
	return i, nil
}

// unroll translates the body once per iteration of a static range. Each
// iteration gets its own scope with the loop variable bound to a constant.
// After every iteration the loop status decides whether to go on.
func (l *Lowerer) unroll(ctx *builder.IRContext, st *ast.RangeStmt, key *ast.Ident, call *ast.CallExpr) error {
	begin, end, err := l.bounds(ctx, call)
	if err != nil {
		return err
	}
	var lo int64
	if begin != nil {
		if lo, err = staticInt(begin, call.Args[0].Pos()); err != nil {
			return err
		}
	}
	hi, err := staticInt(end, call.Args[len(call.Args)-1].Pos())
	if err != nil {
		return err
	}

	cg := ctx.ControlScope()
	defer cg.Exit()
	if err := ctx.MarkStaticLoop(); err != nil {
		return err
	}

	for i := lo; i < hi; i++ {
		err := func() error {
			g := ctx.VariableScope()
			defer g.Exit()
			if key != nil {
				iv := ir.NewConst(ir.IntConst(i))
				iv.Name = key.Name
				if err := ctx.CreateVariable(key.Name, iv, key.Pos()); err != nil {
					return err
				}
			}
			return l.buildStmts(ctx, st.Body.List)
		}()
		if err != nil {
			return err
		}
		if ctx.Loops.ResetStatus() == control.Break || ctx.Builder.Terminated() {
			break
		}
	}
	return nil
}

// runtimeRange lowers `for i := range n` and `for i := range ndrange(a, b)`
// to a counted IR loop.
func (l *Lowerer) runtimeRange(ctx *builder.IRContext, st *ast.RangeStmt, key *ast.Ident) error {
	var begin, end *ir.Value
	var err error
	if call, ok := rangeCall(st.X, ndRange); ok {
		begin, end, err = l.bounds(ctx, call)
	} else {
		end, err = l.operand(ctx, st.X)
	}
	if err != nil {
		return err
	}
	if begin == nil {
		begin = ir.NewConst(ir.IntConst(0))
	}
	begin, end = l.materialize(ctx, begin), l.materialize(ctx, end)

	cg := ctx.ControlScope()
	defer cg.Exit()

	name := "_"
	if key != nil {
		name = key.Name
	}
	iv, body := ctx.Builder.RangeFor(name, begin, end)
	err = ctx.Builder.WithBlock(body, func() error {
		g := ctx.VariableScope()
		defer g.Exit()
		if key != nil {
			if err := ctx.CreateVariable(key.Name, iv, key.Pos()); err != nil {
				return err
			}
		}
		return l.buildStmts(ctx, st.Body.List)
	})
	ctx.Loops.ResetStatus()
	return err
}
