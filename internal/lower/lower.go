package lower

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"

	"weft/internal/builder"
	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/syntax"
	"weft/internal/trace"
)

type handler = builder.Handler[*builder.IRContext, *ir.Value]

// Lowerer translates kernels written as Go functions into IR. One Lowerer
// serves one goroutine. Nested functions it lowers are cached on it, so the
// driver, which creates a Lowerer per kernel, lowers a helper once per
// calling kernel.
type Lowerer struct {
	d     *builder.Dispatcher[*builder.IRContext, *ir.Value]
	fset  *token.FileSet
	funcs map[string]*ast.FuncDecl

	nested  map[string]*ir.Func
	pending map[string]bool
}

// New returns a Lowerer. funcs names the plain functions kernels may call;
// each call is lowered once as its own compilation unit.
func New(fset *token.FileSet, funcs map[string]*ast.FuncDecl) *Lowerer {
	l := &Lowerer{
		d:       builder.NewDispatcher[*builder.IRContext, *ir.Value](syntax.TreeDumper(fset)),
		fset:    fset,
		funcs:   funcs,
		nested:  make(map[string]*ir.Func),
		pending: make(map[string]bool),
	}
	l.register()
	return l
}

func (l *Lowerer) register() {
	for kind, h := range map[syntax.Kind]handler{
		syntax.KindFuncDecl:   l.buildFuncDecl,
		syntax.KindBlockStmt:  l.buildBlock,
		syntax.KindExprStmt:   l.buildExprStmt,
		syntax.KindDeclStmt:   l.buildDeclStmt,
		syntax.KindAssignStmt: l.buildAssign,
		syntax.KindIncDecStmt: l.buildIncDec,
		syntax.KindIfStmt:     l.buildIf,
		syntax.KindForStmt:    l.buildFor,
		syntax.KindRangeStmt:  l.buildRange,
		syntax.KindBranchStmt: l.buildBranch,
		syntax.KindReturnStmt: l.buildReturn,
		syntax.KindEmptyStmt:  l.buildEmpty,
		syntax.KindIdent:      l.buildIdent,
		syntax.KindBasicLit:   l.buildBasicLit,
		syntax.KindParenExpr:  l.buildParen,
		syntax.KindUnaryExpr:  l.buildUnary,
		syntax.KindBinaryExpr: l.buildBinary,
		syntax.KindCallExpr:   l.buildCall,
		syntax.KindIndexExpr:  l.buildIndex,
	} {
		l.d.Register(kind, h)
	}
}

// Lower translates ctx.Func and returns the finished IR function.
func (l *Lowerer) Lower(ctx *builder.IRContext) (*ir.Func, error) {
	if ctx == nil || ctx.Func == nil {
		return nil, fmt.Errorf("lower: missing function declaration")
	}
	if _, err := l.d.Build(ctx, ctx.Func); err != nil {
		return nil, err
	}
	return ctx.Builder.Finish(), nil
}

// Nested returns the helper functions lowered while translating kernels,
// sorted by name.
func (l *Lowerer) Nested() []*ir.Func {
	names := make([]string, 0, len(l.nested))
	for name := range l.nested {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*ir.Func, 0, len(names))
	for _, name := range names {
		out = append(out, l.nested[name])
	}
	return out
}

// lowerNested translates a called function in a fresh context that shares
// only the global namespace with its caller.
func (l *Lowerer) lowerNested(caller *builder.IRContext, name string, pos token.Pos) (*ir.Func, error) {
	if f, ok := l.nested[name]; ok {
		return f, nil
	}
	if l.pending[name] {
		return nil, diag.Errorf(diag.UnsupportedConstruct, pos, "recursive call to %s is not supported", name)
	}
	decl := l.funcs[name]
	l.pending[name] = true
	defer delete(l.pending, name)

	span := trace.Begin(caller.Tracer, trace.ScopeUnit, "func:"+name, caller.ParentSpan)
	ctx := builder.NewIRContext(builder.Kernel{
		Name:       name,
		Func:       decl,
		Tracer:     caller.Tracer,
		ParentSpan: span.ID(),
	}, caller.Globals, nil)
	f, err := l.Lower(ctx)
	if err != nil {
		span.End("error")
		return nil, err
	}
	span.End("")
	l.nested[name] = f
	return f, nil
}

func (l *Lowerer) build(ctx *builder.IRContext, n ast.Node) (*ir.Value, error) {
	return l.d.Build(ctx, n)
}

// operand builds an expression that must produce a value. Constants are
// left unmaterialized.
func (l *Lowerer) operand(ctx *builder.IRContext, e ast.Expr) (*ir.Value, error) {
	v, err := l.build(ctx, e)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, diag.Errorf(diag.UnsupportedConstruct, e.Pos(), "expression %s has no value", syntax.Describe(e))
	}
	return v, nil
}

// value is operand with global constants materialized into the current
// function.
func (l *Lowerer) value(ctx *builder.IRContext, e ast.Expr) (*ir.Value, error) {
	v, err := l.operand(ctx, e)
	if err != nil {
		return nil, err
	}
	return l.materialize(ctx, v), nil
}

func (l *Lowerer) materialize(ctx *builder.IRContext, v *ir.Value) *ir.Value {
	if v.ID.IsValid() || !v.IsConst() {
		return v
	}
	return ctx.Builder.Const(*v.Const)
}
