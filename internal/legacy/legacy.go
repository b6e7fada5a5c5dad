package legacy

import (
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"io"

	"weft/internal/builder"
	"weft/internal/diag"
	"weft/internal/syntax"
)

type handler = builder.Handler[*builder.Context, []ast.Stmt]

// Translator rewrites a kernel into plain Go in which every variable is
// torn down explicitly with del(name) when its scope ends.
type Translator struct {
	d    *builder.Dispatcher[*builder.Context, []ast.Stmt]
	fset *token.FileSet
}

// New returns a Translator whose error messages dump nodes using fset.
func New(fset *token.FileSet) *Translator {
	t := &Translator{
		d:    builder.NewDispatcher[*builder.Context, []ast.Stmt](syntax.TreeDumper(fset)),
		fset: fset,
	}
	for kind, h := range map[syntax.Kind]handler{
		syntax.KindFuncDecl:   t.buildFuncDecl,
		syntax.KindBlockStmt:  t.buildBlock,
		syntax.KindAssignStmt: t.buildAssign,
		syntax.KindDeclStmt:   t.buildDeclStmt,
		syntax.KindForStmt:    t.buildFor,
		syntax.KindRangeStmt:  t.buildRange,
		syntax.KindIfStmt:     t.buildIf,
		syntax.KindBranchStmt: t.buildBranch,
		syntax.KindReturnStmt: t.buildReturn,
		syntax.KindExprStmt:   passthrough,
		syntax.KindIncDecStmt: passthrough,
		syntax.KindEmptyStmt:  passthrough,
	} {
		t.d.Register(kind, h)
	}
	return t
}

// Transform translates ctx.Func and returns a rewritten copy of it. The
// input declaration is not modified.
func (t *Translator) Transform(ctx *builder.Context) (*ast.FuncDecl, error) {
	if ctx == nil || ctx.Func == nil {
		return nil, fmt.Errorf("legacy: missing function declaration")
	}
	body, err := t.d.Build(ctx, ctx.Func)
	if err != nil {
		return nil, err
	}
	out := *ctx.Func
	out.Doc = nil
	out.Body = &ast.BlockStmt{Lbrace: ctx.Func.Body.Lbrace, List: body, Rbrace: ctx.Func.Body.Rbrace}
	return &out, nil
}

// Print writes decl as formatted Go source.
func (t *Translator) Print(w io.Writer, decl *ast.FuncDecl) error {
	return format.Node(w, t.fset, decl)
}

func passthrough(_ *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	return []ast.Stmt{n.(ast.Stmt)}, nil
}

// stmts translates a statement list, splicing each handler's output.
func (t *Translator) stmts(ctx *builder.Context, list []ast.Stmt) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(list))
	for _, st := range list {
		res, err := t.d.Build(ctx, st)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

// single collapses a handler result into one statement.
func single(list []ast.Stmt) ast.Stmt {
	if len(list) == 1 {
		return list[0]
	}
	return &ast.BlockStmt{List: list}
}

func (t *Translator) buildFuncDecl(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	fn := n.(*ast.FuncDecl)
	if fn.Body == nil {
		return nil, diag.Errorf(diag.UnsupportedConstruct, fn.Pos(), "function %s has no body", fn.Name.Name)
	}
	var body []ast.Stmt
	g := ctx.VariableScope(&body)
	defer g.Exit()

	for _, field := range fn.Type.Params.List {
		for _, name := range field.Names {
			if name.Name == "_" {
				continue
			}
			if err := ctx.CreateVariable(name.Name, name.Pos()); err != nil {
				return nil, err
			}
		}
	}
	list, err := t.stmts(ctx, fn.Body.List)
	if err != nil {
		return nil, err
	}
	body = append(body, list...)
	g.Exit()
	return body, nil
}

func (t *Translator) buildBlock(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	blk := n.(*ast.BlockStmt)
	out, err := t.block(ctx, blk.List)
	if err != nil {
		return nil, err
	}
	out.Lbrace, out.Rbrace = blk.Lbrace, blk.Rbrace
	return []ast.Stmt{out}, nil
}

// block translates list in a fresh scope whose teardown closes the block.
func (t *Translator) block(ctx *builder.Context, list []ast.Stmt) (*ast.BlockStmt, error) {
	var body []ast.Stmt
	g := ctx.VariableScope(&body)
	defer g.Exit()
	res, err := t.stmts(ctx, list)
	if err != nil {
		return nil, err
	}
	body = append(body, res...)
	g.Exit()
	return &ast.BlockStmt{List: body}, nil
}

func (t *Translator) declare(ctx *builder.Context, names []ast.Expr) error {
	for _, e := range names {
		id, ok := e.(*ast.Ident)
		if !ok {
			return diag.Errorf(diag.InvalidAssignTarget, e.Pos(), "cannot declare %T", e)
		}
		if id.Name == "_" {
			continue
		}
		if err := ctx.CreateVariable(id.Name, id.Pos()); err != nil {
			return err
		}
	}
	return nil
}

// buildAssign declares the targets of :=. A plain assignment whose target
// is not declared anywhere creates the variable, so it is rewritten to :=.
func (t *Translator) buildAssign(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	as := n.(*ast.AssignStmt)
	switch as.Tok {
	case token.DEFINE:
		return []ast.Stmt{as}, t.declare(ctx, as.Lhs)
	case token.ASSIGN:
	default:
		return []ast.Stmt{as}, nil
	}

	creations := 0
	for _, lhs := range as.Lhs {
		if id, ok := lhs.(*ast.Ident); ok && id.Name != "_" && ctx.IsCreation(id.Name) {
			creations++
		}
	}
	switch {
	case creations == 0:
		return []ast.Stmt{as}, nil
	case creations == len(as.Lhs):
		out := *as
		out.Tok = token.DEFINE
		return []ast.Stmt{&out}, t.declare(ctx, as.Lhs)
	}
	// Mixed targets: every right-hand side is evaluated before any target is
	// bound, so `x, y = 2, x` cannot become one statement per target.
	return nil, diag.Errorf(diag.InvalidAssignTarget, as.Pos(),
		"assignment mixes new and existing variables; declare the new ones first")
}

func (t *Translator) buildDeclStmt(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	gen, ok := n.(*ast.DeclStmt).Decl.(*ast.GenDecl)
	if !ok || (gen.Tok != token.VAR && gen.Tok != token.CONST) {
		return nil, diag.Errorf(diag.UnsupportedConstruct, n.Pos(), "only var and const declarations are supported in kernels")
	}
	for _, spec := range gen.Specs {
		for _, name := range spec.(*ast.ValueSpec).Names {
			if name.Name == "_" {
				continue
			}
			if err := ctx.CreateVariable(name.Name, name.Pos()); err != nil {
				return nil, err
			}
		}
	}
	return []ast.Stmt{n.(ast.Stmt)}, nil
}

// loopVars checks and declares the variables a loop header introduces.
func (t *Translator) loopVars(ctx *builder.Context, names []ast.Expr) error {
	for _, e := range names {
		if id, ok := e.(*ast.Ident); ok && id.Name != "_" {
			if err := ctx.CheckLoopVar(id.Name, id.Pos()); err != nil {
				return err
			}
		}
	}
	return t.declare(ctx, names)
}

// buildFor scopes the init variables to the loop statement; their teardown
// follows the loop.
func (t *Translator) buildFor(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	st := n.(*ast.ForStmt)
	var tail []ast.Stmt
	g := ctx.VariableScope(&tail)
	defer g.Exit()

	if as, ok := st.Init.(*ast.AssignStmt); ok && as.Tok == token.DEFINE {
		if err := t.loopVars(ctx, as.Lhs); err != nil {
			return nil, err
		}
	}
	cg := ctx.ControlScope()
	defer cg.Exit()
	body, err := t.block(ctx, st.Body.List)
	if err != nil {
		return nil, err
	}
	cg.Exit()
	body.Lbrace, body.Rbrace = st.Body.Lbrace, st.Body.Rbrace

	out := *st
	out.Body = body
	g.Exit()
	return append([]ast.Stmt{&out}, tail...), nil
}

func (t *Translator) buildRange(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	st := n.(*ast.RangeStmt)
	var tail []ast.Stmt
	g := ctx.VariableScope(&tail)
	defer g.Exit()

	if st.Tok == token.DEFINE {
		var vars []ast.Expr
		for _, e := range []ast.Expr{st.Key, st.Value} {
			if e != nil {
				vars = append(vars, e)
			}
		}
		if err := t.loopVars(ctx, vars); err != nil {
			return nil, err
		}
	}
	cg := ctx.ControlScope()
	defer cg.Exit()
	body, err := t.block(ctx, st.Body.List)
	if err != nil {
		return nil, err
	}
	cg.Exit()
	body.Lbrace, body.Rbrace = st.Body.Lbrace, st.Body.Rbrace

	out := *st
	out.Body = body
	g.Exit()
	return append([]ast.Stmt{&out}, tail...), nil
}

func (t *Translator) buildIf(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	st := n.(*ast.IfStmt)
	var tail []ast.Stmt
	g := ctx.VariableScope(&tail)
	defer g.Exit()

	if as, ok := st.Init.(*ast.AssignStmt); ok && as.Tok == token.DEFINE {
		if err := t.declare(ctx, as.Lhs); err != nil {
			return nil, err
		}
	}
	body, err := t.block(ctx, st.Body.List)
	if err != nil {
		return nil, err
	}
	body.Lbrace, body.Rbrace = st.Body.Lbrace, st.Body.Rbrace

	out := *st
	out.Body = body
	if st.Else != nil {
		els, err := t.d.Build(ctx, st.Else)
		if err != nil {
			return nil, err
		}
		out.Else = single(els)
	}
	g.Exit()
	return append([]ast.Stmt{&out}, tail...), nil
}

func (t *Translator) buildBranch(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	st := n.(*ast.BranchStmt)
	switch st.Tok {
	case token.BREAK, token.CONTINUE:
	default:
		return nil, diag.Errorf(diag.UnsupportedConstruct, st.Pos(), "%s is not supported", st.Tok)
	}
	if ctx.Loops.Depth() == 0 {
		return nil, diag.Errorf(diag.BranchOutsideLoop, st.Pos(), "%s is not in a loop", st.Tok)
	}
	return []ast.Stmt{st}, nil
}

func (t *Translator) buildReturn(ctx *builder.Context, n ast.Node) ([]ast.Stmt, error) {
	st := n.(*ast.ReturnStmt)
	if want := ctx.ResultCount(); len(st.Results) != want {
		return nil, diag.Errorf(diag.ReturnMismatch, st.Pos(),
			"%s returns %d values, got %d", ctx.Name, want, len(st.Results))
	}
	ctx.Returns = append(ctx.Returns, st.Results...)
	return []ast.Stmt{st}, nil
}
