package builder

import (
	"errors"
	"go/ast"
	"go/token"
	"testing"

	"weft/internal/control"
	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/scope"
)

func TestLegacyContextTeardown(t *testing.T) {
	c := NewContext(Kernel{Name: "k", IsKernel: true})
	var body []ast.Stmt
	g := c.VariableScope(&body)
	for _, n := range []string{"a", "b"} {
		if !c.IsCreation(n) {
			t.Fatalf("%s should be a creation", n)
		}
		if err := c.CreateVariable(n, token.Pos(1)); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}
	if c.IsCreation("a") {
		t.Fatalf("a is declared now")
	}
	g.Exit()

	if len(body) != 2 {
		t.Fatalf("got %d teardown statements", len(body))
	}
	first, _ := scope.DeletedName(body[0])
	second, _ := scope.DeletedName(body[1])
	if first != "b" || second != "a" {
		t.Fatalf("teardown order %s, %s; want b, a", first, second)
	}
}

func TestLegacyContextErrorsCarryPosition(t *testing.T) {
	c := NewContext(Kernel{})
	g := c.VariableScope(nil)
	defer g.Exit()
	_ = c.CreateVariable("i", token.Pos(3))

	err := c.CreateVariable("i", token.Pos(7))
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != diag.DuplicateDeclaration || de.Pos != token.Pos(7) {
		t.Fatalf("unexpected %v", err)
	}
	err = c.CheckLoopVar("i", token.Pos(9))
	if !errors.As(err, &de) || de.Code != diag.ShadowedLoopVariable || de.Pos != token.Pos(9) {
		t.Fatalf("unexpected %v", err)
	}
}

func TestLegacyHasNoGlobalFallback(t *testing.T) {
	c := NewContext(Kernel{})
	g := c.VariableScope(nil)
	defer g.Exit()
	if c.IsVarDeclared("N") {
		t.Fatalf("legacy lookup must only see local scopes")
	}
}

func TestIRContextLookupShadowing(t *testing.T) {
	c := NewIRContext(Kernel{Name: "k"}, nil, nil)
	b := c.Builder
	outer := c.VariableScope()
	defer outer.Exit()
	x1 := b.Alloca("x", nil)
	if err := c.CreateVariable("x", x1, token.NoPos); err != nil {
		t.Fatalf("outer: %v", err)
	}
	inner := c.VariableScope()
	x2 := b.Alloca("x", nil)
	if err := c.CreateVariable("x", x2, token.NoPos); err != nil {
		t.Fatalf("shadowing rejected: %v", err)
	}
	if v, _ := c.Lookup("x"); v != x2 {
		t.Fatalf("inner lookup = %v, want %v", v, x2)
	}
	inner.Exit()
	if v, _ := c.Lookup("x"); v != x1 {
		t.Fatalf("outer lookup = %v, want %v", v, x1)
	}
}

func TestIRContextGlobalFallback(t *testing.T) {
	n := ir.IntConst(16)
	globals := scope.MapGlobals[*ir.Value]{"N": {Kind: ir.ValueConst, Name: "N", Const: &n}}
	c := NewIRContext(Kernel{Name: "k"}, globals, nil)
	g := c.VariableScope()
	defer g.Exit()

	v, ok := c.Lookup("N")
	if !ok || !v.IsConst() || v.Const.Int != 16 {
		t.Fatalf("global lookup = %v, %v", v, ok)
	}
	local := c.Builder.Alloca("N", nil)
	_ = c.CreateVariable("N", local, token.NoPos)
	if v, _ := c.Lookup("N"); v != local {
		t.Fatalf("local binding must win over globals")
	}
	if _, ok := c.Lookup("missing"); ok {
		t.Fatalf("missing must not resolve")
	}
	if c.IsVarDeclared("missing") {
		t.Fatalf("missing is not declared")
	}
}

func TestIRContextLoopState(t *testing.T) {
	c := NewIRContext(Kernel{}, nil, nil)
	if c.LoopStatus() != control.Normal || c.InStaticLoop() {
		t.Fatalf("defaults outside loops")
	}
	if err := c.SetLoopStatus(control.Break); !errors.Is(err, control.ErrNoLoop) {
		t.Fatalf("expected ErrNoLoop, got %v", err)
	}
	outer := c.ControlScope()
	_ = c.MarkStaticLoop()
	inner := c.ControlScope()
	_ = c.SetLoopStatus(control.Break)
	if c.LoopStatus() != control.Break || c.InStaticLoop() {
		t.Fatalf("inner loop state wrong")
	}
	inner.Exit()
	if c.LoopStatus() != control.Normal || !c.InStaticLoop() {
		t.Fatalf("outer loop state wrong")
	}
	outer.Exit()
}

func TestKernelMetadata(t *testing.T) {
	fn := &ast.FuncDecl{
		Name: ast.NewIdent("f"),
		Type: &ast.FuncType{Results: &ast.FieldList{List: []*ast.Field{
			{Names: []*ast.Ident{ast.NewIdent("a"), ast.NewIdent("b")}, Type: ast.NewIdent("int")},
			{Type: ast.NewIdent("float64")},
		}}},
	}
	k := Kernel{
		Func:        fn,
		Excluded:    []string{"tmpl"},
		ArgFeatures: map[string]Feature{"x": {Kind: "ndarray", Dims: 2, DType: "f32"}},
	}
	if k.ResultCount() != 3 {
		t.Fatalf("ResultCount = %d", k.ResultCount())
	}
	if !k.IsExcluded("tmpl") || k.IsExcluded("x") {
		t.Fatalf("IsExcluded wrong")
	}
	if f, ok := k.FeatureOf("x"); !ok || f.String() != "ndarray[f32]/2d" {
		t.Fatalf("feature = %v", f)
	}
	if (Feature{}).String() != "scalar" {
		t.Fatalf("zero feature should be scalar")
	}
}
