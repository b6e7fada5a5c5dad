package legacy

import (
	"bytes"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"weft/internal/builder"
	"weft/internal/diag"
	"weft/internal/scope"
)

func transform(t *testing.T, src string) (*Translator, *builder.Context, *ast.FuncDecl, error) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "k.go", "package k\n\n"+src, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fn, ok := file.Decls[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("first declaration is not a function")
	}
	tr := New(fset)
	ctx := builder.NewContext(builder.Kernel{Name: fn.Name.Name, Func: fn, IsKernel: true})
	out, err := tr.Transform(ctx)
	return tr, ctx, out, err
}

// deletes lists the names torn down at the end of list, in order.
func deletes(list []ast.Stmt) []string {
	var names []string
	for _, st := range list {
		if name, ok := scope.DeletedName(st); ok {
			names = append(names, name)
		}
	}
	return names
}

func sameNames(got, want []string) bool {
	return strings.Join(got, ",") == strings.Join(want, ",")
}

func TestTeardownOrder(t *testing.T) {
	src := `func k(n int) {
	a := 1
	b := 2
	{
		c := a + b
		_ = c
	}
}`
	_, ctx, out, err := transform(t, src)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	body := out.Body.List
	if got := deletes(body); !sameNames(got, []string{"b", "a", "n"}) {
		t.Fatalf("function teardown %v", got)
	}
	inner, ok := body[2].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("expected nested block, got %T", body[2])
	}
	if got := deletes(inner.List); !sameNames(got, []string{"c"}) {
		t.Fatalf("block teardown %v", got)
	}
	if ctx.Vars.Depth() != 0 {
		t.Fatalf("scopes left open: %d", ctx.Vars.Depth())
	}
}

func TestAssignmentCreatesVariable(t *testing.T) {
	src := `func k() {
	x = 1
	x = 2
}`
	_, _, out, err := transform(t, src)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	body := out.Body.List
	first := body[0].(*ast.AssignStmt)
	second := body[1].(*ast.AssignStmt)
	if first.Tok != token.DEFINE || second.Tok != token.ASSIGN {
		t.Fatalf("got %s then %s, want := then =", first.Tok, second.Tok)
	}
	if got := deletes(body); !sameNames(got, []string{"x"}) {
		t.Fatalf("teardown %v", got)
	}
}

func TestMixedAssignmentRejected(t *testing.T) {
	tests := []string{
		`func k() { x := 1; x, y = 2, x; print(y) }`,
		`func k() { x := 1; y, x = 3, 4 }`,
	}
	for _, src := range tests {
		_, ctx, _, err := transform(t, src)
		var de *diag.Error
		if !errors.As(err, &de) || de.Code != diag.InvalidAssignTarget {
			t.Fatalf("%s: expected %s, got %v", src, diag.InvalidAssignTarget.ID(), err)
		}
		if ctx.Vars.Depth() != 0 {
			t.Fatalf("scopes not released after error")
		}
	}

	// Declaring the new name first keeps the parallel assignment intact.
	_, _, out, err := transform(t, `func k() { x := 1; var y int; x, y = 2, x; print(y) }`)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	as := out.Body.List[2].(*ast.AssignStmt)
	if as.Tok != token.ASSIGN || len(as.Lhs) != 2 {
		t.Fatalf("parallel assignment was rewritten: %s with %d targets", as.Tok, len(as.Lhs))
	}
}

func TestLoopTeardown(t *testing.T) {
	src := `func k(n int) {
	for i := 0; i < n; i++ {
		s := i
		_ = s
	}
	for j := range n {
		_ = j
	}
}`
	_, _, out, err := transform(t, src)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	body := out.Body.List
	loop, ok := body[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected for statement, got %T", body[0])
	}
	if got := deletes(loop.Body.List); !sameNames(got, []string{"s"}) {
		t.Fatalf("body teardown %v", got)
	}
	if name, _ := scope.DeletedName(body[1]); name != "i" {
		t.Fatalf("loop variable should be torn down after the loop, got %q", name)
	}
	if _, ok := body[2].(*ast.RangeStmt); !ok {
		t.Fatalf("expected range statement, got %T", body[2])
	}
	if name, _ := scope.DeletedName(body[3]); name != "j" {
		t.Fatalf("range variable should be torn down after the loop, got %q", name)
	}
}

func TestIfScopes(t *testing.T) {
	src := `func k(n int) {
	if m := n * 2; m > 3 {
		a := m
		_ = a
	} else if n > 0 {
		b := n
		_ = b
	}
}`
	_, _, out, err := transform(t, src)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	body := out.Body.List
	ifs := body[0].(*ast.IfStmt)
	if got := deletes(ifs.Body.List); !sameNames(got, []string{"a"}) {
		t.Fatalf("then teardown %v", got)
	}
	nested, ok := ifs.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("else-if should stay a single if, got %T", ifs.Else)
	}
	if got := deletes(nested.Body.List); !sameNames(got, []string{"b"}) {
		t.Fatalf("else teardown %v", got)
	}
	if name, _ := scope.DeletedName(body[1]); name != "m" {
		t.Fatalf("init variable teardown missing, got %q", name)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"redeclare", `func k() { x := 1; x := 2 }`, diag.DuplicateDeclaration},
		{"loop var", `func k(n int) { for n := range 3 {} }`, diag.ShadowedLoopVariable},
		{"nested loop var", `func k() { for i := 0; i < 2; i++ { for i := range 2 {} } }`, diag.ShadowedLoopVariable},
		{"break", `func k() { break }`, diag.BranchOutsideLoop},
		{"return", `func k() { return 1 }`, diag.ReturnMismatch},
		{"goto", `func k() { goto L }`, diag.UnsupportedConstruct},
		{"defer", `func k() { defer k() }`, diag.UnsupportedConstruct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ctx, _, err := transform(t, tt.src)
			var de *diag.Error
			if !errors.As(err, &de) || de.Code != tt.code {
				t.Fatalf("expected %s, got %v", tt.code.ID(), err)
			}
			if ctx.Vars.Depth() != 0 || ctx.Loops.Depth() != 0 {
				t.Fatalf("stacks not released after error")
			}
		})
	}
}

func TestReturnsAccumulate(t *testing.T) {
	src := `func k(n int) int {
	if n > 0 {
		return n
	}
	return 0
}`
	_, ctx, _, err := transform(t, src)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(ctx.Returns) != 2 {
		t.Fatalf("got %d return values, want 2", len(ctx.Returns))
	}
}

func TestPrint(t *testing.T) {
	src := `func k(n int) {
	a := n
	b := a
	_ = b
}`
	tr, _, out, err := transform(t, src)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	var buf bytes.Buffer
	if err := tr.Print(&buf, out); err != nil {
		t.Fatalf("print: %v", err)
	}
	text := buf.String()
	ib, ia, in := strings.Index(text, "del(b)"), strings.Index(text, "del(a)"), strings.Index(text, "del(n)")
	if ib < 0 || ia < 0 || in < 0 || !(ib < ia && ia < in) {
		t.Fatalf("teardown missing or out of order:\n%s", text)
	}
}
