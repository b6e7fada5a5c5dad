package scope

import (
	"errors"
	"go/ast"
	"testing"

	"weft/internal/diag"
)

func TestDeclareDuplicateInSameScope(t *testing.T) {
	s := NewStack[int]()
	g := s.Enter(nil)
	defer g.Exit()

	if err := s.Declare("x", 1); err != nil {
		t.Fatalf("first declare: %v", err)
	}
	err := s.Declare("x", 2)
	if !diag.Is(err, diag.DuplicateDeclaration) {
		t.Fatalf("expected DuplicateDeclaration, got %v", err)
	}
	if v, _ := s.Resolve("x"); v != 1 {
		t.Fatalf("failed redeclaration must keep the old binding, got %d", v)
	}
}

func TestShadowingOuterScope(t *testing.T) {
	s := NewStack[string]()
	outer := s.Enter(nil)
	defer outer.Exit()
	if err := s.Declare("x", "outer"); err != nil {
		t.Fatalf("declare outer: %v", err)
	}

	inner := s.Enter(nil)
	if err := s.Declare("x", "inner"); err != nil {
		t.Fatalf("shadowing must be allowed: %v", err)
	}
	if v, ok := s.Resolve("x"); !ok || v != "inner" {
		t.Fatalf("inside inner scope got %q, want inner", v)
	}
	inner.Exit()

	if v, ok := s.Resolve("x"); !ok || v != "outer" {
		t.Fatalf("after exit got %q, want outer", v)
	}
}

func TestDepthRestoredOnError(t *testing.T) {
	s := NewStack[int]()
	before := s.Depth()
	boom := errors.New("boom")

	err := s.With(nil, func() error {
		if err := s.Declare("a", 1); err != nil {
			return err
		}
		return s.With(nil, func() error {
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s.Depth() != before {
		t.Fatalf("depth %d after error, want %d", s.Depth(), before)
	}
}

func TestDepthRestoredOnPanic(t *testing.T) {
	s := NewStack[int]()
	func() {
		defer func() { _ = recover() }()
		_ = s.With(nil, func() error {
			panic("unwinding")
		})
	}()
	if s.Depth() != 0 {
		t.Fatalf("depth %d after panic, want 0", s.Depth())
	}
}

func TestRejectIfShadowingLoopVar(t *testing.T) {
	s := NewStack[struct{}]()
	outer := s.Enter(nil)
	defer outer.Exit()

	if err := s.RejectIfShadowingLoopVar("i"); err != nil {
		t.Fatalf("fresh name rejected: %v", err)
	}
	if err := s.Declare("i", struct{}{}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	inner := s.Enter(nil)
	defer inner.Exit()
	err := s.RejectIfShadowingLoopVar("i")
	if !diag.Is(err, diag.ShadowedLoopVariable) {
		t.Fatalf("expected ShadowedLoopVariable, got %v", err)
	}
}

func TestEmitDeletesReverseOrder(t *testing.T) {
	s := NewStack[struct{}]()
	var out []ast.Stmt
	g := s.Enter(EmitDeletes[struct{}](&out))
	for _, name := range []string{"a", "b", "c"} {
		if err := s.Declare(name, struct{}{}); err != nil {
			t.Fatalf("declare %s: %v", name, err)
		}
	}
	g.Exit()

	want := []string{"c", "b", "a"}
	if len(out) != len(want) {
		t.Fatalf("got %d statements, want %d", len(out), len(want))
	}
	for i, st := range out {
		name, ok := DeletedName(st)
		if !ok || name != want[i] {
			t.Fatalf("statement %d deletes %q, want %q", i, name, want[i])
		}
	}
}

func TestEmitDeletesOnlyLocalNames(t *testing.T) {
	s := NewStack[struct{}]()
	var outerOut, innerOut []ast.Stmt
	outer := s.Enter(EmitDeletes[struct{}](&outerOut))
	_ = s.Declare("a", struct{}{})
	inner := s.Enter(EmitDeletes[struct{}](&innerOut))
	_ = s.Declare("b", struct{}{})
	inner.Exit()
	outer.Exit()

	if len(innerOut) != 1 || len(outerOut) != 1 {
		t.Fatalf("inner=%d outer=%d, want 1 each", len(innerOut), len(outerOut))
	}
	if n, _ := DeletedName(innerOut[0]); n != "b" {
		t.Fatalf("inner deleted %q", n)
	}
}

func TestNilSinkEmitsNothing(t *testing.T) {
	if EmitDeletes[int](nil) != nil {
		t.Fatalf("nil sink must yield nil action")
	}
}

func TestGuardExitIdempotentAndOrdered(t *testing.T) {
	s := NewStack[int]()
	outer := s.Enter(nil)
	inner := s.Enter(nil)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("exiting the outer guard first must panic")
			}
		}()
		outer.Exit()
	}()

	inner.Exit()
	inner.Exit()
	if s.Depth() != 1 {
		t.Fatalf("depth %d, want 1", s.Depth())
	}
	outer.Exit()
	if s.Depth() != 0 {
		t.Fatalf("depth %d, want 0", s.Depth())
	}
}

func TestOperationsWithoutScope(t *testing.T) {
	s := NewStack[int]()
	if err := s.Declare("x", 1); !errors.Is(err, ErrNoScope) {
		t.Fatalf("expected ErrNoScope, got %v", err)
	}
	if s.IsDeclared("x") {
		t.Fatalf("nothing is declared without a scope")
	}
}

func TestNormalizedNames(t *testing.T) {
	s := NewStack[int]()
	g := s.Enter(nil)
	defer g.Exit()
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	if err := s.Declare(composed, 1); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if !s.IsDeclared(decomposed) {
		t.Fatalf("decomposed spelling should resolve to the same variable")
	}
	if err := s.Declare(decomposed, 2); !diag.Is(err, diag.DuplicateDeclaration) {
		t.Fatalf("expected DuplicateDeclaration, got %v", err)
	}
}

func TestEmitDeletesKeepsSourceSpelling(t *testing.T) {
	s := NewStack[struct{}]()
	var out []ast.Stmt
	g := s.Enter(EmitDeletes[struct{}](&out))
	decomposed := "cafe\u0301"
	if err := s.Declare(decomposed, struct{}{}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	cur, _ := s.Current()
	if names := cur.Names(); len(names) != 1 || names[0] != decomposed {
		t.Fatalf("frame names %q, want %q", names, decomposed)
	}
	if !cur.Has("caf\u00e9") {
		t.Fatalf("composed spelling should find the binding")
	}
	g.Exit()

	if len(out) != 1 {
		t.Fatalf("got %d statements, want 1", len(out))
	}
	if name, ok := DeletedName(out[0]); !ok || name != decomposed {
		t.Fatalf("teardown deletes %q, want %q", name, decomposed)
	}
}

func TestMapGlobals(t *testing.T) {
	g := MapGlobals[int]{"N": 8}
	if v, ok := g.Lookup("N"); !ok || v != 8 {
		t.Fatalf("lookup N = %d,%v", v, ok)
	}
	if _, ok := g.Lookup("M"); ok {
		t.Fatalf("M should be absent")
	}
}
