package diag

import (
	"errors"
	"fmt"
	"go/token"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	base := Errorf(DuplicateDeclaration, token.NoPos, "variable %q is already declared in this scope", "x")
	wrapped := fmt.Errorf("kernel saxpy: %w", base)

	if got := CodeOf(wrapped); got != DuplicateDeclaration {
		t.Fatalf("CodeOf = %v, want %v", got, DuplicateDeclaration)
	}
	if !Is(wrapped, DuplicateDeclaration) {
		t.Fatalf("Is should see through wrapping")
	}
	if Is(errors.New("plain"), DuplicateDeclaration) {
		t.Fatalf("plain errors carry no code")
	}
	if got := base.Error(); got != `SYN2002: variable "x" is already declared in this scope` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestErrorAtKeepsExistingPos(t *testing.T) {
	e := Errorf(UndefinedName, token.Pos(5), "undefined: y")
	e.At(token.Pos(9))
	if e.Pos != token.Pos(5) {
		t.Fatalf("At must not overwrite a valid position, got %v", e.Pos)
	}
	e2 := Errorf(UndefinedName, token.NoPos, "undefined: y").At(token.Pos(9))
	if e2.Pos != token.Pos(9) {
		t.Fatalf("At should fill a missing position, got %v", e2.Pos)
	}
}

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(2)
	a := NewError(UndefinedName, token.Position{Filename: "b.go", Line: 3, Column: 1}, "b")
	b := NewError(UnsupportedConstruct, token.Position{Filename: "a.go", Line: 9, Column: 2}, "a")
	c := NewError(UndefinedName, token.Position{Filename: "a.go", Line: 1, Column: 1}, "dropped")

	if !bag.Add(a) || !bag.Add(b) {
		t.Fatalf("expected first two diagnostics to fit")
	}
	if bag.Add(c) {
		t.Fatalf("expected limit to reject the third diagnostic")
	}
	bag.Sort()
	items := bag.Items()
	if items[0].Primary.Filename != "a.go" {
		t.Fatalf("expected a.go first, got %s", items[0].Primary.Filename)
	}
	if !bag.HasErrors() {
		t.Fatalf("expected HasErrors")
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		NewError(ShadowedLoopVariable, token.Position{Filename: "/work/k/saxpy.go", Line: 7, Column: 6}, "loop variable \"i\" shadows\nmore").
			WithNote(token.Position{Filename: "/work/k/saxpy.go", Line: 4, Column: 2}, "declared here"),
		NewError(UndefinedName, token.Position{Filename: "/work/k/a.go", Line: 2, Column: 1}, "undefined: q"),
	}
	want := "error LOW3001 k/a.go:2:1 undefined: q\n" +
		"note SYN2003 k/saxpy.go:4:2 declared here\n" +
		"error SYN2003 k/saxpy.go:7:6 loop variable \"i\" shadows"
	if got := FormatShortDiagnostics(diags, "/work", true); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	pos := token.Position{Filename: "k.go", Line: 1, Column: 1}
	ReportError(r, UndefinedName, pos, "undefined: x")
	ReportError(r, UndefinedName, pos, "undefined: x")
	ReportWarning(r, UndefinedName, pos, "undefined: x")
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics after dedup, got %d", bag.Len())
	}
}
