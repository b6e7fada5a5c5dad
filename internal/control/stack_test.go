package control

import (
	"errors"
	"testing"
)

func TestEmptyStackSentinels(t *testing.T) {
	s := NewStack()
	if got := s.Status(); got != Normal {
		t.Fatalf("Status outside loop = %v, want normal", got)
	}
	if s.IsStatic() {
		t.Fatalf("IsStatic outside loop must be false")
	}
	if err := s.SetStatus(Break); !errors.Is(err, ErrNoLoop) {
		t.Fatalf("SetStatus outside loop: %v", err)
	}
	if err := s.MarkStatic(); !errors.Is(err, ErrNoLoop) {
		t.Fatalf("MarkStatic outside loop: %v", err)
	}
}

func TestInnerStatusDoesNotLeak(t *testing.T) {
	s := NewStack()
	outer := s.Enter()
	defer outer.Exit()
	if err := s.SetStatus(Continue); err != nil {
		t.Fatalf("set outer: %v", err)
	}

	inner := s.Enter()
	if got := s.Status(); got != Normal {
		t.Fatalf("fresh frame status = %v, want normal", got)
	}
	if err := s.SetStatus(Break); err != nil {
		t.Fatalf("set inner: %v", err)
	}
	if got := s.Status(); got != Break {
		t.Fatalf("inner status = %v, want break", got)
	}
	inner.Exit()

	if got := s.Status(); got != Continue {
		t.Fatalf("outer status = %v, want continue", got)
	}
}

func TestMarkStaticInnermostOnly(t *testing.T) {
	s := NewStack()
	outer := s.Enter()
	if err := s.MarkStatic(); err != nil {
		t.Fatalf("mark: %v", err)
	}
	inner := s.Enter()
	if s.IsStatic() {
		t.Fatalf("inner non-static loop reported static")
	}
	inner.Exit()
	if !s.IsStatic() {
		t.Fatalf("outer static loop lost its flag")
	}
	outer.Exit()
	if s.IsStatic() {
		t.Fatalf("no loop is active")
	}
}

func TestResetStatus(t *testing.T) {
	s := NewStack()
	if s.ResetStatus() != Normal {
		t.Fatalf("reset outside loop must report normal")
	}
	_ = s.With(func() error {
		_ = s.SetStatus(Continue)
		if prev := s.ResetStatus(); prev != Continue {
			t.Fatalf("reset reported %v", prev)
		}
		if s.Status() != Normal {
			t.Fatalf("status not reset")
		}
		return nil
	})
}

func TestWithPopsOnError(t *testing.T) {
	s := NewStack()
	boom := errors.New("boom")
	err := s.With(func() error {
		return s.With(func() error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("unexpected %v", err)
	}
	if s.Depth() != 0 {
		t.Fatalf("depth %d after error", s.Depth())
	}
}

func TestStatusStrings(t *testing.T) {
	for st, want := range map[Status]string{Normal: "normal", Break: "break", Continue: "continue", Status(9): "unknown"} {
		if st.String() != want {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), want)
		}
	}
}
