package scope

import (
	"errors"
	"fmt"
	"go/token"

	"golang.org/x/text/unicode/norm"

	"weft/internal/diag"
)

// ErrNoScope is returned by variable operations when no scope is active.
var ErrNoScope = errors.New("scope: no active scope")

// Stack is the ordered sequence of active scopes. Lookups scan from the most
// recently entered frame to the oldest.
type Stack[V any] struct {
	frames []*Frame[V]
}

// NewStack returns an empty stack.
func NewStack[V any]() *Stack[V] {
	return &Stack[V]{frames: make([]*Frame[V], 0, 8)}
}

// Enter pushes an empty frame and returns the guard that pops it. action may
// be nil.
func (s *Stack[V]) Enter(action ExitAction[V]) *Guard[V] {
	f := newFrame(action)
	s.frames = append(s.frames, f)
	return &Guard[V]{stack: s, frame: f, depth: len(s.frames)}
}

// With runs fn inside a fresh frame. The frame is released on every path out
// of fn, including a returned error or a panic.
func (s *Stack[V]) With(action ExitAction[V], fn func() error) error {
	g := s.Enter(action)
	defer g.Exit()
	return fn()
}

// Depth reports the number of active frames.
func (s *Stack[V]) Depth() int { return len(s.frames) }

// Current returns the innermost frame.
func (s *Stack[V]) Current() (*Frame[V], error) {
	if len(s.frames) == 0 {
		return nil, ErrNoScope
	}
	return s.frames[len(s.frames)-1], nil
}

// Declare binds name in the innermost frame. Redeclaring a name of the same
// frame fails with DuplicateDeclaration; shadowing an outer frame is allowed.
func (s *Stack[V]) Declare(name string, v V) error {
	cur, err := s.Current()
	if err != nil {
		return err
	}
	key := canonical(name)
	if _, dup := cur.vars[key]; dup {
		return diag.Errorf(diag.DuplicateDeclaration, token.NoPos,
			"variable %q is already declared in this scope; recreating variables is not allowed", name)
	}
	cur.bind(name, v)
	return nil
}

// IsDeclared reports whether any active frame binds name.
func (s *Stack[V]) IsDeclared(name string) bool {
	key := canonical(name)
	for _, f := range s.frames {
		if _, ok := f.vars[key]; ok {
			return true
		}
	}
	return false
}

// Resolve finds the innermost binding of name. It never consults anything
// outside the stack.
func (s *Stack[V]) Resolve(name string) (V, bool) {
	key := canonical(name)
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].vars[key]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// RejectIfShadowingLoopVar fails with ShadowedLoopVariable when name is
// already declared in any active frame. Loop variables must be fresh names.
func (s *Stack[V]) RejectIfShadowingLoopVar(name string) error {
	if !s.IsDeclared(name) {
		return nil
	}
	return diag.Errorf(diag.ShadowedLoopVariable, token.NoPos,
		"variable %q is already declared in the outer scope and cannot be used as loop variable", name).
		WithNote("declared at scope depth %d of %d", s.depthOf(name), len(s.frames))
}

// depthOf returns the 1-based depth of the innermost frame binding name.
func (s *Stack[V]) depthOf(name string) int {
	key := canonical(name)
	for i := len(s.frames) - 1; i >= 0; i-- {
		if _, ok := s.frames[i].vars[key]; ok {
			return i + 1
		}
	}
	return 0
}

func (s *Stack[V]) pop(g *Guard[V]) {
	if len(s.frames) != g.depth || s.frames[len(s.frames)-1] != g.frame {
		panic(fmt.Sprintf("scope: unbalanced exit: guard depth %d, stack depth %d", g.depth, len(s.frames)))
	}
	if g.frame.action != nil {
		g.frame.action.OnExit(g.frame)
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

// canonical normalizes identifiers so that visually identical names written
// with different Unicode compositions resolve to one binding.
func canonical(name string) string {
	return norm.NFC.String(name)
}
