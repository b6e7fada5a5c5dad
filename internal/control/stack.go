package control

import (
	"errors"
	"fmt"
)

// ErrNoLoop is returned when a frame mutation is requested outside any loop.
var ErrNoLoop = errors.New("control: no enclosing loop")

// Frame is the per-loop record.
type Frame struct {
	Static bool
	Status Status
}

// Stack holds one Frame per enclosing loop. Its queries are total: outside
// any loop Status reports Normal and IsStatic reports false, so callers can
// check loop state without an emptiness test.
type Stack struct {
	frames []Frame
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{frames: make([]Frame, 0, 4)}
}

// Enter pushes a frame with Normal status and Static false.
func (s *Stack) Enter() *Guard {
	s.frames = append(s.frames, Frame{Status: Normal})
	return &Guard{stack: s, depth: len(s.frames)}
}

// With runs fn inside a fresh loop frame, popping it on every exit path.
func (s *Stack) With(fn func() error) error {
	g := s.Enter()
	defer g.Exit()
	return fn()
}

// Depth reports the loop nesting depth.
func (s *Stack) Depth() int { return len(s.frames) }

// Status returns the innermost loop status, or Normal outside any loop.
func (s *Stack) Status() Status {
	if len(s.frames) == 0 {
		return Normal
	}
	return s.frames[len(s.frames)-1].Status
}

// SetStatus changes the innermost loop status.
func (s *Stack) SetStatus(st Status) error {
	if len(s.frames) == 0 {
		return fmt.Errorf("set status %s: %w", st, ErrNoLoop)
	}
	s.frames[len(s.frames)-1].Status = st
	return nil
}

// ResetStatus returns the innermost loop to Normal and reports the status it
// had. Outside any loop it reports Normal.
func (s *Stack) ResetStatus() Status {
	if len(s.frames) == 0 {
		return Normal
	}
	top := &s.frames[len(s.frames)-1]
	prev := top.Status
	top.Status = Normal
	return prev
}

// MarkStatic flags the innermost loop for compile-time unrolling. The flag
// stays set for the frame's lifetime.
func (s *Stack) MarkStatic() error {
	if len(s.frames) == 0 {
		return fmt.Errorf("mark static: %w", ErrNoLoop)
	}
	s.frames[len(s.frames)-1].Static = true
	return nil
}

// IsStatic reports whether the innermost loop is unrolled, or false outside
// any loop.
func (s *Stack) IsStatic() bool {
	if len(s.frames) == 0 {
		return false
	}
	return s.frames[len(s.frames)-1].Static
}

// Guard owns one loop frame.
type Guard struct {
	stack *Stack
	depth int
	done  bool
}

// Exit pops the guarded frame once. Exiting out of order panics.
func (g *Guard) Exit() {
	if g == nil || g.done {
		return
	}
	s := g.stack
	if len(s.frames) != g.depth {
		panic(fmt.Sprintf("control: unbalanced exit: guard depth %d, stack depth %d", g.depth, len(s.frames)))
	}
	s.frames = s.frames[:len(s.frames)-1]
	g.done = true
}
