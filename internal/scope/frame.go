package scope

import (
	"slices"
)

// Frame is one lexical scope: the names declared directly in it, in
// declaration order, and the value bound to each. The legacy translator binds
// struct{} since only presence matters there.
type Frame[V any] struct {
	names  []string
	vars   map[string]V
	action ExitAction[V]
}

func newFrame[V any](action ExitAction[V]) *Frame[V] {
	return &Frame[V]{
		vars:   make(map[string]V),
		action: action,
	}
}

// Names returns a copy of the declared names in declaration order.
func (f *Frame[V]) Names() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.names)
}

// Len reports how many names the frame declares.
func (f *Frame[V]) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Has reports whether name is declared directly in this frame.
func (f *Frame[V]) Has(name string) bool {
	if f == nil {
		return false
	}
	_, ok := f.vars[canonical(name)]
	return ok
}

// Get returns the value bound to name in this frame only.
func (f *Frame[V]) Get(name string) (V, bool) {
	var zero V
	if f == nil {
		return zero, false
	}
	v, ok := f.vars[canonical(name)]
	if !ok {
		return zero, false
	}
	return v, true
}

// bind records name as written and keys the binding by its canonical form.
func (f *Frame[V]) bind(name string, v V) {
	f.names = append(f.names, name)
	f.vars[canonical(name)] = v
}
