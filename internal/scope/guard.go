package scope

// Guard owns one pushed frame. Exit pops it exactly once; later calls are
// no-ops, so `defer g.Exit()` is safe next to an explicit Exit.
type Guard[V any] struct {
	stack *Stack[V]
	frame *Frame[V]
	depth int
	done  bool
}

// Exit runs the frame's exit action and pops it. Exiting a guard whose frame
// is not the innermost one panics: it means a nested guard leaked.
func (g *Guard[V]) Exit() {
	if g == nil || g.done {
		return
	}
	g.stack.pop(g)
	g.done = true
}

// Frame exposes the guarded frame.
func (g *Guard[V]) Frame() *Frame[V] {
	if g == nil {
		return nil
	}
	return g.frame
}

// Globals is a read-only outer namespace consulted after every active scope.
type Globals[V any] interface {
	Lookup(name string) (V, bool)
}

// MapGlobals is a Globals backed by a map.
type MapGlobals[V any] map[string]V

func (m MapGlobals[V]) Lookup(name string) (V, bool) {
	v, ok := m[canonical(name)]
	return v, ok
}

// Set binds name to v.
func (m MapGlobals[V]) Set(name string, v V) {
	m[canonical(name)] = v
}
