package builder

import (
	"go/ast"
	"go/token"

	"weft/internal/diag"
	"weft/internal/syntax"
	"weft/internal/trace"
)

// Handler translates one node. Handlers recurse into children through the
// same Dispatcher.
type Handler[C, R any] func(ctx C, n ast.Node) (R, error)

type traced interface {
	tracing() (trace.Tracer, uint64)
}

// Dispatcher maps node kinds to handlers through a static table.
type Dispatcher[C, R any] struct {
	table [syntax.KindCount]Handler[C, R]
	dump  syntax.Dumper
}

// NewDispatcher returns an empty table. dump may be nil.
func NewDispatcher[C, R any](dump syntax.Dumper) *Dispatcher[C, R] {
	return &Dispatcher[C, R]{dump: dump}
}

// Register installs h for kind, replacing any previous handler.
func (d *Dispatcher[C, R]) Register(kind syntax.Kind, h Handler[C, R]) {
	if !kind.Valid() {
		panic("builder: register on invalid kind")
	}
	d.table[kind] = h
}

// Handles reports whether kind has a handler.
func (d *Dispatcher[C, R]) Handles(kind syntax.Kind) bool {
	return kind.Valid() && d.table[kind] != nil
}

// SetDumper replaces the structural dumper used in error messages.
func (d *Dispatcher[C, R]) SetDumper(dump syntax.Dumper) { d.dump = dump }

// Build invokes the handler registered for n's kind. A missing handler is an
// UnsupportedConstruct error.
func (d *Dispatcher[C, R]) Build(ctx C, n ast.Node) (R, error) {
	kind := syntax.KindOf(n)
	if !d.Handles(kind) {
		var zero R
		return zero, d.unsupported(n)
	}
	if tc, ok := any(ctx).(traced); ok {
		if t, parent := tc.tracing(); t.Enabled() {
			span := trace.Begin(t, trace.ScopeNode, kind.String(), parent)
			defer span.End("")
		}
	}
	return d.table[kind](ctx, n)
}

func (d *Dispatcher[C, R]) unsupported(n ast.Node) *diag.Error {
	pos := token.NoPos
	if n != nil {
		pos = n.Pos()
	}
	err := diag.Errorf(diag.UnsupportedConstruct, pos, "unsupported node %s", syntax.Describe(n))
	if dump, ok := syntax.SafeDump(d.dump, n); ok {
		err.WithNote("%s", dump)
	}
	return err
}
