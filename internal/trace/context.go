package trace

import "context"

type tracerKey struct{}

// spanKey carries the ID of the span opened by the innermost StartSpan.
type spanKey struct{}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx. A nil t attaches Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// ParentID returns the span opened by the innermost StartSpan on ctx, or 0
// at the root.
func ParentID(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(spanKey{}).(uint64)
	return id
}

// StartSpan begins a span on the tracer of ctx, nested under ParentID(ctx),
// and returns a context whose later spans nest under the new one.
func StartSpan(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	span := Begin(FromContext(ctx), scope, name, ParentID(ctx))
	if id := span.ID(); id != 0 {
		ctx = context.WithValue(ctx, spanKey{}, id)
	}
	return ctx, span
}
