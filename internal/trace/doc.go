// Package trace is the logging layer of the weft front end.
//
// It records spans and instant events for CLI commands, pipeline passes,
// compilation units and, at the most verbose level, every syntax node handed
// to a dispatcher.
//
// # Usage
//
//	weft lower --trace=- --trace-level=detail kernels.go
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: keeps the last N events in memory
//   - MultiTracer: fans out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: reserved for crash dumps
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: one span per compilation unit
//   - LevelDebug: everything including dispatched nodes
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "lower", parentID)
//	defer span.End("")
package trace
