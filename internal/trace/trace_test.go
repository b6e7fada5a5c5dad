package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeUnit, false},
		{LevelDetail, ScopeUnit, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	span := Begin(tr, ScopeUnit, "saxpy", 0)
	Begin(tr, ScopeNode, "ForStmt", span.ID()).End("")
	span.WithExtra("values", "12").End("ok")

	out := buf.String()
	if !strings.Contains(out, "→ unit:saxpy") || !strings.Contains(out, "← unit:saxpy (ok) {values=12}") {
		t.Fatalf("unexpected trace output:\n%s", out)
	}
	if strings.Contains(out, "ForStmt") {
		t.Fatalf("node events must be filtered at detail level:\n%s", out)
	}
}

func TestRingTracerSnapshot(t *testing.T) {
	tr := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(tr, ScopeNode, name, "", 0)
	}
	snap := tr.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	var buf bytes.Buffer
	if err := tr.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 2 || !strings.Contains(buf.String(), `"name":"c"`) {
		t.Fatalf("unexpected ndjson:\n%s", buf.String())
	}
}

func TestNewSelectsTracer(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level must yield a disabled tracer")
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := tr.(*MultiTracer); !ok {
		t.Fatalf("both mode should fan out, got %T", tr)
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Fatalf("expected invalid mode error")
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer must default to Nop")
	}
	tr := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != Tracer(tr) {
		t.Fatalf("tracer not propagated")
	}
}

func TestStartSpanNests(t *testing.T) {
	if ParentID(context.Background()) != 0 {
		t.Fatalf("root context must have no parent span")
	}
	tr := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), tr)

	ctx, outer := StartSpan(ctx, ScopeDriver, "pipeline")
	if outer.ID() == 0 || ParentID(ctx) != outer.ID() {
		t.Fatalf("context should carry the pipeline span")
	}
	_, inner := StartSpan(ctx, ScopePass, "lower:ir")
	inner.End("")
	outer.End("")

	var parent uint64
	found := false
	for _, ev := range tr.Snapshot() {
		if ev.Kind == KindSpanBegin && ev.Name == "lower:ir" {
			parent, found = ev.ParentID, true
		}
	}
	if !found || parent != outer.ID() {
		t.Fatalf("inner span parent %d, want %d", parent, outer.ID())
	}

	off := WithTracer(context.Background(), Nop)
	off, span := StartSpan(off, ScopeDriver, "pipeline")
	if span.ID() != 0 || ParentID(off) != 0 {
		t.Fatalf("disabled tracer should not open spans")
	}
}
