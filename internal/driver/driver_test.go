package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"weft/internal/builder"
	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/observ"
	"weft/internal/project"
)

const kernelsSrc = `package demo

const Unroll = Width / 2

//weft:func
func scale(x float32) float32 {
	return x * 2
}

//weft:kernel
func fill(a []float32, n int) {
	for i := range n {
		a[i] = scale(a[i])
	}
	for j := range static(Unroll) {
		a[j] = 0
	}
}

//weft:kernel
func broken(n int) {
	break
}

func helper() {}
`

const constsSrc = `package demo

const Width = 8
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(unit string, status Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Unit == unit && ev.Status == status {
			n++
		}
	}
	return n
}

func findUnit(t *testing.T, res *Result, name string) UnitResult {
	t.Helper()
	for _, u := range res.Units {
		if u.Unit != nil && u.Unit.Name == name {
			return u
		}
	}
	t.Fatalf("no result for %s", name)
	return UnitResult{}
}

func TestPipelineIR(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kernels.go":      kernelsSrc,
		"consts.go":       constsSrc,
		"kernels_test.go": "package demo\n\n//weft:kernel\nfunc ignored() {}\n",
		"_skip/x.go":      "package skip\n\n//weft:kernel\nfunc skipped() {}\n",
	})
	rec := &recorder{}
	timer := observ.NewTimer()
	res, err := Pipeline(context.Background(), []string{dir}, Options{
		Jobs:     2,
		Progress: rec,
		Timer:    timer,
		Timings:  true,
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("got %d units, want 2", len(res.Units))
	}

	fill := findUnit(t, res, "fill")
	if fill.Failed || fill.Func == nil {
		t.Fatalf("fill failed")
	}
	if len(fill.Nested) != 1 || fill.Nested[0].Name != "scale" {
		t.Fatalf("expected scale to be lowered as a nested function")
	}
	// Width/2 across files gives four unrolled stores.
	stores := 0
	var walk func(b *ir.Block)
	walk = func(b *ir.Block) {
		if b == nil {
			return
		}
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if in.Op == ir.OpCall && in.Callee == "ndarray.store" {
				stores++
			}
			walk(in.Body)
		}
	}
	walk(fill.Func.Body)
	if stores != 5 {
		t.Fatalf("got %d stores, want 1 runtime + 4 unrolled\n%s", stores, fill.Func)
	}

	broken := findUnit(t, res, "broken")
	if !broken.Failed {
		t.Fatalf("broken should fail")
	}
	var found bool
	for _, d := range res.Bag.Items() {
		if d.Code == diag.BranchOutsideLoop {
			found = true
			if d.Unit != "broken" || d.Primary.Line == 0 {
				t.Fatalf("diagnostic not attributed: %+v", d)
			}
		}
	}
	if !found {
		t.Fatalf("missing BranchOutsideLoop diagnostic")
	}
	if !res.Failed() {
		t.Fatalf("result should report failure")
	}
	if rec.count("fill", StatusDone) != 1 || rec.count("broken", StatusError) != 1 {
		t.Fatalf("unexpected progress events %+v", rec.events)
	}

	var timing bool
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			timing = true
		}
	}
	if !timing || len(timer.Report().Phases) != 3 {
		t.Fatalf("timings not recorded")
	}
}

func TestPipelineLegacy(t *testing.T) {
	dir := writeTree(t, map[string]string{"kernels.go": kernelsSrc, "consts.go": constsSrc})
	res, err := Pipeline(context.Background(), []string{dir}, Options{
		Generation: project.GenerationLegacy,
		Kernels:    []string{"fill"},
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	fill := findUnit(t, res, "fill")
	if fill.Failed || !strings.Contains(fill.Text, "del(n)") || !strings.Contains(fill.Text, "del(a)") {
		t.Fatalf("legacy output missing teardown:\n%s", fill.Text)
	}
}

func TestPipelineUsesCache(t *testing.T) {
	dir := writeTree(t, map[string]string{"kernels.go": kernelsSrc, "consts.go": constsSrc})
	cache, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache"), "weft")
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	opts := Options{Cache: cache, Kernels: []string{"fill"}, ToolVersion: "test"}

	first, err := Pipeline(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if findUnit(t, first, "fill").Cached {
		t.Fatalf("first run cannot hit the cache")
	}
	second, err := Pipeline(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	hit := findUnit(t, second, "fill")
	if !hit.Cached || hit.Func == nil || len(hit.Nested) != 1 {
		t.Fatalf("second run should be served from cache")
	}
	if hit.Func.String() != findUnit(t, first, "fill").Func.String() {
		t.Fatalf("cached IR differs from lowered IR")
	}

	// Changing the manifest changes the key.
	opts.Manifest = &project.Manifest{Kernels: map[string]project.KernelSpec{
		"fill": {Features: map[string]builder.Feature{"a": {Kind: "ndarray", Dims: 1}}},
	}}
	third, err := Pipeline(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if findUnit(t, third, "fill").Cached {
		t.Fatalf("manifest change should miss the cache")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	fourth, err := Pipeline(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("fourth run: %v", err)
	}
	if findUnit(t, fourth, "fill").Cached {
		t.Fatalf("dropped cache should miss")
	}
}

func TestDiscoverReports(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go": "package p\n\nconst Bad = undefinedThing\n\n//weft:kernel\nfunc k() {}\n",
		"b.go": "package p\n\n//weft:func\nfunc k() {}\n",
		"c.go": "package p\n\nfunc (\n",
	})
	bag := diag.NewBag(50)
	src, err := ParseFiles(context.Background(), []string{dir}, bag, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(src.Files) != 2 {
		t.Fatalf("got %d parsed files, want 2", len(src.Files))
	}
	prog := Discover(src, bag)
	if len(prog.Kernels) != 1 {
		t.Fatalf("got %d kernels", len(prog.Kernels))
	}
	codes := make(map[diag.Code]diag.Severity)
	for _, d := range bag.Items() {
		codes[d.Code] = d.Severity
	}
	if _, ok := codes[diag.SynParseError]; !ok {
		t.Fatalf("missing parse error in %v", codes)
	}
	if _, ok := codes[diag.DuplicateDeclaration]; !ok {
		t.Fatalf("missing duplicate declaration in %v", codes)
	}
	if sev, ok := codes[diag.UndefinedName]; !ok || sev != diag.SevWarning {
		t.Fatalf("unresolvable constant should be a warning, got %v", codes)
	}
	if _, ok := prog.Globals.Lookup("Bad"); ok {
		t.Fatalf("Bad should not be a global")
	}
}

func TestUnknownKernelInManifest(t *testing.T) {
	dir := writeTree(t, map[string]string{"kernels.go": kernelsSrc, "consts.go": constsSrc})
	res, err := Pipeline(context.Background(), []string{dir}, Options{
		Kernels:  []string{"fill"},
		Manifest: &project.Manifest{Path: "weft.toml", Kernels: map[string]project.KernelSpec{"ghost": {}}},
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	var warned bool
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ProjUnknownKernel && d.Severity == diag.SevWarning {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a warning for the unknown kernel")
	}

	if _, err := Pipeline(context.Background(), []string{dir}, Options{Kernels: []string{"ghost"}}); err == nil {
		t.Fatalf("selecting an unknown kernel should fail")
	}
}
