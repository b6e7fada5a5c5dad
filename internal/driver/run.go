package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"weft/internal/builder"
	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/legacy"
	"weft/internal/lower"
	"weft/internal/observ"
	"weft/internal/project"
	"weft/internal/trace"
)

// Options configures a run.
type Options struct {
	Generation     project.Generation
	Jobs           int
	MaxDiagnostics int
	// Kernels restricts the run to the named kernels; empty means all.
	Kernels []string

	Manifest *project.Manifest
	Cache    *DiskCache
	// ToolVersion is mixed into cache keys.
	ToolVersion string

	Timer    *observ.Timer
	Timings  bool
	Progress ProgressSink
	OnPhase  PhaseObserver
}

// UnitResult is the outcome of translating one kernel.
type UnitResult struct {
	Unit *Unit

	// IR generation.
	Func   *ir.Func
	Nested []*ir.Func
	Cached bool

	// Legacy generation.
	Legacy *ast.FuncDecl
	Text   string

	Failed bool
}

// Result is the outcome of a run.
type Result struct {
	Program *Program
	Units   []UnitResult
	Bag     *diag.Bag
}

// Failed reports whether any unit failed.
func (r *Result) Failed() bool {
	for _, u := range r.Units {
		if u.Failed {
			return true
		}
	}
	return false
}

func (o *Options) phase(name string, fn func() error) error {
	if o.OnPhase != nil {
		o.OnPhase(PhaseEvent{Name: name, Status: PhaseStart})
	}
	start := time.Now()
	var err error
	if o.Timer != nil {
		err = o.Timer.Track(name, fn)
	} else {
		err = fn()
	}
	if o.OnPhase != nil {
		o.OnPhase(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
	}
	return err
}

// Pipeline parses paths, discovers kernels and translates them.
func Pipeline(ctx context.Context, paths []string, opts Options) (*Result, error) {
	bag := diag.NewBag(opts.MaxDiagnostics)
	ctx, span := trace.StartSpan(ctx, trace.ScopeDriver, "pipeline")
	defer span.End("")

	var src *Source
	err := opts.phase("parse", func() error {
		emit(opts.Progress, Event{Stage: StageParse, Status: StatusWorking})
		var err error
		src, err = ParseFiles(ctx, paths, bag, opts.Jobs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var prog *Program
	_ = opts.phase("discover", func() error {
		emit(opts.Progress, Event{Stage: StageDiscover, Status: StatusWorking})
		prog = Discover(src, bag)
		return nil
	})

	var res *Result
	err = opts.phase("lower", func() error {
		var err error
		res, err = Run(ctx, prog, bag, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	if opts.Timings && opts.Timer != nil {
		report := opts.Timer.Report()
		appendTimingDiagnostic(bag, timingPayload{Units: len(res.Units), TotalMS: report.TotalMS, Phases: report.Phases})
	}
	return res, nil
}

// Run translates the kernels of prog concurrently, each in its own builder
// context. Translation errors become diagnostics in bag; only I/O failures
// and cancellation abort the run.
func Run(ctx context.Context, prog *Program, bag *diag.Bag, opts Options) (*Result, error) {
	if bag == nil {
		bag = diag.NewBag(opts.MaxDiagnostics)
	}
	gen := opts.Generation
	if gen == "" {
		gen = project.GenerationIR
	}
	units, err := selectUnits(prog, opts, bag)
	if err != nil {
		return nil, err
	}
	res := &Result{Program: prog, Units: make([]UnitResult, len(units)), Bag: bag}
	if len(units) == 0 {
		return res, nil
	}

	tracer := trace.FromContext(ctx)
	ctx, span := trace.StartSpan(ctx, trace.ScopePass, "lower:"+string(gen))
	defer span.End("")

	for _, u := range units {
		emit(opts.Progress, Event{Unit: u.Name, Stage: StageLower, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))
	for i, u := range units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			emit(opts.Progress, Event{Unit: u.Name, Stage: StageLower, Status: StatusWorking})
			us := trace.Begin(tracer, trace.ScopeUnit, u.Name, span.ID())

			var out UnitResult
			var err error
			if gen == project.GenerationLegacy {
				out, err = transformUnit(prog, u, opts, tracer, us.ID())
			} else {
				out, err = lowerUnit(prog, u, opts, tracer, us.ID())
			}
			out.Unit = u

			var de *diag.Error
			switch {
			case errors.As(err, &de):
				d := de.Diagnostic(prog.Source.Fset)
				d.Unit = u.Name
				bag.Add(d)
				out.Failed = true
				us.End("error")
				emit(opts.Progress, Event{Unit: u.Name, Stage: StageLower, Status: StatusError, Err: err, Elapsed: time.Since(start)})
			case err != nil:
				us.End("error")
				return fmt.Errorf("%s: %w", u.Name, err)
			default:
				stage := StageLower
				if out.Cached {
					stage = StageCache
				}
				us.End("")
				emit(opts.Progress, Event{Unit: u.Name, Stage: stage, Status: StatusDone, Elapsed: time.Since(start)})
			}
			res.Units[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bag.Sort()
	return res, nil
}

func selectUnits(prog *Program, opts Options, bag *diag.Bag) ([]*Unit, error) {
	if opts.Manifest != nil {
		for _, name := range opts.Manifest.KernelNames() {
			if _, ok := prog.Kernel(name); !ok {
				bag.Add(diag.New(diag.SevWarning, diag.ProjUnknownKernel, token.Position{Filename: opts.Manifest.Path},
					fmt.Sprintf("manifest configures kernel %s, which is not declared", name)))
			}
		}
	}
	if len(opts.Kernels) == 0 {
		return prog.Kernels, nil
	}
	units := make([]*Unit, 0, len(opts.Kernels))
	for _, name := range opts.Kernels {
		u, ok := prog.Kernel(name)
		if !ok {
			return nil, fmt.Errorf("no kernel named %s", name)
		}
		units = append(units, u)
	}
	return units, nil
}

func kernelFor(u *Unit, spec project.KernelSpec, t trace.Tracer, parent uint64) builder.Kernel {
	return builder.Kernel{
		Name:        u.Name,
		Func:        u.Decl,
		IsKernel:    true,
		Excluded:    spec.Excluded,
		ArgFeatures: spec.Features,
		Tracer:      t,
		ParentSpan:  parent,
	}
}

func lowerUnit(prog *Program, u *Unit, opts Options, t trace.Tracer, parent uint64) (UnitResult, error) {
	spec := opts.Manifest.Kernel(u.Name)

	var key project.Digest
	if opts.Cache != nil {
		k, err := cacheKey(prog.Source.Digest, u.Name, spec, opts.ToolVersion)
		if err != nil {
			return UnitResult{}, err
		}
		key = k
		if p, ok, err := opts.Cache.Get(key); err == nil && ok {
			return UnitResult{Func: p.Func, Nested: p.Nested, Cached: true}, nil
		}
	}

	argData, err := spec.ArgData()
	if err != nil {
		return UnitResult{}, diag.Errorf(diag.ProjBadManifest, u.Decl.Pos(), "kernel %s: %v", u.Name, err)
	}
	l := lower.New(prog.Source.Fset, prog.Funcs)
	ctx := builder.NewIRContext(kernelFor(u, spec, t, parent), prog.Globals, argData)
	f, err := l.Lower(ctx)
	if err != nil {
		return UnitResult{}, err
	}
	out := UnitResult{Func: f, Nested: l.Nested()}
	if opts.Cache != nil {
		if err := opts.Cache.Put(key, &DiskPayload{Name: u.Name, Func: out.Func, Nested: out.Nested}); err != nil {
			trace.Point(t, trace.ScopeUnit, "cache-put-failed", err.Error(), parent)
		}
	}
	return out, nil
}

func transformUnit(prog *Program, u *Unit, opts Options, t trace.Tracer, parent uint64) (UnitResult, error) {
	spec := opts.Manifest.Kernel(u.Name)
	tr := legacy.New(prog.Source.Fset)
	decl, err := tr.Transform(builder.NewContext(kernelFor(u, spec, t, parent)))
	if err != nil {
		return UnitResult{}, err
	}
	var buf bytes.Buffer
	if err := tr.Print(&buf, decl); err != nil {
		return UnitResult{}, fmt.Errorf("print %s: %w", u.Name, err)
	}
	return UnitResult{Legacy: decl, Text: buf.String()}, nil
}
