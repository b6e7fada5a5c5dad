package builder

import (
	"fmt"
	"go/ast"
	"slices"

	"weft/internal/ir"
	"weft/internal/trace"
)

// Feature is a per-argument hint supplied by the kernel-invocation layer,
// e.g. "ndarray" with two dimensions.
type Feature struct {
	Kind  string `toml:"kind" yaml:"kind" json:"kind"`
	Dims  int    `toml:"dims" yaml:"dims" json:"dims,omitempty"`
	DType string `toml:"dtype" yaml:"dtype" json:"dtype,omitempty"`
}

func (f Feature) String() string {
	s := f.Kind
	if s == "" {
		s = "scalar"
	}
	if f.DType != "" {
		s += "[" + f.DType + "]"
	}
	if f.Dims > 0 {
		s += fmt.Sprintf("/%dd", f.Dims)
	}
	return s
}

// ArgData is compile-time data for one argument. Excluded (template)
// parameters are resolved from it instead of becoming runtime parameters.
type ArgData struct {
	Value ir.Constant
}

// Kernel is the invariant metadata of one compilation unit. Both builder
// contexts embed it; the core only reads it.
type Kernel struct {
	Name        string
	Func        *ast.FuncDecl
	IsKernel    bool
	Excluded    []string
	ArgFeatures map[string]Feature

	// Tracer and ParentSpan attach node-level spans to the unit's span.
	Tracer     trace.Tracer
	ParentSpan uint64
}

// IsExcluded reports whether name is an excluded parameter.
func (k *Kernel) IsExcluded(name string) bool {
	return slices.Contains(k.Excluded, name)
}

// FeatureOf returns the feature hint of parameter name.
func (k *Kernel) FeatureOf(name string) (Feature, bool) {
	f, ok := k.ArgFeatures[name]
	return f, ok
}

// ResultCount reports how many values the unit returns.
func (k *Kernel) ResultCount() int {
	if k.Func == nil || k.Func.Type.Results == nil {
		return 0
	}
	n := 0
	for _, field := range k.Func.Type.Results.List {
		if len(field.Names) == 0 {
			n++
			continue
		}
		n += len(field.Names)
	}
	return n
}

func (k *Kernel) tracing() (trace.Tracer, uint64) {
	if k.Tracer == nil {
		return trace.Nop, 0
	}
	return k.Tracer, k.ParentSpan
}
