package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"weft/internal/builder"
	"weft/internal/ir"
)

// Generation selects the translator.
type Generation string

const (
	GenerationIR     Generation = "ir"
	GenerationLegacy Generation = "legacy"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrUnknownGeneration indicates an unsupported [build].generation.
	ErrUnknownGeneration = errors.New("unknown generation")
)

// Package is the [package] section.
type Package struct {
	Name    string   `toml:"name" yaml:"name"`
	Sources []string `toml:"sources" yaml:"sources"`
}

// Build is the [build] section. Every field may be overridden from the
// environment, see ApplyEnv.
type Build struct {
	Generation Generation `toml:"generation" yaml:"generation"`
	Jobs       int        `toml:"jobs" yaml:"jobs"`
	CacheDir   string     `toml:"cache_dir" yaml:"cache_dir"`
	NoCache    bool       `toml:"no_cache" yaml:"no_cache"`
	TraceLevel string     `toml:"trace_level" yaml:"trace_level"`
}

// KernelSpec configures one kernel: which parameters are compile-time
// template arguments, their values, and feature hints for the rest.
type KernelSpec struct {
	Excluded []string                   `toml:"excluded" yaml:"excluded"`
	Args     map[string]any             `toml:"args" yaml:"args"`
	Features map[string]builder.Feature `toml:"features" yaml:"features"`
}

// Manifest is a parsed weft.toml or weft.yaml.
type Manifest struct {
	Path    string                `toml:"-" yaml:"-"`
	Package Package               `toml:"package" yaml:"package"`
	Build   Build                 `toml:"build" yaml:"build"`
	Kernels map[string]KernelSpec `toml:"kernels" yaml:"kernels"`
}

// Default returns the manifest used when no file is found.
func Default() *Manifest {
	return &Manifest{Build: Build{Generation: GenerationIR}}
}

// Root is the directory holding the manifest.
func (m *Manifest) Root() string {
	if m.Path == "" {
		return "."
	}
	return filepath.Dir(m.Path)
}

// Load parses the manifest at path, choosing the decoder by extension.
func Load(path string) (*Manifest, error) {
	var (
		m   *Manifest
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = loadYAML(path)
	default:
		m, err = loadTOML(path)
	}
	if err != nil {
		return nil, err
	}
	m.Path = path
	if m.Build.Generation == "" {
		m.Build.Generation = GenerationIR
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func loadTOML(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			// Values under args are free-form.
			if len(k) >= 3 && k[0] == "kernels" && k[2] == "args" {
				continue
			}
			keys = append(keys, k.String())
		}
		if len(keys) > 0 {
			return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}
	return &m, nil
}

func loadYAML(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m Manifest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	if m.Package.Name == "" && len(m.Package.Sources) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	return &m, nil
}

// Validate checks cross-field constraints.
func (m *Manifest) Validate() error {
	switch m.Build.Generation {
	case GenerationIR, GenerationLegacy:
	default:
		return fmt.Errorf("%w %q", ErrUnknownGeneration, m.Build.Generation)
	}
	if m.Build.Jobs < 0 {
		return fmt.Errorf("build.jobs must not be negative, got %d", m.Build.Jobs)
	}
	for _, name := range m.KernelNames() {
		k := m.Kernels[name]
		for _, ex := range k.Excluded {
			if _, ok := k.Args[ex]; !ok {
				return fmt.Errorf("kernel %s: excluded parameter %s has no value in args", name, ex)
			}
			if _, ok := k.Features[ex]; ok {
				return fmt.Errorf("kernel %s: excluded parameter %s cannot have a feature", name, ex)
			}
		}
		if _, err := k.ArgData(); err != nil {
			return fmt.Errorf("kernel %s: %w", name, err)
		}
	}
	return nil
}

// KernelNames lists configured kernels in sorted order.
func (m *Manifest) KernelNames() []string {
	names := make([]string, 0, len(m.Kernels))
	for name := range m.Kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kernel returns the configuration of name, or an empty spec.
func (m *Manifest) Kernel(name string) KernelSpec {
	if m == nil {
		return KernelSpec{}
	}
	return m.Kernels[name]
}

// IsExcluded reports whether param is a template argument.
func (k KernelSpec) IsExcluded(param string) bool {
	return slices.Contains(k.Excluded, param)
}

// ArgData converts the configured argument values into compile-time data.
func (k KernelSpec) ArgData() (map[string]builder.ArgData, error) {
	out := make(map[string]builder.ArgData, len(k.Args))
	for name, raw := range k.Args {
		c, err := constantOf(raw)
		if err != nil {
			return nil, fmt.Errorf("arg %s: %w", name, err)
		}
		out[name] = builder.ArgData{Value: c}
	}
	return out, nil
}

func constantOf(v any) (ir.Constant, error) {
	switch x := v.(type) {
	case bool:
		return ir.BoolConst(x), nil
	case int:
		return ir.IntConst(int64(x)), nil
	case int64:
		return ir.IntConst(x), nil
	case uint64:
		if x > 1<<63-1 {
			return ir.Constant{}, fmt.Errorf("value %d overflows int64", x)
		}
		return ir.IntConst(int64(x)), nil
	case float64:
		return ir.FloatConst(x), nil
	}
	return ir.Constant{}, fmt.Errorf("unsupported value %v (%T)", v, v)
}
