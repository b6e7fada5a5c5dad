package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"weft/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new weft project",
	Long: `Initialize a weft project by creating a manifest (weft.toml) and a sample
kernel file. If [path|name] is omitted, initializes the current directory. A
missing directory is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

type initFile struct {
	name    string
	content string
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) == 1 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "weft-project"
	}

	manifestPath := filepath.Join(target, project.ManifestTOML)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}

	files := []initFile{
		{project.ManifestTOML, defaultManifest(name)},
		{"kernels.go", defaultKernels},
		{"dsl.go", defaultDSL},
	}
	created := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(target, f.name)
		if f.name != project.ManifestTOML {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		if err := os.WriteFile(path, []byte(f.content), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		created = append(created, f.name)
	}

	rel := target
	if r, err := filepath.Rel(wd, target); err == nil {
		rel = r
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized weft project in %s\n", rel)
	for _, f := range created {
		fmt.Fprintf(out, "  - %s\n", f)
	}
	return nil
}

func defaultManifest(name string) string {
	return fmt.Sprintf(`# weft project manifest
[package]
name = %q
sources = ["."]

[build]
generation = "ir"

[kernels.scale]
excluded = ["n"]

[kernels.scale.args]
n = 4

[kernels.scale.features.x]
kind = "scalar"
dtype = "f64"
`, name)
}

const defaultKernels = `package kernels

const limit = 8.0

//weft:func
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

//weft:kernel
func scale(x float64, n int) float64 {
	acc := 0.0
	for i := range static(n) {
		acc += clamp(x*float64(i), 0, limit)
	}
	return acc
}
`

const defaultDSL = `package kernels

import "iter"

// static marks a loop that weft unrolls while translating.
func static(bounds ...int) iter.Seq[int] { return ndrange(bounds...) }

// ndrange yields [0, n) for one bound and [a, b) for two.
func ndrange(bounds ...int) iter.Seq[int] {
	lo, hi := 0, 0
	switch len(bounds) {
	case 1:
		hi = bounds[0]
	case 2:
		lo, hi = bounds[0], bounds[1]
	}
	return func(yield func(int) bool) {
		for i := lo; i < hi; i++ {
			if !yield(i) {
				return
			}
		}
	}
}
`
