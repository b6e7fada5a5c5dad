package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"weft/internal/driver"
	"weft/internal/ir"
	"weft/internal/project"
)

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("readUIMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSourcePaths(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "proj")
	m := &project.Manifest{
		Path:    filepath.Join(root, project.ManifestTOML),
		Package: project.Package{Sources: []string{"kernels", filepath.Join(root, "abs")}},
	}
	got := sourcePaths(nil, m)
	want := []string{filepath.Join(root, "kernels"), filepath.Join(root, "abs")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("sourcePaths = %v, want %v", got, want)
	}
	if got := sourcePaths([]string{"x.go"}, m); len(got) != 1 || got[0] != "x.go" {
		t.Fatalf("explicit args not kept: %v", got)
	}
	if got := sourcePaths(nil, project.Default()); len(got) != 1 || got[0] != "." {
		t.Fatalf("default paths = %v", got)
	}
	bare := &project.Manifest{Path: filepath.Join(root, project.ManifestTOML)}
	if got := sourcePaths(nil, bare); len(got) != 1 || got[0] != root {
		t.Fatalf("manifest root paths = %v", got)
	}
}

func TestInitWritesLoadableProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	var out bytes.Buffer
	initCmd.SetOut(&out)
	defer initCmd.SetOut(nil)

	if err := runInit(initCmd, []string{dir}); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	for _, name := range []string{project.ManifestTOML, "kernels.go", "dsl.go"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	m, err := project.Load(filepath.Join(dir, project.ManifestTOML))
	if err != nil {
		t.Fatalf("generated manifest does not load: %v", err)
	}
	if m.Package.Name != "demo" || !m.Kernel("scale").IsExcluded("n") {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if !strings.Contains(out.String(), "Initialized weft project") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if err := runInit(initCmd, []string{dir}); err == nil {
		t.Fatalf("second init should fail")
	}
}

func TestWriteLegacySkipsFailedUnits(t *testing.T) {
	res := &driver.Result{Units: []driver.UnitResult{
		{Unit: &driver.Unit{Name: "a"}, Text: "func a() {\n\tdel(x)\n}"},
		{Unit: &driver.Unit{Name: "b"}, Failed: true},
	}}
	var buf bytes.Buffer
	if err := writeLegacy(&buf, res); err != nil {
		t.Fatalf("writeLegacy: %v", err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "// a\nfunc a() {") || strings.Contains(got, "// b") {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestModulesGroupNestedFuncs(t *testing.T) {
	kernel := ir.NewBuilder("k", true).Finish()
	helper := ir.NewBuilder("h", false).Finish()
	res := &driver.Result{Units: []driver.UnitResult{
		{Unit: &driver.Unit{Name: "k", Path: "k.go"}, Func: kernel, Nested: []*ir.Func{helper}},
		{Unit: &driver.Unit{Name: "bad", Path: "k.go"}, Failed: true},
	}}
	mods := modules(res)
	if len(mods) != 1 || len(mods[0].Funcs) != 2 || mods[0].Funcs[1].Name != "h" || mods[0].Path != "k.go" {
		t.Fatalf("unexpected modules: %+v", mods)
	}
	var buf bytes.Buffer
	if err := writeIR(&buf, res, "json"); err != nil {
		t.Fatalf("writeIR json: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "h"`) {
		t.Fatalf("json output misses nested func:\n%s", buf.String())
	}
}

func TestReadQuiet(t *testing.T) {
	root := &cobra.Command{Use: "weft"}
	root.PersistentFlags().Bool("quiet", false, "")
	sub := &cobra.Command{Use: "lower"}
	root.AddCommand(sub)
	if err := root.PersistentFlags().Set("quiet", "true"); err != nil {
		t.Fatalf("set quiet: %v", err)
	}
	quiet, err := readQuiet(sub)
	if err != nil || !quiet {
		t.Fatalf("readQuiet = %v, %v", quiet, err)
	}

	bare := &cobra.Command{Use: "weft"}
	if _, err := readQuiet(bare); err == nil || !strings.Contains(err.Error(), "quiet flag") {
		t.Fatalf("missing flag should fail with context, got %v", err)
	}
}
