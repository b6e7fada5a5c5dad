package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"weft/internal/diag"
	"weft/internal/driver"
	"weft/internal/project"
)

var kernelsCmd = &cobra.Command{
	Use:   "kernels [paths...]",
	Short: "List the kernels found in the sources",
	RunE:  runKernels,
}

func init() {
	kernelsCmd.Flags().String("format", "text", "output format (text|json)")
}

type kernelInfo struct {
	Name       string   `json:"name"`
	Location   string   `json:"location"`
	Params     []string `json:"params"`
	Excluded   []string `json:"excluded,omitempty"`
	Configured bool     `json:"configured"`
}

type kernelsPayload struct {
	Generation project.Generation `json:"generation"`
	Manifest   string             `json:"manifest,omitempty"`
	Kernels    []kernelInfo       `json:"kernels"`
	Funcs      []string           `json:"funcs"`
}

func runKernels(cmd *cobra.Command, args []string) (err error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, m.Build.TraceLevel)
	if err != nil {
		return err
	}
	defer func() { cleanup(err != nil) }()

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	bag := diag.NewBag(maxDiagnostics)
	src, err := driver.ParseFiles(cmd.Context(), sourcePaths(args, m), bag, m.Build.Jobs)
	if err != nil {
		return err
	}
	prog := driver.Discover(src, bag)
	payload := describeKernels(prog, m)

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	} else {
		renderKernels(cmd.OutOrStdout(), payload)
	}
	if err := writeDiagnostics(cmd, cmd.ErrOrStderr(), bag, "pretty"); err != nil {
		return err
	}
	if bag.HasErrors() {
		return errTranslationFailed
	}
	return nil
}

func describeKernels(prog *driver.Program, m *project.Manifest) kernelsPayload {
	payload := kernelsPayload{
		Generation: m.Build.Generation,
		Manifest:   m.Path,
		Kernels:    make([]kernelInfo, 0, len(prog.Kernels)),
	}
	wd, _ := os.Getwd()
	for _, u := range prog.Kernels {
		pos := prog.Source.Fset.Position(u.Decl.Pos())
		path := pos.Filename
		if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
		spec := m.Kernel(u.Name)
		info := kernelInfo{
			Name:       u.Name,
			Location:   fmt.Sprintf("%s:%d", filepath.ToSlash(path), pos.Line),
			Excluded:   spec.Excluded,
			Configured: hasKernel(m, u.Name),
		}
		for _, field := range u.Decl.Type.Params.List {
			for _, name := range field.Names {
				info.Params = append(info.Params, name.Name)
			}
		}
		payload.Kernels = append(payload.Kernels, info)
	}
	for name := range prog.Funcs {
		if _, isKernel := prog.Kernel(name); !isKernel {
			payload.Funcs = append(payload.Funcs, name)
		}
	}
	slices.Sort(payload.Funcs)
	return payload
}

func hasKernel(m *project.Manifest, name string) bool {
	_, ok := m.Kernels[name]
	return ok
}

func renderKernels(out io.Writer, p kernelsPayload) {
	fmt.Fprintf(out, "generation: %s\n", p.Generation)
	if p.Manifest != "" {
		fmt.Fprintf(out, "manifest:   %s\n", p.Manifest)
	}
	if len(p.Kernels) == 0 {
		fmt.Fprintln(out, "no kernels found")
		return
	}
	for _, k := range p.Kernels {
		params := make([]string, len(k.Params))
		for i, name := range k.Params {
			params[i] = name
			if slices.Contains(k.Excluded, name) {
				params[i] = name + " (template)"
			}
		}
		mark := ""
		if k.Configured {
			mark = " *"
		}
		fmt.Fprintf(out, "  %-20s %s(%s)%s\n", k.Name, k.Location, strings.Join(params, ", "), mark)
	}
	if len(p.Funcs) > 0 {
		fmt.Fprintf(out, "funcs: %s\n", strings.Join(p.Funcs, ", "))
	}
}
