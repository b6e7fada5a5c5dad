package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"weft/internal/project"
)

// loadManifest resolves the manifest named by --manifest, or the nearest one
// above the working directory, and overlays environment and flag overrides.
// Without a manifest the defaults apply.
func loadManifest(cmd *cobra.Command) (*project.Manifest, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("manifest")
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest flag: %w", err)
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, ok, err := project.FindManifest(wd)
		if err != nil {
			return nil, err
		}
		if ok {
			path = found
		}
	}

	m := project.Default()
	if path != "" {
		if m, err = project.Load(path); err != nil {
			return nil, err
		}
	}
	m.ApplyEnv()
	if flags.Changed("jobs") {
		jobs, err := flags.GetInt("jobs")
		if err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
		m.Build.Jobs = jobs
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return m, nil
}

// sourcePaths returns args, or the manifest's sources resolved against its
// directory, or the working directory.
func sourcePaths(args []string, m *project.Manifest) []string {
	if len(args) > 0 {
		return args
	}
	if m != nil && m.Path != "" && len(m.Package.Sources) > 0 {
		paths := make([]string, 0, len(m.Package.Sources))
		for _, s := range m.Package.Sources {
			if filepath.IsAbs(s) {
				paths = append(paths, s)
			} else {
				paths = append(paths, filepath.Join(m.Root(), s))
			}
		}
		return paths
	}
	if m != nil && m.Path != "" {
		return []string{m.Root()}
	}
	return []string{"."}
}
