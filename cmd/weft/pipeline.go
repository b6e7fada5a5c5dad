package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"weft/internal/driver"
	"weft/internal/observ"
	"weft/internal/project"
	"weft/internal/ui"
	"weft/internal/version"
)

const cacheApp = "weft"

type runRequest struct {
	gen         project.Generation
	kernels     []string
	noCache     bool
	diagFormat  string
	uiMode      uiMode
	showTimings bool
}

// pipelineOptions turns the manifest and flags into driver options.
func pipelineOptions(cmd *cobra.Command, m *project.Manifest, req runRequest) (driver.Options, error) {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	opts := driver.Options{
		Generation:     req.gen,
		Jobs:           m.Build.Jobs,
		MaxDiagnostics: maxDiagnostics,
		Kernels:        req.kernels,
		Manifest:       m,
		ToolVersion:    version.Fingerprint(),
	}
	if req.showTimings {
		opts.Timer = observ.NewTimer()
		// Pretty output prints the timer summary instead of a diagnostic.
		opts.Timings = req.diagFormat == "json"
	}
	if req.gen == project.GenerationIR && !req.noCache && !m.Build.NoCache {
		cache, err := driver.OpenDiskCache(m.Build.CacheDir, cacheApp)
		if err != nil {
			return driver.Options{}, fmt.Errorf("open cache: %w", err)
		}
		opts.Cache = cache
	}
	return opts, nil
}

// runPipeline runs the driver, behind the progress view when enabled.
func runPipeline(ctx context.Context, paths []string, opts driver.Options, mode uiMode) (*driver.Result, error) {
	if !shouldUseTUI(mode) {
		return driver.Pipeline(ctx, paths, opts)
	}
	var res *driver.Result
	title := fmt.Sprintf("%s: %d path(s)", opts.Generation, len(paths))
	err := ui.RunProgress(ctx, os.Stderr, title, nil, func(sink driver.ProgressSink) error {
		o := opts
		o.Progress = sink
		var err error
		res, err = driver.Pipeline(ctx, paths, o)
		return err
	})
	return res, err
}

// finishRun prints diagnostics and timings and reports whether the run
// should exit non-zero.
func finishRun(cmd *cobra.Command, res *driver.Result, opts driver.Options, req runRequest) (bool, error) {
	if err := writeDiagnostics(cmd, cmd.ErrOrStderr(), res.Bag, req.diagFormat); err != nil {
		return true, err
	}
	if opts.Timer != nil && req.diagFormat != "json" {
		printTimings(cmd.ErrOrStderr(), opts.Timer)
	}
	return res.Bag.HasErrors() || res.Failed(), nil
}

func printTimings(out io.Writer, timer *observ.Timer) {
	if out == nil || timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
}
