package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"weft/internal/driver"
	"weft/internal/ir"
	"weft/internal/project"
)

var errTranslationFailed = errors.New("translation failed")

var lowerCmd = &cobra.Command{
	Use:   "lower [paths...]",
	Short: "Lower kernels to structured IR",
	Long: `Lower parses the given Go files or directories (default: the manifest's
sources, or the current directory), discovers //weft:kernel functions and
translates each one into IR. Called //weft:func helpers are lowered alongside
the kernels that use them.`,
	RunE: runLower,
}

func init() {
	lowerCmd.Flags().String("emit", "text", "IR output format (text|json|msgpack)")
	lowerCmd.Flags().StringP("output", "o", "", "write IR to file instead of stdout")
	lowerCmd.Flags().StringSlice("kernel", nil, "lower only the named kernels")
	lowerCmd.Flags().Bool("no-cache", false, "bypass the on-disk IR cache")
	lowerCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|short)")
	lowerCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

func runLower(cmd *cobra.Command, args []string) error {
	emit, err := cmd.Flags().GetString("emit")
	if err != nil {
		return fmt.Errorf("failed to get emit flag: %w", err)
	}
	switch emit {
	case "text", "json", "msgpack":
	default:
		return fmt.Errorf("unknown emit format %q (expected text|json|msgpack)", emit)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	req, err := readRunRequest(cmd, project.GenerationIR)
	if err != nil {
		return err
	}
	req.noCache = noCache

	return runTranslation(cmd, args, req, func(out io.Writer, res *driver.Result) error {
		return writeIR(out, res, emit)
	}, output)
}

// readRunRequest collects the flags shared by lower and transform.
func readRunRequest(cmd *cobra.Command, gen project.Generation) (runRequest, error) {
	kernels, err := cmd.Flags().GetStringSlice("kernel")
	if err != nil {
		return runRequest{}, fmt.Errorf("failed to get kernel flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return runRequest{}, fmt.Errorf("failed to get format flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return runRequest{}, fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return runRequest{}, err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return runRequest{}, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return runRequest{
		gen:         gen,
		kernels:     kernels,
		diagFormat:  format,
		uiMode:      mode,
		showTimings: timings,
	}, nil
}

// runTranslation loads the project, runs the pipeline and hands successful
// units to write. It fails when any unit failed.
func runTranslation(cmd *cobra.Command, args []string, req runRequest, write func(io.Writer, *driver.Result) error, output string) (err error) {
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, m.Build.TraceLevel)
	if err != nil {
		return err
	}
	defer func() { cleanup(err != nil) }()

	opts, err := pipelineOptions(cmd, m, req)
	if err != nil {
		return err
	}
	res, err := runPipeline(cmd.Context(), sourcePaths(args, m), opts, req.uiMode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := write(out, res); err != nil {
		return err
	}

	failed, err := finishRun(cmd, res, opts, req)
	if err != nil {
		return err
	}
	quiet, err := readQuiet(cmd)
	if err != nil {
		return err
	}
	if !quiet && req.diagFormat != "json" {
		printRunSummary(cmd.ErrOrStderr(), res)
	}
	if failed {
		return errTranslationFailed
	}
	return nil
}

func printRunSummary(out io.Writer, res *driver.Result) {
	var ok, cached, failed int
	for _, u := range res.Units {
		switch {
		case u.Failed:
			failed++
		case u.Cached:
			ok++
			cached++
		default:
			ok++
		}
	}
	fmt.Fprintf(out, "%d kernel(s) translated, %d from cache, %d failed\n", ok, cached, failed)
}

// modules groups each successful unit with the helpers it called.
func modules(res *driver.Result) []ir.Module {
	mods := make([]ir.Module, 0, len(res.Units))
	for _, u := range res.Units {
		if u.Failed || u.Func == nil {
			continue
		}
		funcs := make([]*ir.Func, 0, 1+len(u.Nested))
		funcs = append(funcs, u.Func)
		funcs = append(funcs, u.Nested...)
		mods = append(mods, ir.Module{Path: u.Unit.Path, Funcs: funcs})
	}
	return mods
}

func writeIR(out io.Writer, res *driver.Result, emit string) error {
	mods := modules(res)
	switch emit {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(mods)
	case "msgpack":
		return msgpack.NewEncoder(out).Encode(mods)
	default:
		for i, m := range mods {
			if i > 0 {
				fmt.Fprintln(out)
			}
			for j, f := range m.Funcs {
				if j > 0 {
					fmt.Fprintln(out)
				}
				if err := ir.Print(out, f); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func readQuiet(cmd *cobra.Command) (bool, error) {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return false, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	return quiet, nil
}
