package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"weft/internal/prof"
	"weft/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "weft",
	Short:         "Kernel DSL front end",
	Long:          `weft translates Go functions marked //weft:kernel into structured IR or into the legacy rewritten form with explicit teardown.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cpu, err := cmd.Root().PersistentFlags().GetString("cpuprofile")
		if err != nil {
			return err
		}
		mem, err := cmd.Root().PersistentFlags().GetString("memprofile")
		if err != nil {
			return err
		}
		profile, err = prof.Start(cpu, mem)
		return err
	},
}

// profile is started before any subcommand and stopped after Execute.
var profile *prof.Session

func main() {
	rootCmd.Version = version.Short()

	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(kernelsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().Int("jobs", 0, "max parallel units (0 = GOMAXPROCS or manifest)")
	rootCmd.PersistentFlags().String("manifest", "", "path to weft.toml or weft.yaml (default: search upward)")

	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer capacity for ring mode")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to file on exit")

	err := rootCmd.Execute()
	if perr := profile.Stop(); perr != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", perr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
