package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"weft/internal/diag"
	"weft/internal/diagfmt"
)

func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}

// writeDiagnostics renders bag to out in the requested format.
func writeDiagnostics(cmd *cobra.Command, out io.Writer, bag *diag.Bag, format string) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	wd, _ := os.Getwd()
	switch format {
	case "pretty", "":
		color, err := useColor(cmd, os.Stderr)
		if err != nil {
			return err
		}
		diagfmt.Pretty(out, bag, diagfmt.NewFileLines(), diagfmt.PrettyOpts{
			Color:     color,
			Context:   1,
			PathMode:  diagfmt.PathModeAuto,
			BaseDir:   wd,
			ShowNotes: true,
		})
		return nil
	case "json":
		return diagfmt.JSON(out, bag, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			BaseDir:          wd,
			IncludeNotes:     true,
		})
	case "short":
		_, err := io.WriteString(out, diag.FormatShortDiagnostics(bag.Items(), wd, false))
		return err
	default:
		return fmt.Errorf("unknown diagnostics format: %s", format)
	}
}
