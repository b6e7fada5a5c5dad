package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"weft/internal/driver"
	"weft/internal/project"
)

var transformCmd = &cobra.Command{
	Use:   "transform [paths...]",
	Short: "Rewrite kernels in the legacy form with explicit teardown",
	Long: `Transform runs the legacy generation: every kernel is rewritten so that
each scope ends with del(name) statements for the variables it declared, in
reverse declaration order, and the result is printed as Go source.`,
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringP("output", "o", "", "write rewritten source to file instead of stdout")
	transformCmd.Flags().StringSlice("kernel", nil, "transform only the named kernels")
	transformCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|short)")
	transformCmd.Flags().String("ui", "off", "progress view (auto|on|off)")
}

func runTransform(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	req, err := readRunRequest(cmd, project.GenerationLegacy)
	if err != nil {
		return err
	}
	return runTranslation(cmd, args, req, writeLegacy, output)
}

func writeLegacy(out io.Writer, res *driver.Result) error {
	first := true
	for _, u := range res.Units {
		if u.Failed || u.Text == "" {
			continue
		}
		if !first {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
		}
		first = false
		if _, err := fmt.Fprintf(out, "// %s\n%s\n", u.Unit.Name, u.Text); err != nil {
			return err
		}
	}
	return nil
}
