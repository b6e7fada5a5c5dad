package diagfmt

import (
	"fmt"
	"go/token"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"weft/internal/diag"
)

const tabWidth = 4

type palette struct {
	err, warn, info, code, loc, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		loc:    color.New(color.FgHiWhite),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		note:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes every diagnostic of bag in a human-readable form:
//
//	path:line:col: ERROR LOW3001: message
//	   12 | x := y + 1
//	      |      ^
//
// Source lines come from src; a nil src prints headers only.
func Pretty(w io.Writer, bag *diag.Bag, src LineSource, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &items[i], src, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, src LineSource, opts PrettyOpts, p palette) {
	loc := location(d.Primary, opts.PathMode, opts.BaseDir)
	fmt.Fprintf(w, "%s: %s %s: %s",
		p.loc.Sprint(loc),
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message,
	)
	if d.Unit != "" {
		fmt.Fprintf(w, " (in %s)", d.Unit)
	}
	fmt.Fprintln(w)

	if src != nil && d.Primary.IsValid() {
		writeSnippet(w, d.Primary, src, opts, p)
	}

	if opts.ShowNotes || d.Code == diag.ObsTimings {
		for _, n := range d.Notes {
			if n.Pos.IsValid() {
				fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), location(n.Pos, opts.PathMode, opts.BaseDir), n.Msg)
			} else {
				fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
			}
		}
	}
}

func location(pos token.Position, mode PathMode, baseDir string) string {
	path := formatPath(pos.Filename, mode, baseDir)
	if pos.Line <= 0 {
		return path
	}
	if pos.Column <= 0 {
		return fmt.Sprintf("%s:%d", path, pos.Line)
	}
	return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Column)
}

func writeSnippet(w io.Writer, pos token.Position, src LineSource, opts PrettyOpts, p palette) {
	ctx := max(int(opts.Context), 0)
	first := max(pos.Line-ctx, 1)
	last := pos.Line + ctx
	gutter := len(fmt.Sprint(last))

	for n := first; n <= last; n++ {
		text, ok := src.Line(pos.Filename, n)
		if !ok {
			if n < pos.Line {
				continue
			}
			break
		}
		shown := expandTabs(text)
		if opts.Width > 0 {
			shown = runewidth.Truncate(shown, int(opts.Width), "…")
		}
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", gutter, n), shown)
		if n == pos.Line {
			col := caretColumn(text, pos.Column)
			fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", gutter, ""), strings.Repeat(" ", col), p.caret.Sprint("^"))
		}
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// caretColumn converts a 1-based byte column into a display offset.
func caretColumn(line string, column int) int {
	if column <= 1 {
		return 0
	}
	end := min(column-1, len(line))
	return runewidth.StringWidth(expandTabs(line[:end]))
}
