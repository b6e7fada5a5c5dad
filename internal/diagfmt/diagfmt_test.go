package diagfmt

import (
	"bytes"
	"encoding/json"
	"go/token"
	"strings"
	"testing"

	"weft/internal/diag"
)

const kernelSrc = "package k\n\n//weft:kernel\nfunc add(a int) int {\n\treturn b\n}\n"

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	d := diag.NewError(diag.UndefinedName, token.Position{
		Filename: "/home/user/proj/kernels/add.go",
		Offset:   47,
		Line:     5,
		Column:   9,
	}, "undefined name b")
	d.Unit = "add"
	bag.Add(d.WithNote(token.Position{Filename: "/home/user/proj/kernels/add.go", Line: 4, Column: 1}, "in kernel add"))
	return bag
}

func TestPathModes(t *testing.T) {
	tests := []struct {
		name string
		mode PathMode
		want string
	}{
		{"absolute", PathModeAbsolute, "/home/user/proj/kernels/add.go:5:9"},
		{"relative", PathModeRelative, "kernels/add.go:5:9"},
		{"basename", PathModeBasename, "add.go:5:9"},
		{"auto", PathModeAuto, "kernels/add.go:5:9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, sampleBag(), nil, PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/proj"})
			out := buf.String()
			if !strings.HasPrefix(out, tt.want+": ") {
				t.Fatalf("expected prefix %q, got:\n%s", tt.want, out)
			}
			for _, part := range []string{"ERROR", "LOW3001", "undefined name b", "(in add)"} {
				if !strings.Contains(out, part) {
					t.Fatalf("missing %q in:\n%s", part, out)
				}
			}
		})
	}
}

func TestPrettySnippetCaret(t *testing.T) {
	src := MapSource{"/home/user/proj/kernels/add.go": []byte(kernelSrc)}
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), src, PrettyOpts{PathMode: PathModeBasename})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, source and caret lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[1] != "5 |     return b" {
		t.Fatalf("unexpected source line %q", lines[1])
	}
	// tab expands to four columns, "return " adds seven more
	if lines[2] != "  |            ^" {
		t.Fatalf("unexpected caret line %q", lines[2])
	}
}

func TestPrettyContextAndNotes(t *testing.T) {
	src := MapSource{"/home/user/proj/kernels/add.go": []byte(kernelSrc)}
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), src, PrettyOpts{PathMode: PathModeBasename, Context: 1, ShowNotes: true})
	out := buf.String()
	for _, part := range []string{"4 | func add(a int) int {", "6 | }", "note: add.go:4:1: in kernel add"} {
		if !strings.Contains(out, part) {
			t.Fatalf("missing %q in:\n%s", part, out)
		}
	}
}

func TestPrettyNotesHiddenByDefault(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), nil, PrettyOpts{})
	if strings.Contains(buf.String(), "note:") {
		t.Fatalf("notes printed without ShowNotes:\n%s", buf.String())
	}
}

func TestPrettyWidth(t *testing.T) {
	src := MapSource{"k.go": []byte("x := aVeryLongIdentifierName + anotherOne\n")}
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.UndefinedName, token.Position{Filename: "k.go", Line: 1, Column: 6}, "undefined"))
	var buf bytes.Buffer
	Pretty(&buf, bag, src, PrettyOpts{Width: 10})
	if !strings.Contains(buf.String(), "1 | x := aVer…") {
		t.Fatalf("line not truncated:\n%s", buf.String())
	}
}

func TestCaretColumnWide(t *testing.T) {
	if got := caretColumn("界x", 4); got != 2 {
		t.Fatalf("caretColumn = %d, want 2", got)
	}
	if got := caretColumn("abc", 0); got != 0 {
		t.Fatalf("caretColumn = %d, want 0", got)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: PathModeRelative, BaseDir: "/home/user/proj"}
	if err := JSON(&buf, sampleBag(), opts); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("unexpected count: %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "LOW3001" || d.Severity != "ERROR" || d.Unit != "add" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Location.File != "kernels/add.go" || d.Location.Line != 5 || d.Location.Column != 9 {
		t.Fatalf("unexpected location %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location == nil || d.Notes[0].Location.Line != 4 {
		t.Fatalf("unexpected notes %+v", d.Notes)
	}
}

func TestJSONMaxAndPositions(t *testing.T) {
	bag := diag.NewBag(10)
	for i := 1; i <= 3; i++ {
		bag.Add(diag.NewError(diag.UnsupportedConstruct, token.Position{Filename: "a.go", Line: i, Column: 1}, "unsupported"))
	}
	out := BuildDiagnosticsOutput(bag, JSONOpts{Max: 2})
	if out.Count != 2 {
		t.Fatalf("Count = %d, want 2", out.Count)
	}
	if out.Diagnostics[0].Location.Line != 0 {
		t.Fatalf("line reported without IncludePositions")
	}
	if out.Diagnostics[0].Notes != nil {
		t.Fatalf("notes reported without IncludeNotes")
	}
}
