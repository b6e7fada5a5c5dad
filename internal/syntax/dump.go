package syntax

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"
)

// Dumper renders a structural view of a node for error messages. A nil
// Dumper means no dump is available.
type Dumper func(n ast.Node) (string, error)

// TreeDumper returns a Dumper backed by ast.Fprint. Nil fields are omitted to
// keep the output short.
func TreeDumper(fset *token.FileSet) Dumper {
	return func(n ast.Node) (string, error) {
		var sb strings.Builder
		if err := ast.Fprint(&sb, fset, n, ast.NotNilFilter); err != nil {
			return "", err
		}
		return strings.TrimRight(sb.String(), "\n"), nil
	}
}

// SafeDump runs d and swallows any failure, including a panic inside the
// dumper. The second result is false when no dump could be produced.
func SafeDump(d Dumper, n ast.Node) (out string, ok bool) {
	if d == nil || n == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			out, ok = "", false
		}
	}()
	s, err := d(n)
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

// Describe names a node for diagnostics, e.g. "*ast.GoStmt".
func Describe(n ast.Node) string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", n)
}
