package diag

import (
	"errors"
	"fmt"
	"go/token"
	"strings"
)

// Error is the single error kind raised by the front end for contract
// violations found while translating a kernel. It travels unchanged through
// the recursive traversal and is converted to a Diagnostic at the driver.
type Error struct {
	Code  Code
	Pos   token.Pos
	Msg   string
	Notes []string
}

// Errorf builds an *Error anchored at pos.
func Errorf(code Code, pos token.Pos, format string, args ...any) *Error {
	return &Error{Code: code, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString(e.Code.ID())
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	for _, n := range e.Notes {
		sb.WriteString("\n")
		sb.WriteString(n)
	}
	return sb.String()
}

// WithNote attaches an extra line of context.
func (e *Error) WithNote(format string, args ...any) *Error {
	if e == nil {
		return nil
	}
	e.Notes = append(e.Notes, fmt.Sprintf(format, args...))
	return e
}

// At fills Pos when the error was raised without a position.
func (e *Error) At(pos token.Pos) *Error {
	if e != nil && !e.Pos.IsValid() {
		e.Pos = pos
	}
	return e
}

// Diagnostic converts the error into a reportable record using fset to
// resolve its position.
func (e *Error) Diagnostic(fset *token.FileSet) Diagnostic {
	var primary token.Position
	if fset != nil && e.Pos.IsValid() {
		primary = fset.Position(e.Pos)
	}
	d := NewError(e.Code, primary, e.Msg)
	for _, n := range e.Notes {
		d = d.WithNote(primary, n)
	}
	return d
}

// CodeOf reports the Code carried by err, or UnknownCode.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return UnknownCode
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
