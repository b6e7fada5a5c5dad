package diag

import (
	"go/token"
)

type Note struct {
	Pos token.Position
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  token.Position
	Unit     string // kernel or function the diagnostic belongs to
	Notes    []Note
}

func New(sev Severity, code Code, primary token.Position, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary token.Position, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(pos token.Position, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Pos: pos, Msg: msg})
	return d
}
