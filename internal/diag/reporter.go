package diag

import "go/token"

// Reporter is the minimal contract for receiving diagnostics from the driver.
// Implementations: BagReporter (stores into a Bag) and DedupReporter (filters repeats).
type Reporter interface {
	Report(code Code, sev Severity, primary token.Position, msg string, notes []Note)
}

// ReportError forwards an error-severity diagnostic to r.
func ReportError(r Reporter, code Code, primary token.Position, msg string) {
	if r == nil {
		return
	}
	r.Report(code, SevError, primary, msg, nil)
}

// ReportWarning forwards a warning-severity diagnostic to r.
func ReportWarning(r Reporter, code Code, primary token.Position, msg string) {
	if r == nil {
		return
	}
	r.Report(code, SevWarning, primary, msg, nil)
}

// BagReporter writes into *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary token.Position, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Primary: primary, Notes: notes,
	})
}
