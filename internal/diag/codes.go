package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Structural errors raised by the dispatch and scope bookkeeping core.
	SynInfo              Code = 2000
	UnsupportedConstruct Code = 2001
	DuplicateDeclaration Code = 2002
	ShadowedLoopVariable Code = 2003
	ScopeMismatch        Code = 2004
	SynParseError        Code = 2005

	// Translation errors raised by the kernel lowerers.
	LowInfo             Code = 3000
	UndefinedName       Code = 3001
	InvalidAssignTarget Code = 3002
	BranchOutsideLoop   Code = 3003
	StaticRangeBound    Code = 3004
	ExcludedParameter   Code = 3005
	ReturnMismatch      Code = 3006
	UnsupportedOperator Code = 3007
	UnknownBuiltin      Code = 3008
	ArgumentMismatch    Code = 3009
	RuntimeStaticBranch Code = 3010

	// I/O and project
	IOLoadFileError   Code = 4001
	ProjInfo          Code = 5000
	ProjBadManifest   Code = 5001
	ProjUnknownKernel Code = 5002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:          "Unknown error",
	SynInfo:              "Syntax information",
	UnsupportedConstruct: "Unsupported construct",
	DuplicateDeclaration: "Variable redeclared in the same scope",
	ShadowedLoopVariable: "Loop variable shadows an outer variable",
	ScopeMismatch:        "Unbalanced scope exit",
	SynParseError:        "Go syntax error",
	LowInfo:              "Lowering information",
	UndefinedName:        "Undefined name",
	InvalidAssignTarget:  "Invalid assignment target",
	BranchOutsideLoop:    "break or continue outside a loop",
	StaticRangeBound:     "Static range bound is not a compile-time constant",
	ExcludedParameter:    "Excluded parameter has no compile-time value",
	ReturnMismatch:       "Return value count mismatch",
	UnsupportedOperator:  "Unsupported operator",
	UnknownBuiltin:       "Unknown builtin",
	ArgumentMismatch:     "Argument count mismatch",
	RuntimeStaticBranch:  "break or continue of an unrolled loop under a runtime condition",
	IOLoadFileError:      "I/O load file error",
	ProjInfo:             "Project information",
	ProjBadManifest:      "Invalid project manifest",
	ProjUnknownKernel:    "Manifest names an unknown kernel",
	ObsInfo:              "Observability information",
	ObsTimings:           "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
