package control

// Status is the break/continue state of the innermost loop.
type Status uint8

const (
	// Normal is the default status and the sentinel returned outside any loop.
	Normal Status = iota
	// Break asks the enclosing loop to stop.
	Break
	// Continue asks the enclosing loop to skip to its next iteration.
	Continue
)

func (s Status) String() string {
	switch s {
	case Normal:
		return "normal"
	case Break:
		return "break"
	case Continue:
		return "continue"
	default:
		return "unknown"
	}
}
