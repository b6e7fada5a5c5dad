package driver

import "time"

// Stage describes where a unit is in the pipeline.
type Stage string

const (
	StageParse    Stage = "parse"
	StageDiscover Stage = "discover"
	StageLower    Stage = "lower"
	StageCache    Stage = "cache"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a unit, or for the whole run when Unit is
// empty.
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Units report concurrently, so
// implementations must be safe for concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events to a channel.
type ChannelSink chan<- Event

func (c ChannelSink) OnEvent(ev Event) { c <- ev }

func emit(s ProgressSink, ev Event) {
	if s != nil {
		s.OnEvent(ev)
	}
}
