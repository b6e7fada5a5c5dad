package ui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"weft/internal/driver"
)

// RunProgress shows the progress view while work runs, feeding it the
// events work reports. It returns work's error once both have finished.
func RunProgress(ctx context.Context, out io.Writer, title string, units []string, work func(driver.ProgressSink) error) error {
	events := make(chan driver.Event, 64)
	program := tea.NewProgram(NewProgressModel(title, units, events), tea.WithOutput(out), tea.WithContext(ctx), tea.WithInput(nil))

	errc := make(chan error, 1)
	go func() {
		defer close(events)
		errc <- work(driver.ChannelSink(events))
	}()

	_, uiErr := program.Run()
	workErr := <-errc
	if workErr != nil {
		return workErr
	}
	return uiErr
}
