package rewind

import (
	"context"
	"time"

	"github.com/ghostreplay/rewind/internal/dispatcher"
	"github.com/ghostreplay/rewind/internal/playback"
)

// Session commands.
const (
	CmdRecStart     = ":REC:START:"
	CmdRecStop      = ":REC:STOP:"
	CmdRecReset     = ":REC:RESET:"
	CmdPlayLast     = ":PLAY:LAST:"
	CmdPlayStop     = ":PLAY:STOP:"
	CmdRewindToggle = ":REWIND:TOGGLE:"
)

// Drainer runs commands deferred to the fixed tick.
type Drainer interface {
	Drain(ctx context.Context) int
}

// RegisterHandlers wires the session commands into d. They are deferred so
// they run at the start of the next FixedUpdate, on the simulation
// goroutine, in the order they were dispatched.
func (c *Controller) RegisterHandlers(d *dispatcher.Dispatcher) {
	c.mu.Lock()
	c.deferred = d
	c.mu.Unlock()

	opts := []dispatcher.Option{dispatcher.Deferred(), dispatcher.Logged()}

	d.Register(CmdRecStart, func(e dispatcher.Event) (any, error) {
		return nil, c.StartRecording()
	}, opts...)

	d.Register(CmdRecStop, func(e dispatcher.Event) (any, error) {
		c.StopRecording()
		return nil, nil
	}, opts...)

	d.Register(CmdRecReset, func(e dispatcher.Event) (any, error) {
		c.ResetRecording()
		return nil, nil
	}, opts...)

	// optional first arg overrides the frame-0 hold, e.g. "500ms"
	d.Register(CmdPlayLast, func(e dispatcher.Event) (any, error) {
		if len(e.Args) > 0 && e.Args[0] != "" {
			hold, err := time.ParseDuration(e.Args[0])
			if err != nil {
				return nil, err
			}
			return nil, c.PlayLastClip(playback.WithHold(hold))
		}
		return nil, c.PlayLastClip()
	}, opts...)

	d.Register(CmdPlayStop, func(e dispatcher.Event) (any, error) {
		c.StopPlayback()
		return nil, nil
	}, opts...)

	d.Register(CmdRewindToggle, func(e dispatcher.Event) (any, error) {
		return c.Toggle().String(), nil
	}, opts...)
}
