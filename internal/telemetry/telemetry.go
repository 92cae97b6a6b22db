// Package telemetry ships recording and playback session summaries to
// InfluxDB. Clip data itself never leaves the process.
package telemetry

import (
	"context"
	"errors"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement for session summaries.
const Measurement = "rewind_session"

// Session kinds.
const (
	KindRecording = "recording"
	KindPlayback  = "playback"
)

// ErrDisabled is returned by Connect when the sink is switched off in config.
var ErrDisabled = errors.New("influx telemetry is disabled")

// Session summarises one finished recording or playback.
type Session struct {
	Kind     string
	Outcome  string
	Frames   int
	Entities int
	Ghosts   int
	Duration time.Duration
	Time     time.Time
}

// Sink receives session summaries.
type Sink interface {
	WriteSession(ctx context.Context, s Session) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) WriteSession(context.Context, Session) error { return nil }

// Point converts a session summary to an InfluxDB point.
func Point(s Session) *influxdb2_write.Point {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return influxdb2_write.NewPoint(
		Measurement,
		map[string]string{
			"kind":    s.Kind,
			"outcome": s.Outcome,
		},
		map[string]any{
			"frames":      s.Frames,
			"entities":    s.Entities,
			"ghosts":      s.Ghosts,
			"duration_ms": s.Duration.Milliseconds(),
		},
		ts,
	)
}
