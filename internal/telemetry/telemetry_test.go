package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostreplay/rewind/internal/config"
)

func TestPoint(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Point(Session{
		Kind:     KindPlayback,
		Outcome:  "finished",
		Frames:   50,
		Entities: 2,
		Ghosts:   1,
		Duration: 980 * time.Millisecond,
		Time:     at,
	})

	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, at, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"kind": "playback", "outcome": "finished"}, tags)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.EqualValues(t, 50, fields["frames"])
	assert.EqualValues(t, 980, fields["duration_ms"])
	assert.EqualValues(t, 1, fields["ghosts"])
}

func TestPoint_DefaultsTime(t *testing.T) {
	p := Point(Session{Kind: KindRecording})
	assert.False(t, p.Time().IsZero())
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Enabled: false})
	err := m.Connect(context.Background())
	require.ErrorIs(t, err, ErrDisabled)
	assert.False(t, m.IsValid)
}

func TestWriteSession_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{})
	assert.NoError(t, m.WriteSession(context.Background(), Session{Kind: KindRecording}))
	assert.NotPanics(t, m.Close)
}

func TestNop(t *testing.T) {
	var s Sink = Nop{}
	assert.NoError(t, s.WriteSession(context.Background(), Session{}))
}
