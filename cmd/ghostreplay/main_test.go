package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostreplay/rewind/internal/config"
	"github.com/ghostreplay/rewind/internal/dispatcher"
	"github.com/ghostreplay/rewind/internal/monitor"
	"github.com/ghostreplay/rewind/internal/playback"
	"github.com/ghostreplay/rewind/internal/recorder"
	"github.com/ghostreplay/rewind/internal/rewind"
)

func setup(t *testing.T, toggleHold time.Duration) (*level, *rewind.Controller, *dispatcher.Dispatcher) {
	t.Helper()
	t.Cleanup(viper.Reset)
	config.SetDefaults()
	viper.Set("rewind.toggleHold", toggleHold)

	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	lv := buildLevel()
	rec, err := recorder.New(recorder.Dependencies{Scene: lv.world, Config: config.GetRecordingConfig(), Logger: Logger})
	require.NoError(t, err)
	play, err := playback.New(playback.Dependencies{Scene: lv.world, Source: rec, Config: config.GetPlaybackConfig(), Logger: Logger})
	require.NoError(t, err)
	ctrl, err := rewind.New(rewind.Dependencies{Recorder: rec, Playback: play, Config: config.GetRewindConfig(), Logger: Logger})
	require.NoError(t, err)

	d, err := dispatcher.New(Logger, commandQueueSize)
	require.NoError(t, err)
	ctrl.RegisterHandlers(d)
	monitor.NewService(monitor.Dependencies{Source: ctrl}).RegisterHandler(d)

	return lv, ctrl, d
}

func decodeReports(t *testing.T, out []byte) []monitor.Report {
	t.Helper()
	var reports []monitor.Report
	dec := json.NewDecoder(bytes.NewReader(out))
	for {
		var r monitor.Report
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			return reports
		}
		require.NoError(t, err)
		reports = append(reports, r)
	}
}

func TestBuildLevel(t *testing.T) {
	lv := buildLevel()

	assert.Len(t, lv.world.Recordables(), 3)
	assert.Len(t, lv.enemies, 2)
	assert.Equal(t, "EnemyA", lv.enemies[0].Name())
	assert.Equal(t, "EnemyB", lv.enemies[1].Name())
	assert.Len(t, lv.world.FindByTag("Player"), 1)
}

func TestSimulate_RecordsThenRewinds(t *testing.T) {
	lv, ctrl, d := setup(t, 100*time.Millisecond)

	orig := *ticks
	*ticks = 60
	t.Cleanup(func() { *ticks = orig })

	var out bytes.Buffer
	require.NoError(t, simulate(context.Background(), lv, ctrl, d, &out))

	reports := decodeReports(t, out.Bytes())
	// ticks 0, 25 and 50, then the final report
	require.Len(t, reports, 4)

	assert.True(t, reports[0].Recording)
	assert.False(t, reports[0].Playing)

	assert.True(t, reports[1].Recording)
	assert.Equal(t, 26, reports[1].FramesSampled)

	during := reports[2]
	assert.Equal(t, "rewind", during.Mode)
	assert.True(t, during.Playing)
	assert.False(t, during.Recording)
	assert.Equal(t, 16, during.FrameIndex)
	assert.GreaterOrEqual(t, during.TargetCount, 1)
	require.NotNil(t, during.LastClip)
	assert.Equal(t, 30, during.LastClip.Frames)
	assert.Equal(t, 3, during.LastClip.Entities)

	final := reports[3]
	assert.False(t, final.Playing)
	require.NotNil(t, final.LastClip)
	assert.Equal(t, 30, final.LastClip.Frames)

	assert.Empty(t, lv.world.FindByTag(config.GetPlaybackConfig().GhostTag), "ghost is destroyed on stop")
}

func TestSimulate_StopsOnCancel(t *testing.T) {
	lv, ctrl, d := setup(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := simulate(ctx, lv, ctrl, d, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}
