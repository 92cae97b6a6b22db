package rewind

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostreplay/rewind/internal/config"
	"github.com/ghostreplay/rewind/internal/dispatcher"
	"github.com/ghostreplay/rewind/internal/playback"
	"github.com/ghostreplay/rewind/internal/recorder"
	"github.com/ghostreplay/rewind/internal/scene"
)

const step = 20 * time.Millisecond

type fixture struct {
	world  *scene.World
	player *scene.Actor
	ctrl   *Controller
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, exclusive bool) *fixture {
	t.Helper()
	w := scene.NewWorld(640, 480)
	player := w.Spawn(scene.ActorDef{
		Name:       "Player",
		Tag:        "Player",
		Animator:   true,
		Sprite:     true,
		Recordable: true,
		EntityID:   "player",
		Exclusive:  true,
	})

	logger := discardLogger()
	rec, err := recorder.New(recorder.Dependencies{
		Scene:  w,
		Config: config.RecordingConfig{FixedDelta: step, SampleInFixedUpdate: true},
		Logger: logger,
	})
	require.NoError(t, err)

	play, err := playback.New(playback.Dependencies{
		Scene:  w,
		Source: rec,
		Config: config.PlaybackConfig{
			DestroyGhostOnStop: true,
			GhostTag:           "PlayerGhost",
			GhostSuffix:        "_Ghost",
		},
		Logger: logger,
	})
	require.NoError(t, err)

	ctrl, err := New(Dependencies{
		Recorder: rec,
		Playback: play,
		Config:   config.RewindConfig{ExclusiveSessions: exclusive, ToggleHold: 2 * step},
		Logger:   logger,
	})
	require.NoError(t, err)

	return &fixture{world: w, player: player, ctrl: ctrl}
}

// walk moves the player one unit per tick
func (f *fixture) walk(t *testing.T, ticks int) {
	t.Helper()
	for i := range ticks {
		f.player.Transform().SetPosition(mgl64.Vec3{float64(i), 0, 0})
		require.NoError(t, f.ctrl.FixedUpdate(context.Background(), step))
	}
}

func (f *fixture) tick(t *testing.T, ticks int) {
	t.Helper()
	for range ticks {
		require.NoError(t, f.ctrl.FixedUpdate(context.Background(), step))
	}
}

func (f *fixture) ghosts() []*scene.Actor {
	return f.world.FindByTag("PlayerGhost")
}

func TestNew_RequiresSystems(t *testing.T) {
	_, err := New(Dependencies{})
	assert.Error(t, err)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "normal", ModeNormal.String())
	assert.Equal(t, "rewind", ModeRewind.String())
}

func TestToggle_RewindReplaysAndResumes(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.ctrl.StartRecording())
	f.walk(t, 5)

	assert.Equal(t, ModeRewind, f.ctrl.Toggle())
	assert.Equal(t, ModeRewind, f.ctrl.Mode())

	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Recording)
	assert.True(t, snap.Playing)
	assert.True(t, snap.Holding)
	assert.Equal(t, 1, snap.TargetCount)
	require.NotNil(t, snap.LastClip)
	assert.Equal(t, 5, snap.LastClip.Frames)
	assert.Equal(t, int64(80), snap.LastClip.DurationMs)

	ghosts := f.ghosts()
	require.Len(t, ghosts, 1)
	ghost := ghosts[0]
	assert.Equal(t, "Player_Ghost", ghost.Name())
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, ghost.Transform().Position())
	assert.Equal(t, mgl64.Vec3{4, 0, 0}, f.player.Transform().Position(), "original stays where it is")

	// two ticks of hold, then one frame per tick
	f.tick(t, 2)
	assert.Equal(t, 0, f.ctrl.Snapshot().FrameIndex)
	assert.False(t, f.ctrl.Snapshot().Holding)

	f.tick(t, 2)
	assert.Equal(t, 2, f.ctrl.Snapshot().FrameIndex)
	assert.Equal(t, mgl64.Vec3{2, 0, 0}, ghost.Transform().Position())

	f.tick(t, 3)
	snap = f.ctrl.Snapshot()
	assert.Equal(t, ModeNormal, f.ctrl.Mode())
	assert.False(t, snap.Playing)
	assert.True(t, snap.Recording, "a fresh recording starts after the rewind")
	assert.Nil(t, snap.LastClip)
	assert.Empty(t, f.ghosts())
}

func TestToggle_BackEarly(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.ctrl.StartRecording())
	f.walk(t, 5)
	require.Equal(t, ModeRewind, f.ctrl.Toggle())
	f.tick(t, 3)

	assert.Equal(t, ModeNormal, f.ctrl.Toggle())
	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Playing)
	assert.True(t, snap.Recording)
	assert.Zero(t, snap.FramesSampled)
	assert.Empty(t, f.ghosts())
}

func TestToggle_NothingToRewind(t *testing.T) {
	f := newFixture(t, true)

	assert.Equal(t, ModeNormal, f.ctrl.Toggle())
	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Playing)
	assert.True(t, snap.Recording)
}

func TestToggle_EmptyRecordingIsNotReplayed(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.ctrl.StartRecording())
	f.walk(t, 5)

	// in and out of rewind without a tick leaves a fresh, frameless recording
	require.Equal(t, ModeRewind, f.ctrl.Toggle())
	require.Equal(t, ModeNormal, f.ctrl.Toggle())

	assert.Equal(t, ModeNormal, f.ctrl.Toggle())
	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Playing)
	assert.True(t, snap.Recording)
	assert.Empty(t, f.ghosts())
	assert.Equal(t, mgl64.Vec3{4, 0, 0}, f.player.Transform().Position())

	assert.ErrorIs(t, f.ctrl.PlayLastClip(), ErrNoClip)
}

func TestExclusiveSessions(t *testing.T) {
	f := newFixture(t, true)

	assert.ErrorIs(t, f.ctrl.PlayLastClip(), ErrNoClip)

	require.NoError(t, f.ctrl.StartRecording())
	f.walk(t, 3)

	require.NoError(t, f.ctrl.PlayLastClip())
	snap := f.ctrl.Snapshot()
	assert.False(t, snap.Recording, "recording stops before playback")
	assert.True(t, snap.Playing)
	assert.Equal(t, 3, snap.LastClip.Frames)

	assert.ErrorIs(t, f.ctrl.StartRecording(), ErrBusy)

	f.ctrl.StopPlayback()
	assert.NoError(t, f.ctrl.StartRecording())
	assert.Equal(t, ModeNormal, f.ctrl.Mode(), "explicit playback never enters rewind mode")
}

func TestSharedSessions(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, f.ctrl.StartRecording())
	f.walk(t, 3)
	f.ctrl.StopRecording()

	require.NoError(t, f.ctrl.PlayLastClip())
	require.NoError(t, f.ctrl.StartRecording())

	snap := f.ctrl.Snapshot()
	assert.True(t, snap.Recording)
	assert.True(t, snap.Playing)

	f.tick(t, 1)
	assert.Equal(t, 1, f.ctrl.Snapshot().FramesSampled)
	assert.Equal(t, 1, f.ctrl.Snapshot().FrameIndex)
}

func TestFixedUpdate_ReportsAbortedRecording(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.ctrl.StartRecording())
	f.tick(t, 1)
	f.player.Recordable().ForceSetID("renamed")

	err := f.ctrl.FixedUpdate(context.Background(), step)
	assert.ErrorIs(t, err, recorder.ErrAborted)
	assert.False(t, f.ctrl.Snapshot().Recording)
}

func TestLogContext(t *testing.T) {
	f := newFixture(t, true)

	attrs := f.ctrl.LogContext()
	require.Len(t, attrs, 3)
	assert.Equal(t, "recording", attrs[0].Key)
	assert.False(t, attrs[0].Value.Bool())

	require.NoError(t, f.ctrl.StartRecording())
	attrs = f.ctrl.LogContext()
	assert.True(t, attrs[0].Value.Bool())
	assert.False(t, attrs[1].Value.Bool())
	assert.Equal(t, "normal", attrs[2].Value.String())
}

func TestRegisterHandlers_CommandsRunOnNextTick(t *testing.T) {
	f := newFixture(t, true)
	d, err := dispatcher.New(discardLogger(), 16)
	require.NoError(t, err)
	f.ctrl.RegisterHandlers(d)

	for _, cmd := range []string{CmdRecStart, CmdRecStop, CmdRecReset, CmdPlayLast, CmdPlayStop, CmdRewindToggle} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}

	result, err := d.Dispatch(dispatcher.Event{Command: CmdRecStart})
	require.NoError(t, err)
	assert.Equal(t, dispatcher.Queued, result)
	assert.False(t, f.ctrl.Snapshot().Recording)

	f.tick(t, 1)
	assert.True(t, f.ctrl.Snapshot().Recording)
	assert.Equal(t, 1, f.ctrl.Snapshot().FramesSampled, "commands run before the tick samples")

	f.tick(t, 3)
	_, err = d.Dispatch(dispatcher.Event{Command: CmdPlayLast, Args: []string{"not-a-duration"}})
	require.NoError(t, err)
	f.tick(t, 1)
	assert.False(t, f.ctrl.Snapshot().Playing, "bad hold argument is rejected")
	assert.True(t, f.ctrl.Snapshot().Recording)

	_, err = d.Dispatch(dispatcher.Event{Command: CmdRewindToggle})
	require.NoError(t, err)
	f.tick(t, 1)
	assert.Equal(t, ModeRewind, f.ctrl.Mode())

	_, err = d.Dispatch(dispatcher.Event{Command: CmdRewindToggle})
	require.NoError(t, err)
	f.tick(t, 1)
	assert.Equal(t, ModeNormal, f.ctrl.Mode())
	assert.True(t, f.ctrl.Snapshot().Recording)
}
