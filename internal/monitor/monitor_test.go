package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostreplay/rewind/internal/dispatcher"
	"github.com/ghostreplay/rewind/internal/rewind"
)

type fakeSource struct {
	mu   sync.Mutex
	snap rewind.Snapshot
}

func (f *fakeSource) Snapshot() rewind.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) set(s rewind.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
}

func TestStatus_JSON(t *testing.T) {
	src := &fakeSource{snap: rewind.Snapshot{
		Mode:          "rewind",
		Playing:       true,
		Holding:       true,
		FramesSampled: 12,
		FrameIndex:    3,
		TargetCount:   2,
		LastClip:      &rewind.ClipSummary{Frames: 50, Entities: 2, DurationMs: 980},
	}}
	s := NewService(Dependencies{Source: src})

	out, err := s.Status()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "rewind", got["mode"])
	assert.Equal(t, true, got["playing"])
	assert.Equal(t, true, got["holding"])
	assert.Equal(t, false, got["recording"])
	assert.InDelta(t, 12, got["framesSampled"], 0)
	assert.InDelta(t, 3, got["frameIndex"], 0)
	assert.InDelta(t, 2, got["targetCount"], 0)
	assert.Contains(t, got, "time")

	last, ok := got["lastClip"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 980, last["durationMs"], 0)
}

func TestStatus_NoClipOmitted(t *testing.T) {
	s := NewService(Dependencies{Source: &fakeSource{}})

	out, err := s.Status()
	require.NoError(t, err)
	assert.NotContains(t, out, "lastClip")
}

func TestRegisterHandler_Synchronous(t *testing.T) {
	d, err := dispatcher.New(nil, 0)
	require.NoError(t, err)

	s := NewService(Dependencies{Source: &fakeSource{snap: rewind.Snapshot{Recording: true}}})
	s.RegisterHandler(d)

	result, err := d.Dispatch(dispatcher.Event{Command: CmdStatus})
	require.NoError(t, err)
	assert.Contains(t, result, `"recording": true`)
	assert.Zero(t, d.Pending())
}

func TestStart_WritesStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	src := &fakeSource{snap: rewind.Snapshot{Mode: "normal", FramesSampled: 1}}

	s := NewService(Dependencies{Source: src, StatusPath: path, Interval: 5 * time.Millisecond})
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(), "second start is a no-op")

	src.set(rewind.Snapshot{Mode: "normal", FramesSampled: 7})
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && json.Valid(data) && containsFrames(data, 7)
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStop_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{Source: &fakeSource{}, StatusPath: path, Interval: time.Millisecond})
	require.NoError(t, s.Start())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotPanics(t, s.Stop)
		}()
	}
	wg.Wait()

	assert.False(t, s.IsRunning())
	require.NoError(t, s.Start(), "restart after stop")
	assert.True(t, s.IsRunning())
	s.Stop()
}

func TestStart_WithoutPath(t *testing.T) {
	s := NewService(Dependencies{Source: &fakeSource{}})
	require.NoError(t, s.Start())
	assert.False(t, s.IsRunning())
	s.Stop()
}

func containsFrames(data []byte, n float64) bool {
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		return false
	}
	return got["framesSampled"] == n
}
