package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.log("DEBUG", msg, keysAndValues)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.log("INFO", msg, keysAndValues)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.log("ERROR", msg, keysAndValues)
}

func (l *testLogger) log(level, msg string, keysAndValues []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, keysAndValues))
}

func (l *testLogger) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

func newTestDispatcher(t *testing.T, queueSize int) (*Dispatcher, *testLogger) {
	t.Helper()
	logger := &testLogger{}

	d, err := New(logger, queueSize)
	require.NoError(t, err)

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t, 0)

	var got Event
	d.Register(":STATUS:", func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: ":STATUS:", Args: []string{"arg1"}})

	require.NoError(t, err)
	assert.Equal(t, "result", result)
	assert.Equal(t, []string{"arg1"}, got.Args)
	assert.False(t, got.Timestamp.IsZero(), "dispatch stamps events")
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t, 0)

	_, err := d.Dispatch(Event{Command: ":UNKNOWN:"})
	assert.Error(t, err)
}

func TestDispatcher_DeferredRunsOnDrain(t *testing.T) {
	d, _ := newTestDispatcher(t, 0)

	var order []string
	record := func(e Event) (any, error) {
		order = append(order, e.Command)
		return nil, nil
	}
	d.Register(":A:", record, Deferred())
	d.Register(":B:", record, Deferred())

	for _, cmd := range []string{":A:", ":B:", ":A:"} {
		result, err := d.Dispatch(Event{Command: cmd})
		require.NoError(t, err)
		assert.Equal(t, Queued, result)
	}

	assert.Empty(t, order, "nothing runs before drain")
	assert.Equal(t, 3, d.Pending())

	n := d.Drain(context.Background())
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{":A:", ":B:", ":A:"}, order)
	assert.Zero(t, d.Pending())
	assert.Zero(t, d.Drain(context.Background()))
}

func TestDispatcher_DeferredDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t, 2)

	d.Register(":FULL:", func(e Event) (any, error) { return nil, nil }, Deferred())

	_, err := d.Dispatch(Event{Command: ":FULL:"})
	require.NoError(t, err)
	_, err = d.Dispatch(Event{Command: ":FULL:"})
	require.NoError(t, err)

	_, err = d.Dispatch(Event{Command: ":FULL:"})
	assert.ErrorContains(t, err, "queue full")
	assert.Equal(t, 2, d.Drain(context.Background()))
}

func TestDispatcher_DeferredDispatchedDuringDrainWaits(t *testing.T) {
	d, _ := newTestDispatcher(t, 0)

	runs := 0
	d.Register(":CHAIN:", func(e Event) (any, error) {
		runs++
		if runs == 1 {
			_, err := d.Dispatch(Event{Command: ":CHAIN:"})
			return nil, err
		}
		return nil, nil
	}, Deferred())

	_, err := d.Dispatch(Event{Command: ":CHAIN:"})
	require.NoError(t, err)

	assert.Equal(t, 1, d.Drain(context.Background()))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, d.Pending())

	d.Drain(context.Background())
	assert.Equal(t, 2, runs)
}

func TestDispatcher_DeferredErrorIsLogged(t *testing.T) {
	d, logger := newTestDispatcher(t, 0)

	d.Register(":BAD:", func(e Event) (any, error) {
		return nil, errors.New("boom")
	}, Deferred())

	_, err := d.Dispatch(Event{Command: ":BAD:"})
	require.NoError(t, err, "error surfaces on drain, not dispatch")

	d.Drain(context.Background())
	assert.Equal(t, 1, logger.count("ERROR"))
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t, 0)

	d.Register(":LOGGED:", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	_, err := d.Dispatch(Event{Command: ":LOGGED:", Args: []string{"a", "b"}})
	require.NoError(t, err)

	assert.Equal(t, 2, logger.count("DEBUG"))
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t, 0)

	d.Register(":ERROR:", func(e Event) (any, error) {
		return nil, fmt.Errorf("test error")
	}, Logged())

	_, err := d.Dispatch(Event{Command: ":ERROR:"})
	require.Error(t, err)

	assert.Equal(t, 1, logger.count("ERROR"))
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t, 0)

	d.Register(":EXISTS:", func(e Event) (any, error) { return nil, nil })

	assert.True(t, d.HasHandler(":EXISTS:"))
	assert.False(t, d.HasHandler(":NOT_EXISTS:"))
}

func TestDispatcher_CombinedOptions(t *testing.T) {
	d, logger := newTestDispatcher(t, 0)

	processed := 0
	d.Register(":COMBINED:", func(e Event) (any, error) {
		processed++
		return "done", nil
	}, Deferred(), Logged())

	result, err := d.Dispatch(Event{Command: ":COMBINED:", Timestamp: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, Queued, result)
	assert.Zero(t, logger.count("DEBUG"), "logging happens when the command runs")

	d.Drain(context.Background())
	assert.Equal(t, 1, processed)
	assert.Equal(t, 2, logger.count("DEBUG"))
}
