package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ghostreplay/rewind/internal/queue"
)

// Event is a command addressed to the rewind engine.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Queued is the result of dispatching to a deferred handler.
const Queued = "queued"

// Option configures handler registration.
type Option func(*config)

type config struct {
	deferred bool
	logged   bool
}

// Deferred makes the handler run on the next Drain instead of inside
// Dispatch. Deferred events from all commands share one queue and run in
// dispatch order.
func Deferred() Option {
	return func(c *config) {
		c.deferred = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type pending struct {
	event   Event
	handler HandlerFunc
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger
	pending  *queue.Queue[pending]

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	deferred  metric.Int64Counter
	dropped   metric.Int64Counter
}

// New creates a new Dispatcher with the given logger. queueSize bounds the
// deferred queue; zero or less leaves it unbounded.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, queueSize int) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
		pending:  queue.New[pending](),
	}
	if queueSize > 0 {
		d.pending = queue.NewBounded[pending](queueSize)
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of deferred commands"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(d.queueSize, int64(d.pending.Len()))
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.commands.processed",
		metric.WithDescription("Total commands processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.deferred, err = m.Int64Counter(
		"dispatcher.commands.deferred",
		metric.WithDescription("Total commands queued for the next drain"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating deferred counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.commands.dropped",
		metric.WithDescription("Total commands dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	if cfg.deferred {
		handler = d.withDefer(command, handler)
	}

	d.handlers[command] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

// Pending is the number of deferred commands waiting for Drain.
func (d *Dispatcher) Pending() int {
	return d.pending.Len()
}

// Drain runs every deferred command queued so far, in dispatch order, on
// the calling goroutine. Handler errors are logged. It returns the number
// of commands run.
func (d *Dispatcher) Drain(ctx context.Context) int {
	items := d.pending.Drain()
	for _, p := range items {
		if _, err := p.handler(p.event); err != nil {
			d.logger.Error("deferred command failed", "command", p.event.Command, "error", err)
		}
		d.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("command", p.event.Command)))
	}
	return len(items)
}

func (d *Dispatcher) withDefer(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := attribute.String("command", command)

	return func(e Event) (any, error) {
		if !d.pending.Push(pending{event: e, handler: h}) {
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
			return nil, fmt.Errorf("queue full: %s", command)
		}
		d.deferred.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
		return Queued, nil
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling command", "command", command, "args", len(e.Args), "queuedFor", start.Sub(e.Timestamp))

		result, err := h(e)

		if err != nil {
			d.logger.Error("command failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("command complete", "command", command, "duration", time.Since(start))
		}

		return result, err
	}
}
