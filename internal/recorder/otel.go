package recorder

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ghostreplay/rewind/internal/recorder"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	framesSampled metric.Int64Counter
	sessions      metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()

	framesSampled, err := m.Int64Counter(
		"recording.frames.sampled",
		metric.WithDescription("Total frames sampled into recordings"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	sessions, err := m.Int64Counter(
		"recording.sessions",
		metric.WithDescription("Recording sessions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}

	return &metrics{framesSampled: framesSampled, sessions: sessions}, nil
}
