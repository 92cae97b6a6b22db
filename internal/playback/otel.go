package playback

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ghostreplay/rewind/internal/playback"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	sessions      metric.Int64Counter
	ghostsSpawned metric.Int64Counter
	framesApplied metric.Int64Counter
	targets       metric.Int64ObservableGauge

	// read by the gauge callback
	targetCount atomic.Int64
}

func newMetrics() (*metrics, error) {
	m := meter()
	pm := &metrics{}

	var err error

	pm.sessions, err = m.Int64Counter(
		"playback.sessions",
		metric.WithDescription("Playback sessions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}

	pm.ghostsSpawned, err = m.Int64Counter(
		"playback.ghosts.spawned",
		metric.WithDescription("Ghost duplicates spawned for exclusive actors"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ghosts counter: %w", err)
	}

	pm.framesApplied, err = m.Int64Counter(
		"playback.frames.applied",
		metric.WithDescription("Clip frames applied to bound targets"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	pm.targets, err = m.Int64ObservableGauge(
		"playback.targets",
		metric.WithDescription("Currently bound playback targets"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating targets gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(pm.targets, pm.targetCount.Load())
			return nil
		},
		pm.targets,
	)
	if err != nil {
		return nil, fmt.Errorf("registering targets callback: %w", err)
	}

	return pm, nil
}
