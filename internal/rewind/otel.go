package rewind

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ghostreplay/rewind/internal/rewind"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
