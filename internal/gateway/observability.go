package gateway

import (
	"context"
	"log/slog"
	"time"
)

// CallEvent captures one gateway call.
type CallEvent struct {
	Op        string
	Duration  time.Duration
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// CallObserver receives gateway call events.
type CallObserver interface {
	ObserveCall(ctx context.Context, event CallEvent)
}

// NoopCallObserver ignores all events.
type NoopCallObserver struct{}

func (NoopCallObserver) ObserveCall(context.Context, CallEvent) {}

type logCallObserver struct {
	logger *slog.Logger
}

// NewLogCallObserver logs successful calls at Debug and failures at Error.
func NewLogCallObserver(logger *slog.Logger) CallObserver {
	if logger == nil {
		return NoopCallObserver{}
	}
	return &logCallObserver{logger: logger}
}

func (o *logCallObserver) ObserveCall(ctx context.Context, event CallEvent) {
	attrs := make([]any, 0, 6+len(event.Fields)*2)
	attrs = append(attrs,
		"op", event.Op,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Err == nil,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		attrs = append(attrs, "kind", string(KindOf(event.Err)), "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "gateway_call", attrs...)
		return
	}
	o.logger.DebugContext(ctx, "gateway_call", attrs...)
}
