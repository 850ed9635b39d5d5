package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/event"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/metrics"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/tracing"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/tracker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

// Pipeline feeds the tracker from a single serialized event stream. One
// goroutine, one event at a time: settlement and finalization state is
// not safe under interleaving, so ordering is enforced here rather than
// inside the tracker.
type Pipeline struct {
	network string
	eventCh <-chan event.Event
	tracker *tracker.Tracker
	health  *Health
	logger  *slog.Logger
}

func New(network string, eventCh <-chan event.Event, trk *tracker.Tracker, health *Health, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		network: network,
		eventCh: eventCh,
		tracker: trk,
		health:  health,
		logger:  logger.With("component", "pipeline", "network", network),
	}
}

// Run consumes events until the channel closes or ctx is cancelled.
// Handler errors are fail-fast: the error is returned so the errgroup
// tears down the process instead of continuing from inconsistent state.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping")
			return ctx.Err()
		case ev, ok := <-p.eventCh:
			if !ok {
				p.logger.Info("event stream closed")
				return nil
			}
			if err := p.handle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) handle(ctx context.Context, ev event.Event) error {
	kind := string(ev.Kind)
	spanCtx, span := tracing.Tracer("pipeline").Start(ctx, "pipeline.handleEvent",
		otelTrace.WithAttributes(
			attribute.String("network", p.network),
			attribute.String("kind", kind),
		),
	)
	defer span.End()

	start := time.Now()
	err := p.tracker.Handle(spanCtx, ev)
	metrics.PipelineEventLatency.WithLabelValues(p.network, kind).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.PipelineEventErrors.WithLabelValues(p.network, kind).Inc()
		if p.health != nil {
			p.health.RecordError(err)
		}
		p.logger.Error("event handling failed", "kind", kind, "error", err)
		return fmt.Errorf("handle %s event: %w", kind, err)
	}

	metrics.PipelineEventsTotal.WithLabelValues(p.network, kind).Inc()
	if p.health != nil {
		p.health.RecordEvent()
	}
	return nil
}
