package pipeline

import (
	"context"
	"time"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/log"
)

type StateUpdater interface {
	PipelineStateUpdate(ctx context.Context, reading *domain.OdometerReading) error
}

const (
	stateBatchSize = 100
	stateFlush     = 50 * time.Millisecond
)

// StateWriter mirrors the latest reading per vehicle into Redis and
// publishes it on the fleet's odometer channel.
type StateWriter struct {
	ch     <-chan *domain.OdometerReading
	redis  StateUpdater
	logger log.Logger
}

func NewStateWriter(ch <-chan *domain.OdometerReading, redis StateUpdater) *StateWriter {
	return &StateWriter{ch: ch, redis: redis, logger: log.WithName("state-writer")}
}

func (w *StateWriter) Run(ctx context.Context) {
	batch := make([]*domain.OdometerReading, 0, stateBatchSize)
	ticker := time.NewTicker(stateFlush)
	defer ticker.Stop()

	for {
		select {
		case reading, ok := <-w.ch:
			if !ok {
				w.flushBatch(context.WithoutCancel(ctx), batch)
				return
			}
			batch = append(batch, reading)
			if len(batch) >= stateBatchSize {
				w.flushBatch(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flushBatch(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			w.flushBatch(context.WithoutCancel(ctx), batch)
			return
		}
	}
}

func (w *StateWriter) flushBatch(ctx context.Context, batch []*domain.OdometerReading) {
	for _, reading := range batch {
		if err := w.redis.PipelineStateUpdate(ctx, reading); err != nil {
			w.logger.Error(err, "redis state update failed", "vehicle_id", reading.VehicleID)
		}
	}
}
