package pipeline

import (
	"context"
	"time"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/log"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/metrics"
)

type OdometerWriter interface {
	BatchUpdateOdometer(ctx context.Context, readings []*domain.OdometerReading) error
}

// DBWriter batches odometer readings into PostgreSQL. A failed batch is
// retried once; a second failure drops it.
type DBWriter struct {
	ch         <-chan *domain.OdometerReading
	db         OdometerWriter
	batchSize  int
	flushMS    int
	retryDelay time.Duration
	logger     log.Logger
}

func NewDBWriter(
	ch <-chan *domain.OdometerReading,
	db OdometerWriter,
	batchSize int,
	flushMS int,
) *DBWriter {
	return &DBWriter{
		ch:         ch,
		db:         db,
		batchSize:  max(batchSize, 1),
		flushMS:    max(flushMS, 1),
		retryDelay: 500 * time.Millisecond,
		logger:     log.WithName("db-writer"),
	}
}

func (w *DBWriter) Run(ctx context.Context) {
	batch := make([]*domain.OdometerReading, 0, w.batchSize)
	ticker := time.NewTicker(time.Duration(w.flushMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case reading, ok := <-w.ch:
			if !ok {
				if len(batch) > 0 {
					w.flush(context.WithoutCancel(ctx), batch)
				}
				return
			}
			batch = append(batch, reading)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			if len(batch) > 0 {
				w.flush(context.WithoutCancel(ctx), batch)
			}
			return
		}
	}
}

func (w *DBWriter) flush(ctx context.Context, batch []*domain.OdometerReading) {
	err := w.db.BatchUpdateOdometer(ctx, batch)
	if err != nil {
		w.logger.Warn("odometer write failed, retrying", "batch", len(batch), "error", err)
		time.Sleep(w.retryDelay)
		err = w.db.BatchUpdateOdometer(ctx, batch)
		if err != nil {
			w.logger.Error(err, "odometer write permanently failed", "batch", len(batch))
			metrics.DBWriteFailures.Add(float64(len(batch)))
			return
		}
	}
	metrics.DBWriteSuccess.Add(float64(len(batch)))
}
