package pipeline

import (
	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/metrics"
)

// Dispatcher fans each accepted odometer reading out to the writer and
// evaluator channels. It never blocks the request path: a full channel
// drops the reading and counts it.
type Dispatcher struct {
	DBChan    chan *domain.OdometerReading
	StateChan chan *domain.OdometerReading
	AlertChan chan *domain.OdometerReading
}

func NewDispatcher(dbSize, stateSize, alertSize int) *Dispatcher {
	return &Dispatcher{
		DBChan:    make(chan *domain.OdometerReading, dbSize),
		StateChan: make(chan *domain.OdometerReading, stateSize),
		AlertChan: make(chan *domain.OdometerReading, alertSize),
	}
}

func (d *Dispatcher) Dispatch(reading *domain.OdometerReading) {
	metrics.ReadingsReceived.Inc()

	select {
	case d.DBChan <- reading:
	default:
		metrics.ChannelDrops.WithLabelValues("db").Inc()
	}

	select {
	case d.StateChan <- reading:
	default:
		metrics.ChannelDrops.WithLabelValues("state").Inc()
	}

	select {
	case d.AlertChan <- reading:
	default:
		metrics.ChannelDrops.WithLabelValues("alert").Inc()
	}
}

// Close closes every channel so workers drain and exit. Dispatch must not be
// called afterwards.
func (d *Dispatcher) Close() {
	close(d.DBChan)
	close(d.StateChan)
	close(d.AlertChan)
}
