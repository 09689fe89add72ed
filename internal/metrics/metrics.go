package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this service. Tests may read it directly.
var Registry = prometheus.NewRegistry()

var (
	ReadingsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_odometer_readings_received_total",
		Help: "Odometer readings accepted by the API.",
	})

	DBWriteSuccess = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_db_write_success_total",
		Help: "Odometer readings written to PostgreSQL.",
	})

	DBWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_db_write_failures_total",
		Help: "Odometer readings dropped after a failed retry.",
	})

	// ChannelDrops counts readings lost to a full pipeline channel.
	ChannelDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_channel_drops_total",
		Help: "Readings dropped because a pipeline channel was full.",
	}, []string{"channel"}) // channel: db/state/alert

	AlertsFired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_alerts_fired_total",
		Help: "New maintenance alerts that passed deduplication.",
	}, []string{"type"}) // type: overdue/urgent

	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_notifications_total",
		Help: "Notification deliveries by status.",
	}, []string{"status"}) // status: success/failed

	BadgeCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "maintenance_fleet_badge_count",
		Help: "Overdue plus urgent maintenance items per fleet at the last sweep.",
	}, []string{"fleet"})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "maintenance_sweep_duration_seconds",
		Help:    "Time spent summarizing every fleet in one sweep.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	Registry.MustRegister(
		ReadingsReceived,
		DBWriteSuccess,
		DBWriteFailures,
		ChannelDrops,
		AlertsFired,
		NotificationsSent,
		BadgeCount,
		SweepDuration,
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
