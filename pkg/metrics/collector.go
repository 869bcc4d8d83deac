// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	exchangeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_api_requests_total",
			Help: "Total number of exchange API requests labeled by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
	trackerSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_sweeps_total",
			Help: "Total number of tracker polling sweeps",
		},
	)
	trackerNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_notifications_total",
			Help: "Total number of order notifications emitted by the tracker labeled by kind",
		},
		[]string{"kind"},
	)
	trackedOrders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracked_orders",
			Help: "Current number of orders under lifecycle tracking",
		},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordExchangeRequest counts one outbound exchange API call.
func RecordExchangeRequest(endpoint, status string) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	exchangeRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordTrackerSweep counts one pass over all tracked orders.
func RecordTrackerSweep() {
	trackerSweepsTotal.Inc()
}

// RecordTrackerNotification counts a user-visible tracker notification.
func RecordTrackerNotification(kind string) {
	if kind == "" {
		kind = "unknown"
	}

	trackerNotificationsTotal.WithLabelValues(kind).Inc()
}

// SetTrackedOrders updates the gauge for orders under tracking.
func SetTrackedOrders(count int) {
	trackedOrders.Set(float64(count))
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}
