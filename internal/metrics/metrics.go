// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skillshare"

// ─── HTTP ───────────────────────────────────────────────────────────────────

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern and status.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// ─── Ledger ─────────────────────────────────────────────────────────────────

var LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "entries_total",
	Help:      "Credit transactions appended, by type.",
}, []string{"type"})

var LedgerCreditsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "credits_moved_total",
	Help:      "Absolute credits moved through the ledger, by type.",
}, []string{"type"})

var LedgerAuditMismatches = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "audit_mismatches_total",
	Help:      "Balance audits where the stored balance differed from the ledger sum.",
})

// ─── Bookings ───────────────────────────────────────────────────────────────

var BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bookings",
	Name:      "created_total",
	Help:      "Bookings successfully purchased.",
})

var BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bookings",
	Name:      "rejected_total",
	Help:      "Booking attempts rejected, by reason.",
}, []string{"reason"})

var BookingStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bookings",
	Name:      "status_changes_total",
	Help:      "Booking status updates, by target status.",
}, []string{"status"})

// ─── Search ─────────────────────────────────────────────────────────────────

var NearbyResults = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "search",
	Name:      "nearby_results",
	Help:      "Number of skills returned per nearby search.",
	Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
})

// ─── Chat ───────────────────────────────────────────────────────────────────

var ChatMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "chat",
	Name:      "messages_sent_total",
	Help:      "Chat messages stored, by message type.",
}, []string{"type"})

var ChatEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "chat",
	Name:      "events_published_total",
	Help:      "Chat events handed to the fan-out, by outcome.",
}, []string{"outcome"})

var ChatStreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "chat",
	Name:      "stream_subscribers",
	Help:      "Currently connected chat stream clients.",
})
