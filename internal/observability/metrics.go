package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atelier_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RegistrationOutcomes counts registration attempts by admission mode and outcome.
	RegistrationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_registration_outcomes_total",
		Help: "Registration attempts by admission mode and resulting status or denial",
	}, []string{"mode", "outcome"})

	// WaitlistPromotions counts waitlisted registrations promoted to a seat.
	WaitlistPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atelier_waitlist_promotions_total",
		Help: "Total number of waitlisted registrations promoted to registered",
	})

	// CheckIns counts recorded attendances by method.
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_checkins_total",
		Help: "Total number of recorded workshop check-ins by method",
	}, []string{"method"})

	// XpAwarded sums final XP paid out by source kind.
	XpAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_xp_awarded_total",
		Help: "Total final XP paid out by source kind",
	}, []string{"source"})

	// SubmissionReviews counts review decisions.
	SubmissionReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_submission_reviews_total",
		Help: "Total number of submission review decisions",
	}, []string{"decision"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
