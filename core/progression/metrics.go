package progression

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promotionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "academia",
		Subsystem: "progression",
		Name:      "promotions_total",
		Help:      "Promotion attempts by outcome.",
	}, []string{"outcome"})

	promotionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "academia",
		Subsystem: "progression",
		Name:      "promotion_duration_seconds",
		Help:      "Time spent evaluating and applying a promotion.",
		Buckets:   prometheus.DefBuckets,
	})
)

func observePromotion(res Result, err error, elapsed time.Duration) {
	promotionDuration.Observe(elapsed.Seconds())

	outcome := "promoted"
	var pErr *Error
	switch {
	case err == nil && res.Graduated:
		outcome = "graduated"
	case err == nil:
	case errors.As(err, &pErr):
		outcome = string(pErr.Kind)
	case errors.Cause(err) == ErrStudentNotFound:
		outcome = "not_found"
	case errors.Cause(err) == ErrNotEnrolled:
		outcome = "not_enrolled"
	case errors.Cause(err) == ErrGraduated:
		outcome = "already_graduated"
	default:
		outcome = "error"
	}
	promotionsTotal.WithLabelValues(outcome).Inc()
}
