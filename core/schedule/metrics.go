package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "academia",
		Subsystem: "schedule",
		Name:      "checks_total",
		Help:      "Conflict checks by verdict (ok or the conflict kind).",
	}, []string{"verdict"})

	txRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "academia",
		Subsystem: "schedule",
		Name:      "tx_retries_total",
		Help:      "Faculty load transactions retried after the database rejected a concurrent write.",
	})
)

func observeCheck(err error) {
	var cErr *ConflictError
	switch {
	case err == nil:
		checksTotal.WithLabelValues("ok").Inc()
	case asConflict(err, &cErr):
		checksTotal.WithLabelValues(string(cErr.Kind)).Inc()
	}
}
