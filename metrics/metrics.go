package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var SubmissionsLocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tally_submissions_locked_total",
	Help: "Number of judge submissions locked, by category type",
}, []string{"type"})

var SubmissionsUnlocked = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tally_submissions_unlocked_total",
	Help: "Number of judge submissions unlocked",
})

var RejectedLockedWrites = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tally_rejected_locked_writes_total",
	Help: "Number of score/ranking writes ignored because the submission was locked",
})

var ScoreChangesPublished = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tally_score_changes_published_total",
	Help: "Number of score change notifications published",
})

var ScoreChangesReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tally_score_changes_received_total",
	Help: "Number of score change notifications received from other replicas",
})

var ResultConnectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "tally_result_websocket_connections",
	Help: "Current number of live result websocket connections",
})
