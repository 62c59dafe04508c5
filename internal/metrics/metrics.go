package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exported on /metrics. Registered once at package init via promauto.
var (
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duel_matches_created_total",
		Help: "Matches created through the standard path.",
	})

	MatchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duel_matches_completed_total",
		Help: "Matches that reached the completed state.",
	})

	MatchesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duel_matches_cancelled_total",
		Help: "Matches cancelled explicitly or by the expiry sweep.",
	})

	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duel_answers_submitted_total",
		Help: "Answer submissions accepted, partitioned by correctness.",
	}, []string{"correct"})

	TournamentsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duel_tournaments_started_total",
		Help: "Tournaments whose bracket started (4th player joined).",
	})

	TournamentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duel_tournaments_completed_total",
		Help: "Tournaments that completed via a final result.",
	})

	ExpirySweepCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duel_expiry_sweep_cancelled_total",
		Help: "Matches and tournaments cancelled by the expiry sweep.",
	})

	PointsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duel_points_granted_total",
		Help: "Points granted by the reward dispatcher, by trigger.",
	}, []string{"trigger"})
)
