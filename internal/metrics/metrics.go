package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homerules_events_processed_total",
		Help: "Total number of state-change events fully processed by the engine.",
	})

	TriggerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerules_trigger_outcomes_total",
		Help: "Total number of trigger evaluations, labelled by outcome.",
	}, []string{"outcome"})

	TimersStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homerules_timers_started_total",
		Help: "Total number of delayed fires armed.",
	})

	TimersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homerules_timers_cancelled_total",
		Help: "Total number of pending timers cancelled by a negative edge or shutdown.",
	})

	TimersFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homerules_timers_fired_total",
		Help: "Total number of pending timers that expired and ran their rule.",
	})

	CommandsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homerules_commands_published_total",
		Help: "Total number of state-change commands published to entities.",
	})

	CommandsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homerules_commands_skipped_total",
		Help: "Total number of commands skipped as no-op transitions or routing misses.",
	})

	AutomationsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "homerules_automations_loaded",
		Help: "Number of rule replicas in the active store.",
	})

	AutomationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homerules_automations_rejected_total",
		Help: "Total number of config entries dropped during store builds.",
	})
)
