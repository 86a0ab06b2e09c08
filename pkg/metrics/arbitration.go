package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CasesOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arbitron",
			Subsystem: "arbitration",
			Name:      "cases_opened_total",
			Help:      "Total number of arbitration cases opened",
		},
	)

	CasesSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbitron",
			Subsystem: "arbitration",
			Name:      "cases_settled_total",
			Help:      "Total number of arbitration cases settled",
		},
		[]string{"final_result"},
	)

	VotesUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arbitron",
			Subsystem: "arbitration",
			Name:      "votes_uploaded_total",
			Help:      "Total number of juror votes accepted",
		},
	)

	TimerFires = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbitron",
			Subsystem: "arbitration",
			Name:      "timer_fires_total",
			Help:      "Timeout callbacks fired, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	CrowdEscalations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arbitron",
			Subsystem: "arbitration",
			Name:      "crowd_escalations_total",
			Help:      "Cases escalated from the professional pool to crowd arbitration",
		},
	)
)

func init() {
	Registry.MustRegister(CasesOpened, CasesSettled, VotesUploaded, TimerFires, CrowdEscalations)
}
