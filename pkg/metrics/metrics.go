package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Tickets created, one increment per selected draw
	TicketsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "borlette_tickets_created_total",
		Help: "Tickets created by draw",
	}, []string{"draw"})

	// Validate attempts by outcome: validated, not_found, denied, error
	TicketValidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "borlette_ticket_validations_total",
		Help: "Ticket validation attempts by outcome",
	}, []string{"outcome"})

	WinningLines = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "borlette_winning_lines_total",
		Help: "Winning bet lines found by check-winners, by bet type",
	}, []string{"bet_type"})

	CheckWinnersDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "borlette_check_winners_duration_seconds",
		Help:    "Time spent evaluating scoped tickets against a draw result",
		Buckets: prometheus.DefBuckets,
	})
)

func Init() {
	prometheus.MustRegister(
		TicketsCreated,
		TicketValidations,
		WinningLines,
		CheckWinnersDuration,
	)
}
