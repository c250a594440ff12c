package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsOpened is the total number of tickets opened, by kind.
	TicketsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_opened_total",
			Help: "Total number of tickets opened",
		},
		[]string{"kind"},
	)

	// TicketsRefused is the total number of refused open requests, by guard.
	TicketsRefused = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_refused_total",
			Help: "Total number of refused ticket open requests",
		},
		[]string{"guard"},
	)

	// TicketsClaimed is the total number of claim operations.
	TicketsClaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_claimed_total",
			Help: "Total number of ticket claims",
		},
	)

	// TicketsClosed is the total number of tickets closed.
	TicketsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_closed_total",
			Help: "Total number of tickets closed",
		},
	)
)
