package dataaccess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mikastratmann187-source/botdd/pkg/dataaccess/monitoring"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

const (
	ticketDalName = "ticket_dal"
	ticketsTable  = "tickets"
)

// TicketDal is the data access layer for tickets.
type TicketDal interface {
	// CreateTicket inserts a new ticket and assigns its ID.
	CreateTicket(ctx context.Context, ticket *entities.Ticket) error

	// SaveTicket persists changes to an existing ticket.
	SaveTicket(ctx context.Context, ticket *entities.Ticket) error

	// GetTicket gets a ticket by ID. ErrNotFound is returned when no ticket
	// exists with the ID.
	GetTicket(ctx context.Context, id int64) (*entities.Ticket, error)

	// GetTicketByChannel gets the ticket associated with a channel.
	// ErrNotFound is returned when the channel is not a ticket.
	GetTicketByChannel(ctx context.Context, channelID string) (*entities.Ticket, error)

	// ListTickets lists every ticket, newest first.
	ListTickets(ctx context.Context) ([]*entities.Ticket, error)

	// CountOpenTicketsForUser counts the user's open tickets in the guild.
	CountOpenTicketsForUser(ctx context.Context, guildID, userID string) (int, error)

	// LastTicketForUser gets the user's most recently created ticket in the
	// guild, open or closed. ErrNotFound is returned when the user has none.
	LastTicketForUser(ctx context.Context, guildID, userID string) (*entities.Ticket, error)
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// db is the database.
	db *bun.DB
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(l *slog.Logger) TicketDal {
	l = l.With(slog.String(logging.KeyDal, ticketDalName))

	if DB == nil {
		l.Warn("DB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDal{
		l:  l,
		db: DB,
	}
}

func (d *ticketDal) CreateTicket(ctx context.Context, ticket *entities.Ticket) error {
	monitoring.PostgresTotalRequests.WithLabelValues(ticketDalName, "create_ticket", ticketsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(ticketDalName, "create_ticket", ticketsTable))
	defer t.ObserveDuration()

	_, err := d.db.NewInsert().
		Model(ticket).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error creating ticket: %w", err)
	}
	return nil
}

func (d *ticketDal) SaveTicket(ctx context.Context, ticket *entities.Ticket) error {
	monitoring.PostgresTotalRequests.WithLabelValues(ticketDalName, "save_ticket", ticketsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(ticketDalName, "save_ticket", ticketsTable))
	defer t.ObserveDuration()

	_, err := d.db.NewUpdate().
		Model(ticket).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error saving ticket: %w", err)
	}
	return nil
}

func (d *ticketDal) GetTicket(ctx context.Context, id int64) (*entities.Ticket, error) {
	monitoring.PostgresTotalRequests.WithLabelValues(ticketDalName, "get_ticket", ticketsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(ticketDalName, "get_ticket", ticketsTable))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.db.NewSelect().
		Model(ticket).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDal) GetTicketByChannel(ctx context.Context, channelID string) (*entities.Ticket, error) {
	monitoring.PostgresTotalRequests.WithLabelValues(ticketDalName, "get_ticket_by_channel", ticketsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(ticketDalName, "get_ticket_by_channel", ticketsTable))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.db.NewSelect().
		Model(ticket).
		Where("channel_id = ?", channelID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket by channel: %w", err)
	}
	return ticket, nil
}

func (d *ticketDal) ListTickets(ctx context.Context) ([]*entities.Ticket, error) {
	monitoring.PostgresTotalRequests.WithLabelValues(ticketDalName, "list_tickets", ticketsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(ticketDalName, "list_tickets", ticketsTable))
	defer t.ObserveDuration()

	var tickets []*entities.Ticket
	err := d.db.NewSelect().
		Model(&tickets).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	return tickets, nil
}

func (d *ticketDal) CountOpenTicketsForUser(ctx context.Context, guildID, userID string) (int, error) {
	monitoring.PostgresTotalRequests.WithLabelValues(ticketDalName, "count_open_tickets", ticketsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(ticketDalName, "count_open_tickets", ticketsTable))
	defer t.ObserveDuration()

	count, err := d.db.NewSelect().
		Model((*entities.Ticket)(nil)).
		Where("guild_id = ?", guildID).
		Where("owner_id = ?", userID).
		Where("status = ?", entities.StatusOpen).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting open tickets: %w", err)
	}
	return count, nil
}

func (d *ticketDal) LastTicketForUser(ctx context.Context, guildID, userID string) (*entities.Ticket, error) {
	monitoring.PostgresTotalRequests.WithLabelValues(ticketDalName, "last_ticket_for_user", ticketsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(ticketDalName, "last_ticket_for_user", ticketsTable))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.db.NewSelect().
		Model(ticket).
		Where("guild_id = ?", guildID).
		Where("owner_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting last ticket: %w", err)
	}
	return ticket, nil
}
