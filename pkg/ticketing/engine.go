package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mikastratmann187-source/botdd/pkg/custom"
	"github.com/mikastratmann187-source/botdd/pkg/dataaccess"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
	"github.com/mikastratmann187-source/botdd/pkg/messages"
	"github.com/mikastratmann187-source/botdd/pkg/ticketing/monitoring"
)

// DefaultGraceDelay is the wait between closing a ticket and deleting its
// channel, long enough for the closing message to be read.
const DefaultGraceDelay = 5 * time.Second

// closedMarker is the channel-name prefix applied to closed tickets.
const closedMarker = "closed-"

const defaultWelcome = `Your ticket has been created.
Please provide any additional info you deem relevant to help us answer faster.`

// Engine decides whether tickets may be created and how their status
// transitions. The store is the sole source of truth; every guard is
// evaluated against it at request time.
type Engine struct {
	// l is the logger.
	l *slog.Logger

	// gw is the chat platform gateway.
	gw Gateway

	// configs is the guild configuration store.
	configs dataaccess.ConfigDal

	// tickets is the ticket store.
	tickets dataaccess.TicketDal

	// graceDelay is the wait before a closed ticket's channel is deleted.
	graceDelay time.Duration

	// mtx guards pendingDelete.
	mtx sync.Mutex

	// pendingDelete is the set of channels with a deletion already scheduled.
	// One-shot per channel; a repeated close never schedules twice.
	pendingDelete map[string]struct{}
}

// NewEngine creates a new ticket lifecycle engine.
func NewEngine(l *slog.Logger, gw Gateway, configs dataaccess.ConfigDal, tickets dataaccess.TicketDal) *Engine {
	return &Engine{
		l:             l.With(slog.String("component", "ticketing")),
		gw:            gw,
		configs:       configs,
		tickets:       tickets,
		graceDelay:    DefaultGraceDelay,
		pendingDelete: make(map[string]struct{}),
	}
}

// OpenRequest is a user-initiated request to open a ticket.
type OpenRequest struct {
	GuildID   string
	OwnerID   string
	OwnerName string
	Kind      entities.Kind

	// Answers is the submitted form for application and suggestion kinds.
	// Nil for plain questions.
	Answers entities.Answers
}

// GuildConfig returns the guild's configuration, falling back to the
// all-default configuration when the guild has not been set up.
func (e *Engine) GuildConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	cfg, err := e.configs.GetConfig(ctx, guildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return entities.DefaultGuildConfig(guildID), nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}
	return cfg, nil
}

// Open runs the NONE -> OPEN transition. Guards are re-read from the store on
// every request, so an admin toggle takes effect for the very next attempt.
// The open-count cap is a soft limit; near-simultaneous requests may briefly
// overshoot it (no lock is held across the channel creation).
func (e *Engine) Open(ctx context.Context, req OpenRequest) (*entities.Ticket, error) {
	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}

	cfg, err := e.GuildConfig(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	if !cfg.KindOpen(req.Kind) {
		monitoring.TicketsRefused.WithLabelValues("panel_closed").Inc()

		// Redundant channel: the user gets an inline refusal from the caller,
		// and a direct message in case the interaction response is missed.
		if err := e.gw.SendDirectMessage(ctx, req.OwnerID, refusalMessage(req.Kind)); err != nil {
			e.l.Warn("Error sending refusal DM", slog.String(logging.KeyUser, req.OwnerID),
				slog.String(logging.KeyError, err.Error()))
		}
		return nil, ErrPanelClosed
	}

	if cfg.CooldownSeconds > 0 {
		last, err := e.tickets.LastTicketForUser(ctx, req.GuildID, req.OwnerID)
		if err != nil && !errors.Is(err, dataaccess.ErrNotFound) {
			return nil, fmt.Errorf("error getting last ticket: %w", err)
		}
		if last != nil && time.Since(last.CreatedAt.Time()) < time.Duration(cfg.CooldownSeconds)*time.Second {
			monitoring.TicketsRefused.WithLabelValues("cooldown").Inc()
			return nil, ErrCooldown
		}
	}

	count, err := e.tickets.CountOpenTicketsForUser(ctx, req.GuildID, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("error counting open tickets: %w", err)
	}
	if count >= cfg.MaxTickets {
		monitoring.TicketsRefused.WithLabelValues("limit").Inc()
		return nil, ErrTicketLimitReached
	}

	ticket := &entities.Ticket{
		GuildID:   req.GuildID,
		OwnerID:   req.OwnerID,
		OwnerName: req.OwnerName,
		Kind:      req.Kind,
		Status:    entities.StatusOpen,
		Answers:   req.Answers,
		CreatedAt: custom.Datetime(time.Now().UTC()),
	}

	channelID, err := e.gw.CreateTicketChannel(ctx, ChannelSpec{
		GuildID:       req.GuildID,
		Name:          ticket.ChannelName(),
		Topic:         fmt.Sprintf("Ticket created by %s", req.OwnerName),
		CategoryID:    cfg.TicketCategoryID,
		OwnerID:       req.OwnerID,
		SupportRoleID: cfg.SupportRoleID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}
	ticket.ChannelID = channelID

	if err := e.tickets.CreateTicket(ctx, ticket); err != nil {
		// The channel exists but the ticket could not be recorded. Leave a
		// notice in the channel; a silent orphan is worse than a duplicate
		// looking message.
		if _, sendErr := e.gw.SendMessage(ctx, channelID, messages.TicketNotRecorded); sendErr != nil {
			e.l.Warn("Error notifying orphaned ticket channel",
				slog.String(logging.KeyChannel, channelID),
				slog.String(logging.KeyError, sendErr.Error()))
		}
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	if _, err := e.gw.SendTicketIntro(ctx, channelID, introContent(cfg, ticket)); err != nil {
		e.l.Warn("Error sending ticket intro",
			slog.Int64(logging.KeyTicket, ticket.ID),
			slog.String(logging.KeyError, err.Error()))
	}

	monitoring.TicketsOpened.WithLabelValues(string(req.Kind)).Inc()

	e.l.Info("Ticket opened",
		slog.Int64(logging.KeyTicket, ticket.ID),
		slog.String(logging.KeyGuild, ticket.GuildID),
		slog.String(logging.KeyUser, ticket.OwnerID),
		slog.String("kind", string(ticket.Kind)),
	)

	return ticket, nil
}

// Claim assigns a ticket to a staff member. Claiming is not exclusive; the
// last claim wins, and every claim announces itself in the ticket channel.
func (e *Engine) Claim(ctx context.Context, id int64, staffID string) (*entities.Ticket, error) {
	ticket, err := e.tickets.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.claim(ctx, ticket, staffID)
}

// ClaimByChannel claims the ticket associated with a channel.
func (e *Engine) ClaimByChannel(ctx context.Context, channelID, staffID string) (*entities.Ticket, error) {
	ticket, err := e.ticketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return e.claim(ctx, ticket, staffID)
}

func (e *Engine) claim(ctx context.Context, ticket *entities.Ticket, staffID string) (*entities.Ticket, error) {
	if !ticket.IsOpen() {
		return nil, ErrTicketClosed
	}

	ticket.ClaimedBy = staffID
	if err := e.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	if _, err := e.gw.SendMessage(ctx, ticket.ChannelID, fmt.Sprintf("This ticket has been claimed by <@%s>.", staffID)); err != nil {
		e.l.Warn("Error announcing claim",
			slog.Int64(logging.KeyTicket, ticket.ID),
			slog.String(logging.KeyError, err.Error()))
	}

	monitoring.TicketsClaimed.Inc()
	return ticket, nil
}

// Close runs the OPEN -> CLOSED transition. Closing is terminal: a repeated
// close is a no-op that neither errors nor schedules the channel deletion a
// second time.
func (e *Engine) Close(ctx context.Context, id int64, closedBy, reason string) (*entities.Ticket, error) {
	ticket, err := e.tickets.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.close(ctx, ticket, closedBy, reason)
}

// CloseByChannel closes the ticket associated with a channel.
func (e *Engine) CloseByChannel(ctx context.Context, channelID, closedBy, reason string) (*entities.Ticket, error) {
	ticket, err := e.ticketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return e.close(ctx, ticket, closedBy, reason)
}

func (e *Engine) close(ctx context.Context, ticket *entities.Ticket, closedBy, reason string) (*entities.Ticket, error) {
	if !ticket.IsOpen() {
		return ticket, nil
	}

	ticket.Status = entities.StatusClosed
	ticket.ClosedBy = closedBy
	ticket.CloseReason = reason
	if err := e.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	cfg, err := e.GuildConfig(ctx, ticket.GuildID)
	if err != nil {
		e.l.Warn("Error getting guild config for close",
			slog.String(logging.KeyGuild, ticket.GuildID),
			slog.String(logging.KeyError, err.Error()))
		cfg = entities.DefaultGuildConfig(ticket.GuildID)
	}

	// The remaining side effects are cosmetic; the status transition above is
	// already durable. Failures are logged and skipped.
	if name, err := e.gw.ChannelName(ctx, ticket.ChannelID); err == nil {
		closedName := closedMarker + entities.StripPriorityMarker(strings.TrimPrefix(name, closedMarker))
		if err := e.gw.RenameChannel(ctx, ticket.ChannelID, closedName); err != nil {
			e.l.Warn("Error renaming closed ticket channel",
				slog.String(logging.KeyChannel, ticket.ChannelID),
				slog.String(logging.KeyError, err.Error()))
		}
	} else {
		e.l.Warn("Error getting channel name for close",
			slog.String(logging.KeyChannel, ticket.ChannelID),
			slog.String(logging.KeyError, err.Error()))
	}

	if cfg.ArchiveCategoryID != "" {
		if err := e.gw.MoveChannel(ctx, ticket.ChannelID, cfg.ArchiveCategoryID); err != nil {
			e.l.Warn("Error archiving closed ticket channel",
				slog.String(logging.KeyChannel, ticket.ChannelID),
				slog.String(logging.KeyError, err.Error()))
		}
	}

	if _, err := e.gw.SendMessage(ctx, ticket.ChannelID, messages.TicketClosing); err != nil {
		e.l.Warn("Error announcing close",
			slog.Int64(logging.KeyTicket, ticket.ID),
			slog.String(logging.KeyError, err.Error()))
	}

	if cfg.LogChannelID != "" {
		entry := fmt.Sprintf("Ticket #%d closed by <@%s>.", ticket.ID, closedBy)
		if reason != "" {
			entry += " Reason: " + reason
		}
		if _, err := e.gw.SendMessage(ctx, cfg.LogChannelID, entry); err != nil {
			e.l.Warn("Error writing close log entry",
				slog.Int64(logging.KeyTicket, ticket.ID),
				slog.String(logging.KeyError, err.Error()))
		}
	}

	if cfg.TranscriptChannelID != "" {
		if _, err := e.gw.SendMessage(ctx, cfg.TranscriptChannelID, closeSummary(ticket)); err != nil {
			e.l.Warn("Error writing close summary",
				slog.Int64(logging.KeyTicket, ticket.ID),
				slog.String(logging.KeyError, err.Error()))
		}
	}

	e.scheduleDeletion(ticket.ChannelID)

	monitoring.TicketsClosed.Inc()

	e.l.Info("Ticket closed",
		slog.Int64(logging.KeyTicket, ticket.ID),
		slog.String(logging.KeyGuild, ticket.GuildID),
		slog.String(logging.KeyUser, closedBy),
	)

	return ticket, nil
}

// scheduleDeletion arms the one-shot deletion timer for a channel. Failure to
// delete after the delay (e.g. already deleted) is ignored, not retried.
func (e *Engine) scheduleDeletion(channelID string) {
	e.mtx.Lock()
	if _, ok := e.pendingDelete[channelID]; ok {
		e.mtx.Unlock()
		return
	}
	e.pendingDelete[channelID] = struct{}{}
	e.mtx.Unlock()

	time.AfterFunc(e.graceDelay, func() {
		if err := e.gw.DeleteChannel(context.Background(), channelID); err != nil {
			e.l.Debug("Error deleting closed ticket channel",
				slog.String(logging.KeyChannel, channelID),
				slog.String(logging.KeyError, err.Error()))
		}
	})
}

// SetPriority re-tags the ticket channel's name with a priority marker. The
// previous marker is stripped first, so the operation is idempotent.
func (e *Engine) SetPriority(ctx context.Context, channelID string, p entities.Priority) error {
	if !p.Valid() {
		return fmt.Errorf("unknown priority %q", p)
	}

	ticket, err := e.ticketByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if !ticket.IsOpen() {
		return ErrTicketClosed
	}

	name, err := e.gw.ChannelName(ctx, channelID)
	if err != nil {
		return fmt.Errorf("error getting channel name: %w", err)
	}

	tagged := entities.ApplyPriority(name, p)
	if tagged == name {
		return nil
	}

	if err := e.gw.RenameChannel(ctx, channelID, tagged); err != nil {
		return fmt.Errorf("error renaming channel: %w", err)
	}
	return nil
}

// Rename renames the ticket channel, preserving any priority marker.
func (e *Engine) Rename(ctx context.Context, channelID, newName string) error {
	ticket, err := e.ticketByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if !ticket.IsOpen() {
		return ErrTicketClosed
	}

	current, err := e.gw.ChannelName(ctx, channelID)
	if err != nil {
		return fmt.Errorf("error getting channel name: %w", err)
	}

	marker := strings.TrimSuffix(current, entities.StripPriorityMarker(current))
	if err := e.gw.RenameChannel(ctx, channelID, marker+entities.SlugifyName(newName)); err != nil {
		return fmt.Errorf("error renaming channel: %w", err)
	}
	return nil
}

// ticketByChannel resolves a channel to its ticket. A channel without a
// ticket is a normal guard outcome, not an error.
func (e *Engine) ticketByChannel(ctx context.Context, channelID string) (*entities.Ticket, error) {
	ticket, err := e.tickets.GetTicketByChannel(ctx, channelID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, ErrNotATicket
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket by channel: %w", err)
	}
	return ticket, nil
}

func refusalMessage(k entities.Kind) string {
	if k == entities.KindSupporterApplication {
		return messages.SupporterAppsClosed
	}
	return messages.ModAppsClosed
}

func introContent(cfg *entities.GuildConfig, ticket *entities.Ticket) string {
	welcome := cfg.WelcomeMessage
	if welcome == "" {
		welcome = defaultWelcome
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<@%s> %s", ticket.OwnerID, welcome)

	for _, a := range ticket.Answers {
		fmt.Fprintf(&b, "\n\n**%s**\n%s", a.Question, a.Answer)
	}
	return b.String()
}

func closeSummary(ticket *entities.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket #%d (%s) by %s closed by <@%s>.", ticket.ID, ticket.Kind, ticket.OwnerName, ticket.ClosedBy)
	if ticket.ClaimedBy != "" {
		fmt.Fprintf(&b, " Handled by <@%s>.", ticket.ClaimedBy)
	}
	if ticket.CloseReason != "" {
		fmt.Fprintf(&b, " Reason: %s", ticket.CloseReason)
	}
	return b.String()
}
