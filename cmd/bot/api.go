package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mikastratmann187-source/botdd/pkg/dataaccess"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
	"github.com/mikastratmann187-source/botdd/pkg/request"
	"github.com/mikastratmann187-source/botdd/pkg/ticketing"
	"golang.org/x/time/rate"
)

const (
	// PathApiTickets is the path for listing tickets.
	PathApiTickets = "/api/tickets"

	// PathApiTicket is the path for a single ticket.
	PathApiTicket = "/api/tickets/{id}"

	// PathApiTicketClaim is the path for claiming a ticket.
	PathApiTicketClaim = "/api/tickets/{id}/claim"

	// PathApiTicketClose is the path for closing a ticket.
	PathApiTicketClose = "/api/tickets/{id}/close"

	// PathApiHealth is the liveness path for the dashboard.
	PathApiHealth = "/api/health"
)

// ticketActionBody is the request body for the claim and close actions.
type ticketActionBody struct {
	UserId string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

func (a *App) setupApiRoutes() {
	// One shared limiter covers the whole dashboard surface.
	limiter := rate.NewLimiter(rate.Limit(25), 50)

	wrap := func(handler Controller) http.HandlerFunc {
		return middlewareHttp(a, middlewareRateLimit(a, limiter, handler))
	}

	a.r.HandleFunc(PathApiTickets, wrap(a.listTicketsHandler)).Methods(http.MethodGet)
	a.r.HandleFunc(PathApiTicket, wrap(a.getTicketHandler)).Methods(http.MethodGet)
	a.r.HandleFunc(PathApiTicketClaim, wrap(a.claimTicketHandler)).Methods(http.MethodPost)
	a.r.HandleFunc(PathApiTicketClose, wrap(a.closeTicketHandler)).Methods(http.MethodPost)
	a.r.HandleFunc(PathApiHealth, wrap(a.apiHealthHandler)).Methods(http.MethodGet)
}

func (a *App) listTicketsHandler(w http.ResponseWriter, r *http.Request) {
	tickets, err := a.tickets.ListTickets(r.Context())
	if err != nil {
		a.respondApiError(w, http.StatusInternalServerError, request.ErrInternalServer.Error())
		return
	}

	// Optional filters for the dashboard views.
	if guildID := r.URL.Query().Get("guildId"); guildID != "" {
		tickets = filterTickets(tickets, func(t *entities.Ticket) bool { return t.GuildID == guildID })
	}
	if status := r.URL.Query().Get("status"); status != "" {
		tickets = filterTickets(tickets, func(t *entities.Ticket) bool { return string(t.Status) == status })
	}

	a.respondApiJson(w, http.StatusOK, tickets)
}

func (a *App) getTicketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := ticketIdFromPath(r)
	if err != nil {
		a.respondApiError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	ticket, err := a.tickets.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, dataaccess.ErrNotFound) {
			a.respondApiError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		a.respondApiError(w, http.StatusInternalServerError, request.ErrInternalServer.Error())
		return
	}

	a.respondApiJson(w, http.StatusOK, ticket)
}

func (a *App) claimTicketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := ticketIdFromPath(r)
	if err != nil {
		a.respondApiError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	body := new(ticketActionBody)
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		a.respondApiJson(w, http.StatusBadRequest, request.NewMessageError("Invalid request body", err))
		return
	}
	if body.UserId == "" {
		a.respondApiError(w, http.StatusBadRequest, "A userId is required")
		return
	}

	ticket, err := a.engine.Claim(r.Context(), id, body.UserId)
	if err != nil {
		switch {
		case errors.Is(err, dataaccess.ErrNotFound):
			a.respondApiError(w, http.StatusNotFound, "Ticket not found")
		case errors.Is(err, ticketing.ErrTicketClosed):
			a.respondApiError(w, http.StatusConflict, "Ticket is closed")
		default:
			a.respondApiError(w, http.StatusInternalServerError, request.ErrInternalServer.Error())
		}
		return
	}

	a.respondApiJson(w, http.StatusOK, ticket)
}

func (a *App) closeTicketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := ticketIdFromPath(r)
	if err != nil {
		a.respondApiError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	// The body is optional on close. A bare close is attributed to nobody,
	// which is how the dashboard closes tickets.
	body := new(ticketActionBody)
	if err := json.NewDecoder(r.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
		a.respondApiJson(w, http.StatusBadRequest, request.NewMessageError("Invalid request body", err))
		return
	}

	// Closing an already closed ticket is a no-op that returns the ticket as
	// it stands, so repeated dashboard clicks stay harmless.
	ticket, err := a.engine.Close(r.Context(), id, body.UserId, body.Reason)
	if err != nil {
		if errors.Is(err, dataaccess.ErrNotFound) {
			a.respondApiError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		a.respondApiError(w, http.StatusInternalServerError, request.ErrInternalServer.Error())
		return
	}

	a.respondApiJson(w, http.StatusOK, ticket)
}

func (a *App) apiHealthHandler(w http.ResponseWriter, _ *http.Request) {
	a.respondApiJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) respondApiJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
	}
}

func (a *App) respondApiError(w http.ResponseWriter, status int, msg string) {
	a.respondApiJson(w, status, request.NewMessage(msg))
}

func ticketIdFromPath(r *http.Request) (int64, error) {
	rawID, ok := mux.Vars(r)["id"]
	if !ok {
		return 0, fmt.Errorf("no ticket ID in path")
	}
	return strconv.ParseInt(rawID, 10, 64)
}

func filterTickets(tickets []*entities.Ticket, keep func(*entities.Ticket) bool) []*entities.Ticket {
	out := make([]*entities.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
