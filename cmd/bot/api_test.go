package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gorilla/mux"
	"github.com/mikastratmann187-source/botdd/pkg/custom"
	"github.com/mikastratmann187-source/botdd/pkg/dataaccess"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
	"github.com/mikastratmann187-source/botdd/pkg/request"
	"github.com/mikastratmann187-source/botdd/pkg/ticketing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTicketDal is an in-memory ticket store for handler tests.
type memTicketDal struct {
	nextID  int64
	tickets map[int64]*entities.Ticket
}

func newMemTicketDal() *memTicketDal {
	return &memTicketDal{tickets: make(map[int64]*entities.Ticket)}
}

func (m *memTicketDal) CreateTicket(_ context.Context, ticket *entities.Ticket) error {
	m.nextID++
	ticket.ID = m.nextID
	clone := *ticket
	m.tickets[ticket.ID] = &clone
	return nil
}

func (m *memTicketDal) SaveTicket(_ context.Context, ticket *entities.Ticket) error {
	clone := *ticket
	m.tickets[ticket.ID] = &clone
	return nil
}

func (m *memTicketDal) GetTicket(_ context.Context, id int64) (*entities.Ticket, error) {
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	clone := *ticket
	return &clone, nil
}

func (m *memTicketDal) GetTicketByChannel(_ context.Context, channelID string) (*entities.Ticket, error) {
	for _, ticket := range m.tickets {
		if ticket.ChannelID == channelID {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, dataaccess.ErrNotFound
}

func (m *memTicketDal) ListTickets(_ context.Context) ([]*entities.Ticket, error) {
	out := make([]*entities.Ticket, 0, len(m.tickets))
	for id := m.nextID; id > 0; id-- {
		if ticket, ok := m.tickets[id]; ok {
			clone := *ticket
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memTicketDal) CountOpenTicketsForUser(_ context.Context, guildID, userID string) (int, error) {
	count := 0
	for _, ticket := range m.tickets {
		if ticket.GuildID == guildID && ticket.OwnerID == userID && ticket.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (m *memTicketDal) LastTicketForUser(_ context.Context, guildID, userID string) (*entities.Ticket, error) {
	var last *entities.Ticket
	for _, ticket := range m.tickets {
		if ticket.GuildID != guildID || ticket.OwnerID != userID {
			continue
		}
		if last == nil || ticket.ID > last.ID {
			last = ticket
		}
	}
	if last == nil {
		return nil, dataaccess.ErrNotFound
	}
	clone := *last
	return &clone, nil
}

// memConfigDal serves one configuration per guild.
type memConfigDal struct {
	configs map[string]*entities.GuildConfig
}

func (m *memConfigDal) GetConfig(_ context.Context, guildID string) (*entities.GuildConfig, error) {
	cfg, ok := m.configs[guildID]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	clone := *cfg
	return &clone, nil
}

func (m *memConfigDal) UpsertConfig(_ context.Context, cfg *entities.GuildConfig) error {
	if m.configs == nil {
		m.configs = make(map[string]*entities.GuildConfig)
	}
	clone := *cfg
	m.configs[cfg.GuildID] = &clone
	return nil
}

// noopGateway satisfies the engine without a live connection.
type noopGateway struct {
	nextChan int
}

func (g *noopGateway) CreateTicketChannel(_ context.Context, _ ticketing.ChannelSpec) (string, error) {
	g.nextChan++
	return fmt.Sprintf("chan-%d", g.nextChan), nil
}

func (g *noopGateway) ChannelName(_ context.Context, _ string) (string, error) {
	return "ticket-user", nil
}

func (g *noopGateway) SendMessage(_ context.Context, _, _ string) (string, error) {
	return "msg", nil
}

func (g *noopGateway) SendTicketIntro(_ context.Context, _, _ string) (string, error) {
	return "msg", nil
}

func (g *noopGateway) RenameChannel(_ context.Context, _, _ string) error { return nil }

func (g *noopGateway) MoveChannel(_ context.Context, _, _ string) error { return nil }

func (g *noopGateway) DeleteChannel(_ context.Context, _ string) error { return nil }

func (g *noopGateway) SendDirectMessage(_ context.Context, _, _ string) error { return nil }

func (g *noopGateway) PostPanel(_ context.Context, _, _ string, _ []ticketing.Control) (ticketing.MessageRef, error) {
	return ticketing.MessageRef{}, nil
}

func (g *noopGateway) FindPanelMessages(_ context.Context, _, _ string) ([]ticketing.MessageRef, error) {
	return nil, nil
}

func (g *noopGateway) EditPanelControls(_ context.Context, _ ticketing.MessageRef, _ []ticketing.Control) error {
	return nil
}

func newTestApp(t *testing.T) (*App, *memTicketDal) {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := NewApp(l, mux.NewRouter())

	store := newMemTicketDal()
	configs := &memConfigDal{}
	app.tickets = store
	app.configs = configs
	app.engine = ticketing.NewEngine(l, &noopGateway{}, configs, store)
	app.setupApiRoutes()
	return app, store
}

func seedTicket(t *testing.T, store *memTicketDal, status entities.Status) *entities.Ticket {
	t.Helper()

	ticket := &entities.Ticket{
		GuildID:   gofakeit.DigitN(18),
		ChannelID: gofakeit.DigitN(18),
		OwnerID:   gofakeit.DigitN(18),
		OwnerName: gofakeit.Username(),
		Kind:      entities.KindQuestion,
		Status:    status,
		CreatedAt: custom.Datetime(time.Now().UTC()),
	}
	require.NoError(t, store.CreateTicket(context.Background(), ticket))
	return ticket
}

func TestApiListTickets(t *testing.T) {
	app, store := newTestApp(t)
	first := seedTicket(t, store, entities.StatusOpen)
	second := seedTicket(t, store, entities.StatusClosed)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []*entities.Ticket
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestApiListTicketsFiltered(t *testing.T) {
	app, store := newTestApp(t)
	seedTicket(t, store, entities.StatusOpen)
	closed := seedTicket(t, store, entities.StatusClosed)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets?status=closed", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []*entities.Ticket
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, closed.ID, got[0].ID)
}

func TestApiGetTicket(t *testing.T) {
	app, store := newTestApp(t)
	ticket := seedTicket(t, store, entities.StatusOpen)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/tickets/%d", ticket.ID), nil))

	require.Equal(t, http.StatusOK, rec.Code)

	got := new(entities.Ticket)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(got))
	assert.Equal(t, ticket.ID, got.ID)
	assert.Equal(t, ticket.OwnerID, got.OwnerID)
}

func TestApiGetTicketNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets/99", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ticket not found")
}

func TestApiGetTicketBadID(t *testing.T) {
	app, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets/nonsense", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApiClaimTicket(t *testing.T) {
	app, store := newTestApp(t)
	ticket := seedTicket(t, store, entities.StatusOpen)
	staffID := gofakeit.DigitN(18)

	rec := httptest.NewRecorder()
	body := strings.NewReader(fmt.Sprintf(`{"userId":%q}`, staffID))
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tickets/%d/claim", ticket.ID), body))

	require.Equal(t, http.StatusOK, rec.Code)

	got := new(entities.Ticket)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(got))
	assert.Equal(t, staffID, got.ClaimedBy)
}

func TestApiClaimTicketRequiresUser(t *testing.T) {
	app, store := newTestApp(t)
	ticket := seedTicket(t, store, entities.StatusOpen)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tickets/%d/claim", ticket.ID), strings.NewReader(`{}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApiClaimClosedTicket(t *testing.T) {
	app, store := newTestApp(t)
	ticket := seedTicket(t, store, entities.StatusClosed)

	rec := httptest.NewRecorder()
	body := strings.NewReader(fmt.Sprintf(`{"userId":%q}`, gofakeit.DigitN(18)))
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tickets/%d/claim", ticket.ID), body))

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestApiCloseTicket(t *testing.T) {
	app, store := newTestApp(t)
	ticket := seedTicket(t, store, entities.StatusOpen)
	staffID := gofakeit.DigitN(18)

	rec := httptest.NewRecorder()
	body := strings.NewReader(fmt.Sprintf(`{"userId":%q,"reason":"resolved"}`, staffID))
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tickets/%d/close", ticket.ID), body))

	require.Equal(t, http.StatusOK, rec.Code)

	got := new(entities.Ticket)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(got))
	assert.Equal(t, entities.StatusClosed, got.Status)
	assert.Equal(t, staffID, got.ClosedBy)
	assert.Equal(t, "resolved", got.CloseReason)

	// Repeating the close is a harmless no-op.
	rec = httptest.NewRecorder()
	body = strings.NewReader(fmt.Sprintf(`{"userId":%q}`, gofakeit.DigitN(18)))
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tickets/%d/close", ticket.ID), body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(got))
	assert.Equal(t, staffID, got.ClosedBy)
}

func TestApiCloseTicketWithoutBody(t *testing.T) {
	app, store := newTestApp(t)
	ticket := seedTicket(t, store, entities.StatusOpen)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tickets/%d/close", ticket.ID), nil))

	require.Equal(t, http.StatusOK, rec.Code)

	got := new(entities.Ticket)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(got))
	assert.Equal(t, entities.StatusClosed, got.Status)
	assert.Empty(t, got.ClosedBy)
	assert.Empty(t, got.CloseReason)
}

func TestApiClaimInvalidBody(t *testing.T) {
	app, store := newTestApp(t)
	ticket := seedTicket(t, store, entities.StatusOpen)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tickets/%d/claim", ticket.ID), strings.NewReader(`{not json`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	got := new(request.MessageError)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(got))
	assert.Equal(t, "Invalid request body", got.Message)
	assert.NotEmpty(t, got.Error)
}

func TestApiHealth(t *testing.T) {
	app, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	app.r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
