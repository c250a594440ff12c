package ticketing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mikastratmann187-source/botdd/pkg/dataaccess"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
)

// memStore is an in-memory implementation of both data access layers. It
// clones tickets on the way in and out so that, like a real database, changes
// only become visible through SaveTicket.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	tickets map[int64]*entities.Ticket
	configs map[string]*entities.GuildConfig

	failCreate bool
}

func newMemStore() *memStore {
	return &memStore{
		tickets: make(map[int64]*entities.Ticket),
		configs: make(map[string]*entities.GuildConfig),
	}
}

func cloneTicket(t *entities.Ticket) *entities.Ticket {
	c := *t
	if t.Answers != nil {
		c.Answers = append(entities.Answers(nil), t.Answers...)
	}
	return &c
}

func (s *memStore) GetConfig(_ context.Context, guildID string) (*entities.GuildConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[guildID]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	c := *cfg
	return &c, nil
}

func (s *memStore) UpsertConfig(_ context.Context, cfg *entities.GuildConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cfg
	s.configs[cfg.GuildID] = &c
	return nil
}

func (s *memStore) CreateTicket(_ context.Context, ticket *entities.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errors.New("store unavailable")
	}
	s.nextID++
	ticket.ID = s.nextID
	s.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (s *memStore) SaveTicket(_ context.Context, ticket *entities.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[ticket.ID]; !ok {
		return dataaccess.ErrNotFound
	}
	s.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (s *memStore) GetTicket(_ context.Context, id int64) (*entities.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	return cloneTicket(t), nil
}

func (s *memStore) GetTicketByChannel(_ context.Context, channelID string) (*entities.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.ChannelID == channelID {
			return cloneTicket(t), nil
		}
	}
	return nil, dataaccess.ErrNotFound
}

func (s *memStore) ListTickets(_ context.Context) ([]*entities.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.Ticket, 0, len(s.tickets))
	// Newest first; IDs are assigned in creation order.
	for id := s.nextID; id >= 1; id-- {
		if t, ok := s.tickets[id]; ok {
			out = append(out, cloneTicket(t))
		}
	}
	return out, nil
}

func (s *memStore) CountOpenTicketsForUser(_ context.Context, guildID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, t := range s.tickets {
		if t.GuildID == guildID && t.OwnerID == userID && t.Status == entities.StatusOpen {
			count++
		}
	}
	return count, nil
}

func (s *memStore) LastTicketForUser(_ context.Context, guildID, userID string) (*entities.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *entities.Ticket
	for _, t := range s.tickets {
		if t.GuildID != guildID || t.OwnerID != userID {
			continue
		}
		if last == nil || t.ID > last.ID {
			last = t
		}
	}
	if last == nil {
		return nil, dataaccess.ErrNotFound
	}
	return cloneTicket(last), nil
}

type postedPanel struct {
	ref      MessageRef
	guildID  string
	title    string
	controls []Control
	edits    int
}

// fakeGateway records every gateway call.
type fakeGateway struct {
	mu       sync.Mutex
	nextChan int
	nextMsg  int

	names    map[string]string   // channel ID -> current name
	messages map[string][]string // channel ID -> message contents
	intros   map[string][]string
	dms      map[string][]string // user ID -> DM contents
	moved    map[string]string   // channel ID -> category ID
	deleted  []string

	panels    []*postedPanel
	failEdits map[string]bool // message ID -> fail the edit

	failCreateChannel bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		names:     make(map[string]string),
		messages:  make(map[string][]string),
		intros:    make(map[string][]string),
		dms:       make(map[string][]string),
		moved:     make(map[string]string),
		failEdits: make(map[string]bool),
	}
}

func (g *fakeGateway) CreateTicketChannel(_ context.Context, spec ChannelSpec) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCreateChannel {
		return "", errors.New("permission denied")
	}
	g.nextChan++
	id := fmt.Sprintf("chan-%d", g.nextChan)
	g.names[id] = spec.Name
	return id, nil
}

func (g *fakeGateway) ChannelName(_ context.Context, channelID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	name, ok := g.names[channelID]
	if !ok {
		return "", errors.New("unknown channel")
	}
	return name, nil
}

func (g *fakeGateway) SendMessage(_ context.Context, channelID, content string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextMsg++
	g.messages[channelID] = append(g.messages[channelID], content)
	return fmt.Sprintf("msg-%d", g.nextMsg), nil
}

func (g *fakeGateway) SendTicketIntro(_ context.Context, channelID, content string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextMsg++
	g.intros[channelID] = append(g.intros[channelID], content)
	return fmt.Sprintf("msg-%d", g.nextMsg), nil
}

func (g *fakeGateway) RenameChannel(_ context.Context, channelID, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.names[channelID]; !ok {
		return errors.New("unknown channel")
	}
	g.names[channelID] = name
	return nil
}

func (g *fakeGateway) MoveChannel(_ context.Context, channelID, categoryID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.moved[channelID] = categoryID
	return nil
}

func (g *fakeGateway) DeleteChannel(_ context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, channelID)
	return nil
}

func (g *fakeGateway) SendDirectMessage(_ context.Context, userID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dms[userID] = append(g.dms[userID], content)
	return nil
}

func (g *fakeGateway) PostPanel(_ context.Context, channelID, title string, controls []Control) (MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextMsg++
	ref := MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("msg-%d", g.nextMsg)}
	g.panels = append(g.panels, &postedPanel{ref: ref, title: title, controls: controls})
	return ref, nil
}

func (g *fakeGateway) FindPanelMessages(_ context.Context, _, title string) ([]MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var refs []MessageRef
	for _, p := range g.panels {
		if p.title == title {
			refs = append(refs, p.ref)
		}
	}
	return refs, nil
}

func (g *fakeGateway) EditPanelControls(_ context.Context, ref MessageRef, controls []Control) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failEdits[ref.MessageID] {
		return errors.New("message deleted")
	}
	for _, p := range g.panels {
		if p.ref == ref {
			p.controls = controls
			p.edits++
			return nil
		}
	}
	return errors.New("unknown message")
}

func (g *fakeGateway) channelMessages(channelID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.messages[channelID]...)
}

func (g *fakeGateway) deletedChannels() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deleted...)
}
