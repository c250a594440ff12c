package ticketing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *memStore, *fakeGateway) {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()
	gw := newFakeGateway()

	e := NewEngine(l, gw, store, store)
	e.graceDelay = 10 * time.Millisecond
	return e, store, gw
}

// testConfig stores a config with the cooldown disabled, so that sequential
// opens in tests are not refused as too fast.
func testConfig(t *testing.T, store *memStore, guildID string) *entities.GuildConfig {
	t.Helper()

	cfg := entities.DefaultGuildConfig(guildID)
	cfg.CooldownSeconds = 0
	require.NoError(t, store.UpsertConfig(context.Background(), cfg))
	return cfg
}

func openRequest(guildID string, kind entities.Kind) OpenRequest {
	return OpenRequest{
		GuildID:   guildID,
		OwnerID:   gofakeit.DigitN(18),
		OwnerName: gofakeit.Username(),
		Kind:      kind,
	}
}

func TestOpenQuestion(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	testConfig(t, store, guildID)

	ticket, err := e.Open(ctx, openRequest(guildID, entities.KindQuestion))
	require.NoError(t, err)
	require.Equal(t, entities.StatusOpen, ticket.Status)
	require.Equal(t, entities.KindQuestion, ticket.Kind)
	require.Nil(t, ticket.Answers)
	require.NotEmpty(t, ticket.ChannelID)

	// The ticket is durable and findable both ways.
	got, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, ticket.ChannelID, got.ChannelID)

	byChannel, err := store.GetTicketByChannel(ctx, ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, ticket.ID, byChannel.ID)

	// The intro message was posted into the new channel.
	require.Len(t, gw.intros[ticket.ChannelID], 1)
	require.Contains(t, gw.intros[ticket.ChannelID][0], "<@"+ticket.OwnerID+">")
}

func TestOpenIncludesAnswers(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	testConfig(t, store, guildID)

	req := openRequest(guildID, entities.KindModApplication)
	req.Answers = entities.Answers{
		{Question: "Why do you want to join the team?", Answer: "I am around a lot."},
		{Question: "Timezone", Answer: "UTC+1"},
	}

	ticket, err := e.Open(ctx, req)
	require.NoError(t, err)
	require.Equal(t, req.Answers, ticket.Answers)

	intro := gw.intros[ticket.ChannelID][0]
	require.Contains(t, intro, "Why do you want to join the team?")
	require.Contains(t, intro, "UTC+1")
}

func TestOpenRespectsMaxTickets(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	cfg := testConfig(t, store, guildID)

	req := openRequest(guildID, entities.KindQuestion)

	// Strictly sequential requests: the cap holds exactly.
	for i := 0; i < cfg.MaxTickets; i++ {
		_, err := e.Open(ctx, req)
		require.NoError(t, err)
	}

	_, err := e.Open(ctx, req)
	require.ErrorIs(t, err, ErrTicketLimitReached)

	count, err := store.CountOpenTicketsForUser(ctx, guildID, req.OwnerID)
	require.NoError(t, err)
	require.Equal(t, cfg.MaxTickets, count)

	// Closing one frees a slot.
	tickets, err := store.ListTickets(ctx)
	require.NoError(t, err)
	_, err = e.Close(ctx, tickets[0].ID, "staff", "")
	require.NoError(t, err)

	_, err = e.Open(ctx, req)
	require.NoError(t, err)
}

func TestOpenRefusedWhenAppsClosed(t *testing.T) {
	tests := []struct {
		name string
		kind entities.Kind
	}{
		{name: "ModApplication", kind: entities.KindModApplication},
		{name: "SupporterApplication", kind: entities.KindSupporterApplication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store, gw := newTestEngine(t)
			ctx := context.Background()

			guildID := gofakeit.DigitN(18)
			cfg := testConfig(t, store, guildID)
			cfg.ModAppsOpen = false
			cfg.SupporterAppsOpen = false
			require.NoError(t, store.UpsertConfig(ctx, cfg))

			req := openRequest(guildID, tt.kind)
			_, err := e.Open(ctx, req)
			require.ErrorIs(t, err, ErrPanelClosed)

			// No ticket row was created.
			tickets, err := store.ListTickets(ctx)
			require.NoError(t, err)
			require.Empty(t, tickets)

			// The user was also told by DM.
			require.Len(t, gw.dms[req.OwnerID], 1)

			// The gate is re-read per request: toggling takes effect for the
			// very next attempt.
			cfg.ModAppsOpen = true
			cfg.SupporterAppsOpen = true
			require.NoError(t, store.UpsertConfig(ctx, cfg))

			ticket, err := e.Open(ctx, req)
			require.NoError(t, err)
			require.Equal(t, tt.kind, ticket.Kind)
		})
	}
}

func TestOpenCooldown(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	cfg := entities.DefaultGuildConfig(guildID)
	cfg.CooldownSeconds = 300
	require.NoError(t, store.UpsertConfig(ctx, cfg))

	req := openRequest(guildID, entities.KindQuestion)
	_, err := e.Open(ctx, req)
	require.NoError(t, err)

	_, err = e.Open(ctx, req)
	require.ErrorIs(t, err, ErrCooldown)

	// Another user is unaffected.
	_, err = e.Open(ctx, openRequest(guildID, entities.KindQuestion))
	require.NoError(t, err)
}

func TestOpenUnknownKind(t *testing.T) {
	e, store, _ := newTestEngine(t)

	guildID := gofakeit.DigitN(18)
	testConfig(t, store, guildID)

	req := openRequest(guildID, entities.Kind("bogus"))
	_, err := e.Open(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestOpenNotifiesChannelWhenStoreFails(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	testConfig(t, store, guildID)
	store.failCreate = true

	_, err := e.Open(ctx, openRequest(guildID, entities.KindQuestion))
	require.Error(t, err)

	// The channel was created before the store failed; it must carry a
	// notice instead of sitting there silently.
	require.Len(t, gw.channelMessages("chan-1"), 1)
}

func TestClaimLastWriteWins(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	testConfig(t, store, guildID)

	ticket, err := e.Open(ctx, openRequest(guildID, entities.KindQuestion))
	require.NoError(t, err)

	_, err = e.Claim(ctx, ticket.ID, "staff-a")
	require.NoError(t, err)

	claimed, err := e.ClaimByChannel(ctx, ticket.ChannelID, "staff-b")
	require.NoError(t, err)
	require.Equal(t, "staff-b", claimed.ClaimedBy)

	got, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, "staff-b", got.ClaimedBy)

	// Each claim announces itself in the ticket channel.
	announcements := 0
	for _, m := range gw.channelMessages(ticket.ChannelID) {
		if m == "This ticket has been claimed by <@staff-a>." || m == "This ticket has been claimed by <@staff-b>." {
			announcements++
		}
	}
	require.Equal(t, 2, announcements)
}

func TestCloseIsTerminal(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	testConfig(t, store, guildID)

	ticket, err := e.Open(ctx, openRequest(guildID, entities.KindQuestion))
	require.NoError(t, err)

	closed, err := e.Close(ctx, ticket.ID, "staff-a", "resolved")
	require.NoError(t, err)
	require.Equal(t, entities.StatusClosed, closed.Status)
	require.Equal(t, "staff-a", closed.ClosedBy)

	// The channel was re-tagged with the closed marker.
	name, err := gw.ChannelName(ctx, ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, "closed-"+ticket.ChannelName(), name)

	// A second close is a no-op, not an error.
	again, err := e.Close(ctx, ticket.ID, "staff-b", "")
	require.NoError(t, err)
	require.Equal(t, entities.StatusClosed, again.Status)

	got, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, entities.StatusClosed, got.Status)
	require.Equal(t, "staff-a", got.ClosedBy)

	// No operation reopens a closed ticket.
	_, err = e.Claim(ctx, ticket.ID, "staff-b")
	require.ErrorIs(t, err, ErrTicketClosed)
	require.ErrorIs(t, e.SetPriority(ctx, ticket.ChannelID, entities.PriorityHigh), ErrTicketClosed)
	require.ErrorIs(t, e.Rename(ctx, ticket.ChannelID, "new-name"), ErrTicketClosed)

	// Deletion fires exactly once despite the repeated close.
	require.Eventually(t, func() bool {
		return len(gw.deletedChannels()) == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.Len(t, gw.deletedChannels(), 1)
	require.Equal(t, ticket.ChannelID, gw.deletedChannels()[0])
}

func TestCloseForwardsReasonAndSummary(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	cfg := testConfig(t, store, guildID)
	cfg.LogChannelID = "log-channel"
	cfg.TranscriptChannelID = "transcript-channel"
	cfg.ArchiveCategoryID = "archive"
	require.NoError(t, store.UpsertConfig(ctx, cfg))

	ticket, err := e.Open(ctx, openRequest(guildID, entities.KindSuggestion))
	require.NoError(t, err)

	_, err = e.Claim(ctx, ticket.ID, "staff-a")
	require.NoError(t, err)

	_, err = e.Close(ctx, ticket.ID, "staff-a", "duplicate of an older suggestion")
	require.NoError(t, err)

	logs := gw.channelMessages("log-channel")
	require.Len(t, logs, 1)
	require.Contains(t, logs[0], "duplicate of an older suggestion")

	summary := gw.channelMessages("transcript-channel")
	require.Len(t, summary, 1)
	require.Contains(t, summary[0], "Handled by <@staff-a>")

	// The closed channel was parked under the archive category.
	require.Equal(t, "archive", gw.moved[ticket.ChannelID])
}

func TestSetPriorityIdempotent(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	testConfig(t, store, guildID)

	ticket, err := e.Open(ctx, openRequest(guildID, entities.KindQuestion))
	require.NoError(t, err)
	base := ticket.ChannelName()

	require.NoError(t, e.SetPriority(ctx, ticket.ChannelID, entities.PriorityHigh))
	name, err := gw.ChannelName(ctx, ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, "high-"+base, name)

	// Re-applying the same level converges; markers never accumulate.
	require.NoError(t, e.SetPriority(ctx, ticket.ChannelID, entities.PriorityHigh))
	name, err = gw.ChannelName(ctx, ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, "high-"+base, name)

	// Switching levels replaces the marker.
	require.NoError(t, e.SetPriority(ctx, ticket.ChannelID, entities.PriorityLow))
	name, err = gw.ChannelName(ctx, ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, "low-"+base, name)

	// Clearing strips the marker entirely.
	require.NoError(t, e.SetPriority(ctx, ticket.ChannelID, entities.PriorityNone))
	name, err = gw.ChannelName(ctx, ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, base, name)
}

func TestRenameKeepsPriorityMarker(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	guildID := gofakeit.DigitN(18)
	testConfig(t, store, guildID)

	ticket, err := e.Open(ctx, openRequest(guildID, entities.KindQuestion))
	require.NoError(t, err)

	require.NoError(t, e.SetPriority(ctx, ticket.ChannelID, entities.PriorityMedium))
	require.NoError(t, e.Rename(ctx, ticket.ChannelID, "Billing Issue"))

	name, err := gw.ChannelName(ctx, ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, "med-billing-issue", name)
}

func TestOperationsOnNonTicketChannel(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ClaimByChannel(ctx, "random-channel", "staff-a")
	require.ErrorIs(t, err, ErrNotATicket)

	_, err = e.CloseByChannel(ctx, "random-channel", "staff-a", "")
	require.ErrorIs(t, err, ErrNotATicket)

	require.ErrorIs(t, e.SetPriority(ctx, "random-channel", entities.PriorityHigh), ErrNotATicket)
	require.ErrorIs(t, e.Rename(ctx, "random-channel", "name"), ErrNotATicket)
}

func TestGuildConfigDefaults(t *testing.T) {
	e, _, _ := newTestEngine(t)

	cfg, err := e.GuildConfig(context.Background(), "unconfigured-guild")
	require.NoError(t, err)
	require.Equal(t, entities.DefaultMaxTickets, cfg.MaxTickets)
	require.True(t, cfg.ModAppsOpen)
	require.True(t, cfg.SupporterAppsOpen)
}
