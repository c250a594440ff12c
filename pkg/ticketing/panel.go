package ticketing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikastratmann187-source/botdd/pkg/dataaccess"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
)

// PanelTitle is the well-known title panel messages are posted and located by.
const PanelTitle = "Support Tickets"

// Control is one selectable entry on a panel, derived from the guild
// configuration at render time.
type Control struct {
	// Kind is the ticket kind the control opens.
	Kind entities.Kind

	// Label is the display label, reflecting the open/closed state.
	Label string

	// Description is the short help text under the label.
	Description string

	// Open is whether the kind currently accepts tickets.
	Open bool
}

// Controls derives the current panel control set from the configuration.
func Controls(cfg *entities.GuildConfig) []Control {
	controls := make([]Control, 0, len(entities.Kinds()))
	for _, k := range entities.Kinds() {
		c := Control{
			Kind: k,
			Open: cfg.KindOpen(k),
		}
		switch k {
		case entities.KindQuestion:
			c.Label = "Question"
			c.Description = "Ask the support team a question"
		case entities.KindSuggestion:
			c.Label = "Suggestion"
			c.Description = "Suggest an improvement for the server"
		case entities.KindModApplication:
			c.Label = "Moderator Application"
			c.Description = "Apply to join the moderation team"
		case entities.KindSupporterApplication:
			c.Label = "Supporter Application"
			c.Description = "Apply to become a supporter"
		}
		if !c.Open {
			c.Label += " (closed)"
		}
		controls = append(controls, c)
	}
	return controls
}

// PanelRenderer keeps previously posted panel messages consistent with the
// guild configuration.
type PanelRenderer struct {
	// l is the logger.
	l *slog.Logger

	// gw is the chat platform gateway.
	gw Gateway

	// configs is the guild configuration store.
	configs dataaccess.ConfigDal
}

// NewPanelRenderer creates a new panel renderer.
func NewPanelRenderer(l *slog.Logger, gw Gateway, configs dataaccess.ConfigDal) *PanelRenderer {
	return &PanelRenderer{
		l:       l.With(slog.String("component", "panels")),
		gw:      gw,
		configs: configs,
	}
}

// PostPanel posts a fresh panel into the given channel.
func (r *PanelRenderer) PostPanel(ctx context.Context, cfg *entities.GuildConfig, channelID string) (MessageRef, error) {
	ref, err := r.gw.PostPanel(ctx, channelID, PanelTitle, Controls(cfg))
	if err != nil {
		return MessageRef{}, fmt.Errorf("error posting panel: %w", err)
	}
	return ref, nil
}

// RefreshPanels re-renders the control row of every previously posted panel
// message in the guild. The refresh is best effort, not transactional: a
// panel that has been deleted, or that cannot be edited, is skipped with a
// warning and does not fail the others.
func (r *PanelRenderer) RefreshPanels(ctx context.Context, cfg *entities.GuildConfig) error {
	refs, err := r.gw.FindPanelMessages(ctx, cfg.GuildID, PanelTitle)
	if err != nil {
		return fmt.Errorf("error finding panel messages: %w", err)
	}

	controls := Controls(cfg)
	for _, ref := range refs {
		if err := r.gw.EditPanelControls(ctx, ref, controls); err != nil {
			r.l.Warn("Error refreshing panel message",
				slog.String(logging.KeyGuild, cfg.GuildID),
				slog.String(logging.KeyChannel, ref.ChannelID),
				slog.String(logging.KeyError, err.Error()))
			continue
		}
	}
	return nil
}
