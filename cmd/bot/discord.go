package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
	"github.com/mikastratmann187-source/botdd/pkg/ticketing"
)

// panelBlurb is the body of every panel message.
const panelBlurb = `Need help from the team? Pick the kind of ticket you want to open below.`

// discordGateway implements ticketing.Gateway over a live discord session.
type discordGateway struct {
	l *slog.Logger

	// s is the discord session.
	s *discordgo.Session

	// appID is the bot's application ID, used to grant the bot access to the
	// channels it creates and to recognise its own panel messages.
	appID string
}

// NewDiscordGateway creates the discord-backed gateway for the ticket engine.
func NewDiscordGateway(l *slog.Logger, s *discordgo.Session, appID string) ticketing.Gateway {
	return &discordGateway{
		l:     l,
		s:     s,
		appID: appID,
	}
}

func (g *discordGateway) CreateTicketChannel(_ context.Context, spec ticketing.ChannelSpec) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		// Deny @everyone from seeing the ticket.
		{
			ID:    spec.GuildID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: 0,
			Deny:  discordgo.PermissionAll,
		},
		// The creator of the ticket can see the ticket.
		{
			ID:    spec.OwnerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionAllText,
			Deny:  discordgo.PermissionMentionEveryone,
		},
		// The bot needs to manage the channel it creates.
		{
			ID:    g.appID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionAllText | discordgo.PermissionManageChannels,
			Deny:  0,
		},
	}

	// Add the support role when one is configured.
	if spec.SupportRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    spec.SupportRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionAllText,
			Deny:  discordgo.PermissionMentionEveryone,
		})
	}

	channel, err := g.s.GuildChannelCreateComplex(spec.GuildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		PermissionOverwrites: overwrites,
		ParentID:             spec.CategoryID,
	})
	if err != nil {
		return "", fmt.Errorf("error creating ticket channel: %w", err)
	}
	return channel.ID, nil
}

func (g *discordGateway) ChannelName(_ context.Context, channelID string) (string, error) {
	channel, err := g.s.Channel(channelID)
	if err != nil {
		return "", fmt.Errorf("error getting channel: %w", err)
	}
	return channel.Name, nil
}

func (g *discordGateway) SendMessage(_ context.Context, channelID, content string) (string, error) {
	msg, err := g.s.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", fmt.Errorf("error sending message: %w", err)
	}
	return msg.ID, nil
}

func (g *discordGateway) SendTicketIntro(_ context.Context, channelID, content string) (string, error) {
	msg, err := g.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    fmt.Sprintf("%s Claim", ClaimEmoji),
						Style:    discordgo.PrimaryButton,
						Disabled: false,
						Emoji:    discordgo.ComponentEmoji{},
						URL:      "",
						CustomID: ClaimTicketButtonID,
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Close", CloseEmoji),
						Style:    discordgo.SecondaryButton,
						Disabled: false,
						Emoji:    discordgo.ComponentEmoji{},
						URL:      "",
						CustomID: CloseTicketButtonID,
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("error sending intro message: %w", err)
	}
	return msg.ID, nil
}

func (g *discordGateway) RenameChannel(_ context.Context, channelID, name string) error {
	if _, err := g.s.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		Name: name,
	}); err != nil {
		return fmt.Errorf("error renaming channel: %w", err)
	}
	return nil
}

func (g *discordGateway) MoveChannel(_ context.Context, channelID, categoryID string) error {
	if _, err := g.s.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		ParentID: categoryID,
	}); err != nil {
		return fmt.Errorf("error moving channel: %w", err)
	}
	return nil
}

func (g *discordGateway) DeleteChannel(_ context.Context, channelID string) error {
	if _, err := g.s.ChannelDelete(channelID); err != nil {
		er := new(discordgo.RESTError)
		if errors.As(err, &er) && er.Message != nil && er.Message.Code == discordgo.ErrCodeUnknownChannel {
			// The channel is already gone, which is the state we wanted.
			return nil
		}
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

func (g *discordGateway) SendDirectMessage(_ context.Context, userID, content string) error {
	dm, err := g.s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("error creating DM channel: %w", err)
	}
	if _, err := g.s.ChannelMessageSend(dm.ID, content); err != nil {
		er := new(discordgo.RESTError)
		if errors.As(err, &er) && er.Message != nil && er.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
			// The user has DMs disabled. Their choice.
			return nil
		}
		return fmt.Errorf("error sending DM: %w", err)
	}
	return nil
}

func (g *discordGateway) PostPanel(_ context.Context, channelID, title string, controls []ticketing.Control) (ticketing.MessageRef, error) {
	msg, err := g.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title:       title,
			Description: panelBlurb,
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
		Components:      renderPanelComponents(controls),
	})
	if err != nil {
		return ticketing.MessageRef{}, fmt.Errorf("error posting panel: %w", err)
	}
	return ticketing.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

func (g *discordGateway) FindPanelMessages(_ context.Context, guildID, title string) ([]ticketing.MessageRef, error) {
	channels, err := g.s.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild channels: %w", err)
	}

	refs := make([]ticketing.MessageRef, 0)
	for _, channel := range channels {
		if channel.Type != discordgo.ChannelTypeGuildText {
			continue
		}

		msgs, err := g.s.ChannelMessages(channel.ID, 50, "", "", "")
		if err != nil {
			// Channels the bot cannot read are skipped, not fatal.
			g.l.Debug("Skipping channel while locating panels",
				slog.String(logging.KeyChannel, channel.ID),
				slog.String(logging.KeyError, err.Error()),
			)
			continue
		}

		for _, msg := range msgs {
			if msg.Author == nil || msg.Author.ID != g.appID {
				continue
			}
			if len(msg.Embeds) == 0 || msg.Embeds[0].Title != title {
				continue
			}
			refs = append(refs, ticketing.MessageRef{ChannelID: channel.ID, MessageID: msg.ID})
		}
	}
	return refs, nil
}

func (g *discordGateway) EditPanelControls(_ context.Context, ref ticketing.MessageRef, controls []ticketing.Control) error {
	components := renderPanelComponents(controls)
	if _, err := g.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    ref.ChannelID,
		ID:         ref.MessageID,
		Components: components,
	}); err != nil {
		return fmt.Errorf("error editing panel message: %w", err)
	}
	return nil
}

// renderPanelComponents renders the control set as a single select menu.
func renderPanelComponents(controls []ticketing.Control) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(controls))
	for _, c := range controls {
		options = append(options, discordgo.SelectMenuOption{
			Label:       c.Label,
			Value:       string(c.Kind),
			Description: c.Description,
		})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    OpenTicketMenuID,
					Placeholder: "Select a ticket type...",
					Options:     options,
				},
			},
		},
	}
}
