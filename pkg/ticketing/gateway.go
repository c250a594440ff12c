// Package ticketing implements the ticket lifecycle engine and the panel
// renderer. It talks to the chat platform only through the Gateway interface,
// so the lifecycle rules stay testable without a live connection.
package ticketing

import (
	"context"
	"errors"
)

// ErrExpiredInteraction is reported by a Gateway when the platform has
// invalidated the interaction token behind an operation. Callers branch on
// this with errors.Is and swallow it; the user has already moved on.
var ErrExpiredInteraction = errors.New("interaction expired")

// ChannelSpec describes the channel to create for a new ticket. Visibility is
// fixed: everyone is denied, the owner, the support role (when set) and the
// bot are allowed.
type ChannelSpec struct {
	GuildID       string
	Name          string
	Topic         string
	CategoryID    string
	OwnerID       string
	SupportRoleID string
}

// MessageRef identifies a message the bot has posted.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Gateway is the chat platform abstraction consumed by the engine and the
// panel renderer.
type Gateway interface {
	// CreateTicketChannel creates the restricted channel for a ticket and
	// returns its ID.
	CreateTicketChannel(ctx context.Context, spec ChannelSpec) (string, error)

	// ChannelName returns the current name of a channel.
	ChannelName(ctx context.Context, channelID string) (string, error)

	// SendMessage posts a plain message into a channel and returns its ID.
	SendMessage(ctx context.Context, channelID, content string) (string, error)

	// SendTicketIntro posts the introductory message into a new ticket
	// channel, with the claim and close controls attached.
	SendTicketIntro(ctx context.Context, channelID, content string) (string, error)

	// RenameChannel renames a channel.
	RenameChannel(ctx context.Context, channelID, name string) error

	// MoveChannel moves a channel under a new parent category.
	MoveChannel(ctx context.Context, channelID, categoryID string) error

	// DeleteChannel deletes a channel. Best effort; an already deleted channel
	// is not an error.
	DeleteChannel(ctx context.Context, channelID string) error

	// SendDirectMessage delivers a direct message to a user. Best effort;
	// users with DMs disabled are not an error.
	SendDirectMessage(ctx context.Context, userID, content string) error

	// PostPanel posts a panel message with the given controls.
	PostPanel(ctx context.Context, channelID, title string, controls []Control) (MessageRef, error)

	// FindPanelMessages locates previously posted panel messages in the guild
	// by authorship and title.
	FindPanelMessages(ctx context.Context, guildID, title string) ([]MessageRef, error)

	// EditPanelControls replaces the interactive control row of an existing
	// panel message.
	EditPanelControls(ctx context.Context, ref MessageRef, controls []Control) error
}
