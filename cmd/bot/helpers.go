package main

import (
	"errors"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/mikastratmann187-source/botdd/pkg/messages"
	"github.com/mikastratmann187-source/botdd/pkg/ticketing"
)

func respondSlashError(a IApp, i *discordgo.InteractionCreate) error {
	return respondEphemeral(a, i, messages.ErrUserErrorProcessing)
}

func respondEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// guardMessage maps a lifecycle refusal onto the message shown to the user.
func guardMessage(err error) string {
	switch {
	case errors.Is(err, ticketing.ErrNotATicket):
		return messages.NotATicketChannel
	case errors.Is(err, ticketing.ErrTicketClosed):
		return messages.TicketAlreadyClosed
	case errors.Is(err, ticketing.ErrTicketLimitReached):
		return messages.TicketLimitReached
	case errors.Is(err, ticketing.ErrCooldown):
		return messages.TicketCooldown
	case errors.Is(err, ticketing.ErrPanelClosed):
		return messages.ModAppsClosed
	default:
		return messages.ErrUserErrorProcessing
	}
}

// isExpiredInteraction reports whether the error came from responding to an
// interaction whose token has already lapsed.
func isExpiredInteraction(err error) bool {
	if errors.Is(err, ticketing.ErrExpiredInteraction) {
		return true
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownInteraction
	}
	return false
}

// hasRole reports whether the member carries the given role.
func hasRole(member *discordgo.Member, roleID string) bool {
	if member == nil {
		return false
	}
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// memberName is the display name used when recording the ticket owner.
func memberName(i *discordgo.InteractionCreate) string {
	if i.Member == nil || i.Member.User == nil {
		return ""
	}
	if i.Member.Nick != "" {
		return i.Member.Nick
	}
	return i.Member.User.Username
}

// memberID is the acting user's ID, empty when the interaction did not come
// from a guild.
func memberID(i *discordgo.InteractionCreate) string {
	if i.Member == nil || i.Member.User == nil {
		return ""
	}
	return i.Member.User.ID
}
