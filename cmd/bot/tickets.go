package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
	"github.com/mikastratmann187-source/botdd/pkg/messages"
	"github.com/mikastratmann187-source/botdd/pkg/ticketing"
)

const (
	// OpenTicketMenuID is the ID for the ticket kind select menu on a panel.
	OpenTicketMenuID = "open_ticket_menu"

	// ClaimTicketButtonID is the ID for the claim ticket button.
	ClaimTicketButtonID = "claim_ticket_button"

	// CloseTicketButtonID is the ID for the close ticket button.
	CloseTicketButtonID = "close_ticket_button"

	// TicketModalID is the custom ID prefix for the ticket question modals.
	// The ticket kind is encoded after the prefix, e.g. "ticket_modal:suggestion".
	TicketModalID = "ticket_modal"
)

const (
	// ClaimEmoji is the emoji that will be used for the claim button. (Ticket)
	ClaimEmoji = "\U0001F3AB"

	// CloseEmoji is the emoji that will be used for the close button. (Padlock)
	CloseEmoji = "\U0001F510"
)

const (
	// TicketCmdName is the command for controlling tickets.
	TicketCmdName = "ticket"

	// ClaimCmdName is the sub command for claiming a ticket.
	ClaimCmdName = "claim"

	// CloseCmdName is the sub command for closing a ticket.
	CloseCmdName = "close"

	// PriorityCmdName is the sub command for setting the ticket priority.
	PriorityCmdName = "priority"

	// RenameCmdName is the sub command for renaming a ticket.
	RenameCmdName = "rename"
)

// ticketCmd is the command for controlling tickets.
var ticketCmd = &discordgo.ApplicationCommand{
	Name:        TicketCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "This is the command for controlling tickets.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        ClaimCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This claims the ticket for the channel that the command was executed in.",
		},
		{
			Name:        CloseCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This closes the ticket for the channel that the command was executed in.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "reason",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The reason the ticket is being closed.",
					Required:    false,
				},
			},
		},
		{
			Name:        PriorityCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets the priority of the ticket for the channel that the command was executed in.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "level",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The priority level.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Low", Value: string(entities.PriorityLow)},
						{Name: "Medium", Value: string(entities.PriorityMedium)},
						{Name: "High", Value: string(entities.PriorityHigh)},
						{Name: "None", Value: string(entities.PriorityNone)},
					},
				},
			},
		},
		{
			Name:        RenameCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This renames the ticket for the channel that the command was executed in.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "name",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The new ticket name.",
					Required:    true,
				},
			},
		},
	},
}

// modalQuestions are the questions asked before a ticket of the given kind is
// opened. Questions only change alongside the modal rendering below, so they
// live here rather than in configuration.
var modalQuestions = map[entities.Kind][]string{
	entities.KindSuggestion: {
		"What is your suggestion?",
		"How would it improve the server?",
	},
	entities.KindModApplication: {
		"How old are you, and what timezone are you in?",
		"Do you have any moderation experience?",
		"Why do you want to join the moderation team?",
	},
	entities.KindSupporterApplication: {
		"What timezone are you in?",
		"Why do you want to become a supporter?",
	},
}

// ticketCmdProcessor dispatches the /ticket sub commands. All of them act on
// the channel the command was executed in and are restricted to the support
// role when one is configured.
func ticketCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	cfg, err := a.Engine().GuildConfig(ctx, i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}

	if cfg.SupportRoleID != "" && !hasRole(i.Member, cfg.SupportRoleID) {
		return respondEphemeral(a, i, "You need the support role to manage tickets.")
	}

	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case ClaimCmdName:
		ticket, err := a.Engine().ClaimByChannel(ctx, i.ChannelID, memberID(i))
		if err != nil {
			return err
		}
		return respondEphemeral(a, i, fmt.Sprintf("You have claimed ticket #%d.", ticket.ID))
	case CloseCmdName:
		reason := ""
		if len(sub.Options) > 0 {
			reason = sub.Options[0].StringValue()
		}
		if _, err := a.Engine().CloseByChannel(ctx, i.ChannelID, memberID(i), reason); err != nil {
			return err
		}
		return respondEphemeral(a, i, messages.TicketClosing)
	case PriorityCmdName:
		level := entities.Priority(sub.Options[0].StringValue())
		if err := a.Engine().SetPriority(ctx, i.ChannelID, level); err != nil {
			return err
		}
		return respondEphemeral(a, i, fmt.Sprintf("Ticket priority set to %s.", level))
	case RenameCmdName:
		name := sub.Options[0].StringValue()
		if err := a.Engine().Rename(ctx, i.ChannelID, name); err != nil {
			return err
		}
		return respondEphemeral(a, i, "Ticket renamed.")
	default:
		return fmt.Errorf("unknown sub command %q", sub.Name)
	}
}

// openTicketMenuProcessor handles a selection on a panel. Questions open a
// ticket straight away; every other kind collects its answers in a modal
// first.
func openTicketMenuProcessor(a IApp, i *discordgo.InteractionCreate) error {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return fmt.Errorf("no ticket kind selected")
	}

	kind := entities.Kind(values[0])
	if !kind.Valid() {
		return fmt.Errorf("unknown ticket kind %q", values[0])
	}

	if kind == entities.KindQuestion {
		return openTicket(a, i, kind, nil)
	}

	// Check the gate before presenting the modal, so a closed panel refuses
	// immediately rather than after the user has filled out the form.
	cfg, err := a.Engine().GuildConfig(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}
	if !cfg.KindOpen(kind) {
		return respondEphemeral(a, i, panelClosedMessage(kind))
	}

	return respondTicketModal(a, i, kind)
}

// ticketModalProcessor opens a ticket from a submitted question modal.
func ticketModalProcessor(a IApp, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()

	_, rawKind, ok := strings.Cut(data.CustomID, ":")
	if !ok {
		return fmt.Errorf("malformed modal custom ID %q", data.CustomID)
	}

	kind := entities.Kind(rawKind)
	if !kind.Valid() {
		return fmt.Errorf("unknown ticket kind %q", rawKind)
	}

	questions := modalQuestions[kind]
	answers := make(entities.Answers, 0, len(questions))
	for idx, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok || len(row.Components) == 0 {
			continue
		}
		input, ok := row.Components[0].(*discordgo.TextInput)
		if !ok || idx >= len(questions) {
			continue
		}
		answers = append(answers, entities.Answer{
			Question: questions[idx],
			Answer:   input.Value,
		})
	}

	return openTicket(a, i, kind, answers)
}

func openTicket(a IApp, i *discordgo.InteractionCreate, kind entities.Kind, answers entities.Answers) error {
	ticket, err := a.Engine().Open(context.Background(), ticketing.OpenRequest{
		GuildID:   i.GuildID,
		OwnerID:   memberID(i),
		OwnerName: memberName(i),
		Kind:      kind,
		Answers:   answers,
	})
	if err != nil {
		if errors.Is(err, ticketing.ErrPanelClosed) {
			return respondEphemeral(a, i, panelClosedMessage(kind))
		}
		return err
	}

	return respondEphemeral(a, i, fmt.Sprintf("Your ticket has been created: <#%s>", ticket.ChannelID))
}

// claimTicketProcessor handles the claim button on a ticket intro message.
func claimTicketProcessor(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	cfg, err := a.Engine().GuildConfig(ctx, i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}
	if cfg.SupportRoleID != "" && !hasRole(i.Member, cfg.SupportRoleID) {
		return respondEphemeral(a, i, "You need the support role to claim tickets.")
	}

	ticket, err := a.Engine().ClaimByChannel(ctx, i.ChannelID, memberID(i))
	if err != nil {
		return err
	}
	return respondEphemeral(a, i, fmt.Sprintf("You have claimed ticket #%d.", ticket.ID))
}

// closeTicketProcessor handles the close button on a ticket intro message.
// The ticket owner may close their own ticket; anyone else needs the support
// role.
func closeTicketProcessor(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	cfg, err := a.Engine().GuildConfig(ctx, i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}

	isStaff := cfg.SupportRoleID == "" || hasRole(i.Member, cfg.SupportRoleID)
	if !isStaff {
		ticket, err := a.Tickets().GetTicketByChannel(ctx, i.ChannelID)
		if err != nil || ticket.OwnerID != memberID(i) {
			return respondEphemeral(a, i, "Only the ticket owner or the support team can close this ticket.")
		}
	}

	if _, err := a.Engine().CloseByChannel(ctx, i.ChannelID, memberID(i), ""); err != nil {
		return err
	}
	return respondEphemeral(a, i, messages.TicketClosing)
}

// respondTicketModal presents the question form for the given kind.
func respondTicketModal(a IApp, i *discordgo.InteractionCreate, kind entities.Kind) error {
	questions := modalQuestions[kind]
	rows := make([]discordgo.MessageComponent, 0, len(questions))
	for idx, q := range questions {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  fmt.Sprintf("answer_%d", idx),
					Label:     q,
					Style:     discordgo.TextInputParagraph,
					Required:  true,
					MaxLength: 500,
				},
			},
		})
	}

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   TicketModalID + ":" + string(kind),
			Title:      modalTitle(kind),
			Components: rows,
		},
	})
}

func modalTitle(kind entities.Kind) string {
	switch kind {
	case entities.KindSuggestion:
		return "Make a suggestion"
	case entities.KindModApplication:
		return "Moderator application"
	case entities.KindSupporterApplication:
		return "Supporter application"
	default:
		return "Open a ticket"
	}
}

func panelClosedMessage(kind entities.Kind) string {
	switch kind {
	case entities.KindModApplication:
		return messages.ModAppsClosed
	case entities.KindSupporterApplication:
		return messages.SupporterAppsClosed
	default:
		return messages.ErrUserErrorProcessing
	}
}
