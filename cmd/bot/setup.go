package main

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

const (
	// setupCmdName is the command for all configuration commands.
	setupCmdName = "setup"

	// categoryCmdName sets the category new ticket channels are created under.
	categoryCmdName = "category"

	// archiveCmdName sets the category closed ticket channels are moved to.
	archiveCmdName = "archive"

	// roleCmdName sets the role allowed to manage tickets.
	roleCmdName = "role"

	// logChannelCmdName sets the channel lifecycle events are logged to.
	logChannelCmdName = "log_channel"

	// transcriptChannelCmdName sets the channel close summaries are sent to.
	transcriptChannelCmdName = "transcript_channel"

	// maxTicketsCmdName sets the per-user open ticket cap.
	maxTicketsCmdName = "max_tickets"

	// cooldownCmdName sets the per-user cooldown between tickets.
	cooldownCmdName = "cooldown"

	// welcomeCmdName sets the message posted into new ticket channels.
	welcomeCmdName = "welcome"

	// panelCmdName posts a panel into a channel.
	panelCmdName = "panel"

	// modAppsCmdName opens or closes moderator applications.
	modAppsCmdName = "mod_apps"

	// supporterAppsCmdName opens or closes supporter applications.
	supporterAppsCmdName = "supporter_apps"
)

// setupCmd is the command for all configuration commands.
var setupCmd = &discordgo.ApplicationCommand{
	Name:        setupCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "This is the command for all configuration commands.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        categoryCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets the category that new ticket channels are created under.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "category",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "The category for new ticket channels.",
					Required:    true,
				},
			},
		},
		{
			Name:        archiveCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets the category that closed ticket channels are moved to.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "category",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "The category for closed ticket channels.",
					Required:    true,
				},
			},
		},
		{
			Name:        roleCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets the role that is allowed to manage tickets.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "role",
					Type:        discordgo.ApplicationCommandOptionRole,
					Description: "The role you want to handle tickets.",
					Required:    true,
				},
			},
		},
		{
			Name:        logChannelCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets the channel that ticket lifecycle events are logged to.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "channel",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "The channel for ticket lifecycle logs.",
					Required:    true,
				},
			},
		},
		{
			Name:        transcriptChannelCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets the channel that ticket close summaries are sent to.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "channel",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "The channel for ticket close summaries.",
					Required:    true,
				},
			},
		},
		{
			Name:        maxTicketsCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets how many tickets a single user can have open at once.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "limit",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Description: "The per-user open ticket limit.",
					Required:    true,
				},
			},
		},
		{
			Name:        cooldownCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets how long a user must wait between opening tickets.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "seconds",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Description: "The cooldown in seconds. Zero disables the cooldown.",
					Required:    true,
				},
			},
		},
		{
			Name:        welcomeCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This sets the message posted into new ticket channels.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "message",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The welcome message. Leave empty to restore the default.",
					Required:    false,
				},
			},
		},
		{
			Name:        panelCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This posts a ticket panel into the channel you specify.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "channel",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "The channel to post the panel in.",
					Required:    true,
				},
			},
		},
		{
			Name:        modAppsCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This opens or closes moderator applications.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "open",
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Description: "Whether moderator applications are open.",
					Required:    true,
				},
			},
		},
		{
			Name:        supporterAppsCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "This opens or closes supporter applications.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "open",
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Description: "Whether supporter applications are open.",
					Required:    true,
				},
			},
		},
	},
}

// setupCmdProcessor dispatches the /setup sub commands. Administrators only.
func setupCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	// Ensure the user is an administrator.
	if i.Member.Permissions&discordgo.PermissionAdministrator != discordgo.PermissionAdministrator {
		return respondEphemeral(a, i, "You must be an administrator to use this command")
	}

	ctx := context.Background()

	// Load the current configuration, falling back to the defaults for a
	// guild that has never been configured.
	cfg, err := a.Engine().GuildConfig(ctx, i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}

	sub := i.ApplicationCommandData().Options[0]

	// Panel toggles need the already-posted panels refreshed afterwards.
	refreshPanels := false

	var confirmation string
	switch sub.Name {
	case categoryCmdName:
		category := sub.Options[0].ChannelValue(a.Session())
		if category.Type != discordgo.ChannelTypeGuildCategory {
			return respondEphemeral(a, i, "You must provide a category for new tickets.")
		}
		cfg.TicketCategoryID = category.ID
		confirmation = fmt.Sprintf("New tickets will be created under **%s**.", category.Name)
	case archiveCmdName:
		category := sub.Options[0].ChannelValue(a.Session())
		if category.Type != discordgo.ChannelTypeGuildCategory {
			return respondEphemeral(a, i, "You must provide a category for closed tickets.")
		}
		cfg.ArchiveCategoryID = category.ID
		confirmation = fmt.Sprintf("Closed tickets will be moved under **%s**.", category.Name)
	case roleCmdName:
		role := sub.Options[0].RoleValue(a.Session(), i.GuildID)
		cfg.SupportRoleID = role.ID
		confirmation = fmt.Sprintf("Tickets will be handled by **%s**.", role.Name)
	case logChannelCmdName:
		channel := sub.Options[0].ChannelValue(a.Session())
		if channel.Type != discordgo.ChannelTypeGuildText {
			return respondEphemeral(a, i, "You must provide a text channel for lifecycle logs.")
		}
		cfg.LogChannelID = channel.ID
		confirmation = fmt.Sprintf("Ticket lifecycle events will be logged to <#%s>.", channel.ID)
	case transcriptChannelCmdName:
		channel := sub.Options[0].ChannelValue(a.Session())
		if channel.Type != discordgo.ChannelTypeGuildText {
			return respondEphemeral(a, i, "You must provide a text channel for close summaries.")
		}
		cfg.TranscriptChannelID = channel.ID
		confirmation = fmt.Sprintf("Ticket close summaries will be sent to <#%s>.", channel.ID)
	case maxTicketsCmdName:
		limit := sub.Options[0].IntValue()
		if limit < 1 {
			return respondEphemeral(a, i, "The ticket limit must be at least 1.")
		}
		cfg.MaxTickets = int(limit)
		confirmation = fmt.Sprintf("Users can now have %d open tickets at once.", limit)
	case cooldownCmdName:
		seconds := sub.Options[0].IntValue()
		if seconds < 0 {
			return respondEphemeral(a, i, "The cooldown cannot be negative.")
		}
		cfg.CooldownSeconds = int(seconds)
		confirmation = fmt.Sprintf("Users must now wait %d seconds between tickets.", seconds)
	case welcomeCmdName:
		message := ""
		if len(sub.Options) > 0 {
			message = sub.Options[0].StringValue()
		}
		cfg.WelcomeMessage = message
		if message == "" {
			confirmation = "The ticket welcome message has been reset to the default."
		} else {
			confirmation = "The ticket welcome message has been updated."
		}
	case panelCmdName:
		channel := sub.Options[0].ChannelValue(a.Session())
		if channel.Type != discordgo.ChannelTypeGuildText {
			return respondEphemeral(a, i, "You must provide a text channel for the panel.")
		}
		if _, err := a.Renderer().PostPanel(ctx, cfg, channel.ID); err != nil {
			return fmt.Errorf("error posting panel: %w", err)
		}
		// The panel command does not change the configuration, but falls
		// through to the upsert so a first-time guild gets its defaults
		// persisted alongside its first panel.
		confirmation = fmt.Sprintf("Panel posted in <#%s>.", channel.ID)
	case modAppsCmdName:
		cfg.ModAppsOpen = sub.Options[0].BoolValue()
		refreshPanels = true
		confirmation = appsConfirmation("Moderator", cfg.ModAppsOpen)
	case supporterAppsCmdName:
		cfg.SupporterAppsOpen = sub.Options[0].BoolValue()
		refreshPanels = true
		confirmation = appsConfirmation("Supporter", cfg.SupporterAppsOpen)
	default:
		return fmt.Errorf("unhandled sub command %s", sub.Name)
	}

	if err := a.Configs().UpsertConfig(ctx, cfg); err != nil {
		return fmt.Errorf("error saving guild configuration: %w", err)
	}

	if refreshPanels {
		if err := a.Renderer().RefreshPanels(ctx, cfg); err != nil {
			return fmt.Errorf("error refreshing panels: %w", err)
		}
	}

	return respondEphemeral(a, i, confirmation)
}

func appsConfirmation(team string, open bool) string {
	if open {
		return fmt.Sprintf("%s applications are now open.", team)
	}
	return fmt.Sprintf("%s applications are now closed.", team)
}
