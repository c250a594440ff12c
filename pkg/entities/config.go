package entities

import "github.com/uptrace/bun"

const (
	// DefaultMaxTickets is the default cap on concurrent open tickets per user.
	DefaultMaxTickets = 3

	// DefaultCooldownSeconds is the default wait between ticket opens per user.
	DefaultCooldownSeconds = 60
)

// GuildConfig is the per-guild ticketing configuration. Exactly one row exists
// per guild; an absent row means all-default behaviour.
type GuildConfig struct {
	bun.BaseModel `bun:"table:configs,alias:c"`

	ID int64 `bun:"id,pk,autoincrement" json:"id"`

	// GuildID is the guild the configuration belongs to.
	GuildID string `bun:"guild_id,notnull,unique" json:"guildId"`

	// TicketCategoryID is the category new ticket channels are created under.
	TicketCategoryID string `bun:"ticket_category_id" json:"ticketCategoryId,omitempty"`

	// ArchiveCategoryID is the category closed ticket channels are moved to
	// while they await deletion.
	ArchiveCategoryID string `bun:"archive_category_id" json:"archiveCategoryId,omitempty"`

	// SupportRoleID is the role that handles tickets.
	SupportRoleID string `bun:"support_role_id" json:"supportRoleId,omitempty"`

	// LogChannelID is the channel ticket lifecycle events are logged to.
	LogChannelID string `bun:"log_channel_id" json:"logChannelId,omitempty"`

	// TranscriptChannelID is the channel closure summaries are posted to.
	TranscriptChannelID string `bun:"transcript_channel_id" json:"transcriptChannelId,omitempty"`

	// MaxTickets caps the number of concurrently open tickets per user.
	MaxTickets int `bun:"max_tickets,notnull,default:3" json:"maxTickets"`

	// CooldownSeconds is the minimum wait between ticket opens per user.
	CooldownSeconds int `bun:"cooldown_seconds,notnull,default:60" json:"cooldownSeconds"`

	// WelcomeMessage overrides the default text posted into a new ticket
	// channel when set.
	WelcomeMessage string `bun:"welcome_message" json:"welcomeMessage,omitempty"`

	// ModAppsOpen gates whether moderator applications accept new tickets.
	ModAppsOpen bool `bun:"mod_apps_open,notnull,default:true" json:"modAppsOpen"`

	// SupporterAppsOpen gates whether supporter applications accept new tickets.
	SupporterAppsOpen bool `bun:"supporter_apps_open,notnull,default:true" json:"supporterAppsOpen"`
}

// DefaultGuildConfig returns the configuration used for a guild that has not
// been set up yet: default caps and both application panels open.
func DefaultGuildConfig(guildID string) *GuildConfig {
	return &GuildConfig{
		GuildID:           guildID,
		MaxTickets:        DefaultMaxTickets,
		CooldownSeconds:   DefaultCooldownSeconds,
		ModAppsOpen:       true,
		SupporterAppsOpen: true,
	}
}

// KindOpen reports whether the given ticket kind currently accepts new
// tickets. Non-application kinds are always open.
func (c *GuildConfig) KindOpen(k Kind) bool {
	switch k {
	case KindModApplication:
		return c.ModAppsOpen
	case KindSupporterApplication:
		return c.SupporterAppsOpen
	default:
		return true
	}
}
