package entities

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mikastratmann187-source/botdd/pkg/custom"
	"github.com/uptrace/bun"
)

// Kind is the category of a ticket.
type Kind string

const (
	// KindQuestion is a plain support question.
	KindQuestion Kind = "question"

	// KindSuggestion is a suggestion for the server.
	KindSuggestion Kind = "suggestion"

	// KindModApplication is an application for the moderator role.
	KindModApplication Kind = "mod_application"

	// KindSupporterApplication is an application for the supporter role.
	KindSupporterApplication Kind = "supporter_application"
)

// Kinds lists every ticket kind in panel order.
func Kinds() []Kind {
	return []Kind{KindQuestion, KindSuggestion, KindModApplication, KindSupporterApplication}
}

// Valid reports whether k is a known ticket kind.
func (k Kind) Valid() bool {
	switch k {
	case KindQuestion, KindSuggestion, KindModApplication, KindSupporterApplication:
		return true
	}
	return false
}

// IsApplication reports whether k is one of the application kinds that can be
// opened and closed by an admin.
func (k Kind) IsApplication() bool {
	return k == KindModApplication || k == KindSupporterApplication
}

// Slug returns the channel-name prefix for the kind.
func (k Kind) Slug() string {
	switch k {
	case KindSuggestion:
		return "suggestion"
	case KindModApplication:
		return "mod-app"
	case KindSupporterApplication:
		return "supporter-app"
	default:
		return "ticket"
	}
}

// Status is the lifecycle state of a ticket.
type Status string

const (
	// StatusOpen is an open ticket.
	StatusOpen Status = "open"

	// StatusClosed is a closed ticket. Closing is terminal; there is no reopen.
	StatusClosed Status = "closed"
)

// Ticket is a tracked support or application request. One channel exists per
// ticket; the row outlives the channel.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	// ID is the number of the ticket.
	ID int64 `bun:"id,pk,autoincrement" json:"id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `bun:"guild_id,notnull" json:"guildId"`

	// ChannelID is the ID of the channel created for the ticket. It is empty
	// only until channel creation completes, and immutable afterwards.
	ChannelID string `bun:"channel_id" json:"channelId"`

	// OwnerID is the ID of the user that opened the ticket.
	OwnerID string `bun:"owner_id,notnull" json:"ownerId"`

	// OwnerName is the display name of the user that opened the ticket.
	OwnerName string `bun:"owner_name,notnull" json:"ownerName"`

	// Kind is the ticket category.
	Kind Kind `bun:"kind,notnull" json:"kind"`

	// Status is the lifecycle state.
	Status Status `bun:"status,notnull,default:'open'" json:"status"`

	// ClaimedBy is the ID of the staff member that claimed the ticket.
	// Claiming is not exclusive; the last claim wins.
	ClaimedBy string `bun:"claimed_by" json:"claimedBy,omitempty"`

	// ClosedBy is the ID of the user that closed the ticket.
	ClosedBy string `bun:"closed_by" json:"closedBy,omitempty"`

	// CloseReason is the optional reason given when the ticket was closed.
	CloseReason string `bun:"close_reason" json:"closeReason,omitempty"`

	// Answers captures the submitted form for application and suggestion
	// tickets. It is nil for plain questions and immutable after creation.
	Answers Answers `bun:"answers,type:jsonb" json:"answers,omitempty"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt custom.Datetime `bun:"created_at,notnull" json:"createdAt"`
}

// IsOpen reports whether the ticket is still open.
func (t *Ticket) IsOpen() bool {
	return t.Status == StatusOpen
}

// ChannelName returns the name for the ticket's channel, e.g. "mod-app-wolf".
func (t *Ticket) ChannelName() string {
	return fmt.Sprintf("%s-%s", t.Kind.Slug(), SlugifyName(t.OwnerName))
}

var nameSlugPattern = regexp.MustCompile(`[^a-z0-9-]+`)

// SlugifyName converts a display name into a channel-name safe slug.
func SlugifyName(name string) string {
	slug := nameSlugPattern.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "user"
	}
	if len(slug) > 32 {
		slug = slug[:32]
	}
	return slug
}
