// Package messages holds the user-facing message text sent by the bot.
package messages

const (
	// ErrUserErrorProcessing is the generic failure message shown to a user
	// when an interaction could not be processed.
	ErrUserErrorProcessing = "Something went wrong while processing your request. Please try again later."

	// TicketLimitReached is sent when a user already has the maximum number of
	// open tickets for the guild.
	TicketLimitReached = "You have reached the maximum number of open tickets for this server. Please close one of your existing tickets first."

	// TicketCooldown is sent when a user opens tickets too quickly.
	TicketCooldown = "You are opening tickets too quickly. Please wait a moment and try again."

	// ModAppsClosed is sent when moderator applications are not being accepted.
	ModAppsClosed = "Moderator applications are currently closed. Keep an eye on the announcements for when they reopen."

	// SupporterAppsClosed is sent when supporter applications are not being accepted.
	SupporterAppsClosed = "Supporter applications are currently closed. Keep an eye on the announcements for when they reopen."

	// NotATicketChannel is sent when a ticket operation is used outside a
	// ticket channel.
	NotATicketChannel = "This channel is not a ticket."

	// TicketAlreadyClosed is sent when an operation requires an open ticket.
	TicketAlreadyClosed = "This ticket has already been closed."

	// TicketClosing is posted into a ticket channel when it is closed.
	TicketClosing = "This ticket has been closed. The channel will be deleted shortly."

	// TicketNotRecorded is posted into a ticket channel when the channel was
	// created but the ticket could not be saved. The channel is visible to the
	// support team, so a notice beats a silent orphan.
	TicketNotRecorded = "This ticket channel was created, but the ticket could not be recorded. A member of the support team will follow up."
)
