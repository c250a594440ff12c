package logging

const (
	// KeyService is the key for the service name.
	KeyService = "service"

	// KeyError is the key for an error.
	KeyError = "err"

	// KeyDal is the key for the data access layer name.
	KeyDal = "dal"

	// KeyGuild is the key for a guild ID.
	KeyGuild = "guild_id"

	// KeyChannel is the key for a channel ID.
	KeyChannel = "channel_id"

	// KeyUser is the key for a user ID.
	KeyUser = "user_id"

	// KeyTicket is the key for a ticket ID.
	KeyTicket = "ticket_id"
)
