package ticketing

import "errors"

// Guard refusals. These are expected outcomes, surfaced to the user as plain
// messages and never logged as errors. No state is mutated when one is
// returned.
var (
	// ErrNotATicket is returned when an operation targets a channel with no
	// associated ticket.
	ErrNotATicket = errors.New("channel is not a ticket")

	// ErrTicketClosed is returned when an operation requires an open ticket.
	ErrTicketClosed = errors.New("ticket is closed")

	// ErrPanelClosed is returned when the requested application kind is not
	// currently accepting tickets.
	ErrPanelClosed = errors.New("applications are closed")

	// ErrTicketLimitReached is returned when the requester is at the guild's
	// open-ticket cap.
	ErrTicketLimitReached = errors.New("ticket limit reached")

	// ErrCooldown is returned when the requester opened a ticket too recently.
	ErrCooldown = errors.New("ticket cooldown active")

	// ErrInvalidKind is returned for an unknown ticket kind.
	ErrInvalidKind = errors.New("invalid ticket kind")
)

// IsGuardRefusal reports whether err is one of the expected guard outcomes.
func IsGuardRefusal(err error) bool {
	return errors.Is(err, ErrNotATicket) ||
		errors.Is(err, ErrTicketClosed) ||
		errors.Is(err, ErrPanelClosed) ||
		errors.Is(err, ErrTicketLimitReached) ||
		errors.Is(err, ErrCooldown) ||
		errors.Is(err, ErrInvalidKind)
}
