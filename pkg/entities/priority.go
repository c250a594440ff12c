package entities

import "strings"

// Priority is a cosmetic urgency tag applied to a ticket channel's name.
type Priority string

const (
	// PriorityNone removes any priority marker.
	PriorityNone Priority = "none"

	// PriorityLow marks a low priority ticket.
	PriorityLow Priority = "low"

	// PriorityMedium marks a medium priority ticket.
	PriorityMedium Priority = "medium"

	// PriorityHigh marks a high priority ticket.
	PriorityHigh Priority = "high"
)

// Priorities lists the selectable priority levels.
func Priorities() []Priority {
	return []Priority{PriorityNone, PriorityLow, PriorityMedium, PriorityHigh}
}

// Valid reports whether p is a known priority level.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Marker returns the channel-name prefix for the priority. PriorityNone has no
// marker.
func (p Priority) Marker() string {
	switch p {
	case PriorityLow:
		return "low-"
	case PriorityMedium:
		return "med-"
	case PriorityHigh:
		return "high-"
	default:
		return ""
	}
}

var priorityMarkers = []string{"low-", "med-", "high-"}

// StripPriorityMarker removes any priority marker from a channel name. It is
// safe to call on names that carry no marker.
func StripPriorityMarker(name string) string {
	for _, m := range priorityMarkers {
		if strings.HasPrefix(name, m) {
			return strings.TrimPrefix(name, m)
		}
	}
	return name
}

// ApplyPriority re-tags a channel name with the given priority. Any previous
// marker is stripped first, so repeated application converges instead of
// accumulating prefixes.
func ApplyPriority(name string, p Priority) string {
	return p.Marker() + StripPriorityMarker(name)
}
