package capi

import "leadsync_backend/internal/leads/domain"

// Standard event names recognized by the conversion endpoint.
const (
	EventLead              = "Lead"
	EventCustomLead        = "Custom Lead"
	EventSchedule          = "Schedule"
	EventContact           = "Contact"
	EventSubmitApplication = "SubmitApplication"
	EventPurchase          = "Purchase"
	EventCustom            = "Custom"
)

// eventNameByStatus maps pipeline stages to conversion event names.
var eventNameByStatus = map[domain.Status]string{
	domain.StatusNewLead:       EventLead,
	domain.StatusQualifiedLead: EventCustomLead,
	domain.StatusCallBooked:    EventSchedule,
	domain.StatusShowedUp:      EventContact,
	domain.StatusProposalSent:  EventSubmitApplication,
	domain.StatusClosed:        EventPurchase,
}

// EventNameFor resolves the conversion event name for a pipeline stage.
func EventNameFor(status domain.Status) string {
	if name, ok := eventNameByStatus[status]; ok {
		return name
	}
	return EventCustom
}
