package domain

import "strings"

// Status is a pipeline stage. The string value is the wire/display label.
type Status string

const (
	StatusNewLead       Status = "New Lead"
	StatusQualifiedLead Status = "Qualified Lead"
	StatusCallBooked    Status = "Call Booked"
	StatusShowedUp      Status = "Showed Up"
	StatusProposalSent  Status = "Proposal Sent"
	StatusClosed        Status = "Closed"
)

// PipelineStages lists every stage in pipeline order. A lead may be moved to
// any stage directly; the order is presentational, not a transition rule.
var PipelineStages = []Status{
	StatusNewLead,
	StatusQualifiedLead,
	StatusCallBooked,
	StatusShowedUp,
	StatusProposalSent,
	StatusClosed,
}

// statusByNormalizedLabel maps normalized labels to stages. Built once so
// fuzzy matching is a table lookup rather than a scan over the enum.
var statusByNormalizedLabel = func() map[string]Status {
	m := make(map[string]Status, len(PipelineStages))
	for _, s := range PipelineStages {
		m[normalizeLabel(string(s))] = s
	}
	return m
}()

func normalizeLabel(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), ""))
}

// ParseStatus fuzzy-matches a raw label against the known stages: whitespace
// is stripped and case ignored. Unrecognized input maps to StatusNewLead.
func ParseStatus(raw string) Status {
	if s, ok := statusByNormalizedLabel[normalizeLabel(raw)]; ok {
		return s
	}
	return StatusNewLead
}

// IsKnownStatus reports whether the raw label matches a pipeline stage.
func IsKnownStatus(raw string) bool {
	_, ok := statusByNormalizedLabel[normalizeLabel(raw)]
	return ok
}
