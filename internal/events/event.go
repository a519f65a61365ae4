package events

// Domain events emitted by the leads module. Subscribers must not mutate
// event payloads.

// LeadCreated fires when a new lead enters the repository, regardless of
// source (sheet sync, CSV upload, simulated webhook).
type LeadCreated struct {
	BaseEvent
	LeadID string
	Source string
}

// EventName returns the unique identifier for this event type.
func (LeadCreated) EventName() string { return "leads.created" }

// LeadStatusChanged fires after a pipeline-stage transition has been
// persisted and the conversion publish reconciled.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     string
	OldStatus  string
	NewStatus  string
	CapiStatus string
}

// EventName returns the unique identifier for this event type.
func (LeadStatusChanged) EventName() string { return "leads.status_changed" }

// SheetSyncCompleted fires after a sheet sync run, successful or not.
type SheetSyncCompleted struct {
	BaseEvent
	Fetched int
	Added   int
	Failed  bool
}

// EventName returns the unique identifier for this event type.
func (SheetSyncCompleted) EventName() string { return "leads.sheet_sync_completed" }
