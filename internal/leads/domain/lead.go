// Package domain holds the canonical lead model shared by importers,
// the repository and the conversion pipeline.
package domain

import "time"

// Source tags lead provenance.
type Source string

const (
	SourceMetaInstantForm  Source = "Meta Instant Form"
	SourceWebsiteImport    Source = "Website Import"
	SourceManualEntry      Source = "Manual Entry"
	SourceCSVUpload        Source = "CSV Upload"
	SourceSimulatedWebhook Source = "Simulated Webhook"
)

// DefaultClosedValue is assigned when a lead transitions to Closed with no
// deal value recorded (INR).
const DefaultClosedValue int64 = 50000

// CapiLogStatus is the outcome classification of a publish attempt.
type CapiLogStatus string

const (
	CapiPending CapiLogStatus = "pending"
	CapiSuccess CapiLogStatus = "success"
	CapiError   CapiLogStatus = "error"
)

// CapiLog is the most recent conversion publish outcome for a lead. It is a
// single snapshot, overwritten wholesale on each status transition attempt.
type CapiLog struct {
	Status       CapiLogStatus `json:"status"`
	Timestamp    time.Time     `json:"timestamp"`
	EventName    string        `json:"eventName"`
	Payload      interface{}   `json:"payload,omitempty"`
	Response     interface{}   `json:"response,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// Lead is the canonical entity tracked through the sales pipeline.
type Lead struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Company      string    `json:"company,omitempty"`
	Status       Status    `json:"status"`
	Source       Source    `json:"source"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MetaLeadID   string    `json:"metaLeadId,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Value        int64     `json:"value"`
	FormName     string    `json:"formName,omitempty"`
	CampaignName string    `json:"campaignName,omitempty"`
	AdsetName    string    `json:"adsetName,omitempty"`
	AdName       string    `json:"adName,omitempty"`
	Platform     string    `json:"platform,omitempty"`
	CapiLog      *CapiLog  `json:"capiLog,omitempty"`
}

// HasContact reports whether the lead carries at least one contact method.
// Leads without one are never admitted into the repository.
func (l Lead) HasContact() bool {
	return l.Email != "" || l.Phone != ""
}
