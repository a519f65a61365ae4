// Package transport defines request and response shapes for the leads HTTP API.
package transport

import (
	"time"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/platform/phone"
)

// UpdateStatusRequest moves a lead to a new pipeline stage.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CapiLogResponse is the wire shape of a conversion log snapshot.
type CapiLogResponse struct {
	Status       string      `json:"status"`
	Timestamp    time.Time   `json:"timestamp"`
	EventName    string      `json:"eventName"`
	Payload      interface{} `json:"payload,omitempty"`
	Response     interface{} `json:"response,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}

// LeadResponse is the wire shape of a lead.
type LeadResponse struct {
	ID           string           `json:"id"`
	FullName     string           `json:"fullName"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	PhoneDisplay string           `json:"phoneDisplay,omitempty"`
	Company      string           `json:"company,omitempty"`
	Status       string           `json:"status"`
	Source       string           `json:"source"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	MetaLeadID   string           `json:"metaLeadId,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Value        int64            `json:"value"`
	FormName     string           `json:"formName,omitempty"`
	CampaignName string           `json:"campaignName,omitempty"`
	AdsetName    string           `json:"adsetName,omitempty"`
	AdName       string           `json:"adName,omitempty"`
	Platform     string           `json:"platform,omitempty"`
	CapiLog      *CapiLogResponse `json:"capiLog,omitempty"`
}

// ToLeadResponse maps a domain lead onto the wire shape. The display phone
// is a formatted convenience for the dashboard; the stored value is what
// hashing and publishing operate on.
func ToLeadResponse(l domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:           l.ID,
		FullName:     l.FullName,
		Email:        l.Email,
		Phone:        l.Phone,
		Company:      l.Company,
		Status:       string(l.Status),
		Source:       string(l.Source),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		MetaLeadID:   l.MetaLeadID,
		Notes:        l.Notes,
		Value:        l.Value,
		FormName:     l.FormName,
		CampaignName: l.CampaignName,
		AdsetName:    l.AdsetName,
		AdName:       l.AdName,
		Platform:     l.Platform,
	}
	if formatted := phone.NormalizeE164(l.Phone); formatted != l.Phone {
		resp.PhoneDisplay = formatted
	}
	if l.CapiLog != nil {
		resp.CapiLog = &CapiLogResponse{
			Status:       string(l.CapiLog.Status),
			Timestamp:    l.CapiLog.Timestamp,
			EventName:    l.CapiLog.EventName,
			Payload:      l.CapiLog.Payload,
			Response:     l.CapiLog.Response,
			ErrorMessage: l.CapiLog.ErrorMessage,
		}
	}
	return resp
}

// ToLeadResponses maps a slice of domain leads, preserving order.
func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

// SyncResponse reports the outcome of a sheet sync run.
type SyncResponse struct {
	Fetched int `json:"fetched"`
	Added   int `json:"added"`
}

// ImportResponse reports the outcome of a CSV upload.
type ImportResponse struct {
	Added int `json:"added"`
}
