package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"
)

const (
	actionSource      = "system_generated"
	eventSourceTag    = "LeadSync_CRM"
	fallbackForm      = "unknown_form"
	fallbackCampaign  = "unknown_campaign"
	genericRejectMsg  = "conversion endpoint rejected the event"
	publisherTimeout  = 10 * time.Second
)

// numericIDRe validates platform-native lead ids at the boundary. Internal
// ids are free-form strings; only all-digit ids are forwarded as lead_id.
var numericIDRe = regexp.MustCompile(`^\d+$`)

// UserData carries the hashed PII bundle. Hash arrays are always present,
// empty rather than absent, per the endpoint's matching contract.
type UserData struct {
	Em         []string `json:"em"`
	Ph         []string `json:"ph"`
	Fn         []string `json:"fn"`
	Ln         []string `json:"ln"`
	ExternalID []string `json:"external_id"`
	LeadID     string   `json:"lead_id,omitempty"`
}

// CustomData carries unhashed event metadata.
type CustomData struct {
	Status          string `json:"status"`
	Currency        string `json:"currency,omitempty"`
	Value           *int64 `json:"value,omitempty"`
	ContentName     string `json:"content_name"`
	ContentCategory string `json:"content_category"`
	EventSource     string `json:"event_source"`
}

// ConversionEvent is one entry of the outbound event batch.
type ConversionEvent struct {
	EventName     string     `json:"event_name"`
	EventTime     int64      `json:"event_time"`
	ActionSource  string     `json:"action_source"`
	EventID       string     `json:"event_id"`
	UserData      UserData   `json:"user_data"`
	CustomData    CustomData `json:"custom_data"`
	TestEventCode string     `json:"test_event_code,omitempty"`
}

// Payload is the request body accepted by the conversion endpoint.
type Payload struct {
	Data []ConversionEvent `json:"data"`
}

type apiError struct {
	Message        string `json:"message"`
	ErrorUserTitle string `json:"error_user_title"`
	ErrorUserMsg   string `json:"error_user_msg"`
}

type apiResponse struct {
	EventsReceived int       `json:"events_received,omitempty"`
	Error          *apiError `json:"error,omitempty"`
}

// Publisher transmits conversion events for a lead.
type Publisher interface {
	// Publish builds and sends one conversion event. An empty override
	// resolves the event name from the lead's status. It never returns an
	// error: every failure mode is captured in the returned log.
	Publish(ctx context.Context, lead domain.Lead, overrideEventName string) domain.CapiLog
}

// Client is the HTTP Publisher implementation.
type Client struct {
	cfg  config.CapiConfig
	http *http.Client
	log  *logger.Logger
}

// NewClient creates a conversion endpoint client with a bounded timeout.
func NewClient(cfg config.CapiConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: publisherTimeout},
		log:  log,
	}
}

// Publish implements Publisher.
func (c *Client) Publish(ctx context.Context, lead domain.Lead, overrideEventName string) domain.CapiLog {
	log := domain.CapiLog{
		Status:    domain.CapiPending,
		Timestamp: time.Now(),
	}

	externalID := resolveExternalID(lead)
	if externalID == "" {
		log.Status = domain.CapiError
		log.ErrorMessage = "skipping publish: no lead id"
		return log
	}

	eventName := overrideEventName
	if eventName == "" {
		eventName = EventNameFor(lead.Status)
	}
	log.EventName = eventName

	payload := c.buildPayload(lead, eventName, externalID)
	log.Payload = payload

	resp, err := c.post(ctx, payload)
	if err != nil {
		log.Status = domain.CapiError
		log.ErrorMessage = err.Error()
		c.logOutcome(lead.ID, log)
		return log
	}

	log.Response = resp.body
	if resp.statusCode >= http.StatusBadRequest {
		log.Status = domain.CapiError
		log.ErrorMessage = extractErrorMessage(resp.parsed)
	} else {
		log.Status = domain.CapiSuccess
	}

	c.logOutcome(lead.ID, log)
	return log
}

func (c *Client) buildPayload(lead domain.Lead, eventName, externalID string) Payload {
	first, last := SplitName(lead.FullName)

	userData := UserData{
		Em:         hashArray(lead.Email),
		Ph:         hashArray(NormalizePhone(lead.Phone, c.cfg.GetCapiCountryPrefix())),
		Fn:         hashArray(first),
		Ln:         hashArray(last),
		ExternalID: []string{externalID},
	}
	// The platform rejects malformed native ids; external_id alone still
	// supports dedup, so non-numeric ids are simply not forwarded.
	if numericIDRe.MatchString(externalID) {
		userData.LeadID = externalID
	}

	customData := CustomData{
		Status:          string(lead.Status),
		ContentName:     orFallback(lead.FormName, fallbackForm),
		ContentCategory: orFallback(lead.CampaignName, fallbackCampaign),
		EventSource:     eventSourceTag,
	}
	if eventName == EventPurchase {
		value := lead.Value
		customData.Currency = c.cfg.GetCapiCurrency()
		customData.Value = &value
	}

	return Payload{
		Data: []ConversionEvent{{
			EventName:     eventName,
			EventTime:     time.Now().Unix(),
			ActionSource:  actionSource,
			EventID:       fmt.Sprintf("evt_%s_%s", lead.ID, uuid.NewString()[:8]),
			UserData:      userData,
			CustomData:    customData,
			TestEventCode: c.cfg.GetCapiTestEventCode(),
		}},
	}
}

type postResult struct {
	statusCode int
	body       json.RawMessage
	parsed     apiResponse
}

func (c *Client) post(ctx context.Context, payload Payload) (postResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return postResult{}, fmt.Errorf("marshal conversion payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/events?access_token=%s",
		strings.TrimRight(c.cfg.GetCapiEndpoint(), "/"),
		c.cfg.GetCapiPixelID(),
		c.cfg.GetCapiAccessToken(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return postResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return postResult{}, fmt.Errorf("conversion request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return postResult{}, fmt.Errorf("read conversion response: %w", err)
	}

	result := postResult{statusCode: resp.StatusCode, body: json.RawMessage(raw)}
	// Malformed bodies fall back to the generic rejection message.
	_ = json.Unmarshal(raw, &result.parsed)
	return result, nil
}

func (c *Client) logOutcome(leadID string, log domain.CapiLog) {
	if c.log == nil {
		return
	}
	c.log.CapiEvent(leadID, log.EventName, string(log.Status), log.ErrorMessage)
}

// resolveExternalID prefers the platform's own lead id over the local one,
// stripping the "l:" export prefix either way.
func resolveExternalID(lead domain.Lead) string {
	raw := lead.MetaLeadID
	if raw == "" {
		raw = lead.ID
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, "l:"))
}

func extractErrorMessage(resp apiResponse) string {
	if resp.Error == nil {
		return genericRejectMsg
	}
	e := resp.Error
	switch {
	case e.ErrorUserTitle != "" && e.ErrorUserMsg != "":
		return e.ErrorUserTitle + ": " + e.ErrorUserMsg
	case e.ErrorUserMsg != "":
		return e.ErrorUserMsg
	case e.Message != "":
		return e.Message
	default:
		return genericRejectMsg
	}
}

func hashArray(value string) []string {
	if h := HashField(value); h != "" {
		return []string{h}
	}
	return []string{}
}

func orFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
