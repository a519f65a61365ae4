package capi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/platform/config"
)

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		CapiEndpoint:      endpoint,
		CapiPixelID:       "12345",
		CapiAccessToken:   "token",
		CapiCurrency:      "INR",
		CapiCountryPrefix: "91",
	}
}

func sampleLead() domain.Lead {
	return domain.Lead{
		ID:           "lead_e_priya@example.com",
		FullName:     "Priya Sharma",
		Email:        "priya@example.com",
		Phone:        "9876543210",
		Status:       domain.StatusCallBooked,
		MetaLeadID:   "l:987654321098765",
		FormName:     "Webinar Signup",
		CampaignName: "Diwali Push",
	}
}

func capture(t *testing.T, status int, respBody string) (*httptest.Server, *Payload) {
	t.Helper()
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request: %v", err)
		}
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	return srv, &got
}

func TestPublishSuccess(t *testing.T) {
	srv, got := capture(t, http.StatusOK, `{"events_received":1}`)
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	log := client.Publish(context.Background(), sampleLead(), "")

	if log.Status != domain.CapiSuccess {
		t.Fatalf("expected status=%q, got %q", domain.CapiSuccess, log.Status)
	}
	if log.EventName != EventSchedule {
		t.Fatalf("expected event=%q, got %q", EventSchedule, log.EventName)
	}

	if len(got.Data) != 1 {
		t.Fatalf("expected 1 event in batch, got %d", len(got.Data))
	}
	ev := got.Data[0]

	if ev.ActionSource != "system_generated" {
		t.Fatalf("expected action_source=system_generated, got %q", ev.ActionSource)
	}
	if wantEm := HashField("priya@example.com"); len(ev.UserData.Em) != 1 || ev.UserData.Em[0] != wantEm {
		t.Fatalf("expected em=[%s], got %v", wantEm, ev.UserData.Em)
	}
	if wantPh := HashField("919876543210"); len(ev.UserData.Ph) != 1 || ev.UserData.Ph[0] != wantPh {
		t.Fatalf("expected ph=[%s], got %v", wantPh, ev.UserData.Ph)
	}
	if wantFn := HashField("Priya"); ev.UserData.Fn[0] != wantFn {
		t.Fatalf("expected fn=[%s], got %v", wantFn, ev.UserData.Fn)
	}
	if len(ev.UserData.ExternalID) != 1 || ev.UserData.ExternalID[0] != "987654321098765" {
		t.Fatalf("expected external_id with export prefix stripped, got %v", ev.UserData.ExternalID)
	}
	if ev.UserData.LeadID != "987654321098765" {
		t.Fatalf("expected numeric lead_id forwarded, got %q", ev.UserData.LeadID)
	}
	if ev.CustomData.ContentName != "Webinar Signup" {
		t.Fatalf("expected content_name from form, got %q", ev.CustomData.ContentName)
	}
	if ev.CustomData.Value != nil {
		t.Fatalf("expected no value outside Purchase, got %v", *ev.CustomData.Value)
	}
}

func TestPublishPurchaseCarriesValueAndCurrency(t *testing.T) {
	srv, got := capture(t, http.StatusOK, `{"events_received":1}`)
	defer srv.Close()

	lead := sampleLead()
	lead.Status = domain.StatusClosed
	lead.Value = 75000

	client := NewClient(testConfig(srv.URL), nil)
	log := client.Publish(context.Background(), lead, "")

	if log.EventName != EventPurchase {
		t.Fatalf("expected event=%q, got %q", EventPurchase, log.EventName)
	}
	ev := got.Data[0]
	if ev.CustomData.Currency != "INR" {
		t.Fatalf("expected currency=INR, got %q", ev.CustomData.Currency)
	}
	if ev.CustomData.Value == nil || *ev.CustomData.Value != 75000 {
		t.Fatalf("expected value=75000, got %v", ev.CustomData.Value)
	}
}

func TestPublishOverrideEventName(t *testing.T) {
	srv, got := capture(t, http.StatusOK, `{"events_received":1}`)
	defer srv.Close()

	lead := sampleLead()
	lead.Status = domain.StatusQualifiedLead

	client := NewClient(testConfig(srv.URL), nil)
	log := client.Publish(context.Background(), lead, EventLead)

	if log.EventName != EventLead {
		t.Fatalf("expected override event=%q, got %q", EventLead, log.EventName)
	}
	if got.Data[0].EventName != EventLead {
		t.Fatalf("expected wire event=%q, got %q", EventLead, got.Data[0].EventName)
	}
}

func TestPublishNonNumericIDNotForwardedAsLeadID(t *testing.T) {
	var rawBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"events_received":1}`))
	}))
	defer srv.Close()

	lead := sampleLead()
	lead.MetaLeadID = ""

	client := NewClient(testConfig(srv.URL), nil)
	log := client.Publish(context.Background(), lead, "")

	if log.Status != domain.CapiSuccess {
		t.Fatalf("expected success, got %q (%s)", log.Status, log.ErrorMessage)
	}

	var decoded struct {
		Data []struct {
			UserData map[string]json.RawMessage `json:"user_data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if _, present := decoded.Data[0].UserData["lead_id"]; present {
		t.Fatalf("expected lead_id omitted for non-numeric id")
	}
	var externalID []string
	if err := json.Unmarshal(decoded.Data[0].UserData["external_id"], &externalID); err != nil {
		t.Fatalf("decode external_id: %v", err)
	}
	if len(externalID) != 1 || externalID[0] != lead.ID {
		t.Fatalf("expected external_id=[%s], got %v", lead.ID, externalID)
	}
}

func TestPublishErrorMessagePreference(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"title and message",
			`{"error":{"error_user_title":"Invalid Parameter","error_user_msg":"The access token is wrong."}}`,
			"Invalid Parameter: The access token is wrong.",
		},
		{
			"user message only",
			`{"error":{"error_user_msg":"Check your pixel id."}}`,
			"Check your pixel id.",
		},
		{
			"plain message only",
			`{"error":{"message":"Unsupported request."}}`,
			"Unsupported request.",
		},
		{
			"unparseable body",
			`<html>Bad Gateway</html>`,
			"conversion endpoint rejected the event",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := capture(t, http.StatusBadRequest, tc.body)
			defer srv.Close()

			client := NewClient(testConfig(srv.URL), nil)
			log := client.Publish(context.Background(), sampleLead(), "")

			if log.Status != domain.CapiError {
				t.Fatalf("expected error status, got %q", log.Status)
			}
			if log.ErrorMessage != tc.want {
				t.Fatalf("expected message %q, got %q", tc.want, log.ErrorMessage)
			}
		})
	}
}

func TestPublishWithoutAnyIDSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	log := client.Publish(context.Background(), domain.Lead{FullName: "No ID"}, "")

	if log.Status != domain.CapiError {
		t.Fatalf("expected error status, got %q", log.Status)
	}
	if called {
		t.Fatalf("expected no request for a lead without an id")
	}
}

func TestPublishNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	log := client.Publish(context.Background(), sampleLead(), "")

	if log.Status != domain.CapiError {
		t.Fatalf("expected error status on network failure, got %q", log.Status)
	}
	if log.ErrorMessage == "" {
		t.Fatalf("expected error message on network failure")
	}
}
