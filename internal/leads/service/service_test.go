package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"leadsync_backend/internal/capi"
	"leadsync_backend/internal/events"
	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/internal/leads/repository"
	"leadsync_backend/platform/apperr"
)

// fakePublisher records every publish call and returns a success log whose
// event name identifies which call produced it.
type fakePublisher struct {
	mu    sync.Mutex
	calls []fakeCall
}

type fakeCall struct {
	leadID   string
	status   domain.Status
	value    int64
	override string
}

func (p *fakePublisher) Publish(ctx context.Context, lead domain.Lead, overrideEventName string) domain.CapiLog {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fakeCall{
		leadID:   lead.ID,
		status:   lead.Status,
		value:    lead.Value,
		override: overrideEventName,
	})

	name := overrideEventName
	if name == "" {
		name = capi.EventNameFor(lead.Status)
	}
	return domain.CapiLog{
		Status:    domain.CapiSuccess,
		Timestamp: time.Now(),
		EventName: name,
	}
}

type fakeSyncer struct {
	leads []domain.Lead
	err   error
	calls int
}

func (s *fakeSyncer) Sync(ctx context.Context) ([]domain.Lead, error) {
	s.calls++
	return s.leads, s.err
}

type fakeArchiver struct {
	filenames []string
	err       error
}

func (a *fakeArchiver) Archive(ctx context.Context, filename string, contents []byte) error {
	a.filenames = append(a.filenames, filename)
	return a.err
}

// syncBus collects published events synchronously.
type syncBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *syncBus) Subscribe(eventName string, handler events.Handler) {}
func (b *syncBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}
func (b *syncBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *syncBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

func seed(id string, status domain.Status, value int64) domain.Lead {
	return domain.Lead{
		ID:       id,
		FullName: "Test Lead",
		Email:    id + "@example.com",
		Status:   status,
		Value:    value,
	}
}

type fixture struct {
	svc       *Service
	repo      repository.Repository
	publisher *fakePublisher
	syncer    *fakeSyncer
	archiver  *fakeArchiver
	bus       *syncBus
}

func newFixture(t *testing.T, seeds ...domain.Lead) *fixture {
	t.Helper()
	repo, err := repository.New(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seeds) > 0 {
		repo.AddNew(context.Background(), seeds)
	}

	f := &fixture{
		repo:      repo,
		publisher: &fakePublisher{},
		syncer:    &fakeSyncer{},
		archiver:  &fakeArchiver{},
		bus:       &syncBus{},
	}
	f.svc = New(repo, f.publisher, f.syncer, parseTestCSV, f.archiver, f.bus, nil)
	return f
}

func parseTestCSV(contents string) []domain.Lead {
	var out []domain.Lead
	for _, line := range strings.Split(strings.TrimSpace(contents), "\n") {
		id := strings.TrimSpace(line)
		if id == "" {
			continue
		}
		out = append(out, seed(id, domain.StatusNewLead, 0))
	}
	return out
}

func TestUpdateStatusUnknownLead(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateStatus(context.Background(), "ghost", domain.StatusClosed)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.publisher.calls) != 0 {
		t.Fatalf("expected no publish for unknown lead")
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, seed("a", domain.StatusCallBooked, 0))

	got, err := f.svc.UpdateStatus(ctx, "a", domain.StatusCallBooked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CapiLog != nil {
		t.Fatalf("expected no conversion log on a no-op")
	}
	if len(f.publisher.calls) != 0 {
		t.Fatalf("expected no publish on a no-op, got %d calls", len(f.publisher.calls))
	}
	if len(f.bus.names()) != 0 {
		t.Fatalf("expected no events on a no-op")
	}
}

func TestUpdateStatusPublishesAndReconciles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, seed("a", domain.StatusNewLead, 0))

	got, err := f.svc.UpdateStatus(ctx, "a", domain.StatusCallBooked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Status != domain.StatusCallBooked {
		t.Fatalf("expected status=%q, got %q", domain.StatusCallBooked, got.Status)
	}
	if got.CapiLog == nil || got.CapiLog.Status != domain.CapiSuccess {
		t.Fatalf("expected reconciled success log, got %+v", got.CapiLog)
	}
	if got.CapiLog.EventName != capi.EventSchedule {
		t.Fatalf("expected event=%q, got %q", capi.EventSchedule, got.CapiLog.EventName)
	}

	stored, _ := f.repo.GetByID(ctx, "a")
	if stored.CapiLog == nil || stored.CapiLog.Status != domain.CapiSuccess {
		t.Fatalf("expected persisted record to carry the final log, got %+v", stored.CapiLog)
	}

	names := f.bus.names()
	if len(names) != 1 || names[0] != "leads.status_changed" {
		t.Fatalf("expected one status-changed event, got %v", names)
	}
}

func TestUpdateStatusQualifiedFiresTwoEventsKeepsSecond(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, seed("a", domain.StatusNewLead, 0))

	got, err := f.svc.UpdateStatus(ctx, "a", domain.StatusQualifiedLead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.publisher.calls) != 2 {
		t.Fatalf("expected 2 publishes on qualification, got %d", len(f.publisher.calls))
	}
	if f.publisher.calls[0].override != capi.EventLead {
		t.Fatalf("expected first publish override=%q, got %q", capi.EventLead, f.publisher.calls[0].override)
	}
	if f.publisher.calls[1].override != "" {
		t.Fatalf("expected second publish to resolve from status, got override=%q", f.publisher.calls[1].override)
	}
	if got.CapiLog.EventName != capi.EventCustomLead {
		t.Fatalf("expected retained log from second publish, got %q", got.CapiLog.EventName)
	}
}

func TestUpdateStatusOtherTransitionsFireOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, seed("a", domain.StatusQualifiedLead, 0))

	if _, err := f.svc.UpdateStatus(ctx, "a", domain.StatusProposalSent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.publisher.calls) != 1 {
		t.Fatalf("expected single publish, got %d", len(f.publisher.calls))
	}
}

func TestUpdateStatusClosedValueFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, seed("a", domain.StatusProposalSent, 0))

	got, err := f.svc.UpdateStatus(ctx, "a", domain.StatusClosed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != domain.DefaultClosedValue {
		t.Fatalf("expected fallback value %d, got %d", domain.DefaultClosedValue, got.Value)
	}
	// The publisher must see the fallback value, not zero.
	if f.publisher.calls[0].value != domain.DefaultClosedValue {
		t.Fatalf("expected publish with fallback value, got %d", f.publisher.calls[0].value)
	}
}

func TestUpdateStatusClosedKeepsExplicitValue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, seed("a", domain.StatusProposalSent, 120000))

	got, err := f.svc.UpdateStatus(ctx, "a", domain.StatusClosed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 120000 {
		t.Fatalf("expected recorded value kept, got %d", got.Value)
	}
}

func TestSyncFromSheetMergesAndReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, seed("existing", domain.StatusNewLead, 0))
	f.syncer.leads = []domain.Lead{
		seed("existing", domain.StatusClosed, 0),
		seed("fresh", domain.StatusNewLead, 0),
	}

	result, err := f.svc.SyncFromSheet(ctx, "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fetched != 2 || result.Added != 1 {
		t.Fatalf("expected fetched=2 added=1, got %+v", result)
	}

	// Existing record must not be clobbered by the sheet copy.
	got, _ := f.repo.GetByID(ctx, "existing")
	if got.Status != domain.StatusNewLead {
		t.Fatalf("expected existing record untouched, got %q", got.Status)
	}

	names := f.bus.names()
	if len(names) != 1 || names[0] != "leads.sheet_sync_completed" {
		t.Fatalf("expected sync-completed event, got %v", names)
	}
}

func TestSyncFromSheetFailure(t *testing.T) {
	f := newFixture(t)
	f.syncer.err = errors.New("source unreachable")

	_, err := f.svc.SyncFromSheet(context.Background(), "scheduled")
	if err == nil {
		t.Fatalf("expected sync error to propagate")
	}
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	added, err := f.svc.ImportCSV(ctx, "leads.csv", []byte("one\ntwo\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}
	if len(f.archiver.filenames) != 1 || f.archiver.filenames[0] != "leads.csv" {
		t.Fatalf("expected upload archived once, got %v", f.archiver.filenames)
	}
}

func TestImportCSVArchiveFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.archiver.err = errors.New("bucket offline")

	added, err := f.svc.ImportCSV(context.Background(), "leads.csv", []byte("one\n"))
	if err != nil {
		t.Fatalf("expected archive failure to be tolerated, got %v", err)
	}
	if added != 1 {
		t.Fatalf("expected import to proceed, got %d added", added)
	}
}

func TestImportCSVNoRows(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ImportCSV(context.Background(), "empty.csv", []byte(""))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSimulateWebhook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lead := f.svc.SimulateWebhook(ctx)
	if lead.Source != domain.SourceSimulatedWebhook {
		t.Fatalf("expected simulated webhook source, got %q", lead.Source)
	}
	if _, err := f.repo.GetByID(ctx, lead.ID); err != nil {
		t.Fatalf("expected simulated lead persisted: %v", err)
	}

	names := f.bus.names()
	if len(names) != 1 || names[0] != "leads.created" {
		t.Fatalf("expected created event, got %v", names)
	}
}

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	closedA := seed("c1", domain.StatusClosed, 50000)
	closedB := seed("c2", domain.StatusClosed, 75000)
	f := newFixture(t,
		closedA, closedB,
		seed("n1", domain.StatusNewLead, 0),
		seed("q1", domain.StatusQualifiedLead, 0),
	)

	a := f.svc.Analytics(ctx)
	if a.TotalLeads != 4 || a.ClosedLeads != 2 {
		t.Fatalf("expected 4 total / 2 closed, got %d / %d", a.TotalLeads, a.ClosedLeads)
	}
	if a.ConversionRate != 50 {
		t.Fatalf("expected 50%% conversion, got %v", a.ConversionRate)
	}
	if a.TotalRevenue != 125000 {
		t.Fatalf("expected revenue 125000, got %d", a.TotalRevenue)
	}
	if len(a.LeadsByStatus) != len(domain.PipelineStages) {
		t.Fatalf("expected a count per pipeline stage, got %d", len(a.LeadsByStatus))
	}
	if a.LeadsByStatus[0].Status != string(domain.StatusNewLead) || a.LeadsByStatus[0].Count != 1 {
		t.Fatalf("expected board-ordered counts, got %+v", a.LeadsByStatus[0])
	}
}

func TestAnalyticsEmpty(t *testing.T) {
	f := newFixture(t)
	a := f.svc.Analytics(context.Background())
	if a.TotalLeads != 0 || a.ConversionRate != 0 {
		t.Fatalf("expected zeroed analytics, got %+v", a)
	}
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, seed("a", domain.StatusClosed, 50000))

	data, err := f.svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,fullName,email") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "50000") {
		t.Fatalf("expected value in row, got %q", lines[1])
	}
}
