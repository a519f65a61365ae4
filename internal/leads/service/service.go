// Package service implements the reconciliation orchestrator: it merges
// importer output into the repository, applies optimistic status updates,
// invokes the conversion publisher, and reconciles the persisted record from
// the publisher's result.
package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"leadsync_backend/internal/capi"
	"leadsync_backend/internal/events"
	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/internal/leads/repository"
	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
)

const msgUpdateFailed = "failed to update status"

// SheetSyncer produces candidate leads from the spreadsheet source.
type SheetSyncer interface {
	Sync(ctx context.Context) ([]domain.Lead, error)
}

// CSVArchiver stores raw CSV uploads for audit. Implementations must be
// nil-safe collaborators; archiving is best-effort.
type CSVArchiver interface {
	Archive(ctx context.Context, filename string, contents []byte) error
}

// CSVParser turns uploaded file contents into candidate leads.
type CSVParser func(contents string) []domain.Lead

// SyncResult summarizes one sheet sync run.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Added   int `json:"added"`
}

// Service coordinates importers, the repository and the conversion publisher.
type Service struct {
	repo      repository.Repository
	publisher capi.Publisher
	syncer    SheetSyncer
	parseCSV  CSVParser
	archiver  CSVArchiver
	bus       events.Bus
	log       *logger.Logger
	syncGroup singleflight.Group
	now       func() time.Time
}

// New creates the orchestrator service.
func New(repo repository.Repository, publisher capi.Publisher, syncer SheetSyncer, parseCSV CSVParser, archiver CSVArchiver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		syncer:    syncer,
		parseCSV:  parseCSV,
		archiver:  archiver,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// All returns the current lead list.
func (s *Service) All(ctx context.Context) []domain.Lead {
	return s.repo.All(ctx)
}

// GetByID returns one lead or apperr.NotFound.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves a lead to a new pipeline stage. An unknown id is
// surfaced as not-found; an unchanged status is a no-op with no repository
// write and no publish. Otherwise the record is written optimistically with
// a pending conversion log, the publisher is invoked, and the final log is
// reconciled into the persisted record.
func (s *Service) UpdateStatus(ctx context.Context, id string, newStatus domain.Status) (domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}

	if lead.Status == newStatus {
		return lead, nil
	}

	oldStatus := lead.Status
	now := s.now()

	lead.Status = newStatus
	if newStatus == domain.StatusClosed && lead.Value == 0 {
		lead.Value = domain.DefaultClosedValue
	}
	lead.UpdatedAt = now
	lead.CapiLog = &domain.CapiLog{
		Status:    domain.CapiPending,
		Timestamp: now,
		EventName: "Processing",
	}

	// Optimistic write: visible as pending while the publish is in flight.
	if err := s.repo.Replace(ctx, lead); err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, msgUpdateFailed, err)
	}

	finalLog, ok := s.publishForTransition(ctx, lead)
	if !ok {
		// The publisher contract is error-free; this only trips on a panic.
		// The pending write stays in place rather than rolling back.
		return lead, apperr.Internal(msgUpdateFailed)
	}

	lead.CapiLog = &finalLog
	lead.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, lead); err != nil {
		return lead, apperr.Wrap(apperr.KindInternal, msgUpdateFailed, err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     lead.ID,
			OldStatus:  string(oldStatus),
			NewStatus:  string(newStatus),
			CapiStatus: string(finalLog.Status),
		})
	}

	return lead, nil
}

// publishForTransition applies the double-event rule: a transition into
// Qualified Lead fires a generic "Lead" signal first, whose result is
// intentionally discarded - the downstream reporting requirement wants both
// signals recorded remotely, but only the stage-specific outcome is kept as
// the lead's conversion log.
func (s *Service) publishForTransition(ctx context.Context, lead domain.Lead) (log domain.CapiLog, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if s.log != nil {
				s.log.Error("conversion publisher panicked", "lead_id", lead.ID, "panic", r)
			}
			ok = false
		}
	}()

	if lead.Status == domain.StatusQualifiedLead {
		_ = s.publisher.Publish(ctx, lead, capi.EventLead)
	}
	return s.publisher.Publish(ctx, lead, ""), true
}

// MergeLeads merges candidates into the repository by set-union on id.
func (s *Service) MergeLeads(ctx context.Context, candidates []domain.Lead) int {
	return s.repo.AddNew(ctx, candidates)
}

// SyncFromSheet runs the sheet importer and merges its output. Overlapping
// invocations (manual trigger racing the scheduler) coalesce into a single
// in-flight run.
func (s *Service) SyncFromSheet(ctx context.Context, trigger string) (SyncResult, error) {
	v, err, _ := s.syncGroup.Do("sheet_sync", func() (interface{}, error) {
		leads, err := s.syncer.Sync(ctx)
		if err != nil {
			if s.log != nil {
				s.log.SyncEvent(trigger, 0, 0, err)
			}
			if s.bus != nil {
				s.bus.Publish(ctx, events.SheetSyncCompleted{BaseEvent: events.NewBaseEvent(), Failed: true})
			}
			return SyncResult{}, err
		}

		added := s.repo.AddNew(ctx, leads)
		result := SyncResult{Fetched: len(leads), Added: added}

		if s.log != nil {
			s.log.SyncEvent(trigger, result.Fetched, result.Added, nil)
		}
		if s.bus != nil {
			s.bus.Publish(ctx, events.SheetSyncCompleted{
				BaseEvent: events.NewBaseEvent(),
				Fetched:   result.Fetched,
				Added:     result.Added,
			})
		}
		return result, nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	return v.(SyncResult), nil
}

// ImportCSV parses an uploaded CSV file, merges the resulting leads, and
// archives the raw upload when storage is configured.
func (s *Service) ImportCSV(ctx context.Context, filename string, contents []byte) (int, error) {
	leads := s.parseCSV(string(contents))
	if len(leads) == 0 {
		return 0, apperr.Validation("no importable rows found in file")
	}

	added := s.repo.AddNew(ctx, leads)

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, filename, contents); err != nil && s.log != nil {
			s.log.Warn("csv archive failed", "file", filename, "error", err)
		}
	}

	return added, nil
}

// SimulateWebhook creates one synthetic platform lead, mimicking an inbound
// instant-form webhook delivery.
func (s *Service) SimulateWebhook(ctx context.Context) domain.Lead {
	now := s.now()
	stamp := now.UnixMilli()

	lead := domain.Lead{
		ID:           fmt.Sprintf("lead-%d", stamp),
		FullName:     fmt.Sprintf("New Meta Lead %d", stamp%100),
		Email:        fmt.Sprintf("meta.user.%d@example.com", stamp),
		Phone:        "919999988888",
		Status:       domain.StatusNewLead,
		Source:       domain.SourceSimulatedWebhook,
		CreatedAt:    now,
		UpdatedAt:    now,
		MetaLeadID:   fmt.Sprintf("l:meta_lead_%d", stamp),
		FormName:     "Lead_Gen_High_Intent_v1",
		CampaignName: "Q3_Performance_Max",
		Notes:        "Simulated Webhook Entry",
	}

	s.repo.AddNew(ctx, []domain.Lead{lead})

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Source:    string(lead.Source),
		})
	}

	return lead
}
