// Package repository implements the canonical lead store: an in-memory list
// guarded by a RWMutex, hydrated once from a durable key-value slot and
// written through on every mutation. A Save failure is logged and the
// in-memory state proceeds; the process never aborts on persistence errors.
package repository

import (
	"context"
	"sync"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
)

const msgLeadNotFound = "lead not found"

type leadRepository struct {
	mu    sync.RWMutex
	leads []domain.Lead
	index map[string]int
	store Store
	log   *logger.Logger
}

// New creates a repository hydrated from the given store. A nil store keeps
// the repository purely in-memory (used in tests).
func New(ctx context.Context, store Store, log *logger.Logger) (Repository, error) {
	r := &leadRepository{
		index: make(map[string]int),
		store: store,
		log:   log,
	}

	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		r.setLocked(loaded)
	}

	return r, nil
}

func (r *leadRepository) All(ctx context.Context) []domain.Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Lead, len(r.leads))
	copy(out, r.leads)
	return out
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return domain.Lead{}, apperr.NotFound(msgLeadNotFound)
	}
	return r.leads[i], nil
}

func (r *leadRepository) AddNew(ctx context.Context, candidates []domain.Lead) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	fresh := make([]domain.Lead, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasContact() {
			continue
		}
		if _, exists := r.index[c.ID]; exists {
			continue
		}
		// Guard against duplicate ids inside one candidate batch.
		dup := false
		for _, f := range fresh {
			if f.ID == c.ID {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		fresh = append(fresh, c)
		added++
	}

	if added == 0 {
		return 0
	}

	// New leads go to the front, matching dashboard ordering.
	r.setLocked(append(fresh, r.leads...))
	r.persist(ctx, "add_new")
	return added
}

func (r *leadRepository) Replace(ctx context.Context, lead domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[lead.ID]
	if !ok {
		return apperr.NotFound(msgLeadNotFound)
	}
	r.leads[i] = lead
	r.persist(ctx, "replace")
	return nil
}

func (r *leadRepository) ReplaceAll(ctx context.Context, leads []domain.Lead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setLocked(leads)
	r.persist(ctx, "replace_all")
}

// setLocked installs the list and rebuilds the id index. Caller holds mu.
func (r *leadRepository) setLocked(leads []domain.Lead) {
	r.leads = leads
	r.index = make(map[string]int, len(leads))
	for i, l := range leads {
		r.index[l.ID] = i
	}
}

// persist writes through to the durable slot. Caller holds mu.
func (r *leadRepository) persist(ctx context.Context, operation string) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, r.leads); err != nil && r.log != nil {
		r.log.PersistenceError(operation, err)
	}
}
