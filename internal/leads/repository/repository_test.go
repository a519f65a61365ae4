package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/platform/apperr"
)

func lead(id, email string) domain.Lead {
	return domain.Lead{
		ID:       id,
		FullName: "Lead " + id,
		Email:    email,
		Status:   domain.StatusNewLead,
	}
}

func newMemoryRepo(t *testing.T) Repository {
	t.Helper()
	repo, err := New(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return repo
}

func TestAddNewIsSetUnion(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo(t)

	added := repo.AddNew(ctx, []domain.Lead{
		lead("a", "a@example.com"),
		lead("b", "b@example.com"),
	})
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	// Same ids again: nothing changes, existing records stay intact.
	changed := lead("a", "a@example.com")
	changed.Status = domain.StatusClosed
	added = repo.AddNew(ctx, []domain.Lead{changed, lead("c", "c@example.com")})
	if added != 1 {
		t.Fatalf("expected only the new id to be added, got %d", added)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusNewLead {
		t.Fatalf("expected existing record untouched, got status %q", got.Status)
	}
}

func TestAddNewPrependsAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo(t)

	repo.AddNew(ctx, []domain.Lead{lead("old", "old@example.com")})
	repo.AddNew(ctx, []domain.Lead{lead("new", "new@example.com")})

	all := repo.All(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(all))
	}
	if all[0].ID != "new" || all[1].ID != "old" {
		t.Fatalf("expected newest first, got %q then %q", all[0].ID, all[1].ID)
	}
}

func TestAddNewSkipsContactlessAndBatchDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo(t)

	added := repo.AddNew(ctx, []domain.Lead{
		{ID: "nocontact", FullName: "Ghost"},
		lead("dup", "dup@example.com"),
		lead("dup", "dup@example.com"),
	})
	if added != 1 {
		t.Fatalf("expected 1 added, got %d", added)
	}
	if _, err := repo.GetByID(ctx, "nocontact"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected contactless lead to be rejected, got %v", err)
	}
}

func TestReplaceUnknownID(t *testing.T) {
	repo := newMemoryRepo(t)
	err := repo.Replace(context.Background(), lead("ghost", "g@example.com"))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplaceSwapsWholeRecord(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo(t)
	repo.AddNew(ctx, []domain.Lead{lead("a", "a@example.com")})

	updated := lead("a", "a@example.com")
	updated.Status = domain.StatusProposalSent
	updated.Notes = "sent on call"
	if err := repo.Replace(ctx, updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := repo.GetByID(ctx, "a")
	if got.Status != domain.StatusProposalSent || got.Notes != "sent on call" {
		t.Fatalf("expected full record swap, got %+v", got)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo(t)
	repo.AddNew(ctx, []domain.Lead{lead("a", "a@example.com")})

	snapshot := repo.All(ctx)
	snapshot[0].FullName = "mutated"

	if got, _ := repo.GetByID(ctx, "a"); got.FullName == "mutated" {
		t.Fatalf("expected All to return a defensive copy")
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, "leads:all")

	// Empty slot reads as an empty list.
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty slot, got %d leads", len(loaded))
	}

	repo, err := New(ctx, store, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.AddNew(ctx, []domain.Lead{lead("a", "a@example.com"), lead("b", "b@example.com")})

	// A second repository hydrates the same state from the slot.
	rehydrated, err := New(ctx, store, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := rehydrated.All(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 leads after rehydration, got %d", len(all))
	}
	if all[0].ID != "b" && all[0].ID != "a" {
		t.Fatalf("unexpected lead ids after rehydration: %+v", all)
	}

	// Merging the same batch again is a no-op, in memory and in the slot.
	if added := rehydrated.AddNew(ctx, []domain.Lead{lead("a", "a@example.com")}); added != 0 {
		t.Fatalf("expected idempotent merge, got %d added", added)
	}
}
