package audit

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/bitswitch-core/internal/infrastructure/database"
	_ "github.com/nerrad567/bitswitch-core/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        ":memory:",
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func TestCreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := &Entry{
		Action:   ActionCreate,
		SwitchID: "sw-1",
		Actor:    "operator",
		Details:  map[string]any{"title": "Jukebox"},
	}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("Create() did not fill id/timestamp: %+v", e)
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("List() total = %d, entries = %d", res.Total, len(res.Entries))
	}
	got := res.Entries[0]
	if got.Action != ActionCreate || got.SwitchID != "sw-1" || got.Actor != "operator" {
		t.Errorf("entry = %+v", got)
	}
	if got.Details["title"] != "Jukebox" {
		t.Errorf("details = %v", got.Details)
	}
}

func TestListFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []Entry{
		{Action: ActionCreate, SwitchID: "sw-1", Actor: "operator"},
		{Action: ActionTrigger, SwitchID: "sw-1", Actor: "device-key"},
		{Action: ActionTrigger, SwitchID: "sw-2", Actor: "operator"},
		{Action: ActionLogin, Actor: "operator"},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seeding entry %d: %v", i, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by action", Filter{Action: ActionTrigger}, 2},
		{"by switch", Filter{SwitchID: "sw-1"}, 2},
		{"action and switch", Filter{Action: ActionTrigger, SwitchID: "sw-2"}, 1},
		{"no match", Filter{Action: ActionDelete}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.want {
				t.Errorf("Total = %d, want %d", res.Total, tt.want)
			}
		})
	}
}

func TestListPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		e := &Entry{
			Action:    ActionUpdate,
			SwitchID:  "sw-1",
			Actor:     "operator",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("seeding entry %d: %v", i, err)
		}
	}

	res, err := repo.List(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(res.Entries) != 2 || res.Total != 5 {
		t.Fatalf("page size = %d, total = %d", len(res.Entries), res.Total)
	}

	// Most recent first.
	if res.Entries[0].CreatedAt.Before(res.Entries[1].CreatedAt) {
		t.Error("entries not ordered most recent first")
	}

	next, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() offset error = %v", err)
	}
	if len(next.Entries) != 2 {
		t.Fatalf("second page size = %d", len(next.Entries))
	}
	if next.Entries[0].ID == res.Entries[0].ID {
		t.Error("offset returned the same page")
	}
}

func TestListEmpty(t *testing.T) {
	repo := newTestRepo(t)

	res, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Entries == nil {
		t.Error("Entries should be empty slice, not nil")
	}
	if res.Limit != 50 {
		t.Errorf("default limit = %d, want 50", res.Limit)
	}
}
