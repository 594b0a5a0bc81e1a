package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/bitswitch-core/internal/infrastructure/database"
	_ "github.com/nerrad567/bitswitch-core/migrations"
)

// newTestRepo opens an in-memory database with the full schema applied.
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

func persistedSwitch() *Switch {
	now := time.Now().UTC().Truncate(time.Second)
	return &Switch{
		ID:         "sw-1",
		AdminKey:   "key-1",
		Title:      "Beer Tap",
		WalletID:   "wallet-1",
		Currency:   "eur",
		Disposable: true,
		Pins: []Pin{
			{Pin: 0, Amount: 2.5, Duration: 8000, Comment: true, Label: "Half pint"},
			{Pin: 1, Amount: 10, Duration: 1000, Variable: true, AcceptsAssets: true, AcceptedAssets: []string{"asset-a"}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := persistedSwitch()
	if err := repo.Create(ctx, want); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := repo.GetByID(ctx, want.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}

	if got.Title != want.Title || got.Currency != want.Currency {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.Disposable || got.Disabled {
		t.Errorf("flags not persisted: disposable=%v disabled=%v", got.Disposable, got.Disabled)
	}
	if len(got.Pins) != 2 {
		t.Fatalf("pins not persisted: %+v", got.Pins)
	}
	if got.Pins[1].AcceptedAssets[0] != "asset-a" {
		t.Errorf("accepted assets not persisted: %+v", got.Pins[1])
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestSQLiteCreateDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := persistedSwitch()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := repo.Create(ctx, s); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Create() error = %v, want ErrExists", err)
	}
}

func TestSQLiteUpdateMissing(t *testing.T) {
	repo := newTestRepo(t)

	s := persistedSwitch()
	if err := repo.Update(context.Background(), s); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := persistedSwitch()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := repo.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := repo.GetByID(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := persistedSwitch()
	a.ID = "sw-a"
	a.Title = "Zebra"
	b := persistedSwitch()
	b.ID = "sw-b"
	b.Title = "Aardvark"

	for _, s := range []*Switch{a, b} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d switches, want 2", len(got))
	}
	if got[0].Title != "Aardvark" {
		t.Errorf("List() not ordered by title: %q first", got[0].Title)
	}
}
