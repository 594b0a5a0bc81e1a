package device

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// MockRepository is a test implementation of Repository.
type MockRepository struct {
	mu       sync.Mutex
	switches map[string]*Switch
	// For testing error paths
	createErr error
	updateErr error
	deleteErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		switches: make(map[string]*Switch),
	}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Switch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.switches[id]; ok {
		return s.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MockRepository) List(_ context.Context) ([]Switch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switches := make([]Switch, 0, len(m.switches))
	for _, s := range m.switches {
		switches = append(switches, *s.Clone())
	}
	return switches, nil
}

func (m *MockRepository) Create(_ context.Context, s *Switch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.switches[s.ID]; exists {
		return ErrExists
	}
	m.switches[s.ID] = s.Clone()
	return nil
}

func (m *MockRepository) Update(_ context.Context, s *Switch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.switches[s.ID]; !exists {
		return ErrNotFound
	}
	m.switches[s.ID] = s.Clone()
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.switches[id]; !exists {
		return ErrNotFound
	}
	delete(m.switches, id)
	return nil
}

func testSwitch() *Switch {
	return &Switch{
		Title:    "Garage Door",
		WalletID: "wallet-1",
		Currency: NativeCurrency,
		Pins: []Pin{
			{Pin: 0, Amount: 100, Duration: 500},
			{Pin: 1, Amount: 10, Duration: 1000, Variable: true, Comment: true},
		},
	}
}

func TestRegistryCreateMintsIdentity(t *testing.T) {
	reg := NewRegistry(NewMockRepository())

	s := testSwitch()
	if err := reg.Create(context.Background(), s); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if s.ID == "" {
		t.Error("Create() should mint an id")
	}
	if len(s.AdminKey) != adminKeyBytes*2 {
		t.Errorf("admin key length = %d, want %d hex chars", len(s.AdminKey), adminKeyBytes*2)
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("Create() should set timestamps")
	}
}

func TestRegistryCreateRejectsInvalid(t *testing.T) {
	reg := NewRegistry(NewMockRepository())

	s := testSwitch()
	s.Pins[0].Amount = -5

	err := reg.Create(context.Background(), s)
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Create() error = %v, want ErrInvalid", err)
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	reg := NewRegistry(NewMockRepository())
	s := testSwitch()
	if err := reg.Create(context.Background(), s); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got1, err := reg.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	// Mutating the returned switch must not leak into the cache.
	got1.Pins[0].Duration = 99999
	got1.Title = "mutated"

	got2, err := reg.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got2.Pins[0].Duration != 500 {
		t.Errorf("cache was mutated through a returned copy: duration = %d", got2.Pins[0].Duration)
	}
	if got2.Title != "Garage Door" {
		t.Errorf("cache was mutated through a returned copy: title = %q", got2.Title)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry(NewMockRepository())

	_, err := reg.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRegistryUpdateReplacesPins(t *testing.T) {
	reg := NewRegistry(NewMockRepository())
	s := testSwitch()
	if err := reg.Create(context.Background(), s); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	s.Pins = []Pin{{Pin: 5, Amount: 50, Duration: 2000}}
	if err := reg.Update(context.Background(), s); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := reg.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got.Pins) != 1 || got.Pins[0].Pin != 5 {
		t.Errorf("pins were not replaced wholesale: %+v", got.Pins)
	}
}

func TestRegistryDelete(t *testing.T) {
	reg := NewRegistry(NewMockRepository())
	s := testSwitch()
	if err := reg.Create(context.Background(), s); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if err := reg.Delete(context.Background(), s.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := reg.Get(context.Background(), s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := reg.Delete(context.Background(), s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry(NewMockRepository())
	s := testSwitch()
	if err := reg.Create(context.Background(), s); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	const goroutines = 20
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := reg.Get(context.Background(), s.ID); err != nil {
					t.Errorf("Get() error: %v", err)
					return
				}
				if _, err := reg.List(context.Background()); err != nil {
					t.Errorf("List() error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestPublicStripsSecrets(t *testing.T) {
	s := testSwitch()
	s.AdminKey = "secret-key"
	s.WalletID = "wallet-1"

	pub := s.Public()
	if pub.AdminKey != "" {
		t.Error("Public() must strip the admin key")
	}
	if pub.WalletID != "" {
		t.Error("Public() must strip the wallet reference")
	}
	if len(pub.Pins) != len(s.Pins) {
		t.Error("Public() must keep the pin list")
	}
}
