package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for switch persistence operations.
// This abstraction allows different implementations (SQLite, mock) and
// enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a switch by its unique identifier.
	// Returns ErrNotFound if the switch does not exist.
	GetByID(ctx context.Context, id string) (*Switch, error)

	// List retrieves all switches.
	List(ctx context.Context) ([]Switch, error)

	// Create inserts a new switch.
	// Returns ErrExists if a switch with the same id already exists.
	Create(ctx context.Context, s *Switch) error

	// Update modifies an existing switch, replacing its pin list wholesale.
	// Returns ErrNotFound if the switch does not exist.
	Update(ctx context.Context, s *Switch) error

	// Delete removes a switch by id.
	// Returns ErrNotFound if the switch does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
// Pins are stored as a JSON array on the switch row; they are only ever
// replaced wholesale, so a separate table buys nothing.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const switchColumns = `id, admin_key, title, wallet_id, currency, disabled, disposable, pins, created_at, updated_at`

// GetByID retrieves a switch by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Switch, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+switchColumns+` FROM switches WHERE id = ?`, id)

	s, err := scanSwitch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying switch by id: %w", err)
	}
	return s, nil
}

// List retrieves all switches ordered by title.
func (r *SQLiteRepository) List(ctx context.Context) ([]Switch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+switchColumns+` FROM switches ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("querying switches: %w", err)
	}
	defer rows.Close()

	var switches []Switch
	for rows.Next() {
		s, err := scanSwitch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning switch row: %w", err)
		}
		switches = append(switches, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating switches: %w", err)
	}
	return switches, nil
}

// Create inserts a new switch.
func (r *SQLiteRepository) Create(ctx context.Context, s *Switch) error {
	pins, err := json.Marshal(s.Pins)
	if err != nil {
		return fmt.Errorf("marshalling pins: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO switches (`+switchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AdminKey, s.Title, s.WalletID, s.Currency,
		boolToInt(s.Disabled), boolToInt(s.Disposable), string(pins),
		s.CreatedAt.UTC().Format(time.RFC3339), s.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting switch: %w", err)
	}
	return nil
}

// Update modifies an existing switch, replacing its pin list wholesale.
func (r *SQLiteRepository) Update(ctx context.Context, s *Switch) error {
	pins, err := json.Marshal(s.Pins)
	if err != nil {
		return fmt.Errorf("marshalling pins: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE switches
		SET title = ?, wallet_id = ?, currency = ?, disabled = ?, disposable = ?,
			pins = ?, updated_at = ?
		WHERE id = ?`,
		s.Title, s.WalletID, s.Currency,
		boolToInt(s.Disabled), boolToInt(s.Disposable), string(pins),
		s.UpdatedAt.UTC().Format(time.RFC3339),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating switch: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a switch by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM switches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting switch: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanSwitch.
type scanner interface {
	Scan(dest ...any) error
}

// scanSwitch reads one switch row.
func scanSwitch(row scanner) (*Switch, error) {
	var (
		s                    Switch
		disabled, disposable int
		pinsJSON             string
		createdAt, updatedAt string
	)

	if err := row.Scan(
		&s.ID, &s.AdminKey, &s.Title, &s.WalletID, &s.Currency,
		&disabled, &disposable, &pinsJSON, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	s.Disabled = disabled != 0
	s.Disposable = disposable != 0

	if err := json.Unmarshal([]byte(pinsJSON), &s.Pins); err != nil {
		return nil, fmt.Errorf("unmarshalling pins: %w", err)
	}

	var err error
	if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
// String matching avoids importing the driver's error types here.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed"))
}
