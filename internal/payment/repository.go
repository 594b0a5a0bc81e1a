package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence for payment bookkeeping and for the
// durable pin-consumption records that back disposable pins.
type Repository interface {
	// CreatePayment inserts a new pending payment record.
	CreatePayment(ctx context.Context, p *Payment) error

	// SettlePayment marks a payment settled and records the settled amount.
	// Returns ErrNotFound if the payment does not exist.
	SettlePayment(ctx context.Context, id string, amountMsat int64) error

	// ListBySwitch returns all payment records for a switch, newest first.
	ListBySwitch(ctx context.Context, switchID string) ([]Payment, error)

	// IsPinConsumed reports whether a disposable pin has already triggered.
	IsPinConsumed(ctx context.Context, switchID string, pin int) (bool, error)

	// ConsumePin durably marks a pin consumed. Returns ErrAlreadyConsumed
	// if another settlement got there first.
	ConsumePin(ctx context.Context, switchID string, pin int) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed payment repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreatePayment inserts a new pending payment record.
func (r *SQLiteRepository) CreatePayment(ctx context.Context, p *Payment) error {
	if p.Status == "" {
		p.Status = StatusPending
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, switch_id, payment_hash, pin, amount_msat, asset_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SwitchID, p.PaymentHash, p.Pin, p.AmountMsat, p.AssetID, p.Status,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

// SettlePayment marks a payment settled and records the settled amount.
func (r *SQLiteRepository) SettlePayment(ctx context.Context, id string, amountMsat int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = ?, amount_msat = ?, updated_at = ? WHERE id = ?`,
		StatusSettled, amountMsat, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("settling payment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking settle result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBySwitch returns all payment records for a switch, newest first.
func (r *SQLiteRepository) ListBySwitch(ctx context.Context, switchID string) ([]Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, switch_id, payment_hash, pin, amount_msat, asset_id, status, created_at, updated_at
		FROM payments WHERE switch_id = ? ORDER BY created_at DESC`,
		switchID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var (
			p                    Payment
			createdAt, updatedAt string
		)
		if err := rows.Scan(&p.ID, &p.SwitchID, &p.PaymentHash, &p.Pin,
			&p.AmountMsat, &p.AssetID, &p.Status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}
	return payments, nil
}

// IsPinConsumed reports whether a disposable pin has already triggered.
func (r *SQLiteRepository) IsPinConsumed(ctx context.Context, switchID string, pin int) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM pin_consumptions WHERE switch_id = ? AND pin = ?`,
		switchID, pin,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying pin consumption: %w", err)
	}
	return true, nil
}

// ConsumePin durably marks a pin consumed. The primary key makes the
// insert race-free: exactly one caller wins, all others get
// ErrAlreadyConsumed.
func (r *SQLiteRepository) ConsumePin(ctx context.Context, switchID string, pin int) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO pin_consumptions (switch_id, pin, consumed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (switch_id, pin) DO NOTHING`,
		switchID, pin, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("consuming pin: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking consume result: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}
