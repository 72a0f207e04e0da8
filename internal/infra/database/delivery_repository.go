package database

import (
	"context"
	"database/sql"
	"fmt"

	"office_cheer_bot/internal/domain/delivery"
)

var ErrRecordNotFound = fmt.Errorf("delivery record not found")

// SQLDeliveryLedger implements delivery.Ledger on Postgres or SQLite.
//
// The one-way DELIVERED invariant is enforced in SQL: the upsert's DO UPDATE
// clause is guarded by status <> 'DELIVERED', so concurrent writers serialize
// on the unique (staff_id, occasion_kind, occasion_year) row and a second
// Delivered write leaves the first record intact.
type SQLDeliveryLedger struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLDeliveryLedger(db *sql.DB, dialect Dialect) *SQLDeliveryLedger {
	return &SQLDeliveryLedger{db: db, dialect: dialect}
}

const recordColumns = `id, staff_id, occasion_kind, occasion_year, status, retry_count, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*delivery.Record, error) {
	rec := &delivery.Record{}
	err := row.Scan(&rec.ID, &rec.Key.StaffID, &rec.Key.Kind, &rec.Key.Year,
		&rec.Status, &rec.RetryCount, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *SQLDeliveryLedger) Get(ctx context.Context, key delivery.Key) (*delivery.Record, error) {
	query := rebind(l.dialect, `SELECT `+recordColumns+` FROM delivery_records
               WHERE staff_id = ? AND occasion_kind = ? AND occasion_year = ?`)
	rec, err := scanRecord(l.db.QueryRowContext(ctx, query, key.StaffID, string(key.Kind), key.Year))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting delivery record: %w", err)
	}
	return rec, nil
}

func (l *SQLDeliveryLedger) IsDelivered(ctx context.Context, key delivery.Key) (bool, error) {
	rec, err := l.Get(ctx, key)
	if err != nil {
		if err == ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return rec.Status == delivery.StatusDelivered, nil
}

func (l *SQLDeliveryLedger) RecordAttempt(ctx context.Context, key delivery.Key, outcome delivery.Status, retryIncrement int) (*delivery.Record, error) {
	query := rebind(l.dialect, `INSERT INTO delivery_records (staff_id, occasion_kind, occasion_year, status, retry_count)
               VALUES (?, ?, ?, ?, ?)
               ON CONFLICT (staff_id, occasion_kind, occasion_year)
               DO UPDATE SET status = excluded.status,
                             retry_count = delivery_records.retry_count + ?,
                             updated_at = CURRENT_TIMESTAMP
               WHERE delivery_records.status <> 'DELIVERED'
               RETURNING `+recordColumns)

	rec, err := scanRecord(l.db.QueryRowContext(ctx, query,
		key.StaffID, string(key.Kind), key.Year, string(outcome), retryIncrement, retryIncrement))
	if err == nil {
		return rec, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("error recording delivery attempt: %w", err)
	}

	// The guarded upsert returned no row: the record is already DELIVERED.
	// Return it unchanged (idempotent write).
	existing, getErr := l.Get(ctx, key)
	if getErr != nil {
		return nil, fmt.Errorf("error reading delivered record after no-op write: %w", getErr)
	}
	return existing, nil
}

func (l *SQLDeliveryLedger) ShouldRetry(ctx context.Context, key delivery.Key, maxAttempts int) (bool, error) {
	rec, err := l.Get(ctx, key)
	if err != nil {
		if err == ErrRecordNotFound {
			return true, nil
		}
		return false, err
	}
	if rec.Status == delivery.StatusDelivered {
		return false, nil
	}
	return rec.RetryCount < maxAttempts, nil
}

// ListTerminallyFailed returns records that exhausted the retry budget, for
// operator inspection.
func (l *SQLDeliveryLedger) ListTerminallyFailed(ctx context.Context, maxAttempts int) ([]*delivery.Record, error) {
	query := rebind(l.dialect, `SELECT `+recordColumns+` FROM delivery_records
               WHERE status = 'FAILED' AND retry_count >= ?
               ORDER BY updated_at`)
	rows, err := l.db.QueryContext(ctx, query, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("error listing terminally failed records: %w", err)
	}
	defer rows.Close()

	records := make([]*delivery.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning delivery record row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery record rows: %w", err)
	}
	return records, nil
}
