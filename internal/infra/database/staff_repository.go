package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"office_cheer_bot/internal/domain/staff"
)

// Custom errors
var ErrStaffNotFound = fmt.Errorf("staff member not found")
var ErrDuplicateEmail = fmt.Errorf("staff member with this email already exists")

// SQLStaffRepository persists staff records via database/sql. It works
// against both the Postgres and SQLite dialects.
type SQLStaffRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStaffRepository(db *sql.DB, dialect Dialect) *SQLStaffRepository {
	return &SQLStaffRepository{db: db, dialect: dialect}
}

func (r *SQLStaffRepository) Create(ctx context.Context, rec *staff.Record) error {
	query := rebind(r.dialect, `INSERT INTO staff (name, alias, email, birth_date, start_date, interests, is_active)
               VALUES (?, ?, ?, ?, ?, ?, ?)
               RETURNING id, created_at, updated_at`)

	err := r.db.QueryRowContext(ctx, query,
		rec.Name, rec.Alias, rec.Email, rec.BirthDate, rec.StartDate, rec.Interests, rec.IsActive,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "unique constraint") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("error creating staff record: %w", err)
	}
	return nil
}

const staffColumns = `id, name, alias, email, birth_date, start_date, interests, is_active, created_at, updated_at`

func scanStaff(row interface{ Scan(...any) error }) (*staff.Record, error) {
	rec := &staff.Record{}
	err := row.Scan(&rec.ID, &rec.Name, &rec.Alias, &rec.Email, &rec.BirthDate,
		&rec.StartDate, &rec.Interests, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *SQLStaffRepository) GetByID(ctx context.Context, id int64) (*staff.Record, error) {
	query := rebind(r.dialect, `SELECT `+staffColumns+` FROM staff WHERE id = ?`)
	rec, err := scanStaff(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("error getting staff by ID: %w", err)
	}
	return rec, nil
}

func (r *SQLStaffRepository) GetByEmail(ctx context.Context, email string) (*staff.Record, error) {
	query := rebind(r.dialect, `SELECT `+staffColumns+` FROM staff WHERE email = ?`)
	rec, err := scanStaff(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("error getting staff by email: %w", err)
	}
	return rec, nil
}

func (r *SQLStaffRepository) Update(ctx context.Context, rec *staff.Record) error {
	query := rebind(r.dialect, `UPDATE staff
               SET name = ?, alias = ?, email = ?, birth_date = ?, start_date = ?, interests = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?
               RETURNING updated_at`)

	err := r.db.QueryRowContext(ctx, query,
		rec.Name, rec.Alias, rec.Email, rec.BirthDate, rec.StartDate, rec.Interests, rec.IsActive, rec.ID,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrStaffNotFound
		}
		return fmt.Errorf("error updating staff record: %w", err)
	}
	return nil
}

func (r *SQLStaffRepository) ListActive(ctx context.Context) ([]*staff.Record, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE is_active = TRUE ORDER BY name`
	return r.list(ctx, query, "active")
}

func (r *SQLStaffRepository) ListAll(ctx context.Context) ([]*staff.Record, error) {
	query := `SELECT ` + staffColumns + ` FROM staff ORDER BY id`
	return r.list(ctx, query, "all")
}

func (r *SQLStaffRepository) list(ctx context.Context, query, scope string) ([]*staff.Record, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing %s staff: %w", scope, err)
	}
	defer rows.Close()

	records := make([]*staff.Record, 0)
	for rows.Next() {
		rec, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning staff row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff rows: %w", err)
	}
	return records, nil
}
