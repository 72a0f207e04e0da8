package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"office_cheer_bot/internal/domain/staff"
	idb "office_cheer_bot/internal/infra/database"
)

// Custom application-level errors for staff management
var ErrStaffAlreadyExists = fmt.Errorf("staff member with this email already exists")
var ErrStaffAlreadyInactive = fmt.Errorf("staff member is already inactive")

// StaffService handles roster management: the pipeline only reads the roster,
// while operators add and deactivate members through this service.
type StaffService struct {
	staffRepo staff.Repository
}

func NewStaffService(sr staff.Repository) *StaffService {
	return &StaffService{staffRepo: sr}
}

// AddParams carries the fields for a new staff member.
type AddParams struct {
	Name      string
	Email     string
	BirthDate time.Time
	StartDate time.Time
	Alias     string
	Interests []string
}

// Add registers a new staff member. New members are active by default.
func (s *StaffService) Add(ctx context.Context, p AddParams) (*staff.Record, error) {
	if p.Name == "" || p.Email == "" {
		return nil, fmt.Errorf("name and email are required")
	}
	if p.BirthDate.IsZero() || p.StartDate.IsZero() {
		return nil, fmt.Errorf("birth date and start date are required")
	}

	_, err := s.staffRepo.GetByEmail(ctx, p.Email)
	if err == nil {
		return nil, ErrStaffAlreadyExists
	}
	if err != idb.ErrStaffNotFound {
		return nil, fmt.Errorf("failed to check existing staff: %w", err)
	}

	rec := &staff.Record{
		Name:      p.Name,
		Email:     p.Email,
		BirthDate: p.BirthDate,
		StartDate: p.StartDate,
		IsActive:  true,
	}
	if p.Alias != "" {
		rec.Alias = sql.NullString{String: p.Alias, Valid: true}
	}
	if len(p.Interests) > 0 {
		rec.Interests = sql.NullString{String: strings.Join(p.Interests, ", "), Valid: true}
	}

	if err := s.staffRepo.Create(ctx, rec); err != nil {
		if err == idb.ErrDuplicateEmail {
			return nil, ErrStaffAlreadyExists
		}
		return nil, fmt.Errorf("failed to create staff record: %w", err)
	}
	return rec, nil
}

// UpdateParams carries the fields to change on an existing member. Zero
// values leave the stored field untouched; the Clear flags blank a stored
// alias or interest list.
type UpdateParams struct {
	Name           string
	Alias          string
	ClearAlias     bool
	BirthDate      time.Time
	StartDate      time.Time
	Interests      []string
	ClearInterests bool
}

// Update changes the given fields on the member with this email.
func (s *StaffService) Update(ctx context.Context, email string, p UpdateParams) (*staff.Record, error) {
	rec, err := s.staffRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == idb.ErrStaffNotFound {
			return nil, idb.ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff by email for update: %w", err)
	}

	if p.Name != "" {
		rec.Name = p.Name
	}
	switch {
	case p.ClearAlias:
		rec.Alias = sql.NullString{}
	case p.Alias != "":
		rec.Alias = sql.NullString{String: p.Alias, Valid: true}
	}
	if !p.BirthDate.IsZero() {
		rec.BirthDate = p.BirthDate
	}
	if !p.StartDate.IsZero() {
		rec.StartDate = p.StartDate
	}
	switch {
	case p.ClearInterests:
		rec.Interests = sql.NullString{}
	case len(p.Interests) > 0:
		rec.Interests = sql.NullString{String: strings.Join(p.Interests, ", "), Valid: true}
	}

	if err := s.staffRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update staff record: %w", err)
	}
	return rec, nil
}

// Deactivate excludes a staff member from future detection scans without
// deleting their history.
func (s *StaffService) Deactivate(ctx context.Context, email string) (*staff.Record, error) {
	rec, err := s.staffRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == idb.ErrStaffNotFound {
			return nil, idb.ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff by email for deactivation: %w", err)
	}

	if !rec.IsActive {
		return rec, ErrStaffAlreadyInactive
	}

	rec.IsActive = false
	if err := s.staffRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to deactivate staff record: %w", err)
	}
	return rec, nil
}

// List returns all staff records, active and inactive.
func (s *StaffService) List(ctx context.Context) ([]*staff.Record, error) {
	return s.staffRepo.ListAll(ctx)
}

// Seed inserts a sample roster for local development. Existing records are
// left untouched.
func (s *StaffService) Seed(ctx context.Context) (int, error) {
	samples := []AddParams{
		{
			Name:      "John Doe",
			Email:     "john.doe@example.com",
			BirthDate: time.Date(1980, time.May, 15, 0, 0, 0, 0, time.UTC),
			StartDate: time.Date(2020, time.March, 10, 0, 0, 0, 0, time.UTC),
			Alias:     "Johnny",
			Interests: []string{"hiking", "photography", "cooking"},
		},
		{
			Name:      "Jane Smith",
			Email:     "jane.smith@example.com",
			BirthDate: time.Date(1985, time.August, 22, 0, 0, 0, 0, time.UTC),
			StartDate: time.Date(2018, time.June, 1, 0, 0, 0, 0, time.UTC),
			Interests: []string{"reading", "travel", "music"},
		},
		{
			Name:      "Mike Johnson",
			Email:     "mike.johnson@example.com",
			BirthDate: time.Date(1975, time.February, 28, 0, 0, 0, 0, time.UTC),
			StartDate: time.Date(2015, time.September, 15, 0, 0, 0, 0, time.UTC),
			Alias:     "MJ",
			Interests: []string{"sports", "gaming", "movies"},
		},
	}

	created := 0
	for _, p := range samples {
		if _, err := s.Add(ctx, p); err != nil {
			if err == ErrStaffAlreadyExists {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
