package staff

import (
	"database/sql"
	"strings"
	"time"
)

// Record represents a staff member whose birthday and work anniversary are
// monitored. Corresponds to the 'staff' table.
type Record struct {
	ID        int64
	Name      string
	Alias     sql.NullString // Nickname or preferred name
	Email     string
	BirthDate time.Time // Only month/day are significant for detection; year is used for age
	StartDate time.Time
	Interests sql.NullString // Comma-separated list of interests
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the alias if set, otherwise the full name.
func (r *Record) DisplayName() string {
	if r.Alias.Valid && r.Alias.String != "" {
		return r.Alias.String
	}
	return r.Name
}

// InterestList splits the stored comma-separated interests into a slice.
func (r *Record) InterestList() []string {
	if !r.Interests.Valid || strings.TrimSpace(r.Interests.String) == "" {
		return nil
	}
	parts := strings.Split(r.Interests.String, ",")
	interests := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			interests = append(interests, trimmed)
		}
	}
	return interests
}
