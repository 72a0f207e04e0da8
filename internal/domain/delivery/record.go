package delivery

import (
	"fmt"
	"time"

	"office_cheer_bot/internal/domain/occasion"
)

// Status is the delivery state of one occasion in one calendar year.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
)

// Key identifies a delivery record: one staff member, one occasion kind, one
// calendar year. At most one DELIVERED record may ever exist per key.
type Key struct {
	StaffID int64
	Kind    occasion.Kind
	Year    int
}

// KeyFor derives the ledger key for a detected occasion.
func KeyFor(o occasion.Occasion) Key {
	return Key{StaffID: o.StaffID, Kind: o.Kind, Year: o.Year}
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s/%d", k.StaffID, k.Kind, k.Year)
}

// Record tracks delivery progress for a key. Corresponds to the
// 'delivery_records' table.
type Record struct {
	ID         int64
	Key        Key
	Status     Status
	RetryCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Terminal reports whether the record has exhausted its retry budget without
// being delivered. Terminal records are surfaced for manual attention and
// never retried automatically.
func (r *Record) Terminal(maxAttempts int) bool {
	return r.Status == StatusFailed && r.RetryCount >= maxAttempts
}
