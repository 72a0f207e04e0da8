package delivery_test

import (
	"testing"
	"time"

	"office_cheer_bot/internal/domain/delivery"
	"office_cheer_bot/internal/domain/occasion"

	"github.com/stretchr/testify/assert"
)

func TestKeyFor(t *testing.T) {
	occ := occasion.Occasion{
		StaffID:      42,
		Kind:         occasion.KindAnniversary,
		Year:         2026,
		ElapsedYears: 5,
		Milestone:    true,
		TargetDate:   time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC),
	}

	key := delivery.KeyFor(occ)
	assert.Equal(t, delivery.Key{StaffID: 42, Kind: occasion.KindAnniversary, Year: 2026}, key)
	assert.Equal(t, "42/ANNIVERSARY/2026", key.String())
}

func TestRecordTerminal(t *testing.T) {
	failed := &delivery.Record{Status: delivery.StatusFailed, RetryCount: 3}
	assert.True(t, failed.Terminal(3))
	assert.False(t, failed.Terminal(4))

	// Only Failed records can be terminal.
	delivered := &delivery.Record{Status: delivery.StatusDelivered, RetryCount: 3}
	assert.False(t, delivered.Terminal(3))

	pending := &delivery.Record{Status: delivery.StatusPending, RetryCount: 3}
	assert.False(t, pending.Terminal(3))
}
