package database_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"office_cheer_bot/internal/domain/delivery"
	"office_cheer_bot/internal/domain/occasion"
	"office_cheer_bot/internal/domain/staff"
	"office_cheer_bot/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = delivery.Key{StaffID: 7, Kind: occasion.KindBirthday, Year: 2025}

func TestMemoryLedger_FirstAttemptCreatesRecord(t *testing.T) {
	ledger := database.NewMemoryDeliveryLedger()
	ctx := context.Background()

	_, err := ledger.Get(ctx, testKey)
	require.ErrorIs(t, err, database.ErrRecordNotFound)

	rec, err := ledger.RecordAttempt(ctx, testKey, delivery.StatusFailed, 1)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusFailed, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
}

func TestMemoryLedger_DeliveredIsOneWay(t *testing.T) {
	ledger := database.NewMemoryDeliveryLedger()
	ctx := context.Background()

	first, err := ledger.RecordAttempt(ctx, testKey, delivery.StatusDelivered, 0)
	require.NoError(t, err)

	// A later Failed write must not disturb the Delivered record.
	after, err := ledger.RecordAttempt(ctx, testKey, delivery.StatusFailed, 1)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusDelivered, after.Status)
	assert.Equal(t, first.RetryCount, after.RetryCount)

	delivered, err := ledger.IsDelivered(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestMemoryLedger_RetryAccounting(t *testing.T) {
	ledger := database.NewMemoryDeliveryLedger()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		rec, err := ledger.RecordAttempt(ctx, testKey, delivery.StatusFailed, 1)
		require.NoError(t, err)
		assert.Equal(t, i, rec.RetryCount)
	}

	retry, err := ledger.ShouldRetry(ctx, testKey, 3)
	require.NoError(t, err)
	assert.False(t, retry)

	retry, err = ledger.ShouldRetry(ctx, testKey, 5)
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestMemoryLedger_ShouldRetryUnknownKey(t *testing.T) {
	ledger := database.NewMemoryDeliveryLedger()

	retry, err := ledger.ShouldRetry(context.Background(), testKey, 3)
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestMemoryLedger_ConcurrentDeliveredWrites(t *testing.T) {
	ledger := database.NewMemoryDeliveryLedger()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordAttempt(ctx, testKey, delivery.StatusDelivered, 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := ledger.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusDelivered, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
}

func TestMemoryStaffRepository_CRUD(t *testing.T) {
	repo := database.NewMemoryStaffRepository()
	ctx := context.Background()

	rec := &staff.Record{
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		BirthDate: time.Date(1990, time.December, 10, 0, 0, 0, 0, time.UTC),
		StartDate: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	require.NoError(t, repo.Create(ctx, rec))
	assert.NotZero(t, rec.ID)

	dup := &staff.Record{Name: "Other", Email: "ada@example.com"}
	assert.ErrorIs(t, repo.Create(ctx, dup), database.ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	got.IsActive = false
	require.NoError(t, repo.Update(ctx, got))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
