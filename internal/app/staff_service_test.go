package app_test

import (
	"context"
	"testing"
	"time"

	"office_cheer_bot/internal/app"
	"office_cheer_bot/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() app.AddParams {
	return app.AddParams{
		Name:      "Maya Chen",
		Email:     "maya@example.com",
		BirthDate: time.Date(1991, time.June, 12, 0, 0, 0, 0, time.UTC),
		StartDate: time.Date(2019, time.April, 1, 0, 0, 0, 0, time.UTC),
		Alias:     "May",
		Interests: []string{"climbing", "jazz"},
	}
}

func TestStaffService_Add(t *testing.T) {
	svc := app.NewStaffService(database.NewMemoryStaffRepository())
	ctx := context.Background()

	rec, err := svc.Add(ctx, validParams())
	require.NoError(t, err)
	assert.True(t, rec.IsActive)
	assert.Equal(t, "May", rec.DisplayName())
	assert.Equal(t, []string{"climbing", "jazz"}, rec.InterestList())
}

func TestStaffService_AddRejectsDuplicateEmail(t *testing.T) {
	svc := app.NewStaffService(database.NewMemoryStaffRepository())
	ctx := context.Background()

	_, err := svc.Add(ctx, validParams())
	require.NoError(t, err)

	dup := validParams()
	dup.Name = "Someone Else"
	_, err = svc.Add(ctx, dup)
	assert.ErrorIs(t, err, app.ErrStaffAlreadyExists)
}

func TestStaffService_AddValidation(t *testing.T) {
	svc := app.NewStaffService(database.NewMemoryStaffRepository())
	ctx := context.Background()

	missingName := validParams()
	missingName.Name = ""
	_, err := svc.Add(ctx, missingName)
	assert.Error(t, err)

	missingDates := validParams()
	missingDates.BirthDate = time.Time{}
	_, err = svc.Add(ctx, missingDates)
	assert.Error(t, err)
}

func TestStaffService_Update(t *testing.T) {
	svc := app.NewStaffService(database.NewMemoryStaffRepository())
	ctx := context.Background()

	_, err := svc.Add(ctx, validParams())
	require.NoError(t, err)

	rec, err := svc.Update(ctx, "maya@example.com", app.UpdateParams{
		Alias:     "Mimi",
		Interests: []string{"pottery"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mimi", rec.DisplayName())
	assert.Equal(t, []string{"pottery"}, rec.InterestList())
	// Untouched fields keep their stored values.
	assert.Equal(t, "Maya Chen", rec.Name)
	assert.Equal(t, validParams().BirthDate, rec.BirthDate)

	_, err = svc.Update(ctx, "nobody@example.com", app.UpdateParams{Alias: "x"})
	assert.ErrorIs(t, err, database.ErrStaffNotFound)
}

func TestStaffService_UpdateClearsAliasAndInterests(t *testing.T) {
	svc := app.NewStaffService(database.NewMemoryStaffRepository())
	ctx := context.Background()

	_, err := svc.Add(ctx, validParams())
	require.NoError(t, err)

	rec, err := svc.Update(ctx, "maya@example.com", app.UpdateParams{
		ClearAlias:     true,
		ClearInterests: true,
	})
	require.NoError(t, err)
	// Without an alias the full name is displayed again.
	assert.Equal(t, "Maya Chen", rec.DisplayName())
	assert.False(t, rec.Alias.Valid)
	assert.Nil(t, rec.InterestList())
}

func TestStaffService_Deactivate(t *testing.T) {
	svc := app.NewStaffService(database.NewMemoryStaffRepository())
	ctx := context.Background()

	_, err := svc.Add(ctx, validParams())
	require.NoError(t, err)

	rec, err := svc.Deactivate(ctx, "maya@example.com")
	require.NoError(t, err)
	assert.False(t, rec.IsActive)

	_, err = svc.Deactivate(ctx, "maya@example.com")
	assert.ErrorIs(t, err, app.ErrStaffAlreadyInactive)

	_, err = svc.Deactivate(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, database.ErrStaffNotFound)

	// Deactivated members stay listable.
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStaffService_SeedIsIdempotent(t *testing.T) {
	svc := app.NewStaffService(database.NewMemoryStaffRepository())
	ctx := context.Background()

	created, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
