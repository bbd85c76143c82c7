package service

import (
	"context"
	"testing"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	domainerrors "github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	"github.com/shelfkeeper/shelfkeeper-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsService(t *testing.T) *SettingsService {
	t.Helper()
	log := testLogger()
	st, err := store.New(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewSettingsService(st, validation.New(), log)
}

func TestSettings_GetDefaults(t *testing.T) {
	svc := newSettingsService(t)
	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), *settings)
}

func TestSettings_UpdateRoundTrip(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	updated := domain.DefaultSettings()
	updated.LoanDays = 7
	updated.GuestBorrow = true
	updated.RefreshIntervalMs = 0

	saved, err := svc.Update(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, 7, saved.LoanDays)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, *got)
}

func TestSettings_UpdateValidates(t *testing.T) {
	svc := newSettingsService(t)

	bad := domain.DefaultSettings()
	bad.LoanDays = 0
	_, err := svc.Update(context.Background(), bad)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	bad = domain.DefaultSettings()
	bad.RefreshIntervalMs = -1
	_, err = svc.Update(context.Background(), bad)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
