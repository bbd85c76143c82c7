package service

import (
	"context"
	"testing"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	domainerrors "github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	log := testLogger()
	st, err := store.New(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewAuthService(st, log)
}

func TestLoginLogoutCycle(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Current(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)

	session, err := svc.Login(ctx, "amy", domain.RoleStudent)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "amy", session.Username)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ID, current.ID)

	require.NoError(t, svc.Logout(ctx))
	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrAuthRequired)

	// Logging out again is harmless.
	assert.NoError(t, svc.Logout(ctx))
}

func TestLogin_ReplacesActiveSession(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, "amy", domain.RoleStudent)
	require.NoError(t, err)
	second, err := svc.Login(ctx, "teacher", domain.RoleStaff)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "teacher", current.Username)
}

func TestLogin_Validation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "", domain.RoleStudent)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Login(ctx, "amy", domain.Role("admin"))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
