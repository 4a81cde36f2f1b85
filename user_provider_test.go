package suppliers_test

import (
	"context"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-suppliers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hashOnce       sync.Once
	knownHash      string
	knownPassword  = "correct-horse-battery1"
	wrongPassword  = "wrong-password-1"
	knownAccountID = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
)

// hashing at cost 14 is slow, do it once for the whole suite
func passwordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := suppliers.HashPassword(knownPassword)
		if err != nil {
			t.Fatalf("failed to hash fixture password: %v", err)
		}
		knownHash = h
	})
	return knownHash
}

func knownAccount(t *testing.T) *suppliers.Account {
	t.Helper()
	return &suppliers.Account{
		ID:           knownAccountID,
		Email:        "user@example.com",
		PasswordHash: passwordHash(t),
		Claims:       map[string]string{suppliers.ClaimDeleteSupplier: "true"},
		Roles:        []string{"admin"},
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	store := newStubAccountStore(knownAccount(t))
	provider := suppliers.NewUserProvider(store)

	result, err := provider.Authenticate(context.Background(), "user@example.com", knownPassword)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, knownAccountID, result.ID)
	assert.Equal(t, "user@example.com", result.Email)
	assert.Equal(t, map[string]string{suppliers.ClaimDeleteSupplier: "true"}, result.Claims)
	assert.Equal(t, []string{"admin"}, result.Roles)

	assert.Empty(t, store.failedLogins)
	assert.Equal(t, []uuid.UUID{knownAccountID}, store.resets)
}

func TestAuthenticateResultIsSnapshot(t *testing.T) {
	account := knownAccount(t)
	store := newStubAccountStore(account)
	provider := suppliers.NewUserProvider(store)

	result, err := provider.Authenticate(context.Background(), "user@example.com", knownPassword)
	require.NoError(t, err)

	// grants made after verification must not leak into the snapshot
	account.AddClaim("NovaPermissao", "true")
	account.Roles = append(account.Roles, "owner")

	assert.False(t, func() bool { _, ok := result.Claims["NovaPermissao"]; return ok }())
	assert.Equal(t, []string{"admin"}, result.Roles)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	store := newStubAccountStore(knownAccount(t))
	provider := suppliers.NewUserProvider(store)

	result, err := provider.Authenticate(context.Background(), "user@example.com", wrongPassword)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, suppliers.ErrMismatchedHashAndPassword)

	require.Len(t, store.failedLogins, 1)
	call := store.failedLogins[0]
	assert.Equal(t, knownAccountID, call.ID)
	assert.Equal(t, suppliers.MaxLoginAttempts, call.Threshold)
	assert.Equal(t, suppliers.LockoutWindow, call.LockFor)
	assert.Empty(t, store.resets)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	store := newStubAccountStore()
	provider := suppliers.NewUserProvider(store)

	_, err := provider.Authenticate(context.Background(), "nobody@example.com", knownPassword)
	require.Error(t, err)

	// a missing account reads exactly like a bad password
	assert.ErrorIs(t, err, suppliers.ErrMismatchedHashAndPassword)
	assert.Empty(t, store.failedLogins)
}

func TestAuthenticateLockedAccount(t *testing.T) {
	account := knownAccount(t)
	until := time.Now().Add(10 * time.Minute)
	account.LockedUntil = &until

	store := newStubAccountStore(account)
	provider := suppliers.NewUserProvider(store)

	// even the correct password is refused while the lock holds
	_, err := provider.Authenticate(context.Background(), "user@example.com", knownPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, suppliers.ErrAccountLocked)
	assert.Empty(t, store.failedLogins)
	assert.Empty(t, store.resets)
}

func TestAuthenticateExpiredLock(t *testing.T) {
	account := knownAccount(t)
	until := time.Now().Add(-time.Minute)
	account.LockedUntil = &until
	account.LoginAttempts = suppliers.MaxLoginAttempts

	store := newStubAccountStore(account)
	provider := suppliers.NewUserProvider(store)

	result, err := provider.Authenticate(context.Background(), "user@example.com", knownPassword)
	require.NoError(t, err)
	assert.Equal(t, knownAccountID, result.ID)
	assert.Equal(t, []uuid.UUID{knownAccountID}, store.resets)
}

func TestRegisterHashesPassword(t *testing.T) {
	store := newStubAccountStore()
	provider := suppliers.NewUserProvider(store)

	account, err := provider.Register(context.Background(), suppliers.RegisterInput{
		Email:    "new@example.com",
		Password: "new-password-123",
	})
	require.NoError(t, err)
	require.NotNil(t, account)

	assert.NotEqual(t, uuid.Nil, account.ID)
	assert.Equal(t, "new@example.com", account.Email)
	assert.NotEqual(t, "new-password-123", account.PasswordHash)
	assert.NoError(t, suppliers.ComparePasswordAndHash("new-password-123", account.PasswordHash))
}

func TestRegisterEmptyPassword(t *testing.T) {
	store := newStubAccountStore()
	provider := suppliers.NewUserProvider(store)

	_, err := provider.Register(context.Background(), suppliers.RegisterInput{
		Email: "new@example.com",
	})
	require.Error(t, err)
	assert.Empty(t, store.accounts)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newStubAccountStore(knownAccount(t))
	provider := suppliers.NewUserProvider(store)

	_, err := provider.Register(context.Background(), suppliers.RegisterInput{
		Email:    "user@example.com",
		Password: "another-password-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, suppliers.ErrEmailTaken)
}

func TestRegisterStoreConflict(t *testing.T) {
	store := newStubAccountStore()
	store.registerErr = goerrors.New("unique constraint violated", goerrors.CategoryConflict)
	provider := suppliers.NewUserProvider(store)

	_, err := provider.Register(context.Background(), suppliers.RegisterInput{
		Email:    "racing@example.com",
		Password: "another-password-1",
	})
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, suppliers.TextCodeEmailTaken, rich.TextCode)
	assert.Equal(t, goerrors.CodeBadRequest, rich.Code)
}

func TestRegisterWithHashid(t *testing.T) {
	provider := suppliers.NewUserProvider(newStubAccountStore())

	first, err := provider.Register(context.Background(), suppliers.RegisterInput{
		Email:     "stable@example.com",
		Password:  "another-password-1",
		UseHashid: true,
	})
	require.NoError(t, err)

	second, err := suppliers.NewUserProvider(newStubAccountStore()).
		Register(context.Background(), suppliers.RegisterInput{
			Email:     "stable@example.com",
			Password:  "different-password-2",
			UseHashid: true,
		})
	require.NoError(t, err)

	// same email, same derived ID
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, uuid.Nil, first.ID)
}
