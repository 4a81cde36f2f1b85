package suppliers_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-suppliers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthController(t *testing.T, provider suppliers.IdentityProvider) (*suppliers.AuthController, *suppliers.TokenService) {
	t.Helper()
	tokens := newTokenService(t, testConfig{})
	controller := suppliers.NewAuthController(func(c *suppliers.AuthController) *suppliers.AuthController {
		c.Provider = provider
		c.Tokens = tokens
		return c
	})
	return controller, tokens
}

type responseCapture struct {
	status   int
	token    suppliers.TokenResponse
	apiError suppliers.ErrorResponse
}

func captureJSON(ctx *router.MockContext) *responseCapture {
	captured := &responseCapture{status: -1}
	ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured.status = args.Int(0)
		switch payload := args.Get(1).(type) {
		case suppliers.TokenResponse:
			captured.token = payload
		case suppliers.ErrorResponse:
			captured.apiError = payload
		}
	}).Return(nil)
	return captured
}

func bindPayload(ctx *router.MockContext, populate func(any)) {
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		populate(args.Get(0))
	}).Return(nil)
}

func TestNewAuthControllerRequiresCollaborators(t *testing.T) {
	assert.Panics(t, func() { suppliers.NewAuthController() })

	assert.Panics(t, func() {
		suppliers.NewAuthController(func(c *suppliers.AuthController) *suppliers.AuthController {
			c.Provider = &stubIdentityProvider{}
			return c
		})
	})
}

func TestRegisterSuccess(t *testing.T) {
	accountID := uuid.New()
	provider := &stubIdentityProvider{
		account: &suppliers.Account{
			ID:    accountID,
			Email: "new@example.com",
		},
	}

	controller, tokens := newAuthController(t, provider)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	bindPayload(ctx, func(target any) {
		payload := target.(*suppliers.RegisterPayload)
		payload.Email = "new@example.com"
		payload.Password = "password-123"
		payload.ConfirmPassword = "password-123"
	})
	captured := captureJSON(ctx)

	require.NoError(t, controller.Register(ctx))
	require.Equal(t, router.StatusOK, captured.status)

	require.Len(t, provider.registered, 1)
	assert.Equal(t, "new@example.com", provider.registered[0].Email)
	assert.Equal(t, "password-123", provider.registered[0].Password)

	assert.Equal(t, "Bearer", captured.token.TokenType)
	assert.Equal(t, int64(tokens.Lifetime().Seconds()), captured.token.ExpiresIn)
	assert.Equal(t, accountID.String(), captured.token.User.ID)
	assert.Equal(t, "new@example.com", captured.token.User.Email)

	claims, err := tokens.Validate(captured.token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), claims.UserID())
}

func TestRegisterValidationFailure(t *testing.T) {
	provider := &stubIdentityProvider{}
	controller, _ := newAuthController(t, provider)

	tests := []struct {
		name    string
		payload suppliers.RegisterPayload
	}{
		{
			name: "password too short",
			payload: suppliers.RegisterPayload{
				Email:           "new@example.com",
				Password:        "short1",
				ConfirmPassword: "short1",
			},
		},
		{
			name: "password without digits",
			payload: suppliers.RegisterPayload{
				Email:           "new@example.com",
				Password:        "onlyletters",
				ConfirmPassword: "onlyletters",
			},
		},
		{
			name: "confirmation mismatch",
			payload: suppliers.RegisterPayload{
				Email:           "new@example.com",
				Password:        "password-123",
				ConfirmPassword: "password-456",
			},
		},
		{
			name: "bad email",
			payload: suppliers.RegisterPayload{
				Email:           "not-an-email",
				Password:        "password-123",
				ConfirmPassword: "password-123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := router.NewMockContext()
			ctx.On("Context").Return(context.Background())
			bindPayload(ctx, func(target any) {
				*target.(*suppliers.RegisterPayload) = tt.payload
			})
			captured := captureJSON(ctx)

			require.NoError(t, controller.Register(ctx))
			assert.Equal(t, router.StatusBadRequest, captured.status)
			assert.NotEmpty(t, captured.apiError.Error.Validation)
		})
	}

	assert.Empty(t, provider.registered, "validation failures must not reach the provider")
}

func TestRegisterConflict(t *testing.T) {
	provider := &stubIdentityProvider{err: suppliers.ErrEmailTaken}
	controller, _ := newAuthController(t, provider)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	bindPayload(ctx, func(target any) {
		payload := target.(*suppliers.RegisterPayload)
		payload.Email = "taken@example.com"
		payload.Password = "password-123"
		payload.ConfirmPassword = "password-123"
	})
	captured := captureJSON(ctx)

	require.NoError(t, controller.Register(ctx))
	assert.Equal(t, router.StatusBadRequest, captured.status)
	assert.Equal(t, suppliers.TextCodeEmailTaken, captured.apiError.Error.TextCode)
}

func TestLoginSuccess(t *testing.T) {
	accountID := uuid.New()
	provider := &stubIdentityProvider{
		result: &suppliers.AuthResult{
			ID:     accountID,
			Email:  "user@example.com",
			Claims: map[string]string{suppliers.ClaimDeleteSupplier: "true"},
			Roles:  []string{"admin"},
		},
	}

	controller, tokens := newAuthController(t, provider)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	bindPayload(ctx, func(target any) {
		payload := target.(*suppliers.LoginPayload)
		payload.Email = "user@example.com"
		payload.Password = "password-123"
	})
	captured := captureJSON(ctx)

	require.NoError(t, controller.Login(ctx))
	require.Equal(t, router.StatusOK, captured.status)
	assert.Equal(t, []string{"user@example.com"}, provider.logins)

	assert.Equal(t, accountID.String(), captured.token.User.ID)
	assert.Equal(t, map[string]string{suppliers.ClaimDeleteSupplier: "true"}, captured.token.User.Claims)
	assert.Equal(t, []string{"admin"}, captured.token.User.Roles)

	// the minted token carries the snapshot
	claims, err := tokens.Validate(captured.token.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.HasClaim(suppliers.ClaimDeleteSupplier))
	assert.True(t, claims.HasRole("admin"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	provider := &stubIdentityProvider{err: suppliers.ErrMismatchedHashAndPassword}
	controller, _ := newAuthController(t, provider)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	bindPayload(ctx, func(target any) {
		payload := target.(*suppliers.LoginPayload)
		payload.Email = "user@example.com"
		payload.Password = "wrong-password-1"
	})
	captured := captureJSON(ctx)

	require.NoError(t, controller.Login(ctx))
	assert.Equal(t, router.StatusBadRequest, captured.status)
	assert.Equal(t, suppliers.TextCodeInvalidCreds, captured.apiError.Error.TextCode)
}

func TestLoginLockedAccount(t *testing.T) {
	provider := &stubIdentityProvider{err: suppliers.ErrAccountLocked}
	controller, _ := newAuthController(t, provider)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	bindPayload(ctx, func(target any) {
		payload := target.(*suppliers.LoginPayload)
		payload.Email = "user@example.com"
		payload.Password = "password-123"
	})
	captured := captureJSON(ctx)

	require.NoError(t, controller.Login(ctx))
	assert.Equal(t, router.StatusBadRequest, captured.status)
	assert.Equal(t, suppliers.TextCodeAccountLocked, captured.apiError.Error.TextCode)
}

func TestLoginValidationFailure(t *testing.T) {
	provider := &stubIdentityProvider{}
	controller, _ := newAuthController(t, provider)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	bindPayload(ctx, func(target any) {
		payload := target.(*suppliers.LoginPayload)
		payload.Email = "not-an-email"
	})
	captured := captureJSON(ctx)

	require.NoError(t, controller.Login(ctx))
	assert.Equal(t, router.StatusBadRequest, captured.status)
	assert.Empty(t, provider.logins)
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, suppliers.ValidatePasswordStrength("password-123"))
	assert.Error(t, suppliers.ValidatePasswordStrength("onlyletters"))
	assert.Error(t, suppliers.ValidatePasswordStrength("1234567890"))
	assert.Error(t, suppliers.ValidatePasswordStrength(""))
}
