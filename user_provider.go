package suppliers

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// MaxLoginAttempts is the number of failed logins an account gets before
// the lockout window starts
var MaxLoginAttempts = 5

// LockoutWindow is how long an account stays locked once it trips the
// attempt threshold
var LockoutWindow = 15 * time.Minute

// AccountStore is the persistence surface the provider needs
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Register(ctx context.Context, account *Account) (*Account, error)
	RecordFailedLogin(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) error
	ResetLockout(ctx context.Context, id uuid.UUID) error
}

// RegisterInput carries the attributes of a new account
type RegisterInput struct {
	Email    string
	Password string
	// UseHashid derives the account ID deterministically from the email
	// instead of minting a random UUID
	UseHashid bool
}

// AuthResult is the identity snapshot handed back on a successful login.
// Claims and Roles are copies taken at verification time; the token built
// from them will not see later grants.
type AuthResult struct {
	ID     uuid.UUID
	Email  string
	Claims map[string]string
	Roles  []string
}

// UserProvider registers accounts and verifies credentials against the store
type UserProvider struct {
	store  AccountStore
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store AccountStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

var _ IdentityProvider = (*UserProvider)(nil)

// Register creates a new account with a hashed password. Duplicate emails
// are a conflict regardless of who wins the insert race.
func (u *UserProvider) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, errors.Wrap(richErr, errors.CategoryValidation, "invalid password provided")
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	if existing, err := u.store.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check for existing account")
	}

	account := &Account{
		Email:        input.Email,
		PasswordHash: hash,
	}

	if input.UseHashid {
		if id, err := hashid.NewUUID(input.Email); err == nil {
			account.ID = id
		}
	}

	created, err := u.store.Register(ctx, account)
	if err != nil {
		u.logger.Error("account registration failed", "email", input.Email, "error", err)
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create account").
			WithTextCode(TextCodeEmailTaken).
			WithCode(errors.CodeBadRequest)
	}

	return created, nil
}

// Authenticate verifies credentials and returns the identity snapshot. The
// response never distinguishes a missing account from a bad password; a
// locked account is reported as locked even when the password is correct.
func (u *UserProvider) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	if account == nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if account.IsLocked(time.Now()) {
		return nil, ErrAccountLocked
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		// single-statement increment so concurrent failures can't lose counts
		if err2 := u.store.RecordFailedLogin(ctx, account.ID, MaxLoginAttempts, LockoutWindow); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.ResetLockout(ctx, account.ID); err != nil {
		u.logger.Error("failed to reset lockout counter", "error", err)
	}

	return &AuthResult{
		ID:     account.ID,
		Email:  account.Email,
		Claims: copyClaims(account.Claims),
		Roles:  copyRoles(account.Roles),
	}, nil
}

func copyClaims(claims map[string]string) map[string]string {
	if len(claims) == 0 {
		return nil
	}
	out := make(map[string]string, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}

func copyRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}
