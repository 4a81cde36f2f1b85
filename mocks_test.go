package suppliers_test

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-suppliers"
	"github.com/google/uuid"
)

// testConfig implements suppliers.Config
type testConfig struct {
	signingKey string
	expiration int
	issuer     string
	audience   []string
	contextKey string
}

func (c testConfig) GetSigningKey() string    { return c.signingKey }
func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetContextKey() string {
	if c.contextKey == "" {
		return "user"
	}
	return c.contextKey
}
func (c testConfig) GetTokenExpiration() int {
	return c.expiration
}
func (c testConfig) GetTokenLookup() string { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string  { return "Bearer" }
func (c testConfig) GetIssuer() string      { return c.issuer }
func (c testConfig) GetAudience() []string  { return c.audience }

type failedLoginCall struct {
	ID        uuid.UUID
	Threshold int
	LockFor   time.Duration
}

// stubAccountStore implements suppliers.AccountStore in memory
type stubAccountStore struct {
	accounts     map[string]*suppliers.Account
	failedLogins []failedLoginCall
	resets       []uuid.UUID
	registerErr  error
	lookupErr    error
}

func newStubAccountStore(accounts ...*suppliers.Account) *stubAccountStore {
	s := &stubAccountStore{accounts: map[string]*suppliers.Account{}}
	for _, a := range accounts {
		s.accounts[a.Email] = a
	}
	return s
}

func (s *stubAccountStore) GetByEmail(ctx context.Context, email string) (*suppliers.Account, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	account, ok := s.accounts[email]
	if !ok {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"email": email})
	}
	return account, nil
}

func (s *stubAccountStore) Register(ctx context.Context, account *suppliers.Account) (*suppliers.Account, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	s.accounts[account.Email] = account
	return account, nil
}

func (s *stubAccountStore) RecordFailedLogin(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) error {
	s.failedLogins = append(s.failedLogins, failedLoginCall{ID: id, Threshold: threshold, LockFor: lockFor})
	return nil
}

func (s *stubAccountStore) ResetLockout(ctx context.Context, id uuid.UUID) error {
	s.resets = append(s.resets, id)
	return nil
}

// stubIdentityProvider implements suppliers.IdentityProvider
type stubIdentityProvider struct {
	account    *suppliers.Account
	result     *suppliers.AuthResult
	err        error
	registered []suppliers.RegisterInput
	logins     []string
}

func (s *stubIdentityProvider) Register(ctx context.Context, input suppliers.RegisterInput) (*suppliers.Account, error) {
	s.registered = append(s.registered, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func (s *stubIdentityProvider) Authenticate(ctx context.Context, email, password string) (*suppliers.AuthResult, error) {
	s.logins = append(s.logins, email)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// stubSupplierStore implements suppliers.Suppliers in memory
type stubSupplierStore struct {
	records   map[uuid.UUID]*suppliers.Supplier
	created   []*suppliers.Supplier
	updated   []*suppliers.Supplier
	deleted   []uuid.UUID
	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func newStubSupplierStore(records ...*suppliers.Supplier) *stubSupplierStore {
	s := &stubSupplierStore{records: map[uuid.UUID]*suppliers.Supplier{}}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *stubSupplierStore) List(ctx context.Context) ([]*suppliers.Supplier, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*suppliers.Supplier, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubSupplierStore) GetByID(ctx context.Context, id uuid.UUID) (*suppliers.Supplier, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, suppliers.ErrSupplierNotFound
	}
	return record, nil
}

func (s *stubSupplierStore) Create(ctx context.Context, record *suppliers.Supplier) (*suppliers.Supplier, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, record)
	s.records[record.ID] = record
	return record, nil
}

func (s *stubSupplierStore) Update(ctx context.Context, record *suppliers.Supplier) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, record)
	s.records[record.ID] = record
	return nil
}

func (s *stubSupplierStore) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	delete(s.records, id)
	return nil
}

// localsContext overrides Locals with a plain map so middleware and
// handlers share state without mock expectations.
type localsContext struct {
	*router.MockContext
	locals map[any]any
}

func newLocalsContext() *localsContext {
	return &localsContext{
		MockContext: router.NewMockContext(),
		locals:      map[any]any{},
	}
}

func (c *localsContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		c.locals[key] = value[0]
		return value[0]
	}
	return c.locals[key]
}
