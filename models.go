package suppliers

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity model. Claims is a flat name -> value map; the
// authorization gate only cares about claim presence, the value is kept for
// parity with claim records that carry one.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string            `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string            `bun:"password_hash,notnull" json:"-"`
	Claims        map[string]string `bun:"claims" json:"claims,omitempty"`
	Roles         []string          `bun:"roles" json:"roles,omitempty"`
	LoginAttempts int               `bun:"login_attempts" json:"login_attempts,omitempty"`
	LockedUntil   *time.Time        `bun:"locked_until,nullzero" json:"locked_until,omitempty"`
	LoggedInAt    *time.Time        `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time        `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasClaim reports whether the account carries a claim with the given name
func (a *Account) HasClaim(name string) bool {
	if a == nil || a.Claims == nil {
		return false
	}
	_, ok := a.Claims[name]
	return ok
}

// AddClaim will set a claim on the account, initializing the map if needed
func (a *Account) AddClaim(name, value string) *Account {
	if a.Claims == nil {
		a.Claims = map[string]string{}
	}
	a.Claims[name] = value
	return a
}

// IsLocked reports whether the account is inside its lockout window
func (a *Account) IsLocked(now time.Time) bool {
	if a == nil || a.LockedUntil == nil {
		return false
	}
	return now.Before(*a.LockedUntil)
}

// Supplier is the supplier record model. JSON keys keep the Portuguese wire
// names the API has always exposed.
type Supplier struct {
	bun.BaseModel `bun:"table:suppliers,alias:sup"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"nome"`
	Document      string     `bun:"document,notnull" json:"documento"`
	Active        bool       `bun:"active" json:"ativo"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NewSupplier builds a record ready for insert: fresh id, active by default
func NewSupplier(name, document string) *Supplier {
	return &Supplier{
		ID:       uuid.New(),
		Name:     name,
		Document: document,
		Active:   true,
	}
}

// Apply copies the mutable attributes from a payload onto the record.
// Name and document are the only fields an update may change; identity,
// the active flag and lifecycle columns are left alone.
func (s *Supplier) Apply(name, document string) *Supplier {
	s.Name = name
	s.Document = document
	return s
}
