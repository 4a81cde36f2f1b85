package suppliers

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var recordFailedLoginSQL = `UPDATE "accounts" AS "acc"
SET
	"login_attempts" = "login_attempts" + 1,
	"locked_until" = CASE
		WHEN "login_attempts" + 1 >= ? THEN ?
		ELSE "locked_until"
	END
WHERE
	("acc".id = ?)
	AND "acc"."deleted_at" IS NULL;`

var resetLockoutSQL = `UPDATE "accounts" AS "acc"
SET
	"loggedin_at" = ?,
	"locked_until" = NULL,
	"login_attempts" = 0
WHERE
	("acc".id = ?)
	AND "acc"."deleted_at" IS NULL;`

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)

	RecordFailedLogin(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) error
	RecordFailedLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, threshold int, lockFor time.Duration) error
	ResetLockout(ctx context.Context, id uuid.UUID) error
	ResetLockoutTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	GrantClaim(ctx context.Context, email, name, value string) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
	_ AccountStore                    = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)
	return a.Repository.CreateTx(ctx, tx, account)
}

func (a *accounts) RecordFailedLogin(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) error {
	return a.RecordFailedLoginTx(ctx, a.db, id, threshold, lockFor)
}

// RecordFailedLoginTx bumps the attempt counter and arms the lockout in one
// statement. Concurrent failed logins each land their increment; whichever
// one crosses the threshold sets locked_until.
func (a *accounts) RecordFailedLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, threshold int, lockFor time.Duration) error {
	lockedUntil := time.Now().Add(lockFor)
	_, err := tx.NewRaw(recordFailedLoginSQL, threshold, lockedUntil, id).Exec(ctx)
	return err
}

func (a *accounts) ResetLockout(ctx context.Context, id uuid.UUID) error {
	return a.ResetLockoutTx(ctx, a.db, id)
}

func (a *accounts) ResetLockoutTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	// NOTE: raw SQL because a model update will not clear the nullable
	// locked_until column back to NULL.
	loggedInAt := time.Now()
	_, err := tx.NewRaw(resetLockoutSQL, loggedInAt, id).Exec(ctx)
	return err
}

// GrantClaim attaches a claim to an account. The read-modify-write runs in a
// transaction so concurrent grants do not drop each other's entries.
func (a *accounts) GrantClaim(ctx context.Context, email, name, value string) (*Account, error) {
	var updated *Account

	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := a.GetByEmailTx(ctx, tx, email)
		if err != nil {
			return err
		}

		account.AddClaim(name, value)

		record := &Account{
			ID:     account.ID,
			Claims: account.Claims,
		}

		updated, err = a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(account.ID.String()))
		return err
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
