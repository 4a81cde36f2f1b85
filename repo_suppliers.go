package suppliers

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Suppliers is the persistence surface for supplier records
type Suppliers interface {
	List(ctx context.Context) ([]*Supplier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	Create(ctx context.Context, record *Supplier) (*Supplier, error)
	Update(ctx context.Context, record *Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SupplierRepository implements Suppliers using Bun.
type SupplierRepository struct {
	db *bun.DB
}

var _ Suppliers = (*SupplierRepository)(nil)

// NewSupplierRepository creates a new repository.
func NewSupplierRepository(db *bun.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// List returns every supplier, oldest first
func (r *SupplierRepository) List(ctx context.Context) ([]*Supplier, error) {
	var records []*Supplier
	err := r.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return []*Supplier{}, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list suppliers")
	}

	if records == nil {
		records = []*Supplier{}
	}
	return records, nil
}

// GetByID fetches a single supplier
func (r *SupplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	record := &Supplier{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSupplierNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to fetch supplier")
	}

	return record, nil
}

// Create inserts the record. Zero affected rows means the write silently
// failed and is surfaced as a persistence error.
func (r *SupplierRepository) Create(ctx context.Context, record *Supplier) (*Supplier, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	res, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to insert supplier").
			WithTextCode(TextCodeRecordNotPersisted).
			WithCode(errors.CodeBadRequest)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotPersisted
	}

	return record, nil
}

// Update writes the full mutable column set for the record. The caller read
// the row first without any lock; the last writer wins by design.
func (r *SupplierRepository) Update(ctx context.Context, record *Supplier) error {
	now := time.Now()
	record.UpdatedAt = &now

	res, err := r.db.NewUpdate().
		Model(record).
		Column("name", "document", "updated_at").
		Where("?TableAlias.id = ?", record.ID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to update supplier").
			WithTextCode(TextCodeRecordNotPersisted).
			WithCode(errors.CodeBadRequest)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotPersisted
	}

	return nil
}

// Delete removes the record
func (r *SupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Supplier)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to delete supplier").
			WithTextCode(TextCodeRecordNotPersisted).
			WithCode(errors.CodeBadRequest)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotPersisted
	}

	return nil
}
