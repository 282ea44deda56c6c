package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// SQLPackagingRepository provides the packaging catalog stored in SQLite or PostgreSQL.
type SQLPackagingRepository struct {
	db *SQLDB
}

// NewSQLPackagingRepository creates a new SQL packaging repository.
func NewSQLPackagingRepository(db *SQLDB) *SQLPackagingRepository {
	return &SQLPackagingRepository{db: db}
}

// FindAll returns every catalog entry ordered by id.
func (r *SQLPackagingRepository) FindAll(ctx context.Context) ([]model.Packaging, error) {
	packagings := []model.Packaging{}
	if err := r.db.selectRows(ctx, "find-all-packaging", &packagings); err != nil {
		return nil, err
	}
	return packagings, nil
}

// FindByID returns the packaging with the given id, or nil if none exists.
func (r *SQLPackagingRepository) FindByID(ctx context.Context, id int64) (*model.Packaging, error) {
	var packaging model.Packaging
	err := r.db.get(ctx, "find-packaging-by-id", &packaging, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &packaging, nil
}

// Create inserts a catalog entry. A zero id is assigned by the database.
func (r *SQLPackagingRepository) Create(ctx context.Context, packaging model.Packaging) (*model.Packaging, error) {
	if packaging.ID != 0 {
		_, err := r.db.exec(ctx, "create-packaging-with-id",
			packaging.ID, packaging.Width, packaging.Height, packaging.Length, packaging.MaxWeight)
		if err != nil {
			return nil, err
		}
		return &packaging, nil
	}

	var id int64
	err := r.db.get(ctx, "create-packaging", &id,
		packaging.Width, packaging.Height, packaging.Length, packaging.MaxWeight)
	if err != nil {
		return nil, err
	}
	packaging.ID = id
	return &packaging, nil
}
