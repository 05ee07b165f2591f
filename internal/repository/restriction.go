package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type RestrictionRepository interface {
	ListForAccount(accountID string) ([]models.RestrictionEntry, error)
	ReplaceForSource(accountID, sourceKind, sourceID string, entries []models.RestrictionEntry, tx *sql.Tx) error
	DeleteForSource(accountID, sourceKind, sourceID string, tx *sql.Tx) error
}

type RestrictionRepositoryImpl struct {
	db *sqlx.DB
}

func NewRestrictionRepository(db *sqlx.DB) RestrictionRepository {
	return &RestrictionRepositoryImpl{db: db}
}

func (repo *RestrictionRepositoryImpl) ListForAccount(accountID string) ([]models.RestrictionEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	entries := []models.RestrictionEntry{}

	query := `SELECT * FROM restriction_entries WHERE account_id = $1 ORDER BY id`

	err := repo.db.SelectContext(ctx, &entries, query, accountID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// ReplaceForSource swaps out every entry a single source asserts on an
// account. Entries from other sources are untouched, which is what keeps
// one flag's resolution from clearing another source's restrictions.
func (repo *RestrictionRepositoryImpl) ReplaceForSource(accountID, sourceKind, sourceID string, entries []models.RestrictionEntry, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	deleteQuery := `
		DELETE FROM restriction_entries
		WHERE account_id = $1 AND source_kind = $2 AND source_id = $3`

	insertQuery := `
		INSERT INTO restriction_entries (account_id, source_kind, source_id, restriction_key, message)
		VALUES ($1, $2, $3, $4, $5)`

	exec := func(query string, args ...any) error {
		var err error
		if tx != nil {
			_, err = tx.ExecContext(ctx, query, args...)
		} else {
			_, err = repo.db.ExecContext(ctx, query, args...)
		}
		return err
	}

	if err := exec(deleteQuery, accountID, sourceKind, sourceID); err != nil {
		return err
	}

	for _, entry := range entries {
		if err := exec(insertQuery, accountID, sourceKind, sourceID, entry.Key, entry.Message); err != nil {
			return err
		}
	}

	return nil
}

func (repo *RestrictionRepositoryImpl) DeleteForSource(accountID, sourceKind, sourceID string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		DELETE FROM restriction_entries
		WHERE account_id = $1 AND source_kind = $2 AND source_id = $3`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, accountID, sourceKind, sourceID)
	} else {
		_, err = repo.db.ExecContext(ctx, query, accountID, sourceKind, sourceID)
	}

	return err
}
