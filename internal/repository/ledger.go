package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type LedgerRepository interface {
	Insert(entry *models.LedgerEntry, tx *sql.Tx) (string, error)
	ListByAccount(accountID string, limit, offset int) ([]models.LedgerEntry, error)
}

type LedgerRepositoryImpl struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &LedgerRepositoryImpl{db: db}
}

func (repo *LedgerRepositoryImpl) Insert(entry *models.LedgerEntry, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO ledger_entries (account_id, entry_type, amount, reference_number, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			entry.AccountID,
			entry.EntryType,
			entry.Amount,
			entry.ReferenceNumber,
			entry.Reason,
			entry.CreatedBy,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			entry.AccountID,
			entry.EntryType,
			entry.Amount,
			entry.ReferenceNumber,
			entry.Reason,
			entry.CreatedBy,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *LedgerRepositoryImpl) ListByAccount(accountID string, limit, offset int) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	entries := []models.LedgerEntry{}

	query := `SELECT * FROM ledger_entries WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &entries, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
