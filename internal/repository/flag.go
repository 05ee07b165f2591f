package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type FlagRepository interface {
	Insert(flag *models.Flag, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.Flag, bool, error)
	Resolve(id, notes, resolvedBy string, tx *sql.Tx) error
	ListByAccount(accountID string) ([]models.Flag, error)
	ListActiveByAccount(accountID string) ([]models.Flag, error)
}

type FlagRepositoryImpl struct {
	db *sqlx.DB
}

func NewFlagRepository(db *sqlx.DB) FlagRepository {
	return &FlagRepositoryImpl{db: db}
}

func (repo *FlagRepositoryImpl) Insert(flag *models.Flag, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO flags (account_id, flag_type, severity, description, withdrawal_disabled, account_suspended, requires_approval, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			flag.AccountID,
			flag.FlagType,
			flag.Severity,
			flag.Description,
			flag.WithdrawalDisabled,
			flag.AccountSuspended,
			flag.RequiresApproval,
			flag.CreatedBy,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			flag.AccountID,
			flag.FlagType,
			flag.Severity,
			flag.Description,
			flag.WithdrawalDisabled,
			flag.AccountSuspended,
			flag.RequiresApproval,
			flag.CreatedBy,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *FlagRepositoryImpl) GetOne(id string) (*models.Flag, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var flag models.Flag

	query := `SELECT * FROM flags WHERE id = $1`

	err := repo.db.GetContext(ctx, &flag, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &flag, true, nil
}

func (repo *FlagRepositoryImpl) Resolve(id, notes, resolvedBy string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE flags
		SET status = $1, resolution_notes = $2, resolved_by = $3, resolved_at = now()
		WHERE id = $4`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, models.FlagStatusResolved, notes, resolvedBy, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, models.FlagStatusResolved, notes, resolvedBy, id)
	}

	return err
}

func (repo *FlagRepositoryImpl) ListByAccount(accountID string) ([]models.Flag, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	flags := []models.Flag{}

	query := `SELECT * FROM flags WHERE account_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &flags, query, accountID)
	if err != nil {
		return nil, err
	}

	return flags, nil
}

func (repo *FlagRepositoryImpl) ListActiveByAccount(accountID string) ([]models.Flag, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	flags := []models.Flag{}

	query := `SELECT * FROM flags WHERE account_id = $1 AND status = $2 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &flags, query, accountID, models.FlagStatusActive)
	if err != nil {
		return nil, err
	}

	return flags, nil
}
