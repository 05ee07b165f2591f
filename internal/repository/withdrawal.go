package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type WithdrawalRepository interface {
	Insert(withdrawal *models.Withdrawal, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.Withdrawal, bool, error)
	UpdateStatus(id, status string, tx *sql.Tx) (bool, error)
	List(status string, limit, offset int) ([]models.Withdrawal, error)
}

type WithdrawalRepositoryImpl struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) WithdrawalRepository {
	return &WithdrawalRepositoryImpl{db: db}
}

func (repo *WithdrawalRepositoryImpl) Insert(withdrawal *models.Withdrawal, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO withdrawals (account_id, amount, destination, reference_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			withdrawal.AccountID,
			withdrawal.Amount,
			withdrawal.Destination,
			withdrawal.ReferenceNumber,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			withdrawal.AccountID,
			withdrawal.Amount,
			withdrawal.Destination,
			withdrawal.ReferenceNumber,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *WithdrawalRepositoryImpl) GetOne(id string) (*models.Withdrawal, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var withdrawal models.Withdrawal

	query := `SELECT * FROM withdrawals WHERE id = $1`

	err := repo.db.GetContext(ctx, &withdrawal, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &withdrawal, true, nil
}

// UpdateStatus never rewrites a settled withdrawal; the false return means
// the row already reached a terminal status.
func (repo *WithdrawalRepositoryImpl) UpdateStatus(id, status string, tx *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE withdrawals
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status NOT IN ($3, $4, $5)`

	args := []any{status, id, models.WithdrawalStatusCompleted, models.WithdrawalStatusDenied, models.WithdrawalStatusRefunded}

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, args...)
	} else {
		result, err = repo.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (repo *WithdrawalRepositoryImpl) List(status string, limit, offset int) ([]models.Withdrawal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	withdrawals := []models.Withdrawal{}

	if status != "" {
		query := `SELECT * FROM withdrawals WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		err := repo.db.SelectContext(ctx, &withdrawals, query, status, limit, offset)
		if err != nil {
			return nil, err
		}
		return withdrawals, nil
	}

	query := `SELECT * FROM withdrawals ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	err := repo.db.SelectContext(ctx, &withdrawals, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}
