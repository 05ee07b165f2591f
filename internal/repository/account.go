package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/veltacap/custodian/internal/models"
)

type AccountRepository interface {
	Insert(account *models.Account, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.Account, bool, error)
	GetByEmail(email string) (*models.Account, bool, error)
	List(limit, offset int) ([]models.Account, error)
	UpdateRestrictions(id string, version int, restrictions models.RestrictionMap, isActive bool, tx *sql.Tx) (bool, error)
	CreditBalance(id string, amount decimal.Decimal, tx *sql.Tx) error
}

const (
	AccountStatusActive    = "active"
	AccountStatusSuspended = "suspended"
)

type AccountRepositoryImpl struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

func (repo *AccountRepositoryImpl) Insert(account *models.Account, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO accounts (first_name, last_name, email, phone_number, balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			account.FirstName,
			account.LastName,
			account.Email,
			account.PhoneNumber,
			account.Balance,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			account.FirstName,
			account.LastName,
			account.Email,
			account.PhoneNumber,
			account.Balance,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *AccountRepositoryImpl) GetOne(id string) (*models.Account, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var account models.Account

	query := `SELECT * FROM accounts WHERE id = $1`

	err := repo.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &account, true, nil
}

func (repo *AccountRepositoryImpl) GetByEmail(email string) (*models.Account, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var account models.Account

	query := `SELECT * FROM accounts WHERE email = $1`

	err := repo.db.GetContext(ctx, &account, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &account, true, nil
}

func (repo *AccountRepositoryImpl) List(limit, offset int) ([]models.Account, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	accounts := []models.Account{}

	query := `SELECT * FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &accounts, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// UpdateRestrictions writes the recomputed restriction map back onto the
// account. The write is a compare-and-swap on the version column; a false
// return means another governance operation committed first and the caller
// must surface a conflict rather than overwrite.
func (repo *AccountRepositoryImpl) UpdateRestrictions(id string, version int, restrictions models.RestrictionMap, isActive bool, tx *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE accounts
		SET restrictions = $1, is_active = $2, version = version + 1, updated_at = now()
		WHERE id = $3 AND version = $4`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, restrictions, isActive, id, version)
	} else {
		result, err = repo.db.ExecContext(ctx, query, restrictions, isActive, id, version)
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

func (repo *AccountRepositoryImpl) CreditBalance(id string, amount decimal.Decimal, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = now()
		WHERE id = $2`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, amount, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, amount, id)
	}

	return err
}
