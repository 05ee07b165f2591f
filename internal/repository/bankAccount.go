package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type BankAccountRepository interface {
	Insert(bank *models.BankAccount, tx *sql.Tx) (string, error)
	ListByAccount(accountID string) ([]models.BankAccount, error)
}

type BankAccountRepositoryImpl struct {
	db *sqlx.DB
}

func NewBankAccountRepository(db *sqlx.DB) BankAccountRepository {
	return &BankAccountRepositoryImpl{db: db}
}

func (repo *BankAccountRepositoryImpl) Insert(bank *models.BankAccount, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO bank_accounts (account_id, bank_name, account_name, account_number, currency)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			bank.AccountID,
			bank.BankName,
			bank.AccountName,
			bank.AccountNumber,
			bank.Currency,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			bank.AccountID,
			bank.BankName,
			bank.AccountName,
			bank.AccountNumber,
			bank.Currency,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *BankAccountRepositoryImpl) ListByAccount(accountID string) ([]models.BankAccount, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	banks := []models.BankAccount{}

	query := `SELECT * FROM bank_accounts WHERE account_id = $1 ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &banks, query, accountID)
	if err != nil {
		return nil, err
	}

	return banks, nil
}
