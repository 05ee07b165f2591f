package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type CryptoWalletRepository interface {
	Insert(wallet *models.CryptoWallet, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.CryptoWallet, bool, error)
	ListByAccount(accountID string) ([]models.CryptoWallet, error)
	UpdateVerification(id, status string, reason *string, tx *sql.Tx) error
	UpdateDetails(id, label, network, address string, tx *sql.Tx) error
	Delete(id string, tx *sql.Tx) error
}

type CryptoWalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewCryptoWalletRepository(db *sqlx.DB) CryptoWalletRepository {
	return &CryptoWalletRepositoryImpl{db: db}
}

func (repo *CryptoWalletRepositoryImpl) Insert(wallet *models.CryptoWallet, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO crypto_wallets (account_id, label, network, address, verification_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			wallet.AccountID,
			wallet.Label,
			wallet.Network,
			wallet.Address,
			wallet.VerificationStatus,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			wallet.AccountID,
			wallet.Label,
			wallet.Network,
			wallet.Address,
			wallet.VerificationStatus,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *CryptoWalletRepositoryImpl) GetOne(id string) (*models.CryptoWallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.CryptoWallet

	query := `SELECT * FROM crypto_wallets WHERE id = $1`

	err := repo.db.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *CryptoWalletRepositoryImpl) ListByAccount(accountID string) ([]models.CryptoWallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	wallets := []models.CryptoWallet{}

	query := `SELECT * FROM crypto_wallets WHERE account_id = $1 ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &wallets, query, accountID)
	if err != nil {
		return nil, err
	}

	return wallets, nil
}

func (repo *CryptoWalletRepositoryImpl) UpdateVerification(id, status string, reason *string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE crypto_wallets
		SET verification_status = $1, rejection_reason = $2, updated_at = now()
		WHERE id = $3`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, reason, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, status, reason, id)
	}

	return err
}

func (repo *CryptoWalletRepositoryImpl) UpdateDetails(id, label, network, address string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE crypto_wallets
		SET label = $1, network = $2, address = $3, updated_at = now()
		WHERE id = $4`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, label, network, address, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, label, network, address, id)
	}

	return err
}

func (repo *CryptoWalletRepositoryImpl) Delete(id string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM crypto_wallets WHERE id = $1`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, id)
	}

	return err
}
