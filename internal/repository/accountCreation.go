package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type AccountCreationRepository interface {
	Insert(req *models.AccountCreationRequest, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.AccountCreationRequest, bool, error)
	MarkReviewed(id, status, reviewedBy string, rejectionReason *string, tx *sql.Tx) (bool, error)
	SetCreatedAccount(id, accountID string, conditions *string, tx *sql.Tx) error
	ListByStatus(status string, limit, offset int) ([]models.AccountCreationRequest, error)
}

type AccountCreationRepositoryImpl struct {
	db *sqlx.DB
}

func NewAccountCreationRepository(db *sqlx.DB) AccountCreationRepository {
	return &AccountCreationRepositoryImpl{db: db}
}

func (repo *AccountCreationRepositoryImpl) Insert(req *models.AccountCreationRequest, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO account_creation_requests (first_name, last_name, email, phone_number, initial_deposit, documents, requested_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			req.FirstName,
			req.LastName,
			req.Email,
			req.PhoneNumber,
			req.InitialDeposit,
			req.Documents,
			req.RequestedBy,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			req.FirstName,
			req.LastName,
			req.Email,
			req.PhoneNumber,
			req.InitialDeposit,
			req.Documents,
			req.RequestedBy,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *AccountCreationRepositoryImpl) GetOne(id string) (*models.AccountCreationRequest, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var req models.AccountCreationRequest

	query := `SELECT * FROM account_creation_requests WHERE id = $1`

	err := repo.db.GetContext(ctx, &req, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &req, true, nil
}

// MarkReviewed only transitions a request that is still pending; the false
// return means a concurrent review already settled it.
func (repo *AccountCreationRepositoryImpl) MarkReviewed(id, status, reviewedBy string, rejectionReason *string, tx *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE account_creation_requests
		SET status = $1, reviewed_by = $2, reviewed_at = now(), rejection_reason = $3
		WHERE id = $4 AND status = $5`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, status, reviewedBy, rejectionReason, id, models.RequestStatusPending)
	} else {
		result, err = repo.db.ExecContext(ctx, query, status, reviewedBy, rejectionReason, id, models.RequestStatusPending)
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

func (repo *AccountCreationRepositoryImpl) SetCreatedAccount(id, accountID string, conditions *string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE account_creation_requests
		SET created_account_id = $1, approval_conditions = $2
		WHERE id = $3`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, accountID, conditions, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, accountID, conditions, id)
	}

	return err
}

func (repo *AccountCreationRepositoryImpl) ListByStatus(status string, limit, offset int) ([]models.AccountCreationRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	reqs := []models.AccountCreationRequest{}

	query := `SELECT * FROM account_creation_requests WHERE status = $1 ORDER BY requested_at DESC LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &reqs, query, status, limit, offset)
	if err != nil {
		return nil, err
	}

	return reqs, nil
}
