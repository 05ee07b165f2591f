package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type WithdrawalOverrideRepository interface {
	Insert(req *models.WithdrawalOverrideRequest, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.WithdrawalOverrideRequest, bool, error)
	MarkReviewed(id, status, reviewedBy string, rejectionReason *string, tx *sql.Tx) (bool, error)
	ListByStatus(status string, limit, offset int) ([]models.WithdrawalOverrideRequest, error)
}

type WithdrawalOverrideRepositoryImpl struct {
	db *sqlx.DB
}

func NewWithdrawalOverrideRepository(db *sqlx.DB) WithdrawalOverrideRepository {
	return &WithdrawalOverrideRepositoryImpl{db: db}
}

func (repo *WithdrawalOverrideRepositoryImpl) Insert(req *models.WithdrawalOverrideRequest, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO withdrawal_override_requests (withdrawal_id, account_id, desired_status, required_documents, note, requested_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			req.WithdrawalID,
			req.AccountID,
			req.DesiredStatus,
			req.RequiredDocuments,
			req.Note,
			req.RequestedBy,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			req.WithdrawalID,
			req.AccountID,
			req.DesiredStatus,
			req.RequiredDocuments,
			req.Note,
			req.RequestedBy,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *WithdrawalOverrideRepositoryImpl) GetOne(id string) (*models.WithdrawalOverrideRequest, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var req models.WithdrawalOverrideRequest

	query := `SELECT * FROM withdrawal_override_requests WHERE id = $1`

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
func (repo *WithdrawalOverrideRepositoryImpl) MarkReviewed(id, status, reviewedBy string, rejectionReason *string, tx *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE withdrawal_override_requests
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

func (repo *WithdrawalOverrideRepositoryImpl) ListByStatus(status string, limit, offset int) ([]models.WithdrawalOverrideRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	reqs := []models.WithdrawalOverrideRequest{}

	query := `SELECT * FROM withdrawal_override_requests WHERE status = $1 ORDER BY requested_at DESC LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &reqs, query, status, limit, offset)
	if err != nil {
		return nil, err
	}

	return reqs, nil
}
