package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type DocumentRequestRepository interface {
	Insert(req *models.DocumentRequest, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.DocumentRequest, bool, error)
	MarkSubmitted(id, documentURL string, tx *sql.Tx) (bool, error)
	MarkReviewed(id, status, reviewedBy string, reviewNote *string, tx *sql.Tx) (bool, error)
	ListByStatus(status string, limit, offset int) ([]models.DocumentRequest, error)
	ListByAccount(accountID string) ([]models.DocumentRequest, error)
}

type DocumentRequestRepositoryImpl struct {
	db *sqlx.DB
}

func NewDocumentRequestRepository(db *sqlx.DB) DocumentRequestRepository {
	return &DocumentRequestRepositoryImpl{db: db}
}

func (repo *DocumentRequestRepositoryImpl) Insert(req *models.DocumentRequest, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO document_requests (account_id, document_type, priority, due_date, requested_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			req.AccountID,
			req.DocumentType,
			req.Priority,
			req.DueDate,
			req.RequestedBy,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			req.AccountID,
			req.DocumentType,
			req.Priority,
			req.DueDate,
			req.RequestedBy,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *DocumentRequestRepositoryImpl) GetOne(id string) (*models.DocumentRequest, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var req models.DocumentRequest

	query := `SELECT * FROM document_requests WHERE id = $1`

	err := repo.db.GetContext(ctx, &req, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &req, true, nil
}

// MarkSubmitted only transitions a request that is still pending; the false
// return means an upload already landed or the request was reviewed.
func (repo *DocumentRequestRepositoryImpl) MarkSubmitted(id, documentURL string, tx *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE document_requests
		SET status = $1, document_url = $2, submitted_at = now()
		WHERE id = $3 AND status = $4`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, models.RequestStatusSubmitted, documentURL, id, models.RequestStatusPending)
	} else {
		result, err = repo.db.ExecContext(ctx, query, models.RequestStatusSubmitted, documentURL, id, models.RequestStatusPending)
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

// MarkReviewed only transitions a request that is still awaiting review of
// its submission; the false return means a concurrent review settled it.
func (repo *DocumentRequestRepositoryImpl) MarkReviewed(id, status, reviewedBy string, reviewNote *string, tx *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE document_requests
		SET status = $1, reviewed_by = $2, reviewed_at = now(), review_note = $3
		WHERE id = $4 AND status = $5`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, status, reviewedBy, reviewNote, id, models.RequestStatusSubmitted)
	} else {
		result, err = repo.db.ExecContext(ctx, query, status, reviewedBy, reviewNote, id, models.RequestStatusSubmitted)
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

func (repo *DocumentRequestRepositoryImpl) ListByStatus(status string, limit, offset int) ([]models.DocumentRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	reqs := []models.DocumentRequest{}

	query := `SELECT * FROM document_requests WHERE status = $1 ORDER BY requested_at DESC LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &reqs, query, status, limit, offset)
	if err != nil {
		return nil, err
	}

	return reqs, nil
}

func (repo *DocumentRequestRepositoryImpl) ListByAccount(accountID string) ([]models.DocumentRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	reqs := []models.DocumentRequest{}

	query := `SELECT * FROM document_requests WHERE account_id = $1 ORDER BY requested_at DESC`

	err := repo.db.SelectContext(ctx, &reqs, query, accountID)
	if err != nil {
		return nil, err
	}

	return reqs, nil
}
