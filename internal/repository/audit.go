package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

// AuditRepository is append-only by design. There is no update or delete
// method, and none should ever be added.
type AuditRepository interface {
	Insert(entry *models.AuditLogEntry, tx *sql.Tx) (string, error)
	List(filters AuditFilters) ([]models.AuditLogEntry, error)
}

type AuditFilters struct {
	ActorID  string
	Action   string
	TargetID string
	Limit    int
	Offset   int
}

type AuditRepositoryImpl struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (repo *AuditRepositoryImpl) Insert(entry *models.AuditLogEntry, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO audit_logs (actor_id, actor_name, action, target_id, target_name, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			entry.ActorID,
			entry.ActorName,
			entry.Action,
			entry.TargetID,
			entry.TargetName,
			entry.Details,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			entry.ActorID,
			entry.ActorName,
			entry.Action,
			entry.TargetID,
			entry.TargetName,
			entry.Details,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *AuditRepositoryImpl) List(filters AuditFilters) ([]models.AuditLogEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT * FROM audit_logs WHERE 1=1`
	args := []any{}

	if filters.ActorID != "" {
		args = append(args, filters.ActorID)
		query += fmt.Sprintf(" AND actor_id = $%d", len(args))
	}
	if filters.Action != "" {
		args = append(args, filters.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filters.TargetID != "" {
		args = append(args, filters.TargetID)
		query += fmt.Sprintf(" AND target_id = $%d", len(args))
	}

	args = append(args, filters.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	args = append(args, filters.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	entries := []models.AuditLogEntry{}

	err := repo.db.SelectContext(ctx, &entries, query, args...)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
