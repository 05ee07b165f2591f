package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type BanRepository interface {
	GetOne(accountID string) (*models.ShadowBan, bool, error)
	Upsert(ban *models.ShadowBan, tx *sql.Tx) (string, error)
	Deactivate(accountID, removedBy string, tx *sql.Tx) error
}

type BanRepositoryImpl struct {
	db *sqlx.DB
}

func NewBanRepository(db *sqlx.DB) BanRepository {
	return &BanRepositoryImpl{db: db}
}

func (repo *BanRepositoryImpl) GetOne(accountID string) (*models.ShadowBan, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var ban models.ShadowBan

	query := `SELECT * FROM shadow_bans WHERE account_id = $1`

	err := repo.db.GetContext(ctx, &ban, query, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &ban, true, nil
}

// Upsert writes the single ban row for an account. The table is keyed by
// account_id, so at most one ban can ever exist per account; a new ban
// replaces whatever record was there before, it never merges ban types.
func (repo *BanRepositoryImpl) Upsert(ban *models.ShadowBan, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO shadow_bans (account_id, ban_type, reason, banned_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE
		SET id = gen_random_uuid(),
			ban_type = EXCLUDED.ban_type,
			reason = EXCLUDED.reason,
			is_active = TRUE,
			banned_by = EXCLUDED.banned_by,
			banned_at = now(),
			expires_at = EXCLUDED.expires_at,
			removed_by = NULL,
			removed_at = NULL
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			ban.AccountID,
			ban.BanType,
			ban.Reason,
			ban.BannedBy,
			ban.ExpiresAt,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			ban.AccountID,
			ban.BanType,
			ban.Reason,
			ban.BannedBy,
			ban.ExpiresAt,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *BanRepositoryImpl) Deactivate(accountID, removedBy string, tx *sql.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE shadow_bans
		SET is_active = FALSE, removed_by = $1, removed_at = now()
		WHERE account_id = $2`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, removedBy, accountID)
	} else {
		_, err = repo.db.ExecContext(ctx, query, removedBy, accountID)
	}

	return err
}
