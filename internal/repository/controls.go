package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type ControlsRepository interface {
	Get() (*models.SystemControls, error)
	Update(controls *models.SystemControls, tx *sql.Tx) (bool, error)
}

type ControlsRepositoryImpl struct {
	db *sqlx.DB
}

func NewControlsRepository(db *sqlx.DB) ControlsRepository {
	return &ControlsRepositoryImpl{db: db}
}

// Get returns the singleton controls row, seeded by the initial migration.
func (repo *ControlsRepositoryImpl) Get() (*models.SystemControls, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var controls models.SystemControls

	query := `SELECT * FROM system_controls WHERE id = 1`

	err := repo.db.GetContext(ctx, &controls, query)
	if err != nil {
		return nil, err
	}

	return &controls, nil
}

// Update writes the whole controls record in one statement so a lockdown
// can never land partially. The version column is a compare-and-swap; a
// false return means a concurrent governance write won the race.
func (repo *ControlsRepositoryImpl) Update(controls *models.SystemControls, tx *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE system_controls
		SET withdrawals_enabled = $1,
			messaging_enabled = $2,
			profile_updates_enabled = $3,
			login_enabled = $4,
			trading_enabled = $5,
			deposits_enabled = $6,
			reporting_enabled = $7,
			account_creation_enabled = $8,
			support_tickets_enabled = $9,
			data_export_enabled = $10,
			notifications_enabled = $11,
			api_access_enabled = $12,
			restricted_mode = $13,
			restriction_level = $14,
			restriction_reason = $15,
			allowed_pages = $16,
			maintenance_mode = $17,
			maintenance_message = $18,
			version = version + 1,
			updated_at = now()
		WHERE id = 1 AND version = $19`

	args := []any{
		controls.WithdrawalsEnabled,
		controls.MessagingEnabled,
		controls.ProfileUpdatesEnabled,
		controls.LoginEnabled,
		controls.TradingEnabled,
		controls.DepositsEnabled,
		controls.ReportingEnabled,
		controls.AccountCreationEnabled,
		controls.SupportTicketsEnabled,
		controls.DataExportEnabled,
		controls.NotificationsEnabled,
		controls.ApiAccessEnabled,
		controls.RestrictedMode,
		controls.RestrictionLevel,
		controls.RestrictionReason,
		controls.AllowedPages,
		controls.MaintenanceMode,
		controls.MaintenanceMessage,
		controls.Version,
	}

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
