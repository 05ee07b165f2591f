package governance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/validator"
)

type CreateBanInput struct {
	AccountID string
	BanType   string
	Reason    string
	ExpiresAt *time.Time
}

// CreateBan upserts the single shadow-ban record for an account and applies
// the scope's restriction bundle. Banning an already-banned account is an
// explicit replace: the previous scope's entries are swapped out wholesale,
// two ban types are never merged.
func (e *Engine) CreateBan(ctx context.Context, input CreateBanInput, actor models.Actor) (string, error) {
	var v validator.Validator
	v.Check(validator.NotBlank(input.Reason), "Reason is required")
	v.Check(models.IsValidBanType(input.BanType), fmt.Sprintf("Unknown ban type %q", input.BanType))
	if v.HasErrors() {
		return "", &ValidationError{Errors: v.Errors}
	}

	account, found, err := e.db.Account().GetOne(input.AccountID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &NotFoundError{Resource: "account", ID: input.AccountID}
	}

	ban := &models.ShadowBan{
		AccountID: input.AccountID,
		BanType:   input.BanType,
		Reason:    input.Reason,
		IsActive:  true,
		BannedBy:  actor.ID,
	}
	if input.ExpiresAt != nil {
		ban.ExpiresAt = sql.NullTime{Time: *input.ExpiresAt, Valid: true}
	}

	var banID string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		banID, err = e.db.Ban().Upsert(ban, tx)
		if err != nil {
			return err
		}

		_, err = e.applyRestrictionDelta(tx, account, models.RestrictionSourceBan, account.ID, banRestrictionEntries(ban.BanType), ban)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("scope=%s: %s", ban.BanType, ban.Reason)
		return e.audit(tx, actor, models.AuditActionBanCreated, banID, accountName(account), details)
	})
	if err != nil {
		return "", err
	}

	e.publishAccount(account.ID, TopicBan, fmt.Sprintf("shadow ban %s (%s) applied to account %s", banID, ban.BanType, account.ID))

	return banID, nil
}

// RemoveBan lifts the active ban and clears the ban-originated restriction
// entries. Removing a ban that does not exist, or is already inactive, is
// a no-op.
func (e *Engine) RemoveBan(ctx context.Context, accountID string, actor models.Actor) error {
	account, found, err := e.db.Account().GetOne(accountID)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "account", ID: accountID}
	}

	ban, found, err := e.db.Ban().GetOne(accountID)
	if err != nil {
		return err
	}
	if !found || !ban.IsActive {
		return nil
	}

	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		if err := e.db.Ban().Deactivate(accountID, actor.ID, tx); err != nil {
			return err
		}

		_, err := e.applyRestrictionDelta(tx, account, models.RestrictionSourceBan, account.ID, nil, nil)
		if err != nil {
			return err
		}

		return e.audit(tx, actor, models.AuditActionBanRemoved, ban.ID, accountName(account), "scope="+ban.BanType)
	})
	if err != nil {
		return err
	}

	e.publishAccount(account.ID, TopicBan, fmt.Sprintf("shadow ban removed from account %s", account.ID))

	return nil
}
