package governance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/validator"
)

type CreateFlagInput struct {
	AccountID        string
	FlagType         string
	Severity         string
	Description      string
	AutoRestrictions models.AutoRestrictions
}

// CreateFlag inserts an active flag, applies its auto-restriction bundle to
// the account, and records the audit entry, all in one transaction. Other
// accounts and other sources' restrictions are untouched.
func (e *Engine) CreateFlag(ctx context.Context, input CreateFlagInput, actor models.Actor) (string, error) {
	var v validator.Validator
	v.Check(validator.NotBlank(input.Description), "Description is required")
	v.Check(models.IsValidFlagType(input.FlagType), fmt.Sprintf("Unknown flag type %q", input.FlagType))
	v.Check(models.IsValidFlagSeverity(input.Severity), fmt.Sprintf("Unknown severity %q", input.Severity))
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

	ban, err := e.currentBan(account.ID)
	if err != nil {
		return "", err
	}

	flag := &models.Flag{
		AccountID:        input.AccountID,
		FlagType:         input.FlagType,
		Severity:         input.Severity,
		Description:      input.Description,
		CreatedBy:        actor.ID,
		AutoRestrictions: input.AutoRestrictions,
	}

	var flagID string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		flagID, err = e.db.Flag().Insert(flag, tx)
		if err != nil {
			return err
		}

		_, err = e.applyRestrictionDelta(tx, account, models.RestrictionSourceFlag, flagID, flagRestrictionEntries(flag), ban)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("type=%s severity=%s: %s", flag.FlagType, flag.Severity, flag.Description)
		return e.audit(tx, actor, models.AuditActionFlagCreated, flagID, accountName(account), details)
	})
	if err != nil {
		return "", err
	}

	e.publishAccount(account.ID, TopicFlag, fmt.Sprintf("flag %s created on account %s", flagID, account.ID))

	return flagID, nil
}

// ResolveFlag marks an active flag resolved and removes the restriction
// entries that flag asserted. Restrictions still required by another
// active source survive the recompute. Resolving an already-resolved flag
// is a conflict, not a silent no-op: these are audited operator actions
// and a repeat usually means two operators raced.
func (e *Engine) ResolveFlag(ctx context.Context, flagID, resolutionNotes string, actor models.Actor) error {
	if !validator.NotBlank(resolutionNotes) {
		return NewValidationError("Resolution notes are required")
	}

	flag, found, err := e.db.Flag().GetOne(flagID)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "flag", ID: flagID}
	}

	if flag.Status != models.FlagStatusActive {
		return &ConflictError{Message: fmt.Sprintf("flag is already %s", flag.Status)}
	}

	account, found, err := e.db.Account().GetOne(flag.AccountID)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "account", ID: flag.AccountID}
	}

	ban, err := e.currentBan(account.ID)
	if err != nil {
		return err
	}

	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		if err := e.db.Flag().Resolve(flagID, resolutionNotes, actor.ID, tx); err != nil {
			return err
		}

		_, err := e.applyRestrictionDelta(tx, account, models.RestrictionSourceFlag, flagID, nil, ban)
		if err != nil {
			return err
		}

		return e.audit(tx, actor, models.AuditActionFlagResolved, flagID, accountName(account), resolutionNotes)
	})
	if err != nil {
		return err
	}

	e.publishAccount(account.ID, TopicFlag, fmt.Sprintf("flag %s resolved on account %s", flagID, account.ID))

	return nil
}

func accountName(account *models.Account) string {
	return account.FirstName + " " + account.LastName
}
