package governance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/validator"
)

// AccountState returns an account with its restriction map evaluated as of
// now rather than as stored. The embedded map is only recomputed when a
// governance mutation touches the account, so a ban that expired since the
// last write would otherwise still read as effective.
func (e *Engine) AccountState(accountID string) (*models.Account, bool, error) {
	account, found, err := e.db.Account().GetOne(accountID)
	if err != nil || !found {
		return nil, false, err
	}

	entries, err := e.db.Restriction().ListForAccount(account.ID)
	if err != nil {
		return nil, false, err
	}

	ban, err := e.currentBan(account.ID)
	if err != nil {
		return nil, false, err
	}

	restrictions := EffectiveRestrictions(entries, ban, time.Now())
	account.Restrictions = restrictions
	account.IsActive = accountActive(restrictions)

	return account, true, nil
}

// manual restriction keys an operator may toggle directly, outside any
// flag or ban
var manualRestrictionKeys = map[string]bool{
	models.RestrictionWithdrawalDisabled: true,
	models.RestrictionTradingDisabled:    true,
	models.RestrictionRequiresApproval:   true,
}

// SetManualRestriction asserts or clears a single restriction key on an
// account without going through a flag or ban. Each key is its own source,
// so a manual toggle never disturbs what flags and bans assert.
func (e *Engine) SetManualRestriction(ctx context.Context, accountID, key string, enabled bool, message string, actor models.Actor) error {
	if !manualRestrictionKeys[key] {
		return NewValidationError(fmt.Sprintf("%q cannot be toggled manually", key))
	}

	account, found, err := e.db.Account().GetOne(accountID)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "account", ID: accountID}
	}

	ban, err := e.currentBan(account.ID)
	if err != nil {
		return err
	}

	var entries []models.RestrictionEntry
	if enabled {
		entries = []models.RestrictionEntry{{Key: key, Message: message}}
	}

	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		_, err := e.applyRestrictionDelta(tx, account, models.RestrictionSourceManual, key, entries, ban)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("%s=%t", key, enabled)
		return e.audit(tx, actor, models.AuditActionManualRestrictionSet, accountID, accountName(account), details)
	})
	if err != nil {
		return err
	}

	e.publishAccount(account.ID, TopicFlag, fmt.Sprintf("manual restriction %s=%t on account %s", key, enabled, account.ID))

	return nil
}

type AddBankAccountInput struct {
	AccountID     string
	BankName      string
	AccountName   string
	AccountNumber string
	Currency      string
}

// AddBankAccount registers a bank payout destination directly; unlike
// crypto wallets, bank destinations need no approval cycle, only an audit
// entry.
func (e *Engine) AddBankAccount(ctx context.Context, input AddBankAccountInput, actor models.Actor) (string, error) {
	var v validator.Validator
	v.Check(validator.NotBlank(input.BankName), "Bank name is required")
	v.Check(validator.NotBlank(input.AccountName), "Account name is required")
	v.Check(validator.NotBlank(input.AccountNumber), "Account number is required")
	if v.HasErrors() {
		return "", &ValidationError{Errors: v.Errors}
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	account, found, err := e.db.Account().GetOne(input.AccountID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &NotFoundError{Resource: "account", ID: input.AccountID}
	}

	var bankID string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		bankID, err = e.db.BankAccount().Insert(&models.BankAccount{
			AccountID:     input.AccountID,
			BankName:      input.BankName,
			AccountName:   input.AccountName,
			AccountNumber: input.AccountNumber,
			Currency:      input.Currency,
		}, tx)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("bank=%s number=%s", input.BankName, input.AccountNumber)
		return e.audit(tx, actor, models.AuditActionBankAccountAdded, bankID, accountName(account), details)
	})
	if err != nil {
		return "", err
	}

	return bankID, nil
}
