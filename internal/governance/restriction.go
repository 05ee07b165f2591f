package governance

import (
	"database/sql"
	"time"

	"github.com/veltacap/custodian/internal/models"
)

// Restriction state is source-tracked: flags, bans, manual toggles and
// pending document requests each assert their own {source, key} rows, and
// the flat map embedded on the account is recomputed from all of them on
// every change. Removing one source can therefore never clear a key that
// another active source still requires.

// EffectiveRestrictions computes the flat restriction map for an account
// from its restriction entries and its ban record. Ban-sourced entries are
// ignored while the ban is inactive or past its expiry; expiry is evaluated
// lazily here, nothing removes expired bans in the background.
func EffectiveRestrictions(entries []models.RestrictionEntry, ban *models.ShadowBan, now time.Time) models.RestrictionMap {
	banActive := ban != nil && ban.IsActive && !ban.Expired(now)

	restrictions := models.RestrictionMap{}

	for _, entry := range entries {
		if entry.SourceKind == models.RestrictionSourceBan && !banActive {
			continue
		}

		restrictions[entry.Key] = true
		if entry.Message != "" {
			restrictions[entry.Key+"Message"] = entry.Message
		}
	}

	if banActive {
		restrictions[models.RestrictionShadowBanType] = ban.BanType
	}

	return restrictions
}

// accountActive decides the denormalized is_active boolean from the
// effective restriction map. Suspension and full platform bans take the
// account out of circulation; narrower restrictions leave it active.
func accountActive(restrictions models.RestrictionMap) bool {
	return !restrictions.Has(models.RestrictionGovernorSuspended) &&
		!restrictions.Has(models.RestrictionPlatformDisabled)
}

// applyRestrictionDelta is the one primitive every restriction mutation
// (flag, ban, document request, manual toggle) goes through. Within the
// caller's transaction it replaces the entries asserted by a single source,
// recomputes the effective map, and writes it back onto the account behind
// a version check. A nil entries slice removes the source entirely.
//
// ban must be the ban state as of this transaction: callers that mutate
// the ban pass the row they just wrote (or nil after a removal), everyone
// else passes whatever the store currently holds. account is the record as
// the caller read it before the transaction opened; if another governance
// write bumped its version in between, the compare-and-swap misses and the
// whole transaction aborts with a ConflictError.
func (e *Engine) applyRestrictionDelta(tx *sql.Tx, account *models.Account, sourceKind, sourceID string, entries []models.RestrictionEntry, ban *models.ShadowBan) (models.RestrictionMap, error) {
	existing, err := e.db.Restriction().ListForAccount(account.ID)
	if err != nil {
		return nil, err
	}

	merged := make([]models.RestrictionEntry, 0, len(existing)+len(entries))
	for _, entry := range existing {
		if entry.SourceKind == sourceKind && entry.SourceID == sourceID {
			continue
		}
		merged = append(merged, entry)
	}
	for _, entry := range entries {
		entry.AccountID = account.ID
		entry.SourceKind = sourceKind
		entry.SourceID = sourceID
		merged = append(merged, entry)
	}

	if len(entries) == 0 {
		err = e.db.Restriction().DeleteForSource(account.ID, sourceKind, sourceID, tx)
	} else {
		err = e.db.Restriction().ReplaceForSource(account.ID, sourceKind, sourceID, entries, tx)
	}
	if err != nil {
		return nil, err
	}

	restrictions := EffectiveRestrictions(merged, ban, time.Now())

	updated, err := e.db.Account().UpdateRestrictions(account.ID, account.Version, restrictions, accountActive(restrictions), tx)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, &ConflictError{Message: "account was modified by another governance operation, retry"}
	}

	return restrictions, nil
}

// currentBan fetches the account's ban row for callers that do not mutate
// it themselves.
func (e *Engine) currentBan(accountID string) (*models.ShadowBan, error) {
	ban, found, err := e.db.Ban().GetOne(accountID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return ban, nil
}

// flagRestrictionEntries maps a flag's auto-restriction bundle to the
// restriction keys it asserts.
func flagRestrictionEntries(flag *models.Flag) []models.RestrictionEntry {
	var entries []models.RestrictionEntry

	if flag.WithdrawalDisabled {
		entries = append(entries, models.RestrictionEntry{
			Key:     models.RestrictionWithdrawalDisabled,
			Message: "Withdrawals are temporarily unavailable on this account",
		})
	}

	if flag.AccountSuspended {
		entries = append(entries, models.RestrictionEntry{
			Key:     models.RestrictionGovernorSuspended,
			Message: "Account suspended pending governance review",
		})
	}

	if flag.RequiresApproval {
		entries = append(entries, models.RestrictionEntry{
			Key: models.RestrictionRequiresApproval,
		})
	}

	return entries
}

// banRestrictionEntries maps a ban scope to its restriction bundle.
func banRestrictionEntries(banType string) []models.RestrictionEntry {
	entries := []models.RestrictionEntry{
		{Key: models.RestrictionShadowBanned},
	}

	switch banType {
	case models.BanTypeWithdrawalOnly:
		entries = append(entries, models.RestrictionEntry{Key: models.RestrictionWithdrawalDisabled})
	case models.BanTypeTradingOnly:
		entries = append(entries, models.RestrictionEntry{Key: models.RestrictionTradingDisabled})
	case models.BanTypeFullPlatform:
		entries = append(entries,
			models.RestrictionEntry{Key: models.RestrictionWithdrawalDisabled},
			models.RestrictionEntry{Key: models.RestrictionPlatformDisabled},
		)
	}

	return entries
}
