package models

import (
	"database/sql"
	"time"
)

// ShadowBan is a covert, scoped restriction on an account. There is at most
// one ban row per account; creating a new ban replaces the previous record.
type ShadowBan struct {
	ID        string         `db:"id"`
	AccountID string         `db:"account_id"`
	BanType   string         `db:"ban_type"`
	Reason    string         `db:"reason"`
	IsActive  bool           `db:"is_active"`
	BannedBy  string         `db:"banned_by"`
	BannedAt  time.Time      `db:"banned_at"`
	ExpiresAt sql.NullTime   `db:"expires_at"`
	RemovedBy sql.NullString `db:"removed_by"`
	RemovedAt sql.NullTime   `db:"removed_at"`
}

// ban scopes
const (
	BanTypeWithdrawalOnly = "withdrawal_only"
	BanTypeTradingOnly    = "trading_only"
	BanTypeFullPlatform   = "full_platform"
)

func IsValidBanType(t string) bool {
	switch t {
	case BanTypeWithdrawalOnly, BanTypeTradingOnly, BanTypeFullPlatform:
		return true
	}
	return false
}

// Expired reports whether the ban carries an expiry timestamp that has
// passed. Expiry is advisory: nothing removes expired bans in the
// background, they are simply treated as inactive wherever restriction
// state is evaluated.
func (b *ShadowBan) Expired(now time.Time) bool {
	return b.ExpiresAt.Valid && b.ExpiresAt.Time.Before(now)
}
