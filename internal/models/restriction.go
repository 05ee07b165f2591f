package models

import "time"

// RestrictionEntry records that one governance source (a flag, a ban, a
// manual toggle or a pending document request) asserts one restriction key
// on an account. The effective account restriction map is "key is
// restricted if any active source asserts it", recomputed on every change.
// This is what keeps resolving one flag from clearing a restriction another
// active source still requires.
type RestrictionEntry struct {
	ID         int64     `db:"id"`
	AccountID  string    `db:"account_id"`
	SourceKind string    `db:"source_kind"`
	SourceID   string    `db:"source_id"`
	Key        string    `db:"restriction_key"`
	Message    string    `db:"message"`
	CreatedAt  time.Time `db:"created_at"`
}

// restriction source kinds
const (
	RestrictionSourceFlag            = "flag"
	RestrictionSourceBan             = "ban"
	RestrictionSourceManual          = "manual"
	RestrictionSourceDocumentRequest = "document_request"
)

// restriction keys, as they appear in Account.Restrictions
const (
	RestrictionGovernorSuspended      = "governorSuspended"
	RestrictionWithdrawalDisabled     = "withdrawalDisabled"
	RestrictionTradingDisabled        = "tradingDisabled"
	RestrictionPlatformDisabled       = "platformDisabled"
	RestrictionRequiresApproval       = "requiresApproval"
	RestrictionShadowBanned           = "shadowBanned"
	RestrictionShadowBanType          = "shadowBanType"
	RestrictionPendingDocumentRequest = "pendingDocumentRequest"
)
