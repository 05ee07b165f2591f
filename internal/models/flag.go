package models

import (
	"database/sql"
	"time"
)

type Flag struct {
	ID              string         `db:"id"`
	AccountID       string         `db:"account_id"`
	FlagType        string         `db:"flag_type"`
	Severity        string         `db:"severity"`
	Description     string         `db:"description"`
	Status          string         `db:"status"`
	CreatedBy       string         `db:"created_by"`
	CreatedAt       time.Time      `db:"created_at"`
	ResolvedBy      sql.NullString `db:"resolved_by"`
	ResolvedAt      sql.NullTime   `db:"resolved_at"`
	ResolutionNotes sql.NullString `db:"resolution_notes"`

	AutoRestrictions
}

// AutoRestrictions is the bundle of account restrictions a flag applies on
// creation and removes on resolution.
type AutoRestrictions struct {
	WithdrawalDisabled bool `db:"withdrawal_disabled" json:"withdrawal_disabled"`
	AccountSuspended   bool `db:"account_suspended" json:"account_suspended"`
	RequiresApproval   bool `db:"requires_approval" json:"requires_approval"`
}

// flag types
const (
	FlagTypeFraud                 = "fraud"
	FlagTypePolicyViolation       = "policy_violation"
	FlagTypeWithdrawalRestriction = "withdrawal_restriction"
	FlagTypeKycDocumentIssue      = "kyc_document_issue"
)

// flag severities
const (
	FlagSeverityLow      = "low"
	FlagSeverityMedium   = "medium"
	FlagSeverityHigh     = "high"
	FlagSeverityCritical = "critical"
)

// flag statuses
const (
	FlagStatusActive      = "active"
	FlagStatusResolved    = "resolved"
	FlagStatusUnderReview = "under_review"
)

func IsValidFlagType(t string) bool {
	switch t {
	case FlagTypeFraud, FlagTypePolicyViolation, FlagTypeWithdrawalRestriction, FlagTypeKycDocumentIssue:
		return true
	}
	return false
}

func IsValidFlagSeverity(s string) bool {
	switch s {
	case FlagSeverityLow, FlagSeverityMedium, FlagSeverityHigh, FlagSeverityCritical:
		return true
	}
	return false
}
