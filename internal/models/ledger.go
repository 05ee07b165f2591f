package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntry struct {
	ID              string          `db:"id"`
	AccountID       string          `db:"account_id"`
	EntryType       string          `db:"entry_type"`
	Amount          decimal.Decimal `db:"amount"`
	ReferenceNumber string          `db:"reference_number"`
	Reason          string          `db:"reason"`
	CreatedBy       string          `db:"created_by"`
	CreatedAt       time.Time       `db:"created_at"`
}

// ledger entry types
const (
	LedgerEntryCredit = "credit"
	LedgerEntryDebit  = "debit"
)

type Withdrawal struct {
	ID              string          `db:"id"`
	AccountID       string          `db:"account_id"`
	Amount          decimal.Decimal `db:"amount"`
	Destination     string          `db:"destination"`
	Status          string          `db:"status"`
	ReferenceNumber string          `db:"reference_number"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       sql.NullTime    `db:"updated_at"`
}

// withdrawal statuses. The governor override flow may set any of the
// terminal ones; refunded additionally credits the account balance.
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusDenied    = "denied"
	WithdrawalStatusRefunded  = "refunded"
)

func IsTerminalWithdrawalStatus(status string) bool {
	switch status {
	case WithdrawalStatusCompleted, WithdrawalStatusDenied, WithdrawalStatusRefunded:
		return true
	}
	return false
}
