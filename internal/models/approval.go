package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ApprovalKind identifies one of the four approval workflows. Requests are
// stored in a table per kind but share one lifecycle contract.
type ApprovalKind string

const (
	KindCryptoWallet       ApprovalKind = "crypto_wallet"
	KindAccountCreation    ApprovalKind = "account_creation"
	KindWithdrawalOverride ApprovalKind = "withdrawal_override"
	KindDocumentRequest    ApprovalKind = "document_request"
)

func ParseApprovalKind(s string) (ApprovalKind, bool) {
	switch kind := ApprovalKind(s); kind {
	case KindCryptoWallet, KindAccountCreation, KindWithdrawalOverride, KindDocumentRequest:
		return kind, true
	}
	return "", false
}

// request statuses. Approved and rejected are terminal; a terminal request
// can never be re-opened or re-reviewed.
const (
	RequestStatusPending   = "pending"
	RequestStatusSubmitted = "submitted"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
)

func IsTerminalRequestStatus(status string) bool {
	return status == RequestStatusApproved || status == RequestStatusRejected
}

// ApprovalRequest is the generic view of a pending request that the
// workflow engine dispatches on. Payload holds the kind-specific record.
type ApprovalRequest struct {
	ID          string
	Kind        ApprovalKind
	AccountID   string
	Status      string
	RequestedBy string
	RequestedAt time.Time
	Payload     any
}

// wallet change types
const (
	WalletChangeAdd    = "add"
	WalletChangeUpdate = "update"
	WalletChangeDelete = "delete"
)

type WalletChangeRequest struct {
	ID         string         `db:"id"`
	AccountID  string         `db:"account_id"`
	ChangeType string         `db:"change_type"`
	WalletID   sql.NullString `db:"wallet_id"`
	Label      string         `db:"label"`
	Network    string         `db:"network"`
	Address    string         `db:"address"`

	// PriorVerificationStatus remembers the wallet's verification status
	// before a delete request was filed, so rejecting the delete can
	// restore it.
	PriorVerificationStatus sql.NullString `db:"prior_verification_status"`

	Status          string         `db:"status"`
	RequestedBy     string         `db:"requested_by"`
	RequestedAt     time.Time      `db:"requested_at"`
	ReviewedBy      sql.NullString `db:"reviewed_by"`
	ReviewedAt      sql.NullTime   `db:"reviewed_at"`
	RejectionReason sql.NullString `db:"rejection_reason"`
}

// ApplicantDocuments is the uploaded-document list attached to an
// account-creation request, stored as JSONB.
type ApplicantDocuments []ApplicantDocument

type ApplicantDocument struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

func (d ApplicantDocuments) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

func (d *ApplicantDocuments) Scan(src any) error {
	if src == nil {
		*d = ApplicantDocuments{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("models: unsupported scan type for ApplicantDocuments")
	}

	return json.Unmarshal(data, d)
}

type AccountCreationRequest struct {
	ID                 string             `db:"id"`
	FirstName          string             `db:"first_name"`
	LastName           string             `db:"last_name"`
	Email              string             `db:"email"`
	PhoneNumber        string             `db:"phone_number"`
	InitialDeposit     decimal.Decimal    `db:"initial_deposit"`
	Documents          ApplicantDocuments `db:"documents"`
	ApprovalConditions sql.NullString     `db:"approval_conditions"`
	Status             string             `db:"status"`
	RequestedBy        string             `db:"requested_by"`
	RequestedAt        time.Time          `db:"requested_at"`
	ReviewedBy         sql.NullString     `db:"reviewed_by"`
	ReviewedAt         sql.NullTime       `db:"reviewed_at"`
	RejectionReason    sql.NullString     `db:"rejection_reason"`
	CreatedAccountID   sql.NullString     `db:"created_account_id"`
}

type WithdrawalOverrideRequest struct {
	ID                string         `db:"id"`
	WithdrawalID      string         `db:"withdrawal_id"`
	AccountID         string         `db:"account_id"`
	DesiredStatus     string         `db:"desired_status"`
	RequiredDocuments pq.StringArray `db:"required_documents"`
	Note              string         `db:"note"`
	Status            string         `db:"status"`
	RequestedBy       string         `db:"requested_by"`
	RequestedAt       time.Time      `db:"requested_at"`
	ReviewedBy        sql.NullString `db:"reviewed_by"`
	ReviewedAt        sql.NullTime   `db:"reviewed_at"`
	RejectionReason   sql.NullString `db:"rejection_reason"`
}

// document request priorities
const (
	DocumentPriorityLow    = "low"
	DocumentPriorityNormal = "normal"
	DocumentPriorityHigh   = "high"
	DocumentPriorityUrgent = "urgent"
)

type DocumentRequest struct {
	ID           string         `db:"id"`
	AccountID    string         `db:"account_id"`
	DocumentType string         `db:"document_type"`
	Priority     string         `db:"priority"`
	DueDate      sql.NullTime   `db:"due_date"`
	Status       string         `db:"status"`
	DocumentURL  sql.NullString `db:"document_url"`
	RequestedBy  string         `db:"requested_by"`
	RequestedAt  time.Time      `db:"requested_at"`
	SubmittedAt  sql.NullTime   `db:"submitted_at"`
	ReviewedBy   sql.NullString `db:"reviewed_by"`
	ReviewedAt   sql.NullTime   `db:"reviewed_at"`
	ReviewNote   sql.NullString `db:"review_note"`
}
