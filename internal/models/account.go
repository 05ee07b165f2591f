package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID           string          `db:"id"`
	FirstName    string          `db:"first_name"`
	LastName     string          `db:"last_name"`
	Email        string          `db:"email"`
	PhoneNumber  string          `db:"phone_number"`
	Status       string          `db:"status"`
	IsActive     bool            `db:"is_active"`
	Balance      decimal.Decimal `db:"balance"`
	Restrictions RestrictionMap  `db:"restrictions"`
	Version      int             `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    sql.NullTime    `db:"updated_at"`
}

// RestrictionMap is the denormalized restriction state embedded on every
// account record. It is recomputed from restriction_entries on each
// governance mutation; consumers must treat it as read-only.
type RestrictionMap map[string]any

func (m RestrictionMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *RestrictionMap) Scan(src any) error {
	if src == nil {
		*m = RestrictionMap{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("models: unsupported scan type for RestrictionMap")
	}

	return json.Unmarshal(data, m)
}

// Has reports whether a restriction key is asserted on the account.
func (m RestrictionMap) Has(key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

type BankAccount struct {
	ID            string    `db:"id"`
	AccountID     string    `db:"account_id"`
	BankName      string    `db:"bank_name"`
	AccountName   string    `db:"account_name"`
	AccountNumber string    `db:"account_number"`
	Currency      string    `db:"currency"`
	CreatedAt     time.Time `db:"created_at"`
}

type CryptoWallet struct {
	ID                 string         `db:"id"`
	AccountID          string         `db:"account_id"`
	Label              string         `db:"label"`
	Network            string         `db:"network"`
	Address            string         `db:"address"`
	VerificationStatus string         `db:"verification_status"`
	RejectionReason    sql.NullString `db:"rejection_reason"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          sql.NullTime   `db:"updated_at"`
}

const (
	// WalletVerificationPending is the status of a wallet whose registration
	// change is still awaiting governor review.
	WalletVerificationPending = "pending"

	WalletVerificationApproved = "approved"
	WalletVerificationRejected = "rejected"
)
