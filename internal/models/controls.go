package models

import (
	"database/sql"

	"github.com/lib/pq"
)

// SystemControls is the single global capability record. Every *Enabled
// boolean defaults to true; absence of a value never means disabled.
type SystemControls struct {
	ID                     int            `db:"id"`
	WithdrawalsEnabled     bool           `db:"withdrawals_enabled"`
	MessagingEnabled       bool           `db:"messaging_enabled"`
	ProfileUpdatesEnabled  bool           `db:"profile_updates_enabled"`
	LoginEnabled           bool           `db:"login_enabled"`
	TradingEnabled         bool           `db:"trading_enabled"`
	DepositsEnabled        bool           `db:"deposits_enabled"`
	ReportingEnabled       bool           `db:"reporting_enabled"`
	AccountCreationEnabled bool           `db:"account_creation_enabled"`
	SupportTicketsEnabled  bool           `db:"support_tickets_enabled"`
	DataExportEnabled      bool           `db:"data_export_enabled"`
	NotificationsEnabled   bool           `db:"notifications_enabled"`
	ApiAccessEnabled       bool           `db:"api_access_enabled"`
	RestrictedMode         bool           `db:"restricted_mode"`
	RestrictionLevel       string         `db:"restriction_level"`
	RestrictionReason      string         `db:"restriction_reason"`
	AllowedPages           pq.StringArray `db:"allowed_pages"`
	MaintenanceMode        bool           `db:"maintenance_mode"`
	MaintenanceMessage     string         `db:"maintenance_message"`
	Version                int            `db:"version"`
	UpdatedAt              sql.NullTime   `db:"updated_at"`
}

// restriction levels
const (
	RestrictionLevelNone    = "none"
	RestrictionLevelPartial = "partial"
	RestrictionLevelFull    = "full"
)

func IsValidRestrictionLevel(level string) bool {
	switch level {
	case RestrictionLevelNone, RestrictionLevelPartial, RestrictionLevelFull:
		return true
	}
	return false
}

// capability keys, as exposed on the API and in audit entries
const (
	CapabilityWithdrawals     = "withdrawals"
	CapabilityMessaging       = "messaging"
	CapabilityProfileUpdates  = "profile_updates"
	CapabilityLogin           = "login"
	CapabilityTrading         = "trading"
	CapabilityDeposits        = "deposits"
	CapabilityReporting       = "reporting"
	CapabilityAccountCreation = "account_creation"
	CapabilitySupportTickets  = "support_tickets"
	CapabilityDataExport      = "data_export"
	CapabilityNotifications   = "notifications"
	CapabilityApiAccess       = "api_access"
)

// CapabilityKeys lists every toggleable capability in a stable order.
var CapabilityKeys = []string{
	CapabilityWithdrawals,
	CapabilityMessaging,
	CapabilityProfileUpdates,
	CapabilityLogin,
	CapabilityTrading,
	CapabilityDeposits,
	CapabilityReporting,
	CapabilityAccountCreation,
	CapabilitySupportTickets,
	CapabilityDataExport,
	CapabilityNotifications,
	CapabilityApiAccess,
}

// Capability returns a pointer to the boolean backing a capability key,
// or nil when the key is unknown.
func (c *SystemControls) Capability(key string) *bool {
	switch key {
	case CapabilityWithdrawals:
		return &c.WithdrawalsEnabled
	case CapabilityMessaging:
		return &c.MessagingEnabled
	case CapabilityProfileUpdates:
		return &c.ProfileUpdatesEnabled
	case CapabilityLogin:
		return &c.LoginEnabled
	case CapabilityTrading:
		return &c.TradingEnabled
	case CapabilityDeposits:
		return &c.DepositsEnabled
	case CapabilityReporting:
		return &c.ReportingEnabled
	case CapabilityAccountCreation:
		return &c.AccountCreationEnabled
	case CapabilitySupportTickets:
		return &c.SupportTicketsEnabled
	case CapabilityDataExport:
		return &c.DataExportEnabled
	case CapabilityNotifications:
		return &c.NotificationsEnabled
	case CapabilityApiAccess:
		return &c.ApiAccessEnabled
	}
	return nil
}

// SetAll flips every capability boolean at once. Used by lockdown and
// restore, which must never leave a subset of capabilities behind.
func (c *SystemControls) SetAll(enabled bool) {
	for _, key := range CapabilityKeys {
		*c.Capability(key) = enabled
	}
}
