// The audit log is a critical part of the system.
// Every governance action (flag, ban, lockdown, approval) must be logged
// in the same database transaction as the mutation it documents.
// Entries are append-only; no update or delete path exists for this table.
package models

import "time"

type AuditLogEntry struct {
	ID         string    `db:"id"`
	ActorID    string    `db:"actor_id"`
	ActorName  string    `db:"actor_name"`
	Action     string    `db:"action"`
	TargetID   string    `db:"target_id"`
	TargetName string    `db:"target_name"`
	Details    string    `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
}

// audit actions
const (
	AuditActionFlagCreated  = "flag.created"
	AuditActionFlagResolved = "flag.resolved"

	AuditActionBanCreated = "ban.created"
	AuditActionBanRemoved = "ban.removed"

	AuditActionEmergencyShutdown    = "system.emergency_shutdown"
	AuditActionSystemRestored       = "system.restored"
	AuditActionCapabilityToggled    = "system.capability_toggled"
	AuditActionRestrictionLevelSet  = "system.restriction_level_set"
	AuditActionMaintenanceModeSet   = "system.maintenance_mode_set"
	AuditActionBankAccountAdded     = "account.bank_account_added"
	AuditActionManualRestrictionSet = "account.manual_restriction_set"

	AuditActionRequestCreated    = "approval.request_created"
	AuditActionRequestApproved   = "approval.request_approved"
	AuditActionRequestRejected   = "approval.request_rejected"
	AuditActionDocumentSubmitted = "approval.document_submitted"
)
