package governance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/validator"
)

// GovernancePages is the surface that stays reachable during a full
// lockdown: just enough to see what happened and undo it.
var GovernancePages = []string{"/governance", "/system-controls", "/audit-logs"}

// EmergencyShutdown disables every capability at once and narrows the
// accessible surface to governance pages. The whole record is written in a
// single versioned update: either every switch lands or none do, a
// partially locked system is a correctness violation.
func (e *Engine) EmergencyShutdown(ctx context.Context, reason string, actor models.Actor) (*models.SystemControls, error) {
	if !validator.NotBlank(reason) {
		return nil, NewValidationError("A lockdown reason is required")
	}

	controls, err := e.db.Controls().Get()
	if err != nil {
		return nil, err
	}

	controls.SetAll(false)
	controls.RestrictedMode = true
	controls.RestrictionLevel = models.RestrictionLevelFull
	controls.RestrictionReason = reason
	controls.AllowedPages = GovernancePages

	err = e.updateControls(ctx, controls, actor, models.AuditActionEmergencyShutdown, reason)
	if err != nil {
		return nil, err
	}

	e.publishControls(controls, "emergency shutdown: "+reason)

	return controls, nil
}

// RestoreAll is the inverse of EmergencyShutdown: every capability back on,
// restriction level cleared, allowed pages emptied. Same atomicity rule.
func (e *Engine) RestoreAll(ctx context.Context, actor models.Actor) (*models.SystemControls, error) {
	controls, err := e.db.Controls().Get()
	if err != nil {
		return nil, err
	}

	controls.SetAll(true)
	controls.RestrictedMode = false
	controls.RestrictionLevel = models.RestrictionLevelNone
	controls.RestrictionReason = ""
	controls.AllowedPages = nil

	err = e.updateControls(ctx, controls, actor, models.AuditActionSystemRestored, "all capabilities restored")
	if err != nil {
		return nil, err
	}

	e.publishControls(controls, "system restored")

	return controls, nil
}

// ToggleCapability flips one capability switch. It deliberately leaves
// restricted_mode and restriction_level alone: a narrow toggle must never
// escalate or de-escalate the system-wide state implicitly.
func (e *Engine) ToggleCapability(ctx context.Context, key string, enabled bool, actor models.Actor) (*models.SystemControls, error) {
	controls, err := e.db.Controls().Get()
	if err != nil {
		return nil, err
	}

	capability := controls.Capability(key)
	if capability == nil {
		return nil, &NotFoundError{Resource: "capability", ID: key}
	}
	*capability = enabled

	details := fmt.Sprintf("%s=%t", key, enabled)
	err = e.updateControls(ctx, controls, actor, models.AuditActionCapabilityToggled, details)
	if err != nil {
		return nil, err
	}

	e.publishControls(controls, "capability toggled: "+details)

	return controls, nil
}

// SetRestrictionLevel moves the system between none, partial and full.
// Setting the level it already has is idempotent: the audit entry is still
// written, nothing else changes.
func (e *Engine) SetRestrictionLevel(ctx context.Context, level, reason string, actor models.Actor) (*models.SystemControls, error) {
	if !models.IsValidRestrictionLevel(level) {
		return nil, NewValidationError(fmt.Sprintf("Unknown restriction level %q", level))
	}

	controls, err := e.db.Controls().Get()
	if err != nil {
		return nil, err
	}

	if controls.RestrictionLevel == level {
		err = e.runInTx(ctx, func(tx *sql.Tx) error {
			return e.audit(tx, actor, models.AuditActionRestrictionLevelSet, "system_controls", "", "level="+level+" (unchanged)")
		})
		if err != nil {
			return nil, err
		}
		return controls, nil
	}

	controls.RestrictionLevel = level
	controls.RestrictedMode = level != models.RestrictionLevelNone
	if reason != "" {
		controls.RestrictionReason = reason
	}
	if level == models.RestrictionLevelNone {
		controls.RestrictionReason = ""
		controls.AllowedPages = nil
	}

	err = e.updateControls(ctx, controls, actor, models.AuditActionRestrictionLevelSet, "level="+level)
	if err != nil {
		return nil, err
	}

	e.publishControls(controls, "restriction level set to "+level)

	return controls, nil
}

// SetMaintenanceMode flips the maintenance banner without touching any
// capability switch.
func (e *Engine) SetMaintenanceMode(ctx context.Context, enabled bool, message string, actor models.Actor) (*models.SystemControls, error) {
	controls, err := e.db.Controls().Get()
	if err != nil {
		return nil, err
	}

	controls.MaintenanceMode = enabled
	controls.MaintenanceMessage = message

	details := fmt.Sprintf("maintenance=%t", enabled)
	err = e.updateControls(ctx, controls, actor, models.AuditActionMaintenanceModeSet, details)
	if err != nil {
		return nil, err
	}

	e.publishControls(controls, details)

	return controls, nil
}

// updateControls commits the mutated controls record and its audit entry
// together. The versioned write means a concurrent controls mutation
// surfaces as a conflict instead of being silently overwritten.
func (e *Engine) updateControls(ctx context.Context, controls *models.SystemControls, actor models.Actor, action, details string) error {
	err := e.runInTx(ctx, func(tx *sql.Tx) error {
		updated, err := e.db.Controls().Update(controls, tx)
		if err != nil {
			return err
		}
		if !updated {
			return &ConflictError{Message: "system controls were modified by another governance operation, retry"}
		}

		return e.audit(tx, actor, action, "system_controls", "", details)
	})
	if err != nil {
		return err
	}

	controls.Version++

	return nil
}
