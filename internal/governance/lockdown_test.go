package governance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veltacap/custodian/internal/models"
)

func TestEmergencyShutdown_DisablesEverything(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	controls, err := engine.EmergencyShutdown(context.Background(), "active intrusion", governor)
	require.NoError(t, err)

	for _, key := range models.CapabilityKeys {
		require.False(t, *controls.Capability(key), "capability %s should be disabled", key)
	}
	require.True(t, controls.RestrictedMode)
	require.Equal(t, models.RestrictionLevelFull, controls.RestrictionLevel)
	require.Equal(t, "active intrusion", controls.RestrictionReason)
	require.Equal(t, GovernancePages, []string(controls.AllowedPages))

	// the stored record matches what was returned
	for _, key := range models.CapabilityKeys {
		require.False(t, *db.controls.Capability(key))
	}
	require.Equal(t, []string{models.AuditActionEmergencyShutdown}, db.auditActions())
}

func TestEmergencyShutdown_RequiresReason(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	_, err := engine.EmergencyShutdown(context.Background(), "", governor)
	require.True(t, IsValidation(err))

	for _, key := range models.CapabilityKeys {
		require.True(t, *db.controls.Capability(key))
	}
}

func TestRestoreAll_UndoesShutdown(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)
	ctx := context.Background()

	_, err := engine.EmergencyShutdown(ctx, "incident", governor)
	require.NoError(t, err)

	controls, err := engine.RestoreAll(ctx, governor)
	require.NoError(t, err)

	for _, key := range models.CapabilityKeys {
		require.True(t, *controls.Capability(key))
	}
	require.False(t, controls.RestrictedMode)
	require.Equal(t, models.RestrictionLevelNone, controls.RestrictionLevel)
	require.Empty(t, controls.RestrictionReason)
	require.Empty(t, controls.AllowedPages)
}

func TestToggleCapability_SingleSwitch(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	controls, err := engine.ToggleCapability(context.Background(), models.CapabilityWithdrawals, false, governor)
	require.NoError(t, err)

	require.False(t, controls.WithdrawalsEnabled)
	require.True(t, controls.TradingEnabled)

	// a narrow toggle never flips the system-wide state
	require.False(t, controls.RestrictedMode)
	require.Equal(t, models.RestrictionLevelNone, controls.RestrictionLevel)
}

func TestToggleCapability_UnknownKey(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	_, err := engine.ToggleCapability(context.Background(), "teleportation", true, governor)
	require.True(t, IsNotFound(err))
	require.Empty(t, db.audits)
}

func TestSetRestrictionLevel_Partial(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	controls, err := engine.SetRestrictionLevel(context.Background(), models.RestrictionLevelPartial, "degraded upstream", governor)
	require.NoError(t, err)

	require.Equal(t, models.RestrictionLevelPartial, controls.RestrictionLevel)
	require.True(t, controls.RestrictedMode)
	require.Equal(t, "degraded upstream", controls.RestrictionReason)

	// capabilities are not touched by level changes
	for _, key := range models.CapabilityKeys {
		require.True(t, *controls.Capability(key))
	}
}

func TestSetRestrictionLevel_BackToNoneClearsReason(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)
	ctx := context.Background()

	_, err := engine.SetRestrictionLevel(ctx, models.RestrictionLevelPartial, "why", governor)
	require.NoError(t, err)

	controls, err := engine.SetRestrictionLevel(ctx, models.RestrictionLevelNone, "", governor)
	require.NoError(t, err)

	require.False(t, controls.RestrictedMode)
	require.Empty(t, controls.RestrictionReason)
	require.Empty(t, controls.AllowedPages)
}

func TestSetRestrictionLevel_SameLevelAuditsOnly(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	storedVersion := db.controls.Version

	controls, err := engine.SetRestrictionLevel(context.Background(), models.RestrictionLevelNone, "", governor)
	require.NoError(t, err)

	require.Equal(t, models.RestrictionLevelNone, controls.RestrictionLevel)
	require.Equal(t, storedVersion, db.controls.Version)
	require.Equal(t, []string{models.AuditActionRestrictionLevelSet}, db.auditActions())
}

func TestSetRestrictionLevel_UnknownLevel(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	_, err := engine.SetRestrictionLevel(context.Background(), "severe", "", governor)
	require.True(t, IsValidation(err))
}

func TestSetMaintenanceMode(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)
	ctx := context.Background()

	controls, err := engine.SetMaintenanceMode(ctx, true, "database upgrade until 04:00 UTC", governor)
	require.NoError(t, err)

	require.True(t, controls.MaintenanceMode)
	require.Equal(t, "database upgrade until 04:00 UTC", controls.MaintenanceMessage)
	for _, key := range models.CapabilityKeys {
		require.True(t, *controls.Capability(key))
	}

	controls, err = engine.SetMaintenanceMode(ctx, false, "", governor)
	require.NoError(t, err)
	require.False(t, controls.MaintenanceMode)
}
