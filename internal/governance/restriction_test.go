package governance

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veltacap/custodian/internal/models"
)

func TestEffectiveRestrictions_MergesSources(t *testing.T) {
	entries := []models.RestrictionEntry{
		{SourceKind: models.RestrictionSourceFlag, SourceID: "flag-1", Key: models.RestrictionWithdrawalDisabled, Message: "Withdrawals paused"},
		{SourceKind: models.RestrictionSourceFlag, SourceID: "flag-2", Key: models.RestrictionRequiresApproval},
		{SourceKind: models.RestrictionSourceManual, SourceID: models.RestrictionTradingDisabled, Key: models.RestrictionTradingDisabled},
	}

	restrictions := EffectiveRestrictions(entries, nil, time.Now())

	require.True(t, restrictions.Has(models.RestrictionWithdrawalDisabled))
	require.True(t, restrictions.Has(models.RestrictionRequiresApproval))
	require.True(t, restrictions.Has(models.RestrictionTradingDisabled))
	require.Equal(t, "Withdrawals paused", restrictions[models.RestrictionWithdrawalDisabled+"Message"])
}

func TestEffectiveRestrictions_SameKeyFromTwoSources(t *testing.T) {
	entries := []models.RestrictionEntry{
		{SourceKind: models.RestrictionSourceFlag, SourceID: "flag-1", Key: models.RestrictionWithdrawalDisabled},
		{SourceKind: models.RestrictionSourceFlag, SourceID: "flag-2", Key: models.RestrictionWithdrawalDisabled},
	}

	restrictions := EffectiveRestrictions(entries, nil, time.Now())
	require.True(t, restrictions.Has(models.RestrictionWithdrawalDisabled))

	// one source resolved, the other still asserts the key
	restrictions = EffectiveRestrictions(entries[1:], nil, time.Now())
	require.True(t, restrictions.Has(models.RestrictionWithdrawalDisabled))

	restrictions = EffectiveRestrictions(nil, nil, time.Now())
	require.False(t, restrictions.Has(models.RestrictionWithdrawalDisabled))
}

func TestEffectiveRestrictions_ActiveBan(t *testing.T) {
	ban := &models.ShadowBan{AccountID: "acct-1", BanType: models.BanTypeTradingOnly, IsActive: true}
	entries := []models.RestrictionEntry{
		{SourceKind: models.RestrictionSourceBan, SourceID: "acct-1", Key: models.RestrictionShadowBanned},
		{SourceKind: models.RestrictionSourceBan, SourceID: "acct-1", Key: models.RestrictionTradingDisabled},
	}

	restrictions := EffectiveRestrictions(entries, ban, time.Now())

	require.True(t, restrictions.Has(models.RestrictionShadowBanned))
	require.True(t, restrictions.Has(models.RestrictionTradingDisabled))
	require.Equal(t, models.BanTypeTradingOnly, restrictions[models.RestrictionShadowBanType])
}

func TestEffectiveRestrictions_ExpiredBanIgnoredLazily(t *testing.T) {
	ban := &models.ShadowBan{
		AccountID: "acct-1",
		BanType:   models.BanTypeWithdrawalOnly,
		IsActive:  true,
		ExpiresAt: sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true},
	}
	entries := []models.RestrictionEntry{
		{SourceKind: models.RestrictionSourceBan, SourceID: "acct-1", Key: models.RestrictionShadowBanned},
		{SourceKind: models.RestrictionSourceBan, SourceID: "acct-1", Key: models.RestrictionWithdrawalDisabled},
		{SourceKind: models.RestrictionSourceFlag, SourceID: "flag-1", Key: models.RestrictionRequiresApproval},
	}

	restrictions := EffectiveRestrictions(entries, ban, time.Now())

	require.False(t, restrictions.Has(models.RestrictionShadowBanned))
	require.False(t, restrictions.Has(models.RestrictionWithdrawalDisabled))
	require.NotContains(t, restrictions, models.RestrictionShadowBanType)

	// non-ban sources are unaffected by the expiry
	require.True(t, restrictions.Has(models.RestrictionRequiresApproval))
}

func TestAccountActive(t *testing.T) {
	require.True(t, accountActive(models.RestrictionMap{}))
	require.True(t, accountActive(models.RestrictionMap{models.RestrictionWithdrawalDisabled: true}))
	require.False(t, accountActive(models.RestrictionMap{models.RestrictionGovernorSuspended: true}))
	require.False(t, accountActive(models.RestrictionMap{models.RestrictionPlatformDisabled: true}))
}
