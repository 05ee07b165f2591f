package governance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/veltacap/custodian/internal/models"
)

func TestApprove_RequiresGovernor(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	err := engine.Approve(context.Background(), models.KindCryptoWallet, "req-1", ApproveOptions{}, operator)
	require.True(t, IsValidation(err))
}

func TestApprove_UnknownKind(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	err := engine.Approve(context.Background(), "loan_forgiveness", "req-1", ApproveOptions{}, governor)
	require.True(t, IsNotFound(err))
}

func TestApprove_MissingRequest(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	err := engine.Approve(context.Background(), models.KindAccountCreation, "ghost", ApproveOptions{}, governor)
	require.True(t, IsNotFound(err))
}

func TestReject_RequiresReason(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	err := engine.Reject(context.Background(), models.KindCryptoWallet, "req-1", " ", governor)
	require.True(t, IsValidation(err))
}

func TestWalletChange_AddApproval(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateWalletChangeRequest(ctx, CreateWalletChangeInput{
		AccountID:  "acct-1",
		ChangeType: models.WalletChangeAdd,
		Label:      "Cold storage",
		Network:    "bitcoin",
		Address:    "bc1q0example",
	}, operator)
	require.NoError(t, err)

	// the wallet is embedded immediately, pending verification
	walletID := db.walletChanges[reqID].WalletID.String
	require.NotEmpty(t, walletID)
	require.Equal(t, models.WalletVerificationPending, db.wallets[walletID].VerificationStatus)

	require.NoError(t, engine.Approve(ctx, models.KindCryptoWallet, reqID, ApproveOptions{}, governor))

	require.Equal(t, models.WalletVerificationApproved, db.wallets[walletID].VerificationStatus)
	require.Equal(t, models.RequestStatusApproved, db.walletChanges[reqID].Status)
	require.Equal(t, governor.ID, db.walletChanges[reqID].ReviewedBy.String)
}

func TestWalletChange_AddRejection(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateWalletChangeRequest(ctx, CreateWalletChangeInput{
		AccountID:  "acct-1",
		ChangeType: models.WalletChangeAdd,
		Label:      "Hot wallet",
		Network:    "ethereum",
		Address:    "0xabc",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Reject(ctx, models.KindCryptoWallet, reqID, "address fails checksum", governor))

	walletID := db.walletChanges[reqID].WalletID.String
	require.Equal(t, models.WalletVerificationRejected, db.wallets[walletID].VerificationStatus)
	require.Equal(t, "address fails checksum", db.wallets[walletID].RejectionReason.String)
	require.Equal(t, models.RequestStatusRejected, db.walletChanges[reqID].Status)
}

func TestWalletChange_DeleteRejectRestoresStatus(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	walletID, err := db.CryptoWallet().Insert(&models.CryptoWallet{
		AccountID:          "acct-1",
		Label:              "Main",
		Network:            "bitcoin",
		Address:            "bc1qmain",
		VerificationStatus: models.WalletVerificationApproved,
	}, nil)
	require.NoError(t, err)

	reqID, err := engine.CreateWalletChangeRequest(ctx, CreateWalletChangeInput{
		AccountID:  "acct-1",
		ChangeType: models.WalletChangeDelete,
		WalletID:   walletID,
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Reject(ctx, models.KindCryptoWallet, reqID, "wallet still in use", governor))

	// the wallet survives and keeps the status it had before the request
	require.Contains(t, db.wallets, walletID)
	require.Equal(t, models.WalletVerificationApproved, db.wallets[walletID].VerificationStatus)
}

func TestWalletChange_DeleteApprovalRemovesWallet(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	walletID, err := db.CryptoWallet().Insert(&models.CryptoWallet{
		AccountID:          "acct-1",
		Label:              "Old",
		Network:            "bitcoin",
		Address:            "bc1qold",
		VerificationStatus: models.WalletVerificationApproved,
	}, nil)
	require.NoError(t, err)

	reqID, err := engine.CreateWalletChangeRequest(ctx, CreateWalletChangeInput{
		AccountID:  "acct-1",
		ChangeType: models.WalletChangeDelete,
		WalletID:   walletID,
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Approve(ctx, models.KindCryptoWallet, reqID, ApproveOptions{}, governor))
	require.NotContains(t, db.wallets, walletID)
}

func TestWalletChange_RacingReviewsSettleOnce(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateWalletChangeRequest(ctx, CreateWalletChangeInput{
		AccountID:  "acct-1",
		ChangeType: models.WalletChangeAdd,
		Label:      "Cold storage",
		Network:    "bitcoin",
		Address:    "bc1q0example",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Approve(ctx, models.KindCryptoWallet, reqID, ApproveOptions{}, governor))

	// a second reviewer reading the pending snapshot gets past the fetch,
	// but the review transition only lands on an open row
	db.staleReads = true
	err = engine.Approve(ctx, models.KindCryptoWallet, reqID, ApproveOptions{}, governor)
	require.True(t, IsConflict(err))

	require.Equal(t, models.RequestStatusApproved, db.walletChanges[reqID].Status)
	require.Equal(t, governor.ID, db.walletChanges[reqID].ReviewedBy.String)
}

func TestAccountCreation_ApprovalCreatesAccount(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateAccountCreationRequest(ctx, CreateAccountRequestInput{
		FirstName:      "Nia",
		LastName:       "Bello",
		Email:          "nia@example.org",
		InitialDeposit: decimal.NewFromInt(250),
	}, operator)
	require.NoError(t, err)

	// no account exists until the governor signs off
	_, found, err := db.Account().GetByEmail("nia@example.org")
	require.NoError(t, err)
	require.False(t, found)

	err = engine.Approve(ctx, models.KindAccountCreation, reqID, ApproveOptions{Conditions: "monthly statement review"}, governor)
	require.NoError(t, err)

	account, found, err := db.Account().GetByEmail("nia@example.org")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(250)))

	req := db.creations[reqID]
	require.Equal(t, account.ID, req.CreatedAccountID.String)
	require.Equal(t, "monthly statement review", req.ApprovalConditions.String)

	require.Len(t, db.ledger, 1)
	require.Equal(t, models.LedgerEntryCredit, db.ledger[0].EntryType)
	require.True(t, db.ledger[0].Amount.Equal(decimal.NewFromInt(250)))
}

func TestAccountCreation_ZeroDepositSkipsLedger(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateAccountCreationRequest(ctx, CreateAccountRequestInput{
		FirstName: "Tomi",
		LastName:  "Ade",
		Email:     "tomi@example.org",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Approve(ctx, models.KindAccountCreation, reqID, ApproveOptions{}, governor))
	require.Empty(t, db.ledger)
}

func TestAccountCreation_DuplicateEmailConflict(t *testing.T) {
	db := newMemDB()
	existing := db.addAccount("acct-1")
	engine := newTestEngine(db)

	_, err := engine.CreateAccountCreationRequest(context.Background(), CreateAccountRequestInput{
		FirstName: "Ada",
		LastName:  "Okafor",
		Email:     existing.Email,
	}, operator)
	require.True(t, IsConflict(err))
}

func TestAccountCreation_RacingApplicationsCreateOneAccount(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)
	ctx := context.Background()

	// both applications pass the filing-time check because no account with
	// the email exists yet
	firstID, err := engine.CreateAccountCreationRequest(ctx, CreateAccountRequestInput{
		FirstName: "Nia",
		LastName:  "Bello",
		Email:     "nia@example.org",
	}, operator)
	require.NoError(t, err)

	secondID, err := engine.CreateAccountCreationRequest(ctx, CreateAccountRequestInput{
		FirstName: "Nia",
		LastName:  "Bello",
		Email:     "nia@example.org",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Approve(ctx, models.KindAccountCreation, firstID, ApproveOptions{}, governor))

	// the unique constraint on the account email decides the loser, and it
	// surfaces as a conflict rather than a server error
	err = engine.Approve(ctx, models.KindAccountCreation, secondID, ApproveOptions{}, governor)
	require.True(t, IsConflict(err))

	matches := 0
	for _, account := range db.accounts {
		if account.Email == "nia@example.org" {
			matches++
		}
	}
	require.Equal(t, 1, matches)
}

func TestAccountCreation_RejectLeavesNoAccount(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateAccountCreationRequest(ctx, CreateAccountRequestInput{
		FirstName: "Sade",
		LastName:  "Cole",
		Email:     "sade@example.org",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Reject(ctx, models.KindAccountCreation, reqID, "failed identity verification", governor))

	_, found, err := db.Account().GetByEmail("sade@example.org")
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, models.RequestStatusRejected, db.creations[reqID].Status)
	require.Equal(t, "failed identity verification", db.creations[reqID].RejectionReason.String)
}

func TestWithdrawalOverride_RefundCreditsOnce(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	wdID, err := db.Withdrawal().Insert(&models.Withdrawal{
		AccountID:       "acct-1",
		Amount:          decimal.NewFromInt(100),
		Status:          models.WithdrawalStatusPending,
		ReferenceNumber: "WD-1001",
	}, nil)
	require.NoError(t, err)

	reqID, err := engine.CreateWithdrawalOverrideRequest(ctx, CreateWithdrawalOverrideInput{
		WithdrawalID:  wdID,
		DesiredStatus: models.WithdrawalStatusRefunded,
		Note:          "processor double-charged",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Approve(ctx, models.KindWithdrawalOverride, reqID, ApproveOptions{}, governor))

	require.Equal(t, models.WithdrawalStatusRefunded, db.withdrawals[wdID].Status)
	require.True(t, db.accounts["acct-1"].Balance.Equal(decimal.NewFromInt(100)))
	require.Len(t, db.ledger, 1)

	// a second approval hits the terminal-state guard before any side effect
	err = engine.Approve(ctx, models.KindWithdrawalOverride, reqID, ApproveOptions{}, governor)
	require.True(t, IsConflict(err))
	require.True(t, db.accounts["acct-1"].Balance.Equal(decimal.NewFromInt(100)))
	require.Len(t, db.ledger, 1)
}

func TestWithdrawalOverride_RacingApprovalsCreditOnce(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	wdID, err := db.Withdrawal().Insert(&models.Withdrawal{
		AccountID:       "acct-1",
		Amount:          decimal.NewFromInt(100),
		Status:          models.WithdrawalStatusPending,
		ReferenceNumber: "WD-1004",
	}, nil)
	require.NoError(t, err)

	reqID, err := engine.CreateWithdrawalOverrideRequest(ctx, CreateWithdrawalOverrideInput{
		WithdrawalID:  wdID,
		DesiredStatus: models.WithdrawalStatusRefunded,
		Note:          "processor double-charged",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Approve(ctx, models.KindWithdrawalOverride, reqID, ApproveOptions{}, governor))

	// a second reviewer whose reads predate the first commit still sees the
	// request and the withdrawal as open; the guarded status update is what
	// keeps the refund from landing twice
	db.staleReads = true
	err = engine.Approve(ctx, models.KindWithdrawalOverride, reqID, ApproveOptions{}, governor)
	require.True(t, IsConflict(err))

	require.True(t, db.accounts["acct-1"].Balance.Equal(decimal.NewFromInt(100)))
	require.Len(t, db.ledger, 1)
	require.Equal(t, models.WithdrawalStatusRefunded, db.withdrawals[wdID].Status)
}

func TestWithdrawalOverride_DenyDoesNotTouchBalance(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	wdID, err := db.Withdrawal().Insert(&models.Withdrawal{
		AccountID:       "acct-1",
		Amount:          decimal.NewFromInt(40),
		Status:          models.WithdrawalStatusPending,
		ReferenceNumber: "WD-1002",
	}, nil)
	require.NoError(t, err)

	reqID, err := engine.CreateWithdrawalOverrideRequest(ctx, CreateWithdrawalOverrideInput{
		WithdrawalID:  wdID,
		DesiredStatus: models.WithdrawalStatusDenied,
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.Approve(ctx, models.KindWithdrawalOverride, reqID, ApproveOptions{}, governor))

	require.Equal(t, models.WithdrawalStatusDenied, db.withdrawals[wdID].Status)
	require.True(t, db.accounts["acct-1"].Balance.IsZero())
	require.Empty(t, db.ledger)
}

func TestWithdrawalOverride_RequiresTerminalStatus(t *testing.T) {
	db := newMemDB()
	engine := newTestEngine(db)

	_, err := engine.CreateWithdrawalOverrideRequest(context.Background(), CreateWithdrawalOverrideInput{
		WithdrawalID:  "wd-1",
		DesiredStatus: models.WithdrawalStatusPending,
	}, operator)
	require.True(t, IsValidation(err))
}

func TestWithdrawalOverride_SettledWithdrawalConflict(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)

	wdID, err := db.Withdrawal().Insert(&models.Withdrawal{
		AccountID:       "acct-1",
		Amount:          decimal.NewFromInt(10),
		Status:          models.WithdrawalStatusCompleted,
		ReferenceNumber: "WD-1003",
	}, nil)
	require.NoError(t, err)

	_, err = engine.CreateWithdrawalOverrideRequest(context.Background(), CreateWithdrawalOverrideInput{
		WithdrawalID:  wdID,
		DesiredStatus: models.WithdrawalStatusRefunded,
	}, operator)
	require.True(t, IsConflict(err))
}

func TestDocumentRequest_Lifecycle(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateDocumentRequest(ctx, CreateDocumentRequestInput{
		AccountID:    "acct-1",
		DocumentType: "proof_of_address",
	}, operator)
	require.NoError(t, err)

	require.True(t, db.accounts["acct-1"].Restrictions.Has(models.RestrictionPendingDocumentRequest))

	// nothing to review until the counterpart uploads
	err = engine.Approve(ctx, models.KindDocumentRequest, reqID, ApproveOptions{}, governor)
	require.True(t, IsConflict(err))

	err = engine.SubmitDocument(ctx, reqID, "https://files.example.org/doc.pdf", operator)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusSubmitted, db.docRequests[reqID].Status)

	require.NoError(t, engine.Approve(ctx, models.KindDocumentRequest, reqID, ApproveOptions{}, governor))

	require.Equal(t, models.RequestStatusApproved, db.docRequests[reqID].Status)
	require.False(t, db.accounts["acct-1"].Restrictions.Has(models.RestrictionPendingDocumentRequest))
}

func TestDocumentRequest_RejectionAlsoClearsMarker(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateDocumentRequest(ctx, CreateDocumentRequestInput{
		AccountID:    "acct-1",
		DocumentType: "bank_statement",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.SubmitDocument(ctx, reqID, "https://files.example.org/statement.pdf", operator))
	require.NoError(t, engine.Reject(ctx, models.KindDocumentRequest, reqID, "statement is older than 90 days", governor))

	require.False(t, db.accounts["acct-1"].Restrictions.Has(models.RestrictionPendingDocumentRequest))
}

func TestSubmitDocument_DoubleSubmitConflict(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateDocumentRequest(ctx, CreateDocumentRequestInput{
		AccountID:    "acct-1",
		DocumentType: "passport",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.SubmitDocument(ctx, reqID, "https://files.example.org/a.pdf", operator))

	err = engine.SubmitDocument(ctx, reqID, "https://files.example.org/b.pdf", operator)
	require.True(t, IsConflict(err))
}

func TestSubmitDocument_RacingUploadsKeepFirst(t *testing.T) {
	db := newMemDB()
	db.addAccount("acct-1")
	engine := newTestEngine(db)
	ctx := context.Background()

	reqID, err := engine.CreateDocumentRequest(ctx, CreateDocumentRequestInput{
		AccountID:    "acct-1",
		DocumentType: "passport",
	}, operator)
	require.NoError(t, err)

	require.NoError(t, engine.SubmitDocument(ctx, reqID, "https://files.example.org/a.pdf", operator))

	// a racing upload that read the request while it was still pending
	// cannot overwrite the one that landed
	db.staleReads = true
	err = engine.SubmitDocument(ctx, reqID, "https://files.example.org/b.pdf", operator)
	require.True(t, IsConflict(err))
	require.Equal(t, "https://files.example.org/a.pdf", db.docRequests[reqID].DocumentURL.String)
}
