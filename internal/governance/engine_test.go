package governance

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
)

// memDB is an in-memory repository.Database. RunInTx hands the callback a
// nil *sql.Tx; every repository method tolerates that, so engine behavior
// can be exercised without a live Postgres.
type memDB struct {
	accounts    map[string]*models.Account
	entries     []models.RestrictionEntry
	flags       map[string]*models.Flag
	bans        map[string]*models.ShadowBan
	controls    *models.SystemControls
	audits      []models.AuditLogEntry
	ledger      []models.LedgerEntry
	withdrawals map[string]*models.Withdrawal
	wallets     map[string]*models.CryptoWallet

	walletChanges map[string]*models.WalletChangeRequest
	creations     map[string]*models.AccountCreationRequest
	overrides     map[string]*models.WithdrawalOverrideRequest
	docRequests   map[string]*models.DocumentRequest

	// casMiss forces every account version check to fail, simulating a
	// concurrent governance write.
	casMiss bool

	// staleReads serves request and withdrawal fetches with the open status
	// a racing reviewer would have observed before another review committed,
	// so the status-guarded updates can be exercised on their own.
	staleReads bool

	nextID int
}

func newMemDB() *memDB {
	return &memDB{
		accounts:      map[string]*models.Account{},
		flags:         map[string]*models.Flag{},
		bans:          map[string]*models.ShadowBan{},
		withdrawals:   map[string]*models.Withdrawal{},
		wallets:       map[string]*models.CryptoWallet{},
		walletChanges: map[string]*models.WalletChangeRequest{},
		creations:     map[string]*models.AccountCreationRequest{},
		overrides:     map[string]*models.WithdrawalOverrideRequest{},
		docRequests:   map[string]*models.DocumentRequest{},
		controls:      defaultControls(),
	}
}

func defaultControls() *models.SystemControls {
	controls := &models.SystemControls{
		ID:               1,
		RestrictionLevel: models.RestrictionLevelNone,
		Version:          1,
	}
	controls.SetAll(true)
	return controls
}

func newTestEngine(db *memDB) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, logger, nil, nil)
}

func (d *memDB) genID(prefix string) string {
	d.nextID++
	return fmt.Sprintf("%s-%d", prefix, d.nextID)
}

func (d *memDB) addAccount(id string) *models.Account {
	account := &models.Account{
		ID:           id,
		FirstName:    "Ada",
		LastName:     "Okafor",
		Email:        id + "@example.org",
		Status:       "active",
		IsActive:     true,
		Restrictions: models.RestrictionMap{},
		Version:      1,
	}
	d.accounts[id] = account
	return account
}

func (d *memDB) auditActions() []string {
	actions := make([]string, 0, len(d.audits))
	for _, entry := range d.audits {
		actions = append(actions, entry.Action)
	}
	return actions
}

func (d *memDB) Admin() repository.AdminRepository                           { return nil }
func (d *memDB) Account() repository.AccountRepository                       { return &memAccountRepo{d} }
func (d *memDB) BankAccount() repository.BankAccountRepository               { return &memBankAccountRepo{d} }
func (d *memDB) CryptoWallet() repository.CryptoWalletRepository             { return &memWalletRepo{d} }
func (d *memDB) Flag() repository.FlagRepository                             { return &memFlagRepo{d} }
func (d *memDB) Ban() repository.BanRepository                               { return &memBanRepo{d} }
func (d *memDB) Restriction() repository.RestrictionRepository               { return &memRestrictionRepo{d} }
func (d *memDB) Controls() repository.ControlsRepository                     { return &memControlsRepo{d} }
func (d *memDB) Audit() repository.AuditRepository                           { return &memAuditRepo{d} }
func (d *memDB) Ledger() repository.LedgerRepository                         { return &memLedgerRepo{d} }
func (d *memDB) Withdrawal() repository.WithdrawalRepository                 { return &memWithdrawalRepo{d} }
func (d *memDB) WalletChange() repository.WalletChangeRepository             { return &memWalletChangeRepo{d} }
func (d *memDB) AccountCreation() repository.AccountCreationRepository       { return &memAccountCreationRepo{d} }
func (d *memDB) WithdrawalOverride() repository.WithdrawalOverrideRepository { return &memOverrideRepo{d} }
func (d *memDB) DocumentRequest() repository.DocumentRequestRepository       { return &memDocumentRequestRepo{d} }

func (d *memDB) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

func (d *memDB) Close() error { return nil }

type memAccountRepo struct{ d *memDB }

func (r *memAccountRepo) Insert(account *models.Account, tx *sql.Tx) (string, error) {
	for _, existing := range r.d.accounts {
		if existing.Email == account.Email {
			return "", &pq.Error{Code: "23505", Constraint: "accounts_email_key"}
		}
	}

	id := r.d.genID("acct")
	stored := *account
	stored.ID = id
	stored.IsActive = true
	stored.Version = 1
	if stored.Restrictions == nil {
		stored.Restrictions = models.RestrictionMap{}
	}
	r.d.accounts[id] = &stored
	return id, nil
}

func (r *memAccountRepo) GetOne(id string) (*models.Account, bool, error) {
	account, ok := r.d.accounts[id]
	if !ok {
		return nil, false, nil
	}
	copied := *account
	return &copied, true, nil
}

func (r *memAccountRepo) GetByEmail(email string) (*models.Account, bool, error) {
	for _, account := range r.d.accounts {
		if account.Email == email {
			copied := *account
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (r *memAccountRepo) List(limit, offset int) ([]models.Account, error) { return nil, nil }

func (r *memAccountRepo) UpdateRestrictions(id string, version int, restrictions models.RestrictionMap, isActive bool, tx *sql.Tx) (bool, error) {
	account, ok := r.d.accounts[id]
	if !ok || account.Version != version || r.d.casMiss {
		return false, nil
	}
	account.Restrictions = restrictions
	account.IsActive = isActive
	account.Version++
	return true, nil
}

func (r *memAccountRepo) CreditBalance(id string, amount decimal.Decimal, tx *sql.Tx) error {
	account, ok := r.d.accounts[id]
	if !ok {
		return sql.ErrNoRows
	}
	account.Balance = account.Balance.Add(amount)
	return nil
}

type memRestrictionRepo struct{ d *memDB }

func (r *memRestrictionRepo) ListForAccount(accountID string) ([]models.RestrictionEntry, error) {
	var entries []models.RestrictionEntry
	for _, entry := range r.d.entries {
		if entry.AccountID == accountID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r *memRestrictionRepo) ReplaceForSource(accountID, sourceKind, sourceID string, entries []models.RestrictionEntry, tx *sql.Tx) error {
	if err := r.DeleteForSource(accountID, sourceKind, sourceID, tx); err != nil {
		return err
	}
	for _, entry := range entries {
		entry.AccountID = accountID
		entry.SourceKind = sourceKind
		entry.SourceID = sourceID
		r.d.entries = append(r.d.entries, entry)
	}
	return nil
}

func (r *memRestrictionRepo) DeleteForSource(accountID, sourceKind, sourceID string, tx *sql.Tx) error {
	kept := r.d.entries[:0]
	for _, entry := range r.d.entries {
		if entry.AccountID == accountID && entry.SourceKind == sourceKind && entry.SourceID == sourceID {
			continue
		}
		kept = append(kept, entry)
	}
	r.d.entries = kept
	return nil
}

type memFlagRepo struct{ d *memDB }

func (r *memFlagRepo) Insert(flag *models.Flag, tx *sql.Tx) (string, error) {
	id := r.d.genID("flag")
	stored := *flag
	stored.ID = id
	stored.Status = models.FlagStatusActive
	stored.CreatedAt = time.Now()
	r.d.flags[id] = &stored
	return id, nil
}

func (r *memFlagRepo) GetOne(id string) (*models.Flag, bool, error) {
	flag, ok := r.d.flags[id]
	if !ok {
		return nil, false, nil
	}
	copied := *flag
	return &copied, true, nil
}

func (r *memFlagRepo) Resolve(id, notes, resolvedBy string, tx *sql.Tx) error {
	flag, ok := r.d.flags[id]
	if !ok {
		return sql.ErrNoRows
	}
	flag.Status = models.FlagStatusResolved
	flag.ResolutionNotes = sql.NullString{String: notes, Valid: true}
	flag.ResolvedBy = sql.NullString{String: resolvedBy, Valid: true}
	flag.ResolvedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return nil
}

func (r *memFlagRepo) ListByAccount(accountID string) ([]models.Flag, error) { return nil, nil }

func (r *memFlagRepo) ListActiveByAccount(accountID string) ([]models.Flag, error) { return nil, nil }

type memBanRepo struct{ d *memDB }

func (r *memBanRepo) GetOne(accountID string) (*models.ShadowBan, bool, error) {
	ban, ok := r.d.bans[accountID]
	if !ok {
		return nil, false, nil
	}
	copied := *ban
	return &copied, true, nil
}

func (r *memBanRepo) Upsert(ban *models.ShadowBan, tx *sql.Tx) (string, error) {
	id := r.d.genID("ban")
	stored := *ban
	stored.ID = id
	stored.IsActive = true
	stored.BannedAt = time.Now()
	r.d.bans[ban.AccountID] = &stored
	return id, nil
}

func (r *memBanRepo) Deactivate(accountID, removedBy string, tx *sql.Tx) error {
	ban, ok := r.d.bans[accountID]
	if !ok {
		return sql.ErrNoRows
	}
	ban.IsActive = false
	ban.RemovedBy = sql.NullString{String: removedBy, Valid: true}
	ban.RemovedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return nil
}

type memControlsRepo struct{ d *memDB }

func (r *memControlsRepo) Get() (*models.SystemControls, error) {
	copied := *r.d.controls
	return &copied, nil
}

func (r *memControlsRepo) Update(controls *models.SystemControls, tx *sql.Tx) (bool, error) {
	if r.d.controls.Version != controls.Version {
		return false, nil
	}
	stored := *controls
	stored.Version++
	r.d.controls = &stored
	return true, nil
}

type memAuditRepo struct{ d *memDB }

func (r *memAuditRepo) Insert(entry *models.AuditLogEntry, tx *sql.Tx) (string, error) {
	id := r.d.genID("audit")
	stored := *entry
	stored.ID = id
	stored.CreatedAt = time.Now()
	r.d.audits = append(r.d.audits, stored)
	return id, nil
}

func (r *memAuditRepo) List(filters repository.AuditFilters) ([]models.AuditLogEntry, error) {
	return r.d.audits, nil
}

type memLedgerRepo struct{ d *memDB }

func (r *memLedgerRepo) Insert(entry *models.LedgerEntry, tx *sql.Tx) (string, error) {
	id := r.d.genID("ledger")
	stored := *entry
	stored.ID = id
	stored.CreatedAt = time.Now()
	r.d.ledger = append(r.d.ledger, stored)
	return id, nil
}

func (r *memLedgerRepo) ListByAccount(accountID string, limit, offset int) ([]models.LedgerEntry, error) {
	return r.d.ledger, nil
}

type memWithdrawalRepo struct{ d *memDB }

func (r *memWithdrawalRepo) Insert(withdrawal *models.Withdrawal, tx *sql.Tx) (string, error) {
	id := r.d.genID("wd")
	stored := *withdrawal
	stored.ID = id
	r.d.withdrawals[id] = &stored
	return id, nil
}

func (r *memWithdrawalRepo) GetOne(id string) (*models.Withdrawal, bool, error) {
	withdrawal, ok := r.d.withdrawals[id]
	if !ok {
		return nil, false, nil
	}
	copied := *withdrawal
	if r.d.staleReads {
		copied.Status = models.WithdrawalStatusPending
	}
	return &copied, true, nil
}

func (r *memWithdrawalRepo) UpdateStatus(id, status string, tx *sql.Tx) (bool, error) {
	withdrawal, ok := r.d.withdrawals[id]
	if !ok {
		return false, nil
	}
	if models.IsTerminalWithdrawalStatus(withdrawal.Status) {
		return false, nil
	}
	withdrawal.Status = status
	return true, nil
}

func (r *memWithdrawalRepo) List(status string, limit, offset int) ([]models.Withdrawal, error) {
	return nil, nil
}

type memWalletRepo struct{ d *memDB }

func (r *memWalletRepo) Insert(wallet *models.CryptoWallet, tx *sql.Tx) (string, error) {
	id := r.d.genID("wallet")
	stored := *wallet
	stored.ID = id
	r.d.wallets[id] = &stored
	return id, nil
}

func (r *memWalletRepo) GetOne(id string) (*models.CryptoWallet, bool, error) {
	wallet, ok := r.d.wallets[id]
	if !ok {
		return nil, false, nil
	}
	copied := *wallet
	return &copied, true, nil
}

func (r *memWalletRepo) ListByAccount(accountID string) ([]models.CryptoWallet, error) {
	return nil, nil
}

func (r *memWalletRepo) UpdateVerification(id, status string, reason *string, tx *sql.Tx) error {
	wallet, ok := r.d.wallets[id]
	if !ok {
		return sql.ErrNoRows
	}
	wallet.VerificationStatus = status
	if reason != nil {
		wallet.RejectionReason = sql.NullString{String: *reason, Valid: true}
	}
	return nil
}

func (r *memWalletRepo) UpdateDetails(id, label, network, address string, tx *sql.Tx) error {
	wallet, ok := r.d.wallets[id]
	if !ok {
		return sql.ErrNoRows
	}
	wallet.Label = label
	wallet.Network = network
	wallet.Address = address
	return nil
}

func (r *memWalletRepo) Delete(id string, tx *sql.Tx) error {
	delete(r.d.wallets, id)
	return nil
}

type memBankAccountRepo struct{ d *memDB }

func (r *memBankAccountRepo) Insert(bank *models.BankAccount, tx *sql.Tx) (string, error) {
	return r.d.genID("bank"), nil
}

func (r *memBankAccountRepo) ListByAccount(accountID string) ([]models.BankAccount, error) {
	return nil, nil
}

type memWalletChangeRepo struct{ d *memDB }

func (r *memWalletChangeRepo) Insert(req *models.WalletChangeRequest, tx *sql.Tx) (string, error) {
	id := r.d.genID("wcr")
	stored := *req
	stored.ID = id
	stored.Status = models.RequestStatusPending
	stored.RequestedAt = time.Now()
	r.d.walletChanges[id] = &stored
	return id, nil
}

func (r *memWalletChangeRepo) GetOne(id string) (*models.WalletChangeRequest, bool, error) {
	req, ok := r.d.walletChanges[id]
	if !ok {
		return nil, false, nil
	}
	copied := *req
	if r.d.staleReads {
		copied.Status = models.RequestStatusPending
	}
	return &copied, true, nil
}

func (r *memWalletChangeRepo) MarkReviewed(id, status, reviewedBy string, rejectionReason *string, tx *sql.Tx) (bool, error) {
	req, ok := r.d.walletChanges[id]
	if !ok {
		return false, nil
	}
	return markReviewed(&req.Status, &req.ReviewedBy, &req.ReviewedAt, &req.RejectionReason, models.RequestStatusPending, status, reviewedBy, rejectionReason), nil
}

func (r *memWalletChangeRepo) ListByStatus(status string, limit, offset int) ([]models.WalletChangeRequest, error) {
	return nil, nil
}

type memAccountCreationRepo struct{ d *memDB }

func (r *memAccountCreationRepo) Insert(req *models.AccountCreationRequest, tx *sql.Tx) (string, error) {
	id := r.d.genID("acr")
	stored := *req
	stored.ID = id
	stored.Status = models.RequestStatusPending
	stored.RequestedAt = time.Now()
	r.d.creations[id] = &stored
	return id, nil
}

func (r *memAccountCreationRepo) GetOne(id string) (*models.AccountCreationRequest, bool, error) {
	req, ok := r.d.creations[id]
	if !ok {
		return nil, false, nil
	}
	copied := *req
	if r.d.staleReads {
		copied.Status = models.RequestStatusPending
	}
	return &copied, true, nil
}

func (r *memAccountCreationRepo) MarkReviewed(id, status, reviewedBy string, rejectionReason *string, tx *sql.Tx) (bool, error) {
	req, ok := r.d.creations[id]
	if !ok {
		return false, nil
	}
	return markReviewed(&req.Status, &req.ReviewedBy, &req.ReviewedAt, &req.RejectionReason, models.RequestStatusPending, status, reviewedBy, rejectionReason), nil
}

func (r *memAccountCreationRepo) SetCreatedAccount(id, accountID string, conditions *string, tx *sql.Tx) error {
	req, ok := r.d.creations[id]
	if !ok {
		return sql.ErrNoRows
	}
	req.CreatedAccountID = sql.NullString{String: accountID, Valid: true}
	if conditions != nil {
		req.ApprovalConditions = sql.NullString{String: *conditions, Valid: true}
	}
	return nil
}

func (r *memAccountCreationRepo) ListByStatus(status string, limit, offset int) ([]models.AccountCreationRequest, error) {
	return nil, nil
}

type memOverrideRepo struct{ d *memDB }

func (r *memOverrideRepo) Insert(req *models.WithdrawalOverrideRequest, tx *sql.Tx) (string, error) {
	id := r.d.genID("ovr")
	stored := *req
	stored.ID = id
	stored.Status = models.RequestStatusPending
	stored.RequestedAt = time.Now()
	r.d.overrides[id] = &stored
	return id, nil
}

func (r *memOverrideRepo) GetOne(id string) (*models.WithdrawalOverrideRequest, bool, error) {
	req, ok := r.d.overrides[id]
	if !ok {
		return nil, false, nil
	}
	copied := *req
	if r.d.staleReads {
		copied.Status = models.RequestStatusPending
	}
	return &copied, true, nil
}

func (r *memOverrideRepo) MarkReviewed(id, status, reviewedBy string, rejectionReason *string, tx *sql.Tx) (bool, error) {
	req, ok := r.d.overrides[id]
	if !ok {
		return false, nil
	}
	return markReviewed(&req.Status, &req.ReviewedBy, &req.ReviewedAt, &req.RejectionReason, models.RequestStatusPending, status, reviewedBy, rejectionReason), nil
}

func (r *memOverrideRepo) ListByStatus(status string, limit, offset int) ([]models.WithdrawalOverrideRequest, error) {
	return nil, nil
}

type memDocumentRequestRepo struct{ d *memDB }

func (r *memDocumentRequestRepo) Insert(req *models.DocumentRequest, tx *sql.Tx) (string, error) {
	id := r.d.genID("doc")
	stored := *req
	stored.ID = id
	stored.Status = models.RequestStatusPending
	stored.RequestedAt = time.Now()
	r.d.docRequests[id] = &stored
	return id, nil
}

func (r *memDocumentRequestRepo) GetOne(id string) (*models.DocumentRequest, bool, error) {
	req, ok := r.d.docRequests[id]
	if !ok {
		return nil, false, nil
	}
	copied := *req
	if r.d.staleReads {
		copied.Status = models.RequestStatusPending
	}
	return &copied, true, nil
}

func (r *memDocumentRequestRepo) MarkSubmitted(id, documentURL string, tx *sql.Tx) (bool, error) {
	req, ok := r.d.docRequests[id]
	if !ok {
		return false, nil
	}
	if req.Status != models.RequestStatusPending {
		return false, nil
	}
	req.Status = models.RequestStatusSubmitted
	req.DocumentURL = sql.NullString{String: documentURL, Valid: true}
	req.SubmittedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return true, nil
}

func (r *memDocumentRequestRepo) MarkReviewed(id, status, reviewedBy string, reviewNote *string, tx *sql.Tx) (bool, error) {
	req, ok := r.d.docRequests[id]
	if !ok {
		return false, nil
	}
	return markReviewed(&req.Status, &req.ReviewedBy, &req.ReviewedAt, &req.ReviewNote, models.RequestStatusSubmitted, status, reviewedBy, reviewNote), nil
}

func (r *memDocumentRequestRepo) ListByStatus(status string, limit, offset int) ([]models.DocumentRequest, error) {
	return nil, nil
}

func (r *memDocumentRequestRepo) ListByAccount(accountID string) ([]models.DocumentRequest, error) {
	return nil, nil
}

// markReviewed mirrors the status-guarded review updates: the transition
// only lands while the row still holds the expected open status.
func markReviewed(status *string, reviewedBy *sql.NullString, reviewedAt *sql.NullTime, note *sql.NullString, from, newStatus, by string, reason *string) bool {
	if *status != from {
		return false
	}
	*status = newStatus
	*reviewedBy = sql.NullString{String: by, Valid: true}
	*reviewedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if reason != nil {
		*note = sql.NullString{String: *reason, Valid: true}
	}
	return true
}

var (
	governor = models.Actor{ID: "gov-1", Name: "Grace Hopper", Role: models.RoleGovernor}
	operator = models.Actor{ID: "adm-1", Name: "Olu Ade", Role: models.RoleAdmin}
)
