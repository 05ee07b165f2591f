package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/veltacap/custodian/assets"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/lib/pq"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

const defaultTimeout = 3 * time.Second

// Database defines the available repositories.
// Governance mutations run through RunInTx so that the account record, the
// flag/ban/request record and the audit entry commit together or not at all.
type Database interface {
	Admin() AdminRepository
	Account() AccountRepository
	BankAccount() BankAccountRepository
	CryptoWallet() CryptoWalletRepository
	Flag() FlagRepository
	Ban() BanRepository
	Restriction() RestrictionRepository
	Controls() ControlsRepository
	Audit() AuditRepository
	Ledger() LedgerRepository
	Withdrawal() WithdrawalRepository
	WalletChange() WalletChangeRepository
	AccountCreation() AccountCreationRepository
	WithdrawalOverride() WithdrawalOverrideRepository
	DocumentRequest() DocumentRequestRepository

	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Close() error
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db *sqlx.DB

	adminRepo              AdminRepository
	accountRepo            AccountRepository
	bankAccountRepo        BankAccountRepository
	cryptoWalletRepo       CryptoWalletRepository
	flagRepo               FlagRepository
	banRepo                BanRepository
	restrictionRepo        RestrictionRepository
	controlsRepo           ControlsRepository
	auditRepo              AuditRepository
	ledgerRepo             LedgerRepository
	withdrawalRepo         WithdrawalRepository
	walletChangeRepo       WalletChangeRepository
	accountCreationRepo    AccountCreationRepository
	withdrawalOverrideRepo WithdrawalOverrideRepository
	documentRequestRepo    DocumentRequestRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

// RunInTx starts a transaction, runs fn, and commits when fn returns nil.
// Any error from fn rolls the whole transaction back.
func (d *DatabaseImpl) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		// always make sure it rolls back, if there is an error
		// ...and the transaction is not committed
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx.Tx); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, so callers can turn an insert race into a conflict instead of
// a server error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (d *DatabaseImpl) Admin() AdminRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.adminRepo == nil {
		d.adminRepo = NewAdminRepository(d.db)
	}
	return d.adminRepo
}

func (d *DatabaseImpl) Account() AccountRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accountRepo == nil {
		d.accountRepo = NewAccountRepository(d.db)
	}
	return d.accountRepo
}

func (d *DatabaseImpl) BankAccount() BankAccountRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bankAccountRepo == nil {
		d.bankAccountRepo = NewBankAccountRepository(d.db)
	}
	return d.bankAccountRepo
}

func (d *DatabaseImpl) CryptoWallet() CryptoWalletRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cryptoWalletRepo == nil {
		d.cryptoWalletRepo = NewCryptoWalletRepository(d.db)
	}
	return d.cryptoWalletRepo
}

func (d *DatabaseImpl) Flag() FlagRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.flagRepo == nil {
		d.flagRepo = NewFlagRepository(d.db)
	}
	return d.flagRepo
}

func (d *DatabaseImpl) Ban() BanRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.banRepo == nil {
		d.banRepo = NewBanRepository(d.db)
	}
	return d.banRepo
}

func (d *DatabaseImpl) Restriction() RestrictionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.restrictionRepo == nil {
		d.restrictionRepo = NewRestrictionRepository(d.db)
	}
	return d.restrictionRepo
}

func (d *DatabaseImpl) Controls() ControlsRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.controlsRepo == nil {
		d.controlsRepo = NewControlsRepository(d.db)
	}
	return d.controlsRepo
}

func (d *DatabaseImpl) Audit() AuditRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.auditRepo == nil {
		d.auditRepo = NewAuditRepository(d.db)
	}
	return d.auditRepo
}

func (d *DatabaseImpl) Ledger() LedgerRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ledgerRepo == nil {
		d.ledgerRepo = NewLedgerRepository(d.db)
	}
	return d.ledgerRepo
}

func (d *DatabaseImpl) Withdrawal() WithdrawalRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.withdrawalRepo == nil {
		d.withdrawalRepo = NewWithdrawalRepository(d.db)
	}
	return d.withdrawalRepo
}

func (d *DatabaseImpl) WalletChange() WalletChangeRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletChangeRepo == nil {
		d.walletChangeRepo = NewWalletChangeRepository(d.db)
	}
	return d.walletChangeRepo
}

func (d *DatabaseImpl) AccountCreation() AccountCreationRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accountCreationRepo == nil {
		d.accountCreationRepo = NewAccountCreationRepository(d.db)
	}
	return d.accountCreationRepo
}

func (d *DatabaseImpl) WithdrawalOverride() WithdrawalOverrideRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.withdrawalOverrideRepo == nil {
		d.withdrawalOverrideRepo = NewWithdrawalOverrideRepository(d.db)
	}
	return d.withdrawalOverrideRepo
}

func (d *DatabaseImpl) DocumentRequest() DocumentRequestRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.documentRequestRepo == nil {
		d.documentRequestRepo = NewDocumentRequestRepository(d.db)
	}
	return d.documentRequestRepo
}
