// Package seeder provisions the records a fresh deployment needs before
// anyone can log in. It is idempotent; running it against an already
// seeded database changes nothing.
package seeder

import (
	"log/slog"

	"github.com/cradoe/gopass"
	"github.com/shopspring/decimal"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
)

type Seeder struct {
	DB     repository.Database
	Logger *slog.Logger

	GovernorEmail    string
	GovernorPassword string
	DemoData         bool
}

func New(db repository.Database, logger *slog.Logger, governorEmail, governorPassword string, demoData bool) *Seeder {
	return &Seeder{
		DB:               db,
		Logger:           logger,
		GovernorEmail:    governorEmail,
		GovernorPassword: governorPassword,
		DemoData:         demoData,
	}
}

func (s *Seeder) Run() error {
	if err := s.seedGovernor(); err != nil {
		return err
	}

	if s.DemoData {
		return s.seedDemoAccounts()
	}

	return nil
}

// seedGovernor creates the bootstrap governor account. Without at least
// one governor no approval request can ever be resolved and lockdown
// cannot be operated, so a deployment without one is unusable.
func (s *Seeder) seedGovernor() error {
	if s.GovernorEmail == "" || s.GovernorPassword == "" {
		s.Logger.Warn("governor seed credentials not configured, skipping")
		return nil
	}

	_, found, err := s.DB.Admin().GetByEmail(s.GovernorEmail)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	hashedPassword, err := gopass.Hash(s.GovernorPassword)
	if err != nil {
		return err
	}

	id, err := s.DB.Admin().Insert(&models.Admin{
		FirstName:      "Platform",
		LastName:       "Governor",
		Email:          s.GovernorEmail,
		Role:           models.RoleGovernor,
		HashedPassword: hashedPassword,
	}, nil)
	if err != nil {
		return err
	}

	s.Logger.Info("seeded bootstrap governor", "id", id, "email", s.GovernorEmail)
	return nil
}

// seedDemoAccounts inserts a handful of customer accounts for development
// environments, so flag/ban/approval flows have something to act on.
func (s *Seeder) seedDemoAccounts() error {
	demoAccounts := []models.Account{
		{FirstName: "Ada", LastName: "Okafor", Email: "ada@demo.veltacap.dev", PhoneNumber: "+2348012345601", Balance: decimal.NewFromInt(12500)},
		{FirstName: "Tunde", LastName: "Bakare", Email: "tunde@demo.veltacap.dev", PhoneNumber: "+2348012345602", Balance: decimal.NewFromInt(430)},
		{FirstName: "Mei", LastName: "Chen", Email: "mei@demo.veltacap.dev", PhoneNumber: "+8613012345603", Balance: decimal.NewFromInt(98000)},
	}

	for i := range demoAccounts {
		account := &demoAccounts[i]

		_, found, err := s.DB.Account().GetByEmail(account.Email)
		if err != nil {
			return err
		}
		if found {
			continue
		}

		id, err := s.DB.Account().Insert(account, nil)
		if err != nil {
			return err
		}
		s.Logger.Info("seeded demo account", "id", id, "email", account.Email)
	}

	return nil
}
