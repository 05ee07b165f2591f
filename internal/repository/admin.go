package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/veltacap/custodian/internal/models"
)

type AdminRepository interface {
	Insert(admin *models.Admin, tx *sql.Tx) (string, error)
	GetOne(id string) (*models.Admin, bool, error)
	GetByEmail(email string) (*models.Admin, bool, error)
}

const (
	// AdminAccountActiveStatus indicates that the admin can log in and
	// perform the operations their role permits.
	AdminAccountActiveStatus = "active"

	// AdminAccountLockedStatus indicates that the admin account has been
	// locked, for example by administrative action. A locked account cannot
	// be used until unlocked.
	AdminAccountLockedStatus = "locked"
)

type AdminRepositoryImpl struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &AdminRepositoryImpl{db: db}
}

func (repo *AdminRepositoryImpl) Insert(admin *models.Admin, tx *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO admins (first_name, last_name, email, role, hashed_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			admin.FirstName,
			admin.LastName,
			admin.Email,
			admin.Role,
			admin.HashedPassword,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			admin.FirstName,
			admin.LastName,
			admin.Email,
			admin.Role,
			admin.HashedPassword,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *AdminRepositoryImpl) GetOne(id string) (*models.Admin, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var admin models.Admin

	query := `SELECT * FROM admins WHERE id = $1`

	err := repo.db.GetContext(ctx, &admin, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &admin, true, nil
}

func (repo *AdminRepositoryImpl) GetByEmail(email string) (*models.Admin, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var admin models.Admin

	query := `SELECT * FROM admins WHERE email = $1`

	err := repo.db.GetContext(ctx, &admin, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &admin, true, nil
}
