package models

import "time"

type Admin struct {
	ID             string    `db:"id"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Email          string    `db:"email"`
	Role           string    `db:"role"`
	Status         string    `db:"status"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
}

const (
	// RoleAdmin can request governance actions (flags, document requests,
	// wallet changes) but cannot resolve approval requests.
	RoleAdmin = "admin"

	// RoleGovernor is the highest privilege tier. Governors are the sole
	// approvers for approval workflows and the sole operators of system
	// lockdown.
	RoleGovernor = "governor"
)

// Actor identifies the privileged user performing a governance operation.
// Every engine method takes one so the audit trail always knows who acted.
type Actor struct {
	ID   string
	Name string
	Role string
}

func (a Actor) IsGovernor() bool {
	return a.Role == RoleGovernor
}
