package governance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/validator"
)

type CreateAccountRequestInput struct {
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	InitialDeposit decimal.Decimal
	Documents      models.ApplicantDocuments
}

// CreateAccountCreationRequest files a new-account application for
// governor review. No account record exists until the request is approved.
func (e *Engine) CreateAccountCreationRequest(ctx context.Context, input CreateAccountRequestInput, actor models.Actor) (string, error) {
	var v validator.Validator
	v.Check(validator.NotBlank(input.FirstName), "First name is required")
	v.Check(validator.NotBlank(input.LastName), "Last name is required")
	v.Check(validator.NotBlank(input.Email), "Email is required")
	v.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	v.Check(!input.InitialDeposit.IsNegative(), "Initial deposit cannot be negative")
	if v.HasErrors() {
		return "", &ValidationError{Errors: v.Errors}
	}

	_, found, err := e.db.Account().GetByEmail(input.Email)
	if err != nil {
		return "", err
	}
	if found {
		return "", &ConflictError{Message: "an account with this email already exists"}
	}

	req := &models.AccountCreationRequest{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		InitialDeposit: input.InitialDeposit,
		Documents:      input.Documents,
		RequestedBy:    actor.ID,
	}

	var reqID string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		reqID, err = e.db.AccountCreation().Insert(req, tx)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("applicant=%s deposit=%s", input.Email, input.InitialDeposit.String())
		return e.audit(tx, actor, models.AuditActionRequestCreated, reqID, input.FirstName+" "+input.LastName, details)
	})
	if err != nil {
		return "", err
	}

	return reqID, nil
}

type accountCreationHandler struct {
	engine *Engine
}

func (h *accountCreationHandler) Fetch(id string) (*models.ApprovalRequest, bool, error) {
	req, found, err := h.engine.db.AccountCreation().GetOne(id)
	if err != nil || !found {
		return nil, false, err
	}

	return &models.ApprovalRequest{
		ID:          req.ID,
		Kind:        models.KindAccountCreation,
		Status:      req.Status,
		RequestedBy: req.RequestedBy,
		RequestedAt: req.RequestedAt,
		Payload:     req,
	}, true, nil
}

func (h *accountCreationHandler) Reviewable(req *models.ApprovalRequest) error {
	return nil
}

// Approval creates the account, seeds the initial-deposit ledger entry and
// records any approval conditions. All of it rides the engine's single
// transaction, and the terminal-state guard means it can only ever happen
// once per request.
func (h *accountCreationHandler) OnApprove(tx *sql.Tx, req *models.ApprovalRequest, opts ApproveOptions, actor models.Actor) (string, error) {
	application := req.Payload.(*models.AccountCreationRequest)

	accountID, err := h.engine.db.Account().Insert(&models.Account{
		FirstName:   application.FirstName,
		LastName:    application.LastName,
		Email:       application.Email,
		PhoneNumber: application.PhoneNumber,
		Balance:     application.InitialDeposit,
	}, tx)
	if err != nil {
		// Two applications for one email can both sit pending; the account
		// table's unique constraint decides the race when the second one is
		// approved.
		if repository.IsUniqueViolation(err) {
			return "", &ConflictError{Message: "an account with this email already exists"}
		}
		return "", err
	}

	if application.InitialDeposit.IsPositive() {
		_, err = h.engine.db.Ledger().Insert(&models.LedgerEntry{
			AccountID:       accountID,
			EntryType:       models.LedgerEntryCredit,
			Amount:          application.InitialDeposit,
			ReferenceNumber: uuid.NewString(),
			Reason:          "Initial deposit",
			CreatedBy:       actor.ID,
		}, tx)
		if err != nil {
			return "", err
		}
	}

	var conditions *string
	if opts.Conditions != "" {
		conditions = &opts.Conditions
	}
	if err := h.engine.db.AccountCreation().SetCreatedAccount(req.ID, accountID, conditions, tx); err != nil {
		return "", err
	}

	return fmt.Sprintf("account %s created for %s", accountID, application.Email), nil
}

func (h *accountCreationHandler) OnReject(tx *sql.Tx, req *models.ApprovalRequest, reason string, actor models.Actor) (string, error) {
	application := req.Payload.(*models.AccountCreationRequest)
	return fmt.Sprintf("application for %s rejected", application.Email), nil
}

func (h *accountCreationHandler) MarkReviewed(tx *sql.Tx, id, status string, actor models.Actor, note *string) error {
	updated, err := h.engine.db.AccountCreation().MarkReviewed(id, status, actor.ID, note, tx)
	if err != nil {
		return err
	}
	if !updated {
		return &ConflictError{Message: "request was reviewed by another governor"}
	}
	return nil
}
