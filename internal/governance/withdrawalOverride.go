package governance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/veltacap/custodian/internal/models"
)

type CreateWithdrawalOverrideInput struct {
	WithdrawalID      string
	DesiredStatus     string
	RequiredDocuments []string
	Note              string
}

// CreateWithdrawalOverrideRequest files a governor override for a
// withdrawal. The desired terminal status is fixed at filing time; the
// governor's approval applies it, so the override itself already encodes
// accept versus deny and there is no separate rejection side effect.
func (e *Engine) CreateWithdrawalOverrideRequest(ctx context.Context, input CreateWithdrawalOverrideInput, actor models.Actor) (string, error) {
	if !models.IsTerminalWithdrawalStatus(input.DesiredStatus) {
		return "", NewValidationError(fmt.Sprintf("%q is not a terminal withdrawal status", input.DesiredStatus))
	}

	withdrawal, found, err := e.db.Withdrawal().GetOne(input.WithdrawalID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &NotFoundError{Resource: "withdrawal", ID: input.WithdrawalID}
	}

	if models.IsTerminalWithdrawalStatus(withdrawal.Status) {
		return "", &ConflictError{Message: fmt.Sprintf("withdrawal is already %s", withdrawal.Status)}
	}

	req := &models.WithdrawalOverrideRequest{
		WithdrawalID:      withdrawal.ID,
		AccountID:         withdrawal.AccountID,
		DesiredStatus:     input.DesiredStatus,
		RequiredDocuments: input.RequiredDocuments,
		Note:              input.Note,
		RequestedBy:       actor.ID,
	}

	var reqID string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		reqID, err = e.db.WithdrawalOverride().Insert(req, tx)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("withdrawal=%s desired=%s", withdrawal.ID, input.DesiredStatus)
		return e.audit(tx, actor, models.AuditActionRequestCreated, reqID, "withdrawal_override", details)
	})
	if err != nil {
		return "", err
	}

	return reqID, nil
}

type withdrawalOverrideHandler struct {
	engine *Engine
}

func (h *withdrawalOverrideHandler) Fetch(id string) (*models.ApprovalRequest, bool, error) {
	req, found, err := h.engine.db.WithdrawalOverride().GetOne(id)
	if err != nil || !found {
		return nil, false, err
	}

	return &models.ApprovalRequest{
		ID:          req.ID,
		Kind:        models.KindWithdrawalOverride,
		AccountID:   req.AccountID,
		Status:      req.Status,
		RequestedBy: req.RequestedBy,
		RequestedAt: req.RequestedAt,
		Payload:     req,
	}, true, nil
}

func (h *withdrawalOverrideHandler) Reviewable(req *models.ApprovalRequest) error {
	return nil
}

// Approval sets the withdrawal to the requested terminal status. A refund
// additionally credits the account balance and writes the matching ledger
// entry. The status update only lands while the withdrawal is unsettled, so
// two racing approvals cannot both credit: the loser's update misses, the
// conflict rolls its transaction back and no money moves.
func (h *withdrawalOverrideHandler) OnApprove(tx *sql.Tx, req *models.ApprovalRequest, opts ApproveOptions, actor models.Actor) (string, error) {
	override := req.Payload.(*models.WithdrawalOverrideRequest)

	withdrawal, found, err := h.engine.db.Withdrawal().GetOne(override.WithdrawalID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &NotFoundError{Resource: "withdrawal", ID: override.WithdrawalID}
	}

	if models.IsTerminalWithdrawalStatus(withdrawal.Status) {
		return "", &ConflictError{Message: fmt.Sprintf("withdrawal is already %s", withdrawal.Status)}
	}

	updated, err := h.engine.db.Withdrawal().UpdateStatus(withdrawal.ID, override.DesiredStatus, tx)
	if err != nil {
		return "", err
	}
	if !updated {
		return "", &ConflictError{Message: "withdrawal was settled by another review"}
	}

	if override.DesiredStatus == models.WithdrawalStatusRefunded {
		if err := h.engine.db.Account().CreditBalance(withdrawal.AccountID, withdrawal.Amount, tx); err != nil {
			return "", err
		}

		_, err = h.engine.db.Ledger().Insert(&models.LedgerEntry{
			AccountID:       withdrawal.AccountID,
			EntryType:       models.LedgerEntryCredit,
			Amount:          withdrawal.Amount,
			ReferenceNumber: uuid.NewString(),
			Reason:          "Withdrawal " + withdrawal.ReferenceNumber + " refunded",
			CreatedBy:       actor.ID,
		}, tx)
		if err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("withdrawal %s set to %s", withdrawal.ID, override.DesiredStatus), nil
}

// Rejecting an override declines to apply it; the withdrawal itself is
// left exactly as it was.
func (h *withdrawalOverrideHandler) OnReject(tx *sql.Tx, req *models.ApprovalRequest, reason string, actor models.Actor) (string, error) {
	override := req.Payload.(*models.WithdrawalOverrideRequest)
	return fmt.Sprintf("override for withdrawal %s declined", override.WithdrawalID), nil
}

func (h *withdrawalOverrideHandler) MarkReviewed(tx *sql.Tx, id, status string, actor models.Actor, note *string) error {
	updated, err := h.engine.db.WithdrawalOverride().MarkReviewed(id, status, actor.ID, note, tx)
	if err != nil {
		return err
	}
	if !updated {
		return &ConflictError{Message: "request was reviewed by another governor"}
	}
	return nil
}
