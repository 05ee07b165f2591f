package governance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/validator"
)

// ApprovalHandler is the per-kind half of the approval workflow: what a
// valid pending request looks like and which side effects run on each
// terminal transition. The engine owns everything the kinds share, i.e.
// the transaction, the terminal-state guard and the audit entry, so the
// side effects of a request can never run twice.
type ApprovalHandler interface {
	// Fetch loads the request in its generic shape, with the kind-specific
	// record in Payload.
	Fetch(id string) (*models.ApprovalRequest, bool, error)

	// Reviewable reports why a non-terminal request still cannot be
	// reviewed, e.g. a document request whose upload has not arrived.
	// A nil return means the request may be approved or rejected.
	Reviewable(req *models.ApprovalRequest) error

	// OnApprove runs the kind's approval side effect inside the engine's
	// transaction and returns the audit details line.
	OnApprove(tx *sql.Tx, req *models.ApprovalRequest, opts ApproveOptions, actor models.Actor) (string, error)

	// OnReject runs the kind's rejection side effect, if any.
	OnReject(tx *sql.Tx, req *models.ApprovalRequest, reason string, actor models.Actor) (string, error)

	// MarkReviewed moves the kind's request row to a terminal status. The
	// transition only lands on a row that is still open; when a concurrent
	// review got there first it returns a ConflictError, which rolls the
	// engine's transaction back along with every side effect OnApprove or
	// OnReject already ran.
	MarkReviewed(tx *sql.Tx, id, status string, actor models.Actor, note *string) error
}

// ApproveOptions carries the optional knobs a governor can attach while
// approving. Kinds that have no use for them ignore them.
type ApproveOptions struct {
	// Conditions is recorded on account-creation approvals.
	Conditions string
}

// Approve moves a pending request to approved and runs its side effect.
// Terminal requests are final: approving one again fails with a
// ConflictError before any side effect runs, and two reviews racing past
// that check still cannot both land because MarkReviewed only transitions
// an open row. The loser's transaction rolls back, so duplicate account
// creation and duplicate balance credits stay impossible.
func (e *Engine) Approve(ctx context.Context, kind models.ApprovalKind, id string, opts ApproveOptions, actor models.Actor) error {
	handler, req, err := e.reviewableRequest(kind, id, actor)
	if err != nil {
		return err
	}

	var details string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		details, err = handler.OnApprove(tx, req, opts, actor)
		if err != nil {
			return err
		}

		if err := handler.MarkReviewed(tx, id, models.RequestStatusApproved, actor, nil); err != nil {
			return err
		}

		return e.audit(tx, actor, models.AuditActionRequestApproved, id, string(kind), details)
	})
	if err != nil {
		return err
	}

	e.publishReview(kind, req, "approved")

	return nil
}

// Reject moves a pending request to rejected. The reason is mandatory and
// recorded on the request; like approval, rejection of a terminal request
// is a conflict.
func (e *Engine) Reject(ctx context.Context, kind models.ApprovalKind, id, reason string, actor models.Actor) error {
	if !validator.NotBlank(reason) {
		return NewValidationError("A rejection reason is required")
	}

	handler, req, err := e.reviewableRequest(kind, id, actor)
	if err != nil {
		return err
	}

	var details string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		details, err = handler.OnReject(tx, req, reason, actor)
		if err != nil {
			return err
		}

		if err := handler.MarkReviewed(tx, id, models.RequestStatusRejected, actor, &reason); err != nil {
			return err
		}

		return e.audit(tx, actor, models.AuditActionRequestRejected, id, string(kind), details)
	})
	if err != nil {
		return err
	}

	e.publishReview(kind, req, "rejected")

	return nil
}

func (e *Engine) reviewableRequest(kind models.ApprovalKind, id string, actor models.Actor) (ApprovalHandler, *models.ApprovalRequest, error) {
	if !actor.IsGovernor() {
		return nil, nil, NewValidationError("Only a governor can review approval requests")
	}

	handler, ok := e.handlers[kind]
	if !ok {
		return nil, nil, &NotFoundError{Resource: "approval kind", ID: string(kind)}
	}

	req, found, err := handler.Fetch(id)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, &NotFoundError{Resource: string(kind) + " request", ID: id}
	}

	if models.IsTerminalRequestStatus(req.Status) {
		return nil, nil, &ConflictError{Message: fmt.Sprintf("request is already %s", req.Status)}
	}

	if err := handler.Reviewable(req); err != nil {
		return nil, nil, err
	}

	return handler, req, nil
}

func (e *Engine) publishReview(kind models.ApprovalKind, req *models.ApprovalRequest, outcome string) {
	message := fmt.Sprintf("%s request %s %s", kind, req.ID, outcome)

	if req.AccountID != "" {
		e.publishAccount(req.AccountID, TopicApproval, message)
		return
	}

	if e.events != nil {
		if err := e.events.Publish(TopicApproval, message); err != nil {
			e.logger.Error("publish governance event", "topic", TopicApproval, "error", err)
		}
	}
}
