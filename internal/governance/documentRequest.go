package governance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/validator"
)

type CreateDocumentRequestInput struct {
	AccountID    string
	DocumentType string
	Priority     string
	DueDate      *time.Time
}

// CreateDocumentRequest asks an account holder for a document. Unlike the
// other kinds, creation needs no approval step: the request sits pending
// until the counterpart uploads, then moves to submitted for review. While
// any request is open the account carries a pendingDocumentRequest
// restriction marker. The due date is passive metadata; nothing in-process
// enforces it.
func (e *Engine) CreateDocumentRequest(ctx context.Context, input CreateDocumentRequestInput, actor models.Actor) (string, error) {
	var v validator.Validator
	v.Check(validator.NotBlank(input.DocumentType), "Document type is required")
	if input.Priority == "" {
		input.Priority = models.DocumentPriorityNormal
	}
	if v.HasErrors() {
		return "", &ValidationError{Errors: v.Errors}
	}

	account, found, err := e.db.Account().GetOne(input.AccountID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &NotFoundError{Resource: "account", ID: input.AccountID}
	}

	ban, err := e.currentBan(account.ID)
	if err != nil {
		return "", err
	}

	req := &models.DocumentRequest{
		AccountID:    input.AccountID,
		DocumentType: input.DocumentType,
		Priority:     input.Priority,
		RequestedBy:  actor.ID,
	}
	if input.DueDate != nil {
		req.DueDate = sql.NullTime{Time: *input.DueDate, Valid: true}
	}

	var reqID string
	err = e.runInTx(ctx, func(tx *sql.Tx) error {
		reqID, err = e.db.DocumentRequest().Insert(req, tx)
		if err != nil {
			return err
		}

		entries := []models.RestrictionEntry{{
			Key:     models.RestrictionPendingDocumentRequest,
			Message: "A " + input.DocumentType + " document has been requested",
		}}
		_, err = e.applyRestrictionDelta(tx, account, models.RestrictionSourceDocumentRequest, reqID, entries, ban)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("type=%s priority=%s", input.DocumentType, input.Priority)
		return e.audit(tx, actor, models.AuditActionRequestCreated, reqID, accountName(account), details)
	})
	if err != nil {
		return "", err
	}

	e.publishAccount(account.ID, TopicApproval, fmt.Sprintf("document request %s created for account %s", reqID, account.ID))

	return reqID, nil
}

// SubmitDocument records the counterpart's upload and moves the request
// from pending to submitted. The upload itself happens through the
// external document store; only the resulting URL lands here.
func (e *Engine) SubmitDocument(ctx context.Context, requestID, documentURL string, actor models.Actor) error {
	if !validator.NotBlank(documentURL) {
		return NewValidationError("A document URL is required")
	}

	req, found, err := e.db.DocumentRequest().GetOne(requestID)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "document request", ID: requestID}
	}

	if req.Status != models.RequestStatusPending {
		return &ConflictError{Message: fmt.Sprintf("document request is already %s", req.Status)}
	}

	return e.runInTx(ctx, func(tx *sql.Tx) error {
		submitted, err := e.db.DocumentRequest().MarkSubmitted(requestID, documentURL, tx)
		if err != nil {
			return err
		}
		if !submitted {
			return &ConflictError{Message: "document request already has a submission"}
		}

		return e.audit(tx, actor, models.AuditActionDocumentSubmitted, requestID, req.DocumentType, documentURL)
	})
}

type documentRequestHandler struct {
	engine *Engine
}

func (h *documentRequestHandler) Fetch(id string) (*models.ApprovalRequest, bool, error) {
	req, found, err := h.engine.db.DocumentRequest().GetOne(id)
	if err != nil || !found {
		return nil, false, err
	}

	return &models.ApprovalRequest{
		ID:          req.ID,
		Kind:        models.KindDocumentRequest,
		AccountID:   req.AccountID,
		Status:      req.Status,
		RequestedBy: req.RequestedBy,
		RequestedAt: req.RequestedAt,
		Payload:     req,
	}, true, nil
}

// A document request is only reviewable once the counterpart has uploaded.
func (h *documentRequestHandler) Reviewable(req *models.ApprovalRequest) error {
	if req.Status != models.RequestStatusSubmitted {
		return &ConflictError{Message: "document request has no submission to review"}
	}
	return nil
}

// Either terminal outcome closes the request, so both clear the account's
// pendingDocumentRequest marker.
func (h *documentRequestHandler) OnApprove(tx *sql.Tx, req *models.ApprovalRequest, opts ApproveOptions, actor models.Actor) (string, error) {
	if err := h.clearPendingMarker(tx, req); err != nil {
		return "", err
	}

	request := req.Payload.(*models.DocumentRequest)
	return fmt.Sprintf("%s document accepted", request.DocumentType), nil
}

func (h *documentRequestHandler) OnReject(tx *sql.Tx, req *models.ApprovalRequest, reason string, actor models.Actor) (string, error) {
	if err := h.clearPendingMarker(tx, req); err != nil {
		return "", err
	}

	request := req.Payload.(*models.DocumentRequest)
	return fmt.Sprintf("%s document rejected", request.DocumentType), nil
}

func (h *documentRequestHandler) clearPendingMarker(tx *sql.Tx, req *models.ApprovalRequest) error {
	account, found, err := h.engine.db.Account().GetOne(req.AccountID)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "account", ID: req.AccountID}
	}

	ban, err := h.engine.currentBan(account.ID)
	if err != nil {
		return err
	}

	_, err = h.engine.applyRestrictionDelta(tx, account, models.RestrictionSourceDocumentRequest, req.ID, nil, ban)
	return err
}

func (h *documentRequestHandler) MarkReviewed(tx *sql.Tx, id, status string, actor models.Actor, note *string) error {
	updated, err := h.engine.db.DocumentRequest().MarkReviewed(id, status, actor.ID, note, tx)
	if err != nil {
		return err
	}
	if !updated {
		return &ConflictError{Message: "request was reviewed by another governor"}
	}
	return nil
}
