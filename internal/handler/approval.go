package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/file"
	"github.com/veltacap/custodian/internal/governance"
	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/request"
	"github.com/veltacap/custodian/internal/response"
)

// maxDocumentUploadBytes caps document submissions at 10 MB.
const maxDocumentUploadBytes = 10 << 20

type approvalHandler struct {
	engine        *governance.Engine
	db            repository.Database
	documentStore *file.DocumentStore
	errHandler    *errHandler.ErrorRepository
}

func NewApprovalHandler(engine *governance.Engine, db repository.Database, documentStore *file.DocumentStore, errHandler *errHandler.ErrorRepository) *approvalHandler {
	return &approvalHandler{
		engine:        engine,
		db:            db,
		documentStore: documentStore,
		errHandler:    errHandler,
	}
}

func (h *approvalHandler) HandleWalletChangeCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AccountID  string `json:"account_id"`
		ChangeType string `json:"change_type"`
		WalletID   string `json:"wallet_id"`
		Label      string `json:"label"`
		Network    string `json:"network"`
		Address    string `json:"address"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	reqID, err := h.engine.CreateWalletChangeRequest(r.Context(), governance.CreateWalletChangeInput{
		AccountID:  input.AccountID,
		ChangeType: input.ChangeType,
		WalletID:   input.WalletID,
		Label:      input.Label,
		Network:    input.Network,
		Address:    input.Address,
	}, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	data := map[string]string{"id": reqID}
	err = response.JSONCreatedResponse(w, data, "Wallet change request submitted")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *approvalHandler) HandleAccountCreationCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstName      string                    `json:"first_name"`
		LastName       string                    `json:"last_name"`
		Email          string                    `json:"email"`
		PhoneNumber    string                    `json:"phone_number"`
		InitialDeposit decimal.Decimal           `json:"initial_deposit"`
		Documents      models.ApplicantDocuments `json:"documents"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	reqID, err := h.engine.CreateAccountCreationRequest(r.Context(), governance.CreateAccountRequestInput{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		InitialDeposit: input.InitialDeposit,
		Documents:      input.Documents,
	}, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	data := map[string]string{"id": reqID}
	err = response.JSONCreatedResponse(w, data, "Account creation request submitted")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *approvalHandler) HandleWithdrawalOverrideCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WithdrawalID      string   `json:"withdrawal_id"`
		DesiredStatus     string   `json:"desired_status"`
		RequiredDocuments []string `json:"required_documents"`
		Note              string   `json:"note"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	reqID, err := h.engine.CreateWithdrawalOverrideRequest(r.Context(), governance.CreateWithdrawalOverrideInput{
		WithdrawalID:      input.WithdrawalID,
		DesiredStatus:     input.DesiredStatus,
		RequiredDocuments: input.RequiredDocuments,
		Note:              input.Note,
	}, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	data := map[string]string{"id": reqID}
	err = response.JSONCreatedResponse(w, data, "Withdrawal override request submitted")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *approvalHandler) HandleDocumentRequestCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AccountID    string     `json:"account_id"`
		DocumentType string     `json:"document_type"`
		Priority     string     `json:"priority"`
		DueDate      *time.Time `json:"due_date"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	reqID, err := h.engine.CreateDocumentRequest(r.Context(), governance.CreateDocumentRequestInput{
		AccountID:    input.AccountID,
		DocumentType: input.DocumentType,
		Priority:     input.Priority,
		DueDate:      input.DueDate,
	}, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	data := map[string]string{"id": reqID}
	err = response.JSONCreatedResponse(w, data, "Document request created")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

// HandleDocumentSubmit accepts the counterpart's multipart upload, stores
// the file in the document store and records the submission.
func (h *approvalHandler) HandleDocumentSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")

	if err := r.ParseMultipartForm(maxDocumentUploadBytes); err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	uploaded, header, err := r.FormFile("document")
	if err != nil {
		h.errHandler.BadRequest(w, r, fmt.Errorf("a document file is required: %w", err))
		return
	}
	defer uploaded.Close()

	documentURL, err := h.documentStore.Upload(r.Context(), uploaded)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	err = h.engine.SubmitDocument(r.Context(), requestID, documentURL, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	data := map[string]string{
		"document_url": documentURL,
		"file_name":    header.Filename,
	}
	err = response.JSONOkResponse(w, data, "Document submitted for review", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *approvalHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseApprovalKind(r.PathValue("kind"))
	if !ok {
		h.errHandler.NotFound(w, r)
		return
	}

	var input struct {
		Conditions string `json:"conditions"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	err = h.engine.Approve(r.Context(), kind, r.PathValue("id"), governance.ApproveOptions{
		Conditions: input.Conditions,
	}, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, nil, "Request approved", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *approvalHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseApprovalKind(r.PathValue("kind"))
	if !ok {
		h.errHandler.NotFound(w, r)
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	err = h.engine.Reject(r.Context(), kind, r.PathValue("id"), input.Reason, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, nil, "Request rejected", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

// HandleRequestsList returns the review queue for one approval kind,
// filtered by status (pending when unspecified).
func (h *approvalHandler) HandleRequestsList(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseApprovalKind(r.PathValue("kind"))
	if !ok {
		h.errHandler.NotFound(w, r)
		return
	}

	queryValues := retrieveUrlQueryValues(r)
	status := queryValues.Status
	if status == "" {
		status = models.RequestStatusPending
	}

	var (
		list any
		err  error
	)

	switch kind {
	case models.KindCryptoWallet:
		list, err = h.walletChangeList(status, queryValues)
	case models.KindAccountCreation:
		list, err = h.accountCreationList(status, queryValues)
	case models.KindWithdrawalOverride:
		list, err = h.withdrawalOverrideList(status, queryValues)
	case models.KindDocumentRequest:
		list, err = h.documentRequestList(status, queryValues)
	}
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, list, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *approvalHandler) walletChangeList(status string, q *queryStringValues) (any, error) {
	requests, err := h.db.WalletChange().ListByStatus(status, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(requests))
	for _, req := range requests {
		item := map[string]any{
			"id":           req.ID,
			"account_id":   req.AccountID,
			"change_type":  req.ChangeType,
			"label":        req.Label,
			"network":      req.Network,
			"address":      req.Address,
			"status":       req.Status,
			"requested_by": req.RequestedBy,
			"requested_at": req.RequestedAt.Format(time.RFC3339),
		}
		if req.WalletID.Valid {
			item["wallet_id"] = req.WalletID.String
		}
		list = append(list, item)
	}
	return list, nil
}

func (h *approvalHandler) accountCreationList(status string, q *queryStringValues) (any, error) {
	requests, err := h.db.AccountCreation().ListByStatus(status, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(requests))
	for _, req := range requests {
		item := map[string]any{
			"id":              req.ID,
			"first_name":      req.FirstName,
			"last_name":       req.LastName,
			"email":           req.Email,
			"initial_deposit": req.InitialDeposit.StringFixed(2),
			"documents":       req.Documents,
			"status":          req.Status,
			"requested_by":    req.RequestedBy,
			"requested_at":    req.RequestedAt.Format(time.RFC3339),
		}
		if req.CreatedAccountID.Valid {
			item["created_account_id"] = req.CreatedAccountID.String
		}
		list = append(list, item)
	}
	return list, nil
}

func (h *approvalHandler) withdrawalOverrideList(status string, q *queryStringValues) (any, error) {
	requests, err := h.db.WithdrawalOverride().ListByStatus(status, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(requests))
	for _, req := range requests {
		list = append(list, map[string]any{
			"id":                 req.ID,
			"withdrawal_id":      req.WithdrawalID,
			"account_id":         req.AccountID,
			"desired_status":     req.DesiredStatus,
			"required_documents": []string(req.RequiredDocuments),
			"note":               req.Note,
			"status":             req.Status,
			"requested_by":       req.RequestedBy,
			"requested_at":       req.RequestedAt.Format(time.RFC3339),
		})
	}
	return list, nil
}

func (h *approvalHandler) documentRequestList(status string, q *queryStringValues) (any, error) {
	requests, err := h.db.DocumentRequest().ListByStatus(status, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(requests))
	for _, req := range requests {
		item := map[string]any{
			"id":            req.ID,
			"account_id":    req.AccountID,
			"document_type": req.DocumentType,
			"priority":      req.Priority,
			"status":        req.Status,
			"requested_by":  req.RequestedBy,
			"requested_at":  req.RequestedAt.Format(time.RFC3339),
		}
		if req.DueDate.Valid {
			item["due_date"] = req.DueDate.Time.Format(time.RFC3339)
		}
		if req.DocumentURL.Valid {
			item["document_url"] = req.DocumentURL.String
		}
		if req.SubmittedAt.Valid {
			item["submitted_at"] = req.SubmittedAt.Time.Format(time.RFC3339)
		}
		list = append(list, item)
	}
	return list, nil
}
