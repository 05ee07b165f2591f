package handler

import (
	"net/http"
	"time"

	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/governance"
	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/request"
	"github.com/veltacap/custodian/internal/response"
)

type accountHandler struct {
	engine     *governance.Engine
	db         repository.Database
	errHandler *errHandler.ErrorRepository
}

func NewAccountHandler(engine *governance.Engine, db repository.Database, errHandler *errHandler.ErrorRepository) *accountHandler {
	return &accountHandler{
		engine:     engine,
		db:         db,
		errHandler: errHandler,
	}
}

type accountResponse struct {
	ID           string         `json:"id"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Email        string         `json:"email"`
	PhoneNumber  string         `json:"phone_number"`
	Status       string         `json:"status"`
	IsActive     bool           `json:"is_active"`
	Balance      string         `json:"balance"`
	Restrictions map[string]any `json:"restrictions"`
	CreatedAt    string         `json:"created_at"`
}

func newAccountResponse(account *models.Account) accountResponse {
	return accountResponse{
		ID:           account.ID,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		Email:        account.Email,
		PhoneNumber:  account.PhoneNumber,
		Status:       account.Status,
		IsActive:     account.IsActive,
		Balance:      account.Balance.StringFixed(2),
		Restrictions: account.Restrictions,
		CreatedAt:    account.CreatedAt.Format(time.RFC3339),
	}
}

func (h *accountHandler) HandleAccountsList(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	accounts, err := h.db.Account().List(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	list := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		list = append(list, newAccountResponse(&accounts[i]))
	}

	err = response.JSONOkResponse(w, list, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

// HandleAccountGet serves the account through the engine's serve-time
// evaluation, so restrictions sourced from a ban that has since expired do
// not linger until the next governance write.
func (h *accountHandler) HandleAccountGet(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	account, found, err := h.engine.AccountState(accountID)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.errHandler.NotFound(w, r)
		return
	}

	err = response.JSONOkResponse(w, newAccountResponse(account), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

// HandleAccountRestrictionsList returns the raw source-tracked entries
// behind an account's effective restriction map, so operators can see which
// flag, ban or manual action asserted each key.
func (h *accountHandler) HandleAccountRestrictionsList(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	_, found, err := h.db.Account().GetOne(accountID)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.errHandler.NotFound(w, r)
		return
	}

	entries, err := h.db.Restriction().ListForAccount(accountID)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	list := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		list = append(list, map[string]any{
			"source_kind": entry.SourceKind,
			"source_id":   entry.SourceID,
			"key":         entry.Key,
			"message":     entry.Message,
		})
	}

	err = response.JSONOkResponse(w, list, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *accountHandler) HandleManualRestrictionSet(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	var input struct {
		Key     string `json:"key"`
		Enabled bool   `json:"enabled"`
		Message string `json:"message"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	err = h.engine.SetManualRestriction(r.Context(), accountID, input.Key, input.Enabled, input.Message, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, nil, "Restriction updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *accountHandler) HandleBankAccountCreate(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	var input struct {
		BankName      string `json:"bank_name"`
		AccountName   string `json:"account_name"`
		AccountNumber string `json:"account_number"`
		Currency      string `json:"currency"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	bankID, err := h.engine.AddBankAccount(r.Context(), governance.AddBankAccountInput{
		AccountID:     accountID,
		BankName:      input.BankName,
		AccountName:   input.AccountName,
		AccountNumber: input.AccountNumber,
		Currency:      input.Currency,
	}, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	data := map[string]string{"id": bankID}
	err = response.JSONCreatedResponse(w, data, "Bank account added")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *accountHandler) HandleAccountWalletsList(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	wallets, err := h.db.CryptoWallet().ListByAccount(accountID)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	list := make([]map[string]any, 0, len(wallets))
	for _, wallet := range wallets {
		item := map[string]any{
			"id":                  wallet.ID,
			"label":               wallet.Label,
			"network":             wallet.Network,
			"address":             wallet.Address,
			"verification_status": wallet.VerificationStatus,
		}
		if wallet.RejectionReason.Valid {
			item["rejection_reason"] = wallet.RejectionReason.String
		}
		list = append(list, item)
	}

	err = response.JSONOkResponse(w, list, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *accountHandler) HandleAccountLedgerList(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	queryValues := retrieveUrlQueryValues(r)

	entries, err := h.db.Ledger().ListByAccount(accountID, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	list := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		list = append(list, map[string]any{
			"id":               entry.ID,
			"entry_type":       entry.EntryType,
			"amount":           entry.Amount.StringFixed(2),
			"reference_number": entry.ReferenceNumber,
			"reason":           entry.Reason,
			"created_at":       entry.CreatedAt.Format(time.RFC3339),
		})
	}

	err = response.JSONOkResponse(w, list, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
