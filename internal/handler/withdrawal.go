package handler

import (
	"net/http"
	"time"

	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/response"
)

type withdrawalHandler struct {
	withdrawalRepo repository.WithdrawalRepository
	errHandler     *errHandler.ErrorRepository
}

func NewWithdrawalHandler(withdrawalRepo repository.WithdrawalRepository, errHandler *errHandler.ErrorRepository) *withdrawalHandler {
	return &withdrawalHandler{
		withdrawalRepo: withdrawalRepo,
		errHandler:     errHandler,
	}
}

func withdrawalResponse(withdrawal *models.Withdrawal) map[string]any {
	item := map[string]any{
		"id":               withdrawal.ID,
		"account_id":       withdrawal.AccountID,
		"amount":           withdrawal.Amount.StringFixed(2),
		"destination":      withdrawal.Destination,
		"status":           withdrawal.Status,
		"reference_number": withdrawal.ReferenceNumber,
		"created_at":       withdrawal.CreatedAt.Format(time.RFC3339),
	}
	if withdrawal.UpdatedAt.Valid {
		item["updated_at"] = withdrawal.UpdatedAt.Time.Format(time.RFC3339)
	}
	return item
}

func (h *withdrawalHandler) HandleWithdrawalsList(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	withdrawals, err := h.withdrawalRepo.List(queryValues.Status, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	list := make([]map[string]any, 0, len(withdrawals))
	for i := range withdrawals {
		list = append(list, withdrawalResponse(&withdrawals[i]))
	}

	err = response.JSONOkResponse(w, list, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *withdrawalHandler) HandleWithdrawalGet(w http.ResponseWriter, r *http.Request) {
	withdrawal, found, err := h.withdrawalRepo.GetOne(r.PathValue("id"))
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.errHandler.NotFound(w, r)
		return
	}

	err = response.JSONOkResponse(w, withdrawalResponse(withdrawal), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
