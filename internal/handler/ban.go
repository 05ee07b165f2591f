package handler

import (
	"net/http"
	"time"

	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/governance"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/request"
	"github.com/veltacap/custodian/internal/response"
)

type banHandler struct {
	engine     *governance.Engine
	banRepo    repository.BanRepository
	errHandler *errHandler.ErrorRepository
}

func NewBanHandler(engine *governance.Engine, banRepo repository.BanRepository, errHandler *errHandler.ErrorRepository) *banHandler {
	return &banHandler{
		engine:     engine,
		banRepo:    banRepo,
		errHandler: errHandler,
	}
}

func (h *banHandler) HandleBanCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AccountID string     `json:"account_id"`
		BanType   string     `json:"ban_type"`
		Reason    string     `json:"reason"`
		ExpiresAt *time.Time `json:"expires_at"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	banID, err := h.engine.CreateBan(r.Context(), governance.CreateBanInput{
		AccountID: input.AccountID,
		BanType:   input.BanType,
		Reason:    input.Reason,
		ExpiresAt: input.ExpiresAt,
	}, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	data := map[string]string{"id": banID}
	err = response.JSONCreatedResponse(w, data, "Shadow ban applied")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *banHandler) HandleBanRemove(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	err := h.engine.RemoveBan(r.Context(), accountID, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, nil, "Shadow ban removed", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *banHandler) HandleBanGet(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	ban, found, err := h.banRepo.GetOne(accountID)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}
	if !found || !ban.IsActive {
		h.errHandler.NotFound(w, r)
		return
	}

	data := map[string]any{
		"id":         ban.ID,
		"account_id": ban.AccountID,
		"ban_type":   ban.BanType,
		"reason":     ban.Reason,
		"banned_by":  ban.BannedBy,
		"banned_at":  ban.BannedAt.Format(time.RFC3339),
		"expired":    ban.Expired(time.Now()),
	}
	if ban.ExpiresAt.Valid {
		data["expires_at"] = ban.ExpiresAt.Time.Format(time.RFC3339)
	}

	err = response.JSONOkResponse(w, data, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
