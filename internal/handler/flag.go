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

type flagHandler struct {
	engine     *governance.Engine
	flagRepo   repository.FlagRepository
	errHandler *errHandler.ErrorRepository
}

func NewFlagHandler(engine *governance.Engine, flagRepo repository.FlagRepository, errHandler *errHandler.ErrorRepository) *flagHandler {
	return &flagHandler{
		engine:     engine,
		flagRepo:   flagRepo,
		errHandler: errHandler,
	}
}

func (h *flagHandler) HandleFlagCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AccountID        string                  `json:"account_id"`
		FlagType         string                  `json:"flag_type"`
		Severity         string                  `json:"severity"`
		Description      string                  `json:"description"`
		AutoRestrictions models.AutoRestrictions `json:"auto_restrictions"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	flagID, err := h.engine.CreateFlag(r.Context(), governance.CreateFlagInput{
		AccountID:        input.AccountID,
		FlagType:         input.FlagType,
		Severity:         input.Severity,
		Description:      input.Description,
		AutoRestrictions: input.AutoRestrictions,
	}, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	data := map[string]string{"id": flagID}
	err = response.JSONCreatedResponse(w, data, "Flag created successfully")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *flagHandler) HandleFlagResolve(w http.ResponseWriter, r *http.Request) {
	flagID := r.PathValue("id")

	var input struct {
		ResolutionNotes string `json:"resolution_notes"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	err = h.engine.ResolveFlag(r.Context(), flagID, input.ResolutionNotes, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, nil, "Flag resolved successfully", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

type flagResponse struct {
	ID               string                  `json:"id"`
	AccountID        string                  `json:"account_id"`
	FlagType         string                  `json:"flag_type"`
	Severity         string                  `json:"severity"`
	Description      string                  `json:"description"`
	Status           string                  `json:"status"`
	AutoRestrictions models.AutoRestrictions `json:"auto_restrictions"`
	CreatedBy        string                  `json:"created_by"`
	CreatedAt        string                  `json:"created_at"`
	ResolvedBy       string                  `json:"resolved_by,omitempty"`
	ResolvedAt       string                  `json:"resolved_at,omitempty"`
	ResolutionNotes  string                  `json:"resolution_notes,omitempty"`
}

func newFlagResponse(flag *models.Flag) flagResponse {
	resp := flagResponse{
		ID:               flag.ID,
		AccountID:        flag.AccountID,
		FlagType:         flag.FlagType,
		Severity:         flag.Severity,
		Description:      flag.Description,
		Status:           flag.Status,
		AutoRestrictions: flag.AutoRestrictions,
		CreatedBy:        flag.CreatedBy,
		CreatedAt:        flag.CreatedAt.Format(time.RFC3339),
	}
	if flag.ResolvedBy.Valid {
		resp.ResolvedBy = flag.ResolvedBy.String
	}
	if flag.ResolvedAt.Valid {
		resp.ResolvedAt = flag.ResolvedAt.Time.Format(time.RFC3339)
	}
	if flag.ResolutionNotes.Valid {
		resp.ResolutionNotes = flag.ResolutionNotes.String
	}
	return resp
}

func (h *flagHandler) HandleAccountFlagsList(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	var (
		flags []models.Flag
		err   error
	)

	if r.URL.Query().Get("status") == models.FlagStatusActive {
		flags, err = h.flagRepo.ListActiveByAccount(accountID)
	} else {
		flags, err = h.flagRepo.ListByAccount(accountID)
	}
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	list := make([]flagResponse, 0, len(flags))
	for i := range flags {
		list = append(list, newFlagResponse(&flags[i]))
	}

	err = response.JSONOkResponse(w, list, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
