package handler

import (
	"net/http"
	"time"

	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/response"
)

type auditHandler struct {
	auditRepo  repository.AuditRepository
	errHandler *errHandler.ErrorRepository
}

func NewAuditHandler(auditRepo repository.AuditRepository, errHandler *errHandler.ErrorRepository) *auditHandler {
	return &auditHandler{
		auditRepo:  auditRepo,
		errHandler: errHandler,
	}
}

// HandleAuditLogsList returns the governance audit trail, newest first,
// optionally filtered by actor, action or target.
func (h *auditHandler) HandleAuditLogsList(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	entries, err := h.auditRepo.List(repository.AuditFilters{
		ActorID:  r.URL.Query().Get("actor_id"),
		Action:   r.URL.Query().Get("action"),
		TargetID: r.URL.Query().Get("target_id"),
		Limit:    queryValues.Limit,
		Offset:   queryValues.Offset,
	})
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	list := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		list = append(list, map[string]any{
			"id":          entry.ID,
			"actor_id":    entry.ActorID,
			"actor_name":  entry.ActorName,
			"action":      entry.Action,
			"target_id":   entry.TargetID,
			"target_name": entry.TargetName,
			"details":     entry.Details,
			"created_at":  entry.CreatedAt.Format(time.RFC3339),
		})
	}

	err = response.JSONOkResponse(w, list, "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
