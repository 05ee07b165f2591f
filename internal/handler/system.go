package handler

import (
	"net/http"

	"github.com/veltacap/custodian/internal/errHandler"
	"github.com/veltacap/custodian/internal/governance"
	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
	"github.com/veltacap/custodian/internal/request"
	"github.com/veltacap/custodian/internal/response"
)

type systemHandler struct {
	engine       *governance.Engine
	controlsRepo repository.ControlsRepository
	errHandler   *errHandler.ErrorRepository
}

func NewSystemHandler(engine *governance.Engine, controlsRepo repository.ControlsRepository, errHandler *errHandler.ErrorRepository) *systemHandler {
	return &systemHandler{
		engine:       engine,
		controlsRepo: controlsRepo,
		errHandler:   errHandler,
	}
}

func controlsResponse(controls *models.SystemControls) map[string]any {
	capabilities := make(map[string]bool, len(models.CapabilityKeys))
	for _, key := range models.CapabilityKeys {
		capabilities[key] = *controls.Capability(key)
	}

	return map[string]any{
		"capabilities":        capabilities,
		"restricted_mode":     controls.RestrictedMode,
		"restriction_level":   controls.RestrictionLevel,
		"restriction_reason":  controls.RestrictionReason,
		"allowed_pages":       []string(controls.AllowedPages),
		"maintenance_mode":    controls.MaintenanceMode,
		"maintenance_message": controls.MaintenanceMessage,
	}
}

func (h *systemHandler) HandleControlsGet(w http.ResponseWriter, r *http.Request) {
	controls, err := h.controlsRepo.Get()
	if err != nil {
		h.errHandler.ServerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, controlsResponse(controls), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *systemHandler) HandleEmergencyShutdown(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	controls, err := h.engine.EmergencyShutdown(r.Context(), input.Reason, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, controlsResponse(controls), "Emergency shutdown applied", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *systemHandler) HandleRestoreAll(w http.ResponseWriter, r *http.Request) {
	controls, err := h.engine.RestoreAll(r.Context(), requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, controlsResponse(controls), "All capabilities restored", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *systemHandler) HandleCapabilityToggle(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var input struct {
		Enabled bool `json:"enabled"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	controls, err := h.engine.ToggleCapability(r.Context(), key, input.Enabled, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, controlsResponse(controls), "Capability updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *systemHandler) HandleRestrictionLevelSet(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Level  string `json:"level"`
		Reason string `json:"reason"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	controls, err := h.engine.SetRestrictionLevel(r.Context(), input.Level, input.Reason, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, controlsResponse(controls), "Restriction level updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *systemHandler) HandleMaintenanceModeSet(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Enabled bool   `json:"enabled"`
		Message string `json:"message"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	controls, err := h.engine.SetMaintenanceMode(r.Context(), input.Enabled, input.Message, requestActor(r))
	if err != nil {
		h.errHandler.GovernanceError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, controlsResponse(controls), "Maintenance mode updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
