package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/yazedalasad/bloodbank/internal/inventory"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/platform/httputil"
)

func (h *Handler) handleStockReport(w http.ResponseWriter, r *http.Request) {
	report, err := inventory.Report(r.Context(), h.stock)
	if err != nil {
		h.writeServiceError(w, r, "failed to build stock report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleEmergencyAllocate(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Units int `json:"units"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	allocation, err := h.allocator.Allocate(r.Context(), params.Units)
	if err != nil {
		h.writeServiceError(w, r, "emergency allocation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, allocation)
}
