package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yazedalasad/bloodbank/internal/donation"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/platform/httputil"
)

func (h *Handler) handleRecordDonation(w http.ResponseWriter, r *http.Request) {
	var params donation.RecordParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.donations.Record(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, "failed to record donation", err)
		return
	}
	// A deferred donation is persisted not-approved; the 201 carries the
	// record so the caller can see the rejection note.
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleDonationHistory(w http.ResponseWriter, r *http.Request) {
	donorID, err := id.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	history, err := h.donations.History(r.Context(), donorID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load donation history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleEligibility(w http.ResponseWriter, r *http.Request) {
	donorID, err := id.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := r.Context()
	canDonate, err := h.donations.CanDonate(ctx, donorID)
	if err != nil {
		h.writeServiceError(w, r, "failed to evaluate eligibility", err)
		return
	}
	days, err := h.donations.DaysUntilEligible(ctx, donorID)
	if err != nil {
		h.writeServiceError(w, r, "failed to evaluate eligibility", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"donor_id":            donorID,
		"can_donate":          canDonate,
		"days_until_eligible": days,
	})
}
