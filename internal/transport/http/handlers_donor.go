package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/donor"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/platform/httputil"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

func (h *Handler) handleRegisterDonor(w http.ResponseWriter, r *http.Request) {
	var params donor.RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.donors.Register(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, "failed to register donor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleGetDonor(w http.ResponseWriter, r *http.Request) {
	donorID, err := id.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.donors.Get(r.Context(), donorID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load donor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.donorView(r, d))
}

func (h *Handler) handleUpdateDonor(w http.ResponseWriter, r *http.Request) {
	donorID, err := id.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var params donor.RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.donors.Update(r.Context(), donorID, params)
	if err != nil {
		h.writeServiceError(w, r, "failed to update donor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleListDonors(w http.ResponseWriter, r *http.Request) {
	// Lookup by national id when given, full listing otherwise.
	if nationalID := r.URL.Query().Get("national_id"); nationalID != "" {
		d, err := h.donors.GetByNationalID(r.Context(), nationalID)
		if err != nil {
			h.writeServiceError(w, r, "failed to load donor", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, []*donor.Donor{d})
		return
	}

	donors, err := h.donors.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list donors", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, donors)
}

func (h *Handler) handleLocateDonors(w http.ResponseWriter, r *http.Request) {
	bloodType, err := id.ParseBloodType(r.URL.Query().Get("blood_type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hits, err := h.donors.LocateForRequest(r.Context(), bloodType, h.donations)
	if err != nil {
		h.writeServiceError(w, r, "failed to locate donors", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hits)
}

// donorProfile decorates a donor with donation-derived figures.
type donorProfile struct {
	*donor.Donor
	Age            int        `json:"age"`
	TotalDonatedML int        `json:"total_donated_ml"`
	TotalUnits     float64    `json:"total_units"`
	LastDonation   *time.Time `json:"last_donation,omitempty"`
}

func (h *Handler) donorView(r *http.Request, d *donor.Donor) donorProfile {
	ctx := r.Context()
	profile := donorProfile{Donor: d, Age: d.Age(requestcontext.Now(ctx))}

	history, err := h.donations.History(ctx, d.ID)
	if err != nil {
		// Derived figures are best-effort decoration; the donor itself loads.
		h.logger.WarnContext(ctx, "failed to load donation history for profile",
			"donor_id", d.ID.String(),
			"error", err,
		)
		return profile
	}
	for _, rec := range history {
		if !rec.Approved {
			continue
		}
		profile.TotalDonatedML += rec.VolumeML
		if profile.LastDonation == nil || rec.DonationDate.After(*profile.LastDonation) {
			date := rec.DonationDate
			profile.LastDonation = &date
		}
	}
	profile.TotalUnits = (&donation.Donation{VolumeML: profile.TotalDonatedML}).Units()
	return profile
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	httputil.WriteError(w, err)
}
