package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yazedalasad/bloodbank/internal/inventory"
	"github.com/yazedalasad/bloodbank/internal/request"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/platform/httputil"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

// requestView decorates a blood request with its fulfillment outcome and the
// overdue flag.
type requestView struct {
	*request.BloodRequest
	Overdue bool              `json:"overdue"`
	Result  *inventory.Result `json:"result,omitempty"`
}

func (h *Handler) requestView(r *http.Request, br *request.BloodRequest, result *inventory.Result) requestView {
	return requestView{
		BloodRequest: br,
		Overdue:      br.IsOverdue(requestcontext.Now(r.Context())),
		Result:       result,
	}
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var params request.SubmitParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	br, result, err := h.requests.Submit(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, "failed to submit blood request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.requestView(r, br, result))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	br, err := h.requests.Get(r.Context(), requestID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load blood request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.requestView(r, br, nil))
}

func (h *Handler) handleRetryRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	br, result, err := h.requests.Retry(r.Context(), requestID)
	if err != nil {
		h.writeServiceError(w, r, "failed to retry blood request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.requestView(r, br, result))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	h.writeRequestList(w, r, h.requests.List)
}

func (h *Handler) handleListOpenRequests(w http.ResponseWriter, r *http.Request) {
	h.writeRequestList(w, r, h.requests.ListOpen)
}

func (h *Handler) writeRequestList(w http.ResponseWriter, r *http.Request, load func(ctx context.Context) ([]*request.BloodRequest, error)) {
	requests, err := load(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list blood requests", err)
		return
	}
	views := make([]requestView, 0, len(requests))
	for _, br := range requests {
		views = append(views, h.requestView(r, br, nil))
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleOpenEmergencyRequest(w http.ResponseWriter, r *http.Request) {
	var params request.EmergencyParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	e, err := h.requests.OpenEmergency(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, "failed to open emergency request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleGetEmergencyRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	e, err := h.requests.GetEmergency(r.Context(), requestID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load emergency request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleListEmergencyRequests(w http.ResponseWriter, r *http.Request) {
	active, err := h.requests.ListActiveEmergencies(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list emergency requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, active)
}
