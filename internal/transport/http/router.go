// Package httpapi is the thin HTTP layer. Handlers decode JSON, delegate to
// domain services, and translate domain errors; no business logic lives here.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/donor"
	"github.com/yazedalasad/bloodbank/internal/inventory"
	"github.com/yazedalasad/bloodbank/internal/platform/middleware"
	"github.com/yazedalasad/bloodbank/internal/request"
	"github.com/yazedalasad/bloodbank/pkg/platform/httputil"
)

// Handler bundles the domain services behind the API.
type Handler struct {
	logger    *slog.Logger
	validator middleware.TokenValidator

	donors    *donor.Service
	donations *donation.Service
	requests  *request.Service
	allocator *inventory.Allocator
	stock     inventory.StockReader
}

func NewHandler(
	logger *slog.Logger,
	validator middleware.TokenValidator,
	donors *donor.Service,
	donations *donation.Service,
	requests *request.Service,
	allocator *inventory.Allocator,
	stock inventory.StockReader,
) *Handler {
	return &Handler{
		logger:    logger,
		validator: validator,
		donors:    donors,
		donations: donations,
		requests:  requests,
		allocator: allocator,
		stock:     stock,
	}
}

// NewRouter wires all endpoints. Staff endpoints sit behind the doctor role
// gate; the anonymous emergency request intake and the operational endpoints
// do not.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Anonymous emergency intake: no token, only a contact.
		r.Post("/api/v1/emergency-requests", h.handleOpenEmergencyRequest)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.validator, h.logger, middleware.RoleDoctor))

			r.Post("/api/v1/donors", h.handleRegisterDonor)
			r.Get("/api/v1/donors", h.handleListDonors)
			r.Get("/api/v1/donors/locate", h.handleLocateDonors)
			r.Get("/api/v1/donors/{donorID}", h.handleGetDonor)
			r.Put("/api/v1/donors/{donorID}", h.handleUpdateDonor)
			r.Get("/api/v1/donors/{donorID}/donations", h.handleDonationHistory)
			r.Get("/api/v1/donors/{donorID}/eligibility", h.handleEligibility)

			r.Post("/api/v1/donations", h.handleRecordDonation)

			r.Post("/api/v1/requests", h.handleSubmitRequest)
			r.Get("/api/v1/requests", h.handleListRequests)
			r.Get("/api/v1/requests/open", h.handleListOpenRequests)
			r.Get("/api/v1/requests/{requestID}", h.handleGetRequest)
			r.Post("/api/v1/requests/{requestID}/retry", h.handleRetryRequest)

			r.Get("/api/v1/emergency-requests", h.handleListEmergencyRequests)
			r.Get("/api/v1/emergency-requests/{requestID}", h.handleGetEmergencyRequest)
			r.Post("/api/v1/emergency-allocations", h.handleEmergencyAllocate)

			r.Get("/api/v1/inventory/report", h.handleStockReport)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
