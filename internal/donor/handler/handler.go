package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"helpinghands/internal/donor/models"
	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/platform/httputil"
	"helpinghands/pkg/requestcontext"
)

// Service defines the donor operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Donor, error)
	Search(ctx context.Context, bloodGroup, city string) ([]*models.Donor, error)
	ListAll(ctx context.Context) ([]*models.Donor, error)
	SetAvailability(ctx context.Context, id domain.DonorID, available bool) (*models.Donor, error)
	RecordDonation(ctx context.Context, id domain.DonorID, at time.Time) (*models.Donor, error)
}

// Handler serves the donor endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a donor Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public donor routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/register", h.HandleRegister)
	r.Get("/api/search", h.HandleSearch)
	r.Patch("/api/donor/{id}/availability", h.HandleSetAvailability)
	r.Post("/api/donor/{id}/donation", h.HandleRecordDonation)
}

// RegisterAdmin mounts the donor listing, which callers may gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/api/donors", h.HandleListDonors)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const failure = "Registration failed"

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, failure)
	if !ok {
		return
	}

	donor, err := h.service.Register(ctx, *req)
	if err != nil {
		h.logFailure(ctx, "donor registration failed", err)
		httputil.WriteError(w, failure, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RegisterResponse{
		Success: true,
		Message: "Successfully registered as a blood donor!",
		DonorID: donor.ID,
	})
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	donors, err := h.service.Search(ctx, queryBloodGroup(q.Get("bloodGroup")), q.Get("city"))
	if err != nil {
		h.logFailure(ctx, "donor search failed", err)
		httputil.WriteError(w, "Search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newDonorList(donors))
}

func (h *Handler) HandleListDonors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donors, err := h.service.ListAll(ctx)
	if err != nil {
		h.logFailure(ctx, "list donors failed", err)
		httputil.WriteError(w, "Failed to fetch donors", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newDonorList(donors))
}

func (h *Handler) HandleSetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const failure = "Update failed"

	id, ok := h.donorID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AvailabilityRequest](w, r, h.logger, failure)
	if !ok {
		return
	}

	donor, err := h.service.SetAvailability(ctx, id, *req.Available)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteMessage(w, http.StatusNotFound, "Donor not found")
			return
		}
		h.logFailure(ctx, "availability update failed", err)
		httputil.WriteError(w, failure, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, DonorResponse{Success: true, Message: "Availability updated", Donor: donor})
}

func (h *Handler) HandleRecordDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const failure = "Donation update failed"

	id, ok := h.donorID(w, r)
	if !ok {
		return
	}

	// The body is optional.
	var req DonationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, failure, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	var at time.Time
	if req.DonatedAt != nil {
		at = *req.DonatedAt
	}

	donor, err := h.service.RecordDonation(ctx, id, at)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteMessage(w, http.StatusNotFound, "Donor not found")
			return
		}
		h.logFailure(ctx, "record donation failed", err)
		httputil.WriteError(w, failure, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, DonorResponse{Success: true, Message: "Donation recorded", Donor: donor})
}

// donorID parses the path id. Malformed ids cannot name a donor, so they
// get the same 404 as unknown ones.
func (h *Handler) donorID(w http.ResponseWriter, r *http.Request) (domain.DonorID, bool) {
	id, err := domain.ParseDonorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteMessage(w, http.StatusNotFound, "Donor not found")
		return domain.DonorID{}, false
	}
	return id, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if de, ok := dErrors.From(err); !ok || de.Code == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
