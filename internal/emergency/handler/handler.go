package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"helpinghands/internal/emergency/models"
	"helpinghands/internal/emergency/service"
	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/platform/httputil"
	"helpinghands/pkg/requestcontext"
)

// Service defines the emergency operations exposed over HTTP.
type Service interface {
	Alert(ctx context.Context, req models.CreateRequest) (*service.AlertResult, error)
	ListAll(ctx context.Context) ([]*models.Emergency, error)
	Get(ctx context.Context, id domain.EmergencyID) (*models.Emergency, error)
	Respond(ctx context.Context, id domain.EmergencyID, donorID domain.DonorID, response string) (*models.Emergency, error)
	UpdateStatus(ctx context.Context, id domain.EmergencyID, status string) (*models.Emergency, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public emergency routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/emergency", h.HandleAlert)
	r.Get("/api/emergency/{id}", h.HandleGet)
	r.Post("/api/emergency/{id}/respond", h.HandleRespond)
	r.Patch("/api/emergency/{id}/status", h.HandleUpdateStatus)
}

// RegisterAdmin mounts the emergency listing.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/api/emergencies", h.HandleListEmergencies)
}

func (h *Handler) HandleAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const failure = "Emergency alert failed"

	req, ok := httputil.DecodeAndPrepare[models.CreateRequest](w, r, h.logger, failure)
	if !ok {
		return
	}

	result, err := h.service.Alert(ctx, *req)
	if err != nil {
		h.logFailure(ctx, "emergency alert failed", err)
		httputil.WriteError(w, failure, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, AlertResponse{
		Success:       true,
		Message:       "Emergency alert sent successfully",
		NotifiedCount: result.NotifiedCount,
		EmergencyID:   result.Emergency.ID,
		AIMessage:     result.AIMessage,
		AIGenerated:   result.AIGenerated,
	})
}

func (h *Handler) HandleListEmergencies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListAll(ctx)
	if err != nil {
		h.logFailure(ctx, "list emergencies failed", err)
		httputil.WriteError(w, "Failed to fetch emergencies", err)
		return
	}
	if list == nil {
		list = []*models.Emergency{}
	}
	httputil.WriteJSON(w, http.StatusOK, EmergencyListResponse{Success: true, Emergencies: list, Count: len(list)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.emergencyID(w, r)
	if !ok {
		return
	}
	e, err := h.service.Get(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteMessage(w, http.StatusNotFound, "Emergency not found")
			return
		}
		h.logFailure(ctx, "get emergency failed", err)
		httputil.WriteError(w, "Failed to fetch emergency", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EmergencyResponse{Success: true, Emergency: e})
}

func (h *Handler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const failure = "Response failed"

	id, ok := h.emergencyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RespondRequest](w, r, h.logger, failure)
	if !ok {
		return
	}
	donorID, err := domain.ParseDonorID(req.DonorID)
	if err != nil {
		httputil.WriteError(w, failure, dErrors.Wrap(err, dErrors.CodeValidation, "donorId is invalid"))
		return
	}

	e, err := h.service.Respond(ctx, id, donorID, req.Response)
	if err != nil {
		h.logFailure(ctx, "emergency response failed", err)
		httputil.WriteError(w, failure, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EmergencyResponse{Success: true, Message: "Response recorded", Emergency: e})
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const failure = "Status update failed"

	id, ok := h.emergencyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.StatusRequest](w, r, h.logger, failure)
	if !ok {
		return
	}

	e, err := h.service.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		h.logFailure(ctx, "emergency status update failed", err)
		httputil.WriteError(w, failure, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EmergencyResponse{Success: true, Message: "Emergency " + string(e.Status), Emergency: e})
}

func (h *Handler) emergencyID(w http.ResponseWriter, r *http.Request) (domain.EmergencyID, bool) {
	id, err := domain.ParseEmergencyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteMessage(w, http.StatusNotFound, "Emergency not found")
		return domain.EmergencyID{}, false
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
