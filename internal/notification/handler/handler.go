package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"helpinghands/internal/notification/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/httputil"
	"helpinghands/pkg/requestcontext"
)

// Service defines the notification inbox operations.
type Service interface {
	ListForDonor(ctx context.Context, donorID domain.DonorID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id domain.NotificationID) (*models.Notification, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/donor/{id}/notifications", h.HandleList)
	r.Post("/api/notifications/{id}/read", h.HandleMarkRead)
}

type ListResponse struct {
	Success       bool                   `json:"success"`
	Notifications []*models.Notification `json:"notifications"`
	Count         int                    `json:"count"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donorID, err := domain.ParseDonorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteMessage(w, http.StatusNotFound, "Donor not found")
		return
	}

	list, err := h.service.ListForDonor(ctx, donorID)
	if err != nil {
		h.logger.WarnContext(ctx, "list notifications failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, "Failed to fetch notifications", err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Success: true, Notifications: list, Count: len(list)})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteMessage(w, http.StatusNotFound, "Notification not found")
		return
	}

	if _, err := h.service.MarkRead(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "mark notification read failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, "Update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Notification marked as read"})
}
