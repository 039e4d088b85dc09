package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"helpinghands/pkg/platform/httputil"
	"helpinghands/pkg/requestcontext"
)

const failureMessage = "AI service unavailable"

// Service answers donation questions.
type Service interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Handler serves the assistant endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an assistant Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/ai-help", h.HandleAsk)
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Success  bool   `json:"success"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[AskRequest](w, r, h.logger, failureMessage)
	if !ok {
		return
	}

	answer, err := h.service.Answer(ctx, req.Question)
	if err != nil {
		h.logger.WarnContext(ctx, "ai help failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, failureMessage, err)
		return
	}

	h.logger.InfoContext(ctx, "ai help answered",
		"request_id", requestcontext.RequestID(ctx),
		"question_length", len(req.Question),
	)
	httputil.WriteJSON(w, http.StatusOK, AskResponse{Success: true, Question: req.Question, Answer: answer})
}
