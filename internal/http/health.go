package httpapi

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/platform/httputil"
	"helpinghands/pkg/requestcontext"
)

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Donors      int    `json:"donors"`
	Emergencies int    `json:"emergencies"`
}

type health struct {
	donors      Counter
	emergencies Counter
	logger      *slog.Logger
}

func newHealth(donors, emergencies Counter, logger *slog.Logger) *health {
	return &health{donors: donors, emergencies: emergencies, logger: logger}
}

// ServeHTTP reports liveness with the current record counts.
func (h *health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var donors, emergencies int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := h.donors.Count(gctx)
		donors = n
		return err
	})
	g.Go(func() error {
		n, err := h.emergencies.Count(gctx)
		emergencies = n
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.ErrorContext(ctx, "health count failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, "Health check failed", dErrors.Wrap(err, dErrors.CodeInternal, "count failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:      "running",
		Timestamp:   requestcontext.Now(ctx).UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Donors:      donors,
		Emergencies: emergencies,
	})
}
