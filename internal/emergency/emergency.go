package emergency

import (
	"log/slog"

	"helpinghands/internal/emergency/handler"
	"helpinghands/internal/emergency/service"
)

// Service runs the emergency alert workflow.
type Service = service.Service

type Handler = handler.Handler

func NewService(store service.Store, donors service.DonorFinder, notifier service.Notifier, drafter service.Drafter, opts ...service.Option) *Service {
	return service.New(store, donors, notifier, drafter, opts...)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
