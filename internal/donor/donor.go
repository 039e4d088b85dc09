package donor

import (
	"log/slog"

	"helpinghands/internal/donor/handler"
	"helpinghands/internal/donor/service"
)

// Service exposes donor registration and lookup.
type Service = service.Service

// Handler wires HTTP endpoints to the donor service.
type Handler = handler.Handler

// NewService constructs the donor service over a store.
func NewService(store service.Store, opts ...service.Option) *Service {
	return service.New(store, opts...)
}

// NewHandler constructs the donor HTTP handler.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
