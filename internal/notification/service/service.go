package service

import (
	"context"
	"errors"
	"log/slog"

	donormodels "helpinghands/internal/donor/models"
	"helpinghands/internal/notification/models"
	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/platform/sentinel"
	"helpinghands/pkg/requestcontext"
)

// Store reads and updates persisted notifications.
type Store interface {
	ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id domain.NotificationID) (*models.Notification, error)
}

// DonorLookup confirms a donor exists.
type DonorLookup interface {
	FindByID(ctx context.Context, id domain.DonorID) (*donormodels.Donor, error)
}

// Service exposes a donor's notification inbox.
type Service struct {
	store  Store
	donors DonorLookup
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, donors DonorLookup, opts ...Option) *Service {
	s := &Service{store: store, donors: donors, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListForDonor returns the donor's notifications in send order.
func (s *Service) ListForDonor(ctx context.Context, donorID domain.DonorID) ([]*models.Notification, error) {
	if _, err := s.donors.FindByID(ctx, donorID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	list, err := s.store.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return list, nil
}

// MarkRead flags a notification as read. Marking twice is a no-op.
func (s *Service) MarkRead(ctx context.Context, id domain.NotificationID) (*models.Notification, error) {
	n, err := s.store.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notification")
	}
	s.logger.InfoContext(ctx, "notification read",
		"request_id", requestcontext.RequestID(ctx),
		"notification_id", id,
	)
	return n, nil
}
