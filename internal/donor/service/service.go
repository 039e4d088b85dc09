package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"helpinghands/internal/donor/models"
	"helpinghands/internal/donor/store"
	"helpinghands/internal/platform/metrics"
	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/platform/sentinel"
	"helpinghands/pkg/requestcontext"
)

// Store is the persistence contract for donors.
type Store interface {
	Create(ctx context.Context, donor *models.Donor) error
	FindByID(ctx context.Context, id domain.DonorID) (*models.Donor, error)
	Search(ctx context.Context, bloodGroup domain.BloodGroup, city string) ([]*models.Donor, error)
	ListAll(ctx context.Context) ([]*models.Donor, error)
	Execute(ctx context.Context, id domain.DonorID, validate func(*models.Donor) error, mutate func(*models.Donor)) (*models.Donor, error)
	Count(ctx context.Context) (int, error)
}

// Notifier sends the post-donation thank-you message. Delivery failures are
// the notifier's concern and never fail the donation record.
type Notifier interface {
	ThankDonor(ctx context.Context, donor *models.Donor)
}

// Service implements donor registration, lookup and profile updates.
type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates and persists a new, available donor.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Donor, error) {
	donor, err := models.NewDonor(domain.NewDonorID(), req, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, donor); err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("a donor with this %s is already registered", dup.Field))
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "donor already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save donor")
	}

	s.logger.InfoContext(ctx, "donor registered",
		"request_id", requestcontext.RequestID(ctx),
		"donor_id", donor.ID,
		"blood_group", donor.BloodGroup,
		"city", donor.City,
	)
	s.metrics.IncrementDonorsRegistered()
	return donor, nil
}

// Search returns available donors with exactly bloodGroup in city. An empty
// result is not an error.
func (s *Service) Search(ctx context.Context, bloodGroup, city string) ([]*models.Donor, error) {
	city = models.NormalizeCity(city)
	if city == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "city is required")
	}
	if strings.TrimSpace(bloodGroup) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "bloodGroup is required")
	}
	group, err := domain.ParseBloodGroup(bloodGroup)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "bloodGroup is invalid")
	}

	donors, err := s.store.Search(ctx, group, city)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search donors")
	}
	return donors, nil
}

// ListAll returns every donor in registration order.
func (s *Service) ListAll(ctx context.Context) ([]*models.Donor, error) {
	donors, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donors")
	}
	return donors, nil
}

// Get loads one donor.
func (s *Service) Get(ctx context.Context, id domain.DonorID) (*models.Donor, error) {
	donor, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookup(err, "failed to load donor")
	}
	return donor, nil
}

// SetAvailability toggles whether a donor can be matched. Unknown ids leave
// the store unchanged.
func (s *Service) SetAvailability(ctx context.Context, id domain.DonorID, available bool) (*models.Donor, error) {
	donor, err := s.store.Execute(ctx, id, nil, func(d *models.Donor) {
		d.SetAvailability(available)
	})
	if err != nil {
		return nil, translateLookup(err, "failed to update donor")
	}

	s.logger.InfoContext(ctx, "donor availability updated",
		"request_id", requestcontext.RequestID(ctx),
		"donor_id", id,
		"available", available,
	)
	return donor, nil
}

// RecordDonation counts a completed donation and thanks the donor. A zero at
// means now; dates in the future are rejected.
func (s *Service) RecordDonation(ctx context.Context, id domain.DonorID, at time.Time) (*models.Donor, error) {
	now := requestcontext.Now(ctx)
	if at.IsZero() {
		at = now
	}
	if at.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "donatedAt cannot be in the future")
	}
	at = at.UTC()

	donor, err := s.store.Execute(ctx, id, nil, func(d *models.Donor) {
		d.RecordDonation(at)
	})
	if err != nil {
		return nil, translateLookup(err, "failed to record donation")
	}

	s.logger.InfoContext(ctx, "donation recorded",
		"request_id", requestcontext.RequestID(ctx),
		"donor_id", id,
		"donation_count", donor.DonationCount,
	)
	if s.notifier != nil {
		s.notifier.ThankDonor(ctx, donor)
	}
	return donor, nil
}

// Count returns the number of registered donors.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count donors")
	}
	return n, nil
}

func translateLookup(err error, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "Donor not found")
	}
	if _, ok := dErrors.From(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}
