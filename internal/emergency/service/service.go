package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"helpinghands/internal/assistant"
	donormodels "helpinghands/internal/donor/models"
	"helpinghands/internal/emergency/models"
	"helpinghands/internal/platform/metrics"
	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/platform/sentinel"
	"helpinghands/pkg/requestcontext"
)

const tracerName = "helpinghands/emergency"

// Store is the persistence contract for emergencies.
type Store interface {
	Create(ctx context.Context, e *models.Emergency) error
	FindByID(ctx context.Context, id domain.EmergencyID) (*models.Emergency, error)
	ListAll(ctx context.Context) ([]*models.Emergency, error)
	Execute(ctx context.Context, id domain.EmergencyID, validate func(*models.Emergency) error, mutate func(*models.Emergency)) (*models.Emergency, error)
	Count(ctx context.Context) (int, error)
}

// DonorFinder reads the donor registry.
type DonorFinder interface {
	Search(ctx context.Context, bloodGroup domain.BloodGroup, city string) ([]*donormodels.Donor, error)
	FindByID(ctx context.Context, id domain.DonorID) (*donormodels.Donor, error)
}

// Notifier delivers an emergency alert to one donor. It never fails the
// workflow.
type Notifier interface {
	NotifyEmergency(ctx context.Context, donor *donormodels.Donor, e *models.Emergency)
}

// Drafter writes the outbound alert text.
type Drafter interface {
	DraftEmergencyMessage(ctx context.Context, b assistant.EmergencyBrief) (string, error)
	FallbackEmergencyMessage(b assistant.EmergencyBrief) string
}

// AlertResult is the outcome of a successful alert.
type AlertResult struct {
	Emergency     *models.Emergency
	NotifiedCount int
	AIMessage     string
	AIGenerated   bool
}

// Service runs the emergency alert workflow and the request lifecycle.
type Service struct {
	store    Store
	donors   DonorFinder
	notifier Notifier
	drafter  Drafter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
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

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, donors DonorFinder, notifier Notifier, drafter Drafter, opts ...Option) *Service {
	s := &Service{
		store:    store,
		donors:   donors,
		notifier: notifier,
		drafter:  drafter,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Alert validates and persists an emergency, notifies every matching donor
// and drafts the outbound message. A failed draft falls back to fixed text;
// only validation, matching and persistence failures fail the alert.
func (s *Service) Alert(ctx context.Context, req models.CreateRequest) (*AlertResult, error) {
	ctx, span := s.tracer.Start(ctx, "emergency.alert")
	defer span.End()

	now := requestcontext.Now(ctx)
	e, err := models.NewEmergency(domain.NewEmergencyID(), req, nil, now)
	if err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("emergency.id", e.ID.String()),
		attribute.String("emergency.blood_group", string(e.BloodGroup)),
		attribute.String("emergency.city", e.City),
	)

	matched, err := s.match(ctx, e)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	ids := make([]domain.DonorID, len(matched))
	for i, d := range matched {
		ids[i] = d.ID
	}
	e.NotifiedDonors = ids

	if err := s.persist(ctx, e); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.notify(ctx, e, matched)

	message, generated := s.draft(ctx, e)

	s.logger.InfoContext(ctx, "emergency alert sent",
		"request_id", requestcontext.RequestID(ctx),
		"emergency_id", e.ID,
		"blood_group", e.BloodGroup,
		"city", e.City,
		"notified", len(matched),
		"ai_generated", generated,
	)
	s.metrics.IncrementEmergenciesCreated()
	s.metrics.ObserveDonorsMatched(len(matched))
	span.SetAttributes(attribute.Int("emergency.notified", len(matched)))

	return &AlertResult{
		Emergency:     e.Clone(),
		NotifiedCount: len(matched),
		AIMessage:     message,
		AIGenerated:   generated,
	}, nil
}

func (s *Service) match(ctx context.Context, e *models.Emergency) ([]*donormodels.Donor, error) {
	ctx, span := s.tracer.Start(ctx, "emergency.match")
	defer span.End()

	candidates, err := s.donors.Search(ctx, e.BloodGroup, e.City)
	if err != nil {
		recordSpanError(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to match donors")
	}
	matched := Match(e, candidates)
	span.SetAttributes(attribute.Int("donors.matched", len(matched)))
	return matched, nil
}

func (s *Service) persist(ctx context.Context, e *models.Emergency) error {
	ctx, span := s.tracer.Start(ctx, "emergency.persist")
	defer span.End()

	if err := s.store.Create(ctx, e); err != nil {
		recordSpanError(span, err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save emergency")
	}
	return nil
}

func (s *Service) notify(ctx context.Context, e *models.Emergency, donors []*donormodels.Donor) {
	ctx, span := s.tracer.Start(ctx, "emergency.notify")
	defer span.End()

	for _, d := range donors {
		s.notifier.NotifyEmergency(ctx, d, e)
	}
}

func (s *Service) draft(ctx context.Context, e *models.Emergency) (string, bool) {
	ctx, span := s.tracer.Start(ctx, "emergency.draft")
	defer span.End()

	brief := assistant.EmergencyBrief{
		PatientName: e.PatientName,
		BloodGroup:  string(e.BloodGroup),
		Hospital:    e.Hospital,
		Contact:     e.Contact,
	}
	message, err := s.drafter.DraftEmergencyMessage(ctx, brief)
	if err != nil {
		recordSpanError(span, err)
		s.logger.WarnContext(ctx, "emergency message draft failed, using fallback",
			"request_id", requestcontext.RequestID(ctx),
			"emergency_id", e.ID,
			"error", err,
		)
		return s.drafter.FallbackEmergencyMessage(brief), false
	}
	span.SetAttributes(attribute.Bool("ai.generated", true))
	return message, true
}

func (s *Service) ListAll(ctx context.Context) ([]*models.Emergency, error) {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list emergencies")
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id domain.EmergencyID) (*models.Emergency, error) {
	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookup(err)
	}
	return e, nil
}

// Respond records a donor's reply to an active emergency.
func (s *Service) Respond(ctx context.Context, id domain.EmergencyID, donorID domain.DonorID, response string) (*models.Emergency, error) {
	req := models.RespondRequest{DonorID: donorID.String(), Response: response}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.donors.FindByID(ctx, donorID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}

	now := requestcontext.Now(ctx)
	e, err := s.store.Execute(ctx, id,
		func(e *models.Emergency) error { return e.CheckRespond() },
		func(e *models.Emergency) { e.AddResponder(donorID, req.Response, now) },
	)
	if err != nil {
		return nil, translateLookup(err)
	}

	s.logger.InfoContext(ctx, "donor responded to emergency",
		"request_id", requestcontext.RequestID(ctx),
		"emergency_id", id,
		"donor_id", donorID,
	)
	return e, nil
}

// Fulfill closes an active emergency as fulfilled.
func (s *Service) Fulfill(ctx context.Context, id domain.EmergencyID) (*models.Emergency, error) {
	return s.transition(ctx, id, models.StatusFulfilled)
}

// Cancel closes an active emergency as cancelled.
func (s *Service) Cancel(ctx context.Context, id domain.EmergencyID) (*models.Emergency, error) {
	return s.transition(ctx, id, models.StatusCancelled)
}

// UpdateStatus applies a caller-requested status.
func (s *Service) UpdateStatus(ctx context.Context, id domain.EmergencyID, status string) (*models.Emergency, error) {
	next, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, next)
}

func (s *Service) transition(ctx context.Context, id domain.EmergencyID, next models.Status) (*models.Emergency, error) {
	now := requestcontext.Now(ctx)
	e, err := s.store.Execute(ctx, id,
		func(e *models.Emergency) error { return e.CheckTransition(next) },
		func(e *models.Emergency) { e.Transition(next, now) },
	)
	if err != nil {
		return nil, translateLookup(err)
	}

	s.logger.InfoContext(ctx, "emergency status changed",
		"request_id", requestcontext.RequestID(ctx),
		"emergency_id", id,
		"status", next,
	)
	return e, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count emergencies")
	}
	return n, nil
}

// translateLookup passes coded errors from validate through and maps store
// sentinels to domain codes.
func translateLookup(err error) error {
	var coded *dErrors.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "Emergency not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "emergency was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "emergency store failure")
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
