package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"helpinghands/internal/assistant"
	donormodels "helpinghands/internal/donor/models"
	donorstore "helpinghands/internal/donor/store"
	"helpinghands/internal/emergency/models"
	"helpinghands/internal/emergency/store"
	"helpinghands/internal/platform/metrics"
	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/requestcontext"
)

type recordingNotifier struct {
	notified []domain.DonorID
}

func (n *recordingNotifier) NotifyEmergency(_ context.Context, donor *donormodels.Donor, _ *models.Emergency) {
	n.notified = append(n.notified, donor.ID)
}

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(context.Context, string) (string, error) {
	return g.text, g.err
}

type failingStore struct {
	*store.InMemory
}

func (failingStore) Create(context.Context, *models.Emergency) error {
	return errors.New("disk full")
}

type EmergencyServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	donors   *donorstore.InMemory
	store    *store.InMemory
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	spans    *tracetest.SpanRecorder
	logger   *slog.Logger
}

func TestEmergencyServiceSuite(t *testing.T) {
	suite.Run(t, new(EmergencyServiceSuite))
}

func (s *EmergencyServiceSuite) SetupTest() {
	s.now = time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.donors = donorstore.NewInMemory()
	s.store = store.NewInMemory()
	s.notifier = &recordingNotifier{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.spans = tracetest.NewSpanRecorder()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *EmergencyServiceSuite) newService(st Store, gen assistant.Generator) *Service {
	drafter := assistant.New(gen, assistant.WithLogger(s.logger), assistant.WithMetrics(s.metrics))
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(s.spans))
	return New(st, s.donors, s.notifier, drafter,
		WithLogger(s.logger),
		WithMetrics(s.metrics),
		WithTracer(provider.Tracer(tracerName)),
	)
}

func (s *EmergencyServiceSuite) addDonor(phone, group, city string, available bool) *donormodels.Donor {
	d, err := donormodels.NewDonor(domain.NewDonorID(), donormodels.RegisterRequest{
		Name:       "Donor " + phone,
		Phone:      phone,
		Email:      phone + "@example.com",
		BloodGroup: group,
		City:       city,
		Address:    "12 Main Road",
	}, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	d.Available = available
	s.Require().NoError(s.donors.Create(s.ctx, d))
	return d
}

func request() models.CreateRequest {
	return models.CreateRequest{
		PatientName: "Asha",
		BloodGroup:  "A+",
		Hospital:    "City Hospital",
		City:        "Delhi",
		Contact:     "9000000001",
		Status:      "fulfilled",
	}
}

func (s *EmergencyServiceSuite) TestAlertNotifiesMatchesAndDrafts() {
	first := s.addDonor("9000000002", "A+", "delhi", true)
	s.addDonor("9000000003", "A+", "delhi", false)
	s.addDonor("9000000004", "B+", "delhi", true)
	second := s.addDonor("9000000005", "A+", "Delhi", true)

	svc := s.newService(s.store, stubGenerator{text: "Please help Asha today."})
	result, err := svc.Alert(s.ctx, request())
	s.Require().NoError(err)

	s.Equal(2, result.NotifiedCount)
	s.Equal("Please help Asha today.", result.AIMessage)
	s.True(result.AIGenerated)
	s.Equal(models.StatusActive, result.Emergency.Status)
	s.Equal("delhi", result.Emergency.City)
	s.Equal(s.now, result.Emergency.CreatedAt)
	s.Equal([]domain.DonorID{first.ID, second.ID}, result.Emergency.NotifiedDonors)
	s.Equal([]domain.DonorID{first.ID, second.ID}, s.notifier.notified)

	stored, err := svc.Get(s.ctx, result.Emergency.ID)
	s.Require().NoError(err)
	s.Equal(result.Emergency.NotifiedDonors, stored.NotifiedDonors)

	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.EmergenciesCreated))

	names := make([]string, 0)
	for _, span := range s.spans.Ended() {
		names = append(names, span.Name())
	}
	s.ElementsMatch([]string{"emergency.match", "emergency.persist", "emergency.notify", "emergency.draft", "emergency.alert"}, names)
}

func (s *EmergencyServiceSuite) TestAlertWithoutMatchesStillSucceeds() {
	svc := s.newService(s.store, stubGenerator{text: "msg"})
	result, err := svc.Alert(s.ctx, request())
	s.Require().NoError(err)
	s.Equal(0, result.NotifiedCount)
	s.Empty(result.Emergency.NotifiedDonors)
	s.Empty(s.notifier.notified)
}

func (s *EmergencyServiceSuite) TestAlertFallsBackWhenDraftFails() {
	s.addDonor("9000000002", "A+", "delhi", true)
	svc := s.newService(s.store, stubGenerator{err: errors.New("quota exceeded")})

	result, err := svc.Alert(s.ctx, request())
	s.Require().NoError(err)
	s.False(result.AIGenerated)
	s.Equal(assistant.FallbackEmergencyMessage(assistant.EmergencyBrief{
		PatientName: "Asha", BloodGroup: "A+", Hospital: "City Hospital", Contact: "9000000001",
	}), result.AIMessage)
	s.Equal(1, result.NotifiedCount)

	count, err := svc.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *EmergencyServiceSuite) TestAlertRejectsInvalidRequest() {
	svc := s.newService(s.store, stubGenerator{text: "msg"})

	req := request()
	req.BloodGroup = "C+"
	_, err := svc.Alert(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	req = request()
	req.Contact = " "
	_, err = svc.Alert(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	count, err := svc.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
	s.Empty(s.notifier.notified)
}

func (s *EmergencyServiceSuite) TestAlertPersistFailureNotifiesNobody() {
	s.addDonor("9000000002", "A+", "delhi", true)
	svc := s.newService(failingStore{s.store}, stubGenerator{text: "msg"})

	_, err := svc.Alert(s.ctx, request())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.notifier.notified)
}

func (s *EmergencyServiceSuite) TestRespond() {
	donor := s.addDonor("9000000002", "A+", "delhi", true)
	svc := s.newService(s.store, stubGenerator{text: "msg"})
	result, err := svc.Alert(s.ctx, request())
	s.Require().NoError(err)
	id := result.Emergency.ID

	s.Run("records the response", func() {
		e, err := svc.Respond(s.ctx, id, donor.ID, "  On my way  ")
		s.Require().NoError(err)
		s.Require().Len(e.Responders, 1)
		s.Equal(donor.ID, e.Responders[0].DonorID)
		s.Equal("On my way", e.Responders[0].Response)
		s.Equal(s.now, e.Responders[0].RespondedAt)
	})

	s.Run("unknown donor", func() {
		_, err := svc.Respond(s.ctx, id, domain.NewDonorID(), "yes")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown emergency", func() {
		_, err := svc.Respond(s.ctx, domain.NewEmergencyID(), donor.ID, "yes")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty response", func() {
		_, err := svc.Respond(s.ctx, id, donor.ID, " ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("closed emergency", func() {
		_, err := svc.Cancel(s.ctx, id)
		s.Require().NoError(err)
		_, err = svc.Respond(s.ctx, id, donor.ID, "yes")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *EmergencyServiceSuite) TestLifecycle() {
	svc := s.newService(s.store, stubGenerator{text: "msg"})
	result, err := svc.Alert(s.ctx, request())
	s.Require().NoError(err)
	id := result.Emergency.ID

	later := s.now.Add(2 * time.Hour)
	e, err := svc.Fulfill(requestcontext.WithTime(s.ctx, later), id)
	s.Require().NoError(err)
	s.Equal(models.StatusFulfilled, e.Status)
	s.Require().NotNil(e.FulfilledAt)
	s.Equal(later, *e.FulfilledAt)

	_, err = svc.Cancel(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = svc.UpdateStatus(s.ctx, id, "active")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.UpdateStatus(s.ctx, domain.NewEmergencyID(), "cancelled")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	list, err := svc.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}
