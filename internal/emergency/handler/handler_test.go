package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"helpinghands/internal/emergency/handler/mocks"
	"helpinghands/internal/emergency/models"
	"helpinghands/internal/emergency/service"
	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type EmergencyHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestEmergencyHandlerSuite(t *testing.T) {
	suite.Run(t, new(EmergencyHandlerSuite))
}

func (s *EmergencyHandlerSuite) SetupTest() {
	s.service = mocks.NewMockService(gomock.NewController(s.T()))
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	s.router = r
}

func sampleEmergency() *models.Emergency {
	now := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	return &models.Emergency{
		ID:             domain.NewEmergencyID(),
		PatientName:    "Asha",
		BloodGroup:     domain.BloodGroupAPos,
		Hospital:       "City Hospital",
		City:           "delhi",
		Contact:        "9000000001",
		Status:         models.StatusActive,
		NotifiedDonors: []domain.DonorID{},
		Responders:     []models.Responder{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *EmergencyHandlerSuite) TestAlert() {
	body := map[string]string{
		"patientName": "Asha", "bloodGroup": "A+", "hospital": "City Hospital",
		"city": "Delhi", "contact": "9000000001",
	}

	s.Run("success reports notified count and message", func() {
		e := sampleEmergency()
		s.service.EXPECT().Alert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.CreateRequest) (*service.AlertResult, error) {
				s.Equal("delhi", req.City)
				return &service.AlertResult{Emergency: e, NotifiedCount: 2, AIMessage: "fallback", AIGenerated: false}, nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/emergency", body))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[AlertResponse](s.T(), rr)
		s.True(resp.Success)
		s.Equal("Emergency alert sent successfully", resp.Message)
		s.Equal(2, resp.NotifiedCount)
		s.Equal(e.ID, resp.EmergencyID)
		s.Equal("fallback", resp.AIMessage)
		s.False(resp.AIGenerated)
	})

	s.Run("missing field is 400 without calling the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/emergency",
			map[string]string{"patientName": "Asha", "bloodGroup": "A+"}))
		testutil.AssertFailure(s.T(), rr, http.StatusBadRequest, "Emergency alert failed")
	})

	s.Run("store failure hides details", func() {
		s.service.EXPECT().Alert(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("connection reset"), dErrors.CodeInternal, "failed to save emergency"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/emergency", body))
		resp := testutil.AssertFailure(s.T(), rr, http.StatusInternalServerError, "Emergency alert failed")
		s.NotContains(resp.Error, "connection reset")
	})
}

func (s *EmergencyHandlerSuite) TestListEmergencies() {
	s.service.EXPECT().ListAll(gomock.Any()).Return(nil, nil)
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/emergencies"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[EmergencyListResponse](s.T(), rr)
	s.True(resp.Success)
	s.NotNil(resp.Emergencies)
	s.Zero(resp.Count)
}

func (s *EmergencyHandlerSuite) TestGet() {
	e := sampleEmergency()
	s.service.EXPECT().Get(gomock.Any(), e.ID).Return(e, nil)
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/emergency/"+e.ID.String()))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal(e.ID, testutil.UnmarshalResponse[EmergencyResponse](s.T(), rr).Emergency.ID)

	missing := domain.NewEmergencyID()
	s.service.EXPECT().Get(gomock.Any(), missing).Return(nil, dErrors.New(dErrors.CodeNotFound, "Emergency not found"))
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/emergency/"+missing.String()))
	testutil.AssertFailure(s.T(), rr, http.StatusNotFound, "Emergency not found")

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/emergency/abc"))
	testutil.AssertFailure(s.T(), rr, http.StatusNotFound, "Emergency not found")
}

func (s *EmergencyHandlerSuite) TestRespond() {
	e := sampleEmergency()
	donor := domain.NewDonorID()
	path := "/api/emergency/" + e.ID.String() + "/respond"

	s.Run("records the response", func() {
		s.service.EXPECT().Respond(gomock.Any(), e.ID, donor, "On my way").Return(e, nil)
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			map[string]string{"donorId": donor.String(), "response": " On my way "}))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "message", "Response recorded")
	})

	s.Run("malformed donor id is 400", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			map[string]string{"donorId": "nope", "response": "yes"}))
		testutil.AssertFailure(s.T(), rr, http.StatusBadRequest, "Response failed")
	})

	s.Run("closed emergency is 409", func() {
		s.service.EXPECT().Respond(gomock.Any(), e.ID, donor, "yes").
			Return(nil, dErrors.New(dErrors.CodeConflict, "emergency is no longer active"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			map[string]string{"donorId": donor.String(), "response": "yes"}))
		testutil.AssertFailure(s.T(), rr, http.StatusConflict, "Response failed")
	})
}

func (s *EmergencyHandlerSuite) TestUpdateStatus() {
	e := sampleEmergency()
	path := "/api/emergency/" + e.ID.String() + "/status"

	s.Run("fulfilled", func() {
		done := e.Clone()
		done.Status = models.StatusFulfilled
		s.service.EXPECT().UpdateStatus(gomock.Any(), e.ID, "fulfilled").Return(done, nil)
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPatch, path, map[string]string{"status": "fulfilled"}))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[EmergencyResponse](s.T(), rr)
		s.Equal("Emergency fulfilled", resp.Message)
		s.Equal(models.StatusFulfilled, resp.Emergency.Status)
	})

	s.Run("unknown status is rejected before the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPatch, path, map[string]string{"status": "active"}))
		testutil.AssertFailure(s.T(), rr, http.StatusBadRequest, "Status update failed")
	})

	s.Run("repeated transition is 409", func() {
		s.service.EXPECT().UpdateStatus(gomock.Any(), e.ID, "cancelled").
			Return(nil, dErrors.New(dErrors.CodeConflict, "emergency is fulfilled and cannot become cancelled"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPatch, path, map[string]string{"status": "cancelled"}))
		testutil.AssertFailure(s.T(), rr, http.StatusConflict, "Status update failed")
	})
}
