package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"helpinghands/internal/emergency/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

type EmergencyStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestEmergencyStoreSuite(t *testing.T) {
	suite.Run(t, new(EmergencyStoreSuite))
}

func (s *EmergencyStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *EmergencyStoreSuite) newEmergency() *models.Emergency {
	e, err := models.NewEmergency(domain.NewEmergencyID(), models.CreateRequest{
		PatientName: "Meera", BloodGroup: "A+", Hospital: "AIIMS", City: "Delhi", Contact: "100",
	}, []domain.DonorID{domain.NewDonorID()}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	return e
}

func (s *EmergencyStoreSuite) TestCreateListCount() {
	first := s.newEmergency()
	second := s.newEmergency()
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.ErrorIs(s.store.Create(s.ctx, first), sentinel.ErrConflict)

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(first.ID, all[0].ID)
	s.Equal(second.ID, all[1].ID)

	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *EmergencyStoreSuite) TestFindReturnsCopies() {
	e := s.newEmergency()
	s.Require().NoError(s.store.Create(s.ctx, e))

	got, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	got.NotifiedDonors[0] = domain.NewDonorID()

	again, _ := s.store.FindByID(s.ctx, e.ID)
	s.Equal(e.NotifiedDonors, again.NotifiedDonors)

	_, err = s.store.FindByID(s.ctx, domain.NewEmergencyID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *EmergencyStoreSuite) TestExecute() {
	e := s.newEmergency()
	s.Require().NoError(s.store.Create(s.ctx, e))
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	s.Run("validation failure leaves record unchanged", func() {
		boom := errors.New("rejected")
		_, err := s.store.Execute(s.ctx, e.ID, func(*models.Emergency) error { return boom },
			func(x *models.Emergency) { x.Transition(models.StatusCancelled, now) })
		s.ErrorIs(err, boom)
		got, _ := s.store.FindByID(s.ctx, e.ID)
		s.Equal(models.StatusActive, got.Status)
	})

	s.Run("mutation is stored", func() {
		updated, err := s.store.Execute(s.ctx, e.ID,
			func(x *models.Emergency) error { return x.CheckTransition(models.StatusFulfilled) },
			func(x *models.Emergency) { x.Transition(models.StatusFulfilled, now) })
		s.Require().NoError(err)
		s.Equal(models.StatusFulfilled, updated.Status)
		got, _ := s.store.FindByID(s.ctx, e.ID)
		s.Equal(models.StatusFulfilled, got.Status)
		s.Require().NotNil(got.FulfilledAt)
	})

	s.Run("unknown id", func() {
		_, err := s.store.Execute(s.ctx, domain.NewEmergencyID(), nil, func(*models.Emergency) {})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
