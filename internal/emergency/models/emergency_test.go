package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
)

func validRequest() CreateRequest {
	return CreateRequest{
		PatientName: " Meera ",
		BloodGroup:  "A+",
		Hospital:    "City Hospital",
		City:        " Delhi ",
		Contact:     "+91 99999 00000",
	}
}

func TestNewEmergency(t *testing.T) {
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	t.Run("always active regardless of input status", func(t *testing.T) {
		req := validRequest()
		req.Status = "fulfilled"
		e, err := NewEmergency(domain.NewEmergencyID(), req, nil, now)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, e.Status)
		assert.Equal(t, now, e.CreatedAt)
		assert.Equal(t, "delhi", e.City)
		assert.Equal(t, "Meera", e.PatientName)
		assert.NotNil(t, e.NotifiedDonors)
		assert.NotNil(t, e.Responders)
		assert.Nil(t, e.FulfilledAt)
	})

	t.Run("no matches encode as an empty list", func(t *testing.T) {
		e, err := NewEmergency(domain.NewEmergencyID(), validRequest(), nil, now)
		require.NoError(t, err)
		body, err := json.Marshal(e)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"notifiedDonors":[]`)
	})

	t.Run("notified donors are copied", func(t *testing.T) {
		ids := []domain.DonorID{domain.NewDonorID()}
		e, err := NewEmergency(domain.NewEmergencyID(), validRequest(), ids, now)
		require.NoError(t, err)
		ids[0] = domain.NewDonorID()
		assert.NotEqual(t, ids[0], e.NotifiedDonors[0])
	})

	for _, field := range []string{"patientName", "bloodGroup", "hospital", "city", "contact"} {
		t.Run("missing "+field, func(t *testing.T) {
			req := validRequest()
			switch field {
			case "patientName":
				req.PatientName = " "
			case "bloodGroup":
				req.BloodGroup = ""
			case "hospital":
				req.Hospital = ""
			case "city":
				req.City = ""
			case "contact":
				req.Contact = ""
			}
			_, err := NewEmergency(domain.NewEmergencyID(), req, nil, now)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), field+" is required")
		})
	}

	t.Run("invalid blood group", func(t *testing.T) {
		req := validRequest()
		req.BloodGroup = "Z"
		_, err := NewEmergency(domain.NewEmergencyID(), req, nil, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusActive, StatusFulfilled, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusActive, false},
		{StatusFulfilled, StatusCancelled, false},
		{StatusCancelled, StatusFulfilled, false},
		{StatusFulfilled, StatusActive, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTransition(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := created.Add(3 * time.Hour)

	e, err := NewEmergency(domain.NewEmergencyID(), validRequest(), nil, created)
	require.NoError(t, err)

	require.NoError(t, e.CheckTransition(StatusFulfilled))
	e.Transition(StatusFulfilled, later)
	assert.Equal(t, StatusFulfilled, e.Status)
	require.NotNil(t, e.FulfilledAt)
	assert.Equal(t, later, *e.FulfilledAt)
	assert.Equal(t, later, e.UpdatedAt)

	err = e.CheckTransition(StatusCancelled)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.True(t, dErrors.HasCode(e.CheckRespond(), dErrors.CodeConflict))
}

func TestCloneIsDeep(t *testing.T) {
	e, err := NewEmergency(domain.NewEmergencyID(), validRequest(), []domain.DonorID{domain.NewDonorID()}, time.Now())
	require.NoError(t, err)
	e.AddResponder(domain.NewDonorID(), "on my way", time.Now())

	c := e.Clone()
	c.NotifiedDonors[0] = domain.NewDonorID()
	c.Responders[0].Response = "changed"
	assert.NotEqual(t, c.NotifiedDonors[0], e.NotifiedDonors[0])
	assert.Equal(t, "on my way", e.Responders[0].Response)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Fulfilled ")
	require.NoError(t, err)
	assert.Equal(t, StatusFulfilled, st)

	_, err = ParseStatus("active")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = ParseStatus("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRespondRequestValidate(t *testing.T) {
	r := RespondRequest{DonorID: " x ", Response: "  "}
	r.Normalize()
	assert.True(t, dErrors.HasCode(r.Validate(), dErrors.CodeValidation))

	r = RespondRequest{DonorID: "x", Response: string(make([]rune, maxResponseLength+1))}
	assert.Error(t, r.Validate())
}
