package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpinghands/internal/donor/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

func TestDocumentRoundTrip(t *testing.T) {
	last := time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)
	d := &models.Donor{
		ID:            domain.NewDonorID(),
		Name:          "Ravi",
		Phone:         "111",
		Email:         "ravi@example.com",
		BloodGroup:    domain.BloodGroupBNeg,
		City:          "kochi",
		Address:       "MG Road",
		Available:     true,
		LastDonation:  &last,
		DonationCount: 3,
		RegisteredAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	doc := toDocument(d, 7)
	assert.Equal(t, d.ID.String(), doc.ID)
	assert.Equal(t, "B-", doc.BloodGroup)
	assert.Equal(t, int64(7), doc.Version)

	back := doc.toModel()
	assert.Equal(t, d, back)
}

func TestDuplicateFromMessage(t *testing.T) {
	tests := []struct {
		name  string
		msg   string
		field string
	}{
		{"mongo phone index", `E11000 duplicate key error collection: helpinghands.donors index: donors_phone_unique dup key`, FieldPhone},
		{"mongo email index", `E11000 duplicate key error collection: helpinghands.donors index: donors_email_unique dup key`, FieldEmail},
		{"postgres phone constraint", `pq: duplicate key value violates unique constraint "donors_phone_key"`, FieldPhone},
		{"postgres email constraint", `pq: duplicate key value violates unique constraint "donors_email_key"`, FieldEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := duplicateFromMessage(tt.msg)
			var dup *DuplicateError
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, tt.field, dup.Field)
			assert.ErrorIs(t, err, sentinel.ErrConflict)
		})
	}

	t.Run("unknown index is still a conflict", func(t *testing.T) {
		assert.ErrorIs(t, duplicateFromMessage("E11000 duplicate key error index: _id_"), sentinel.ErrConflict)
	})
}
