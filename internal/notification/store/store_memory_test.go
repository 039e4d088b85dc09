package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpinghands/internal/notification/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

func TestInMemoryNotifications(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	donor, other := domain.NewDonorID(), domain.NewDonorID()
	emergency := domain.NewEmergencyID()
	now := time.Date(2025, 3, 3, 3, 3, 3, 0, time.UTC)

	first := models.New(donor, &emergency, models.TypeEmergency, "help", now)
	second := models.New(donor, nil, models.TypeThankYou, "thanks", now.Add(time.Minute))
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))
	require.NoError(t, s.Append(ctx, models.New(other, nil, models.TypeReminder, "reminder", now)))
	assert.ErrorIs(t, s.Append(ctx, first), sentinel.ErrConflict)

	list, err := s.ListByDonor(ctx, donor)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, emergency, *list[0].EmergencyID)
	assert.Equal(t, second.ID, list[1].ID)

	empty, err := s.ListByDonor(ctx, domain.NewDonorID())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	read, err := s.MarkRead(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)
	list, _ = s.ListByDonor(ctx, donor)
	assert.True(t, list[0].Read)
	assert.False(t, list[1].Read)

	_, err = s.MarkRead(ctx, domain.NewNotificationID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
