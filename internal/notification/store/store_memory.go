package store

import (
	"context"
	"sync"

	"helpinghands/internal/notification/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

// InMemory keeps notifications in send order.
type InMemory struct {
	mu      sync.RWMutex
	order   []domain.NotificationID
	byID    map[domain.NotificationID]*models.Notification
	byDonor map[domain.DonorID][]domain.NotificationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[domain.NotificationID]*models.Notification),
		byDonor: make(map[domain.DonorID][]domain.NotificationID),
	}
}

func (s *InMemory) Append(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[n.ID]; ok {
		return sentinel.ErrConflict
	}
	s.byID[n.ID] = n.Clone()
	s.order = append(s.order, n.ID)
	s.byDonor[n.DonorID] = append(s.byDonor[n.DonorID], n.ID)
	return nil
}

func (s *InMemory) ListByDonor(_ context.Context, donorID domain.DonorID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDonor[donorID]
	out := make([]*models.Notification, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

func (s *InMemory) MarkRead(_ context.Context, id domain.NotificationID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	n.Read = true
	return n.Clone(), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}
