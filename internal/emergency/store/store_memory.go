package store

import (
	"context"
	"sync"

	"helpinghands/internal/emergency/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

// InMemory keeps emergencies in creation order.
type InMemory struct {
	mu          sync.RWMutex
	order       []domain.EmergencyID
	emergencies map[domain.EmergencyID]*models.Emergency
}

func NewInMemory() *InMemory {
	return &InMemory{emergencies: make(map[domain.EmergencyID]*models.Emergency)}
}

func (s *InMemory) Create(_ context.Context, e *models.Emergency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emergencies[e.ID]; ok {
		return sentinel.ErrConflict
	}
	s.emergencies[e.ID] = e.Clone()
	s.order = append(s.order, e.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.EmergencyID) (*models.Emergency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.emergencies[id]; ok {
		return e.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Emergency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Emergency, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.emergencies[id].Clone())
	}
	return out, nil
}

// Execute runs validate and mutate on a copy under the write lock and only
// stores the copy when validate succeeds.
func (s *InMemory) Execute(_ context.Context, id domain.EmergencyID, validate func(*models.Emergency) error, mutate func(*models.Emergency)) (*models.Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.emergencies[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e := current.Clone()
	if validate != nil {
		if err := validate(e); err != nil {
			return nil, err
		}
	}
	mutate(e)
	s.emergencies[id] = e.Clone()
	return e, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emergencies), nil
}
