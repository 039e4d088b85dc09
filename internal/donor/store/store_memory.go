package store

import (
	"context"
	"sync"

	"helpinghands/internal/donor/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

// InMemory keeps donors in registration order. It enforces the same phone and
// email uniqueness the persistent stores get from their indexes.
type InMemory struct {
	mu      sync.RWMutex
	order   []domain.DonorID
	donors  map[domain.DonorID]*models.Donor
	byPhone map[string]domain.DonorID
	byEmail map[string]domain.DonorID
}

func NewInMemory() *InMemory {
	return &InMemory{
		donors:  make(map[domain.DonorID]*models.Donor),
		byPhone: make(map[string]domain.DonorID),
		byEmail: make(map[string]domain.DonorID),
	}
}

func (s *InMemory) Create(_ context.Context, donor *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donors[donor.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byPhone[donor.Phone]; ok {
		return &DuplicateError{Field: FieldPhone}
	}
	if _, ok := s.byEmail[donor.Email]; ok {
		return &DuplicateError{Field: FieldEmail}
	}
	s.donors[donor.ID] = donor.Clone()
	s.byPhone[donor.Phone] = donor.ID
	s.byEmail[donor.Email] = donor.ID
	s.order = append(s.order, donor.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.DonorID) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.donors[id]; ok {
		return d.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Search(_ context.Context, bloodGroup domain.BloodGroup, city string) ([]*models.Donor, error) {
	city = models.NormalizeCity(city)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Donor, 0)
	for _, id := range s.order {
		d := s.donors[id]
		if d.BloodGroup == bloodGroup && d.City == city && d.Available {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Donor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.donors[id].Clone())
	}
	return out, nil
}

// Execute runs validate then mutate under the write lock. When validate
// fails the stored donor is untouched.
func (s *InMemory) Execute(_ context.Context, id domain.DonorID, validate func(*models.Donor) error, mutate func(*models.Donor)) (*models.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := d.Clone()
	if validate != nil {
		if err := validate(working); err != nil {
			return nil, err
		}
	}
	mutate(working)
	s.donors[id] = working
	return working.Clone(), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}
