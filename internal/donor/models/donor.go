package models

import (
	"strings"
	"time"

	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
)

// Donor is a registered blood donor.
//
// Invariants:
//   - Phone and Email are unique across donors (enforced by the store)
//   - Email and City are stored lowercased; City matching is case-insensitive
//   - BloodGroup is one of the eight supported groups
//   - RegisteredAt is immutable after construction
type Donor struct {
	ID            domain.DonorID    `json:"id"`
	Name          string            `json:"name"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	BloodGroup    domain.BloodGroup `json:"bloodGroup"`
	City          string            `json:"city"`
	Address       string            `json:"address"`
	Available     bool              `json:"available"`
	LastDonation  *time.Time        `json:"lastDonation,omitempty"`
	DonationCount int               `json:"donationCount"`
	RegisteredAt  time.Time         `json:"registeredAt"`
}

// NewDonor builds an available donor with no donation history.
func NewDonor(id domain.DonorID, req RegisterRequest, now time.Time) (*Donor, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &Donor{
		ID:           id,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		BloodGroup:   domain.BloodGroup(req.BloodGroup),
		City:         req.City,
		Address:      req.Address,
		Available:    true,
		RegisteredAt: now,
	}, nil
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (d *Donor) Clone() *Donor {
	c := *d
	if d.LastDonation != nil {
		t := *d.LastDonation
		c.LastDonation = &t
	}
	return &c
}

// SetAvailability toggles whether the donor accepts requests.
func (d *Donor) SetAvailability(available bool) {
	d.Available = available
}

// RecordDonation bumps the donation count and remembers the latest date.
func (d *Donor) RecordDonation(at time.Time) {
	d.DonationCount++
	if d.LastDonation == nil || at.After(*d.LastDonation) {
		t := at
		d.LastDonation = &t
	}
}

// RegisterRequest carries the registration fields.
type RegisterRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	BloodGroup string `json:"bloodGroup"`
	City       string `json:"city"`
	Address    string `json:"address"`
}

// Normalize trims every field and lowercases email and city.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.BloodGroup = strings.TrimSpace(r.BloodGroup)
	r.City = NormalizeCity(r.City)
	r.Address = strings.TrimSpace(r.Address)
}

// Validate checks required fields and the blood group enum.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	required := []struct{ field, value string }{
		{"name", r.Name},
		{"phone", r.Phone},
		{"email", r.Email},
		{"bloodGroup", r.BloodGroup},
		{"city", r.City},
		{"address", r.Address},
	}
	for _, f := range required {
		if f.value == "" {
			return dErrors.New(dErrors.CodeValidation, f.field+" is required")
		}
	}
	if !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if _, err := domain.ParseBloodGroup(r.BloodGroup); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "bloodGroup is invalid")
	}
	return nil
}

// NormalizeCity is the single rule for city comparison: trimmed, lowercased.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
