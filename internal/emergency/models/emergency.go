package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"helpinghands/pkg/domain"
	dErrors "helpinghands/pkg/domain-errors"
)

// Status is the lifecycle state of an emergency request.
type Status string

const (
	StatusActive    Status = "active"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts only the terminal states a caller may request.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusFulfilled, StatusCancelled:
		return st, nil
	case "":
		return "", dErrors.New(dErrors.CodeValidation, "status is required")
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be fulfilled or cancelled")
	}
}

// CanTransitionTo reports whether moving to next is allowed. Only active
// requests move, and only to a terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusActive && (next == StatusFulfilled || next == StatusCancelled)
}

const maxResponseLength = 500

// Responder records a donor replying to an emergency.
type Responder struct {
	DonorID     domain.DonorID `json:"donorId"`
	RespondedAt time.Time      `json:"respondedAt"`
	Response    string         `json:"response"`
}

// Emergency is a request for blood on behalf of a patient.
//
// Invariants:
//   - Status is StatusActive at creation regardless of caller input
//   - NotifiedDonors is fixed at creation
//   - FulfilledAt is set only by the transition to StatusFulfilled
type Emergency struct {
	ID             domain.EmergencyID `json:"id"`
	PatientName    string             `json:"patientName"`
	BloodGroup     domain.BloodGroup  `json:"bloodGroup"`
	Hospital       string             `json:"hospital"`
	City           string             `json:"city"`
	Contact        string             `json:"contact"`
	Details        string             `json:"details,omitempty"`
	Status         Status             `json:"status"`
	NotifiedDonors []domain.DonorID   `json:"notifiedDonors"`
	Responders     []Responder        `json:"responders"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	FulfilledAt    *time.Time         `json:"fulfilledAt,omitempty"`
}

// NewEmergency builds an active emergency from a validated request.
func NewEmergency(id domain.EmergencyID, req CreateRequest, notified []domain.DonorID, now time.Time) (*Emergency, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &Emergency{
		ID:             id,
		PatientName:    req.PatientName,
		BloodGroup:     domain.BloodGroup(req.BloodGroup),
		Hospital:       req.Hospital,
		City:           req.City,
		Contact:        req.Contact,
		Details:        req.Details,
		Status:         StatusActive,
		NotifiedDonors: append([]domain.DonorID{}, notified...),
		Responders:     []Responder{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Clone returns a deep copy.
func (e *Emergency) Clone() *Emergency {
	c := *e
	c.NotifiedDonors = append([]domain.DonorID{}, e.NotifiedDonors...)
	c.Responders = append([]Responder{}, e.Responders...)
	if e.FulfilledAt != nil {
		t := *e.FulfilledAt
		c.FulfilledAt = &t
	}
	return &c
}

// CheckTransition returns a conflict error when next is not reachable.
func (e *Emergency) CheckTransition(next Status) error {
	if !e.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeConflict, "emergency is "+string(e.Status)+" and cannot become "+string(next))
	}
	return nil
}

// Transition moves to next. Callers check CheckTransition first.
func (e *Emergency) Transition(next Status, now time.Time) {
	e.Status = next
	e.UpdatedAt = now
	if next == StatusFulfilled {
		t := now
		e.FulfilledAt = &t
	}
}

// CheckRespond returns a conflict error when the emergency no longer takes
// responses.
func (e *Emergency) CheckRespond() error {
	if e.Status != StatusActive {
		return dErrors.New(dErrors.CodeConflict, "emergency is no longer active")
	}
	return nil
}

// AddResponder appends a donor response.
func (e *Emergency) AddResponder(donorID domain.DonorID, response string, now time.Time) {
	e.Responders = append(e.Responders, Responder{DonorID: donorID, RespondedAt: now, Response: response})
	e.UpdatedAt = now
}

// CreateRequest carries the emergency fields. Status is accepted for
// compatibility and ignored.
type CreateRequest struct {
	PatientName string `json:"patientName"`
	BloodGroup  string `json:"bloodGroup"`
	Hospital    string `json:"hospital"`
	City        string `json:"city"`
	Contact     string `json:"contact"`
	Details     string `json:"details,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (r *CreateRequest) Normalize() {
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.BloodGroup = strings.TrimSpace(r.BloodGroup)
	r.Hospital = strings.TrimSpace(r.Hospital)
	r.City = strings.ToLower(strings.TrimSpace(r.City))
	r.Contact = strings.TrimSpace(r.Contact)
	r.Details = strings.TrimSpace(r.Details)
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	required := []struct{ field, value string }{
		{"patientName", r.PatientName},
		{"bloodGroup", r.BloodGroup},
		{"hospital", r.Hospital},
		{"city", r.City},
		{"contact", r.Contact},
	}
	for _, f := range required {
		if f.value == "" {
			return dErrors.New(dErrors.CodeValidation, f.field+" is required")
		}
	}
	if _, err := domain.ParseBloodGroup(r.BloodGroup); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "bloodGroup is invalid")
	}
	return nil
}

// RespondRequest records a donor's reply.
type RespondRequest struct {
	DonorID  string `json:"donorId"`
	Response string `json:"response"`
}

func (r *RespondRequest) Normalize() {
	r.DonorID = strings.TrimSpace(r.DonorID)
	r.Response = strings.TrimSpace(r.Response)
}

func (r *RespondRequest) Validate() error {
	if r.DonorID == "" {
		return dErrors.New(dErrors.CodeValidation, "donorId is required")
	}
	if r.Response == "" {
		return dErrors.New(dErrors.CodeValidation, "response is required")
	}
	if utf8.RuneCountInString(r.Response) > maxResponseLength {
		return dErrors.New(dErrors.CodeValidation, "response is too long")
	}
	return nil
}

// StatusRequest asks for a lifecycle transition.
type StatusRequest struct {
	Status string `json:"status"`
}

func (r *StatusRequest) Validate() error {
	_, err := ParseStatus(r.Status)
	return err
}
