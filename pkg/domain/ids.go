package domain

import (
	"github.com/google/uuid"

	dErrors "helpinghands/pkg/domain-errors"
)

// Typed identifiers keep donor, emergency and notification references from
// being swapped by accident. Construct them from external input with the
// Parse functions; New* mints a fresh random ID.
type (
	DonorID        uuid.UUID
	EmergencyID    uuid.UUID
	NotificationID uuid.UUID
)

func NewDonorID() DonorID               { return DonorID(uuid.New()) }
func NewEmergencyID() EmergencyID       { return EmergencyID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// ParseDonorID parses a donor identifier from a path or body value.
func ParseDonorID(s string) (DonorID, error) {
	u, err := parseUUID(s, "donor id")
	return DonorID(u), err
}

// ParseEmergencyID parses an emergency identifier.
func ParseEmergencyID(s string) (EmergencyID, error) {
	u, err := parseUUID(s, "emergency id")
	return EmergencyID(u), err
}

// ParseNotificationID parses a notification identifier.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification id")
	return NotificationID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}

func (id DonorID) String() string { return uuid.UUID(id).String() }
func (id DonorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DonorID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *DonorID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id EmergencyID) String() string { return uuid.UUID(id).String() }
func (id EmergencyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id EmergencyID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *EmergencyID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id NotificationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *NotificationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
