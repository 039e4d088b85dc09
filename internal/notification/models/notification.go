package models

import (
	"time"

	"helpinghands/pkg/domain"
)

// Type classifies a notification.
type Type string

const (
	TypeEmergency Type = "emergency"
	TypeReminder  Type = "reminder"
	TypeThankYou  Type = "thank_you"
	TypeUpdate    Type = "update"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeEmergency, TypeReminder, TypeThankYou, TypeUpdate:
		return true
	}
	return false
}

// Notification is a message sent to one donor.
type Notification struct {
	ID          domain.NotificationID `json:"id"`
	DonorID     domain.DonorID        `json:"donorId"`
	EmergencyID *domain.EmergencyID   `json:"emergencyId,omitempty"`
	Type        Type                  `json:"type"`
	Message     string                `json:"message"`
	Read        bool                  `json:"read"`
	SentAt      time.Time             `json:"sentAt"`
}

// New builds an unread notification.
func New(donorID domain.DonorID, emergencyID *domain.EmergencyID, typ Type, message string, now time.Time) *Notification {
	n := &Notification{
		ID:      domain.NewNotificationID(),
		DonorID: donorID,
		Type:    typ,
		Message: message,
		SentAt:  now,
	}
	if emergencyID != nil {
		id := *emergencyID
		n.EmergencyID = &id
	}
	return n
}

func (n *Notification) Clone() *Notification {
	c := *n
	if n.EmergencyID != nil {
		id := *n.EmergencyID
		c.EmergencyID = &id
	}
	return &c
}
