package handler

import (
	"helpinghands/internal/emergency/models"
	"helpinghands/pkg/domain"
)

type AlertResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	NotifiedCount int                `json:"notifiedCount"`
	EmergencyID   domain.EmergencyID `json:"emergencyId"`
	AIMessage     string             `json:"aiMessage"`
	AIGenerated   bool               `json:"aiGenerated"`
}

type EmergencyListResponse struct {
	Success     bool                `json:"success"`
	Emergencies []*models.Emergency `json:"emergencies"`
	Count       int                 `json:"count"`
}

type EmergencyResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Emergency *models.Emergency `json:"emergency"`
}
