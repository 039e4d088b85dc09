package handler

import (
	"helpinghands/internal/donor/models"
	"helpinghands/pkg/domain"
)

type RegisterResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	DonorID domain.DonorID `json:"donorId"`
}

type DonorListResponse struct {
	Success bool            `json:"success"`
	Donors  []*models.Donor `json:"donors"`
	Count   int             `json:"count"`
}

type DonorResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Donor   *models.Donor `json:"donor"`
}

func newDonorList(donors []*models.Donor) DonorListResponse {
	if donors == nil {
		donors = []*models.Donor{}
	}
	return DonorListResponse{Success: true, Donors: donors, Count: len(donors)}
}
