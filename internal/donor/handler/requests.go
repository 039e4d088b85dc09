package handler

import (
	"strings"
	"time"

	dErrors "helpinghands/pkg/domain-errors"
)

// AvailabilityRequest toggles a donor's availability.
type AvailabilityRequest struct {
	Available *bool `json:"available"`
}

func (r *AvailabilityRequest) Validate() error {
	if r.Available == nil {
		return dErrors.New(dErrors.CodeValidation, "available is required")
	}
	return nil
}

// DonationRequest records a completed donation. DonatedAt defaults to now.
type DonationRequest struct {
	DonatedAt *time.Time `json:"donatedAt,omitempty"`
}

// queryBloodGroup recovers a blood group from a query string. An unescaped
// "+" is decoded as a space, so "O+" arrives as "O ".
func queryBloodGroup(raw string) string {
	core := strings.TrimSpace(raw)
	if strings.HasSuffix(raw, " ") && !strings.ContainsAny(core, "+-") && core != "" {
		return core + "+"
	}
	return core
}
