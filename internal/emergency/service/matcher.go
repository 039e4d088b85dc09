package service

import (
	"strings"

	donormodels "helpinghands/internal/donor/models"
	"helpinghands/internal/emergency/models"
)

// Match returns the available donors with the emergency's exact blood group
// in its city, in input order.
func Match(e *models.Emergency, donors []*donormodels.Donor) []*donormodels.Donor {
	matched := make([]*donormodels.Donor, 0, len(donors))
	for _, d := range donors {
		if d == nil || !d.Available {
			continue
		}
		if d.BloodGroup != e.BloodGroup {
			continue
		}
		if !strings.EqualFold(d.City, e.City) {
			continue
		}
		matched = append(matched, d)
	}
	return matched
}
