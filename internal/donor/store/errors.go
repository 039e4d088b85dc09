package store

import (
	"fmt"

	"helpinghands/pkg/platform/sentinel"
)

// Unique donor fields.
const (
	FieldPhone = "phone"
	FieldEmail = "email"
)

// DuplicateError reports which unique field collided. It matches
// sentinel.ErrConflict under errors.Is.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("donor %s already registered", e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == sentinel.ErrConflict
}
