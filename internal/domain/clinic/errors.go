package clinic

import "errors"

var (
	ErrClinicNotFound = errors.New("clinic not found")
	ErrClinicInactive = errors.New("clinic is not active")
)
