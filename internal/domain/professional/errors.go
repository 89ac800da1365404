package professional

import "errors"

var (
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrProfessionalInactive = errors.New("professional record is not active")
)
