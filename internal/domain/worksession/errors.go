package worksession

import "errors"

var (
	ErrSessionNotFound   = errors.New("work session not found")
	ErrSessionExists     = errors.New("work session already exists for this day")
	ErrInvalidTransition = errors.New("transition not allowed from the current status")
	ErrInvalidSegments   = errors.New("invalid segment list")
	ErrInvalidBreakType  = errors.New("break type must be short, long or lunch")
	ErrEmployeeRequired  = errors.New("employee is required")
)
