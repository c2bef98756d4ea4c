package crm

import "errors"

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrLeadNotFound    = errors.New("lead not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrNameRequired    = errors.New("name is required")
	ErrServiceInvalid  = errors.New("service name and start date are required")
	ErrDeliverableKey  = errors.New("deliverable key is required")
)
