package employees

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmailTaken       = errors.New("employee email already exists")
	ErrInvalidEmployee  = errors.New("name, email and start date are required")
	ErrInvalidSalary    = errors.New("salary must not be negative")
)
