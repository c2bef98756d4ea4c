package catalog

import "errors"

var (
	ErrPackageNotFound    = errors.New("package not found")
	ErrSubPackageNotFound = errors.New("sub package not found")
	ErrNameRequired       = errors.New("name and nameEn are required")
	ErrInvalidBilling     = errors.New("billing type must be monthly or one_time")
	ErrInvalidPrice       = errors.New("price must not be negative")
)
