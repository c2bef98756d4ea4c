package finance

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrSalaryNotFound      = errors.New("salary not found")
	ErrRatesNotFound       = errors.New("exchange rates not found")

	// ErrMirroredTransaction rejects direct writes to a ledger row owned by
	// a payment.
	ErrMirroredTransaction = errors.New("transaction is managed by its payment")

	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrInvalidType   = errors.New("type must be income or expense")
	ErrInvalidPeriod = errors.New("period must be YYYY-MM")
	ErrInvalidStatus = errors.New("invalid invoice status")
	ErrInvalidRates  = errors.New("rates must be positive numbers")
	ErrMissingField  = errors.New("required field missing")
	ErrInvoiceNumber = errors.New("invoice number already exists")
	ErrInvalidFormat = errors.New("format must be xlsx or csv")
)
