package calendar

import (
	"errors"
	"time"
)

const (
	SourceManual = "manual"
	SourceSystem = "system"

	TypeManual        = "manual"
	TypePackageEnd    = "package_end"
	TypeDeliveryDue   = "delivery_due"
	TypePayroll       = "payroll"
	TypeClientPayment = "client_payment"
	TypeTask          = "task"

	StatusUpcoming = "upcoming"
	StatusToday    = "today"
	StatusOverdue  = "overdue"
	StatusDone     = "done"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	ErrEventNotFound = errors.New("calendar event not found")
	ErrTitleRequired = errors.New("titleAr is required")
	ErrInvalidEvent  = errors.New("invalid calendar event")
)

type Event struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	EventType  string    `json:"eventType"`
	TitleAr    string    `json:"titleAr"`
	TitleEn    string    `json:"titleEn,omitempty"`
	Date       string    `json:"date"`
	Time       string    `json:"time,omitempty"`
	Status     string    `json:"status"`
	Priority   string    `json:"priority"`
	ClientID   string    `json:"clientId,omitempty"`
	ServiceID  string    `json:"serviceId,omitempty"`
	EmployeeID string    `json:"employeeId,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Filter fields are ignored when empty. Dates are inclusive.
type Filter struct {
	StartDate  string
	EndDate    string
	EventType  string
	Status     string
	ClientID   string
	EmployeeID string
}
