package employees

import "time"

type Employee struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NameEn         string    `json:"nameEn,omitempty"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	RoleID         string    `json:"roleId,omitempty"`
	Department     string    `json:"department,omitempty"`
	JobTitle       string    `json:"jobTitle,omitempty"`
	SalaryType     string    `json:"salaryType"`
	SalaryAmount   *float64  `json:"salaryAmount,omitempty"`
	SalaryCurrency string    `json:"salaryCurrency"`
	StartDate      string    `json:"startDate"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
