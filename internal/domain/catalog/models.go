package catalog

import "time"

const (
	BillingMonthly = "monthly"
	BillingOneTime = "one_time"
)

type MainPackage struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	NameEn        string    `json:"nameEn"`
	Icon          string    `json:"icon,omitempty"`
	Description   string    `json:"description,omitempty"`
	DescriptionEn string    `json:"descriptionEn,omitempty"`
	Order         int       `json:"order"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DeliverableTemplate is copied onto a client service sold from the package.
type DeliverableTemplate struct {
	Key       string `json:"key"`
	LabelAr   string `json:"labelAr"`
	LabelEn   string `json:"labelEn"`
	Target    int    `json:"target"`
	IsBoolean bool   `json:"isBoolean,omitempty"`
}

type SubPackage struct {
	ID            string                `json:"id"`
	MainPackageID string                `json:"mainPackageId"`
	Name          string                `json:"name"`
	NameEn        string                `json:"nameEn"`
	Price         float64               `json:"price"`
	Currency      string                `json:"currency"`
	BillingType   string                `json:"billingType"`
	Description   string                `json:"description,omitempty"`
	DescriptionEn string                `json:"descriptionEn,omitempty"`
	Duration      string                `json:"duration,omitempty"`
	Deliverables  []DeliverableTemplate `json:"deliverables"`
	IsActive      bool                  `json:"isActive"`
	Order         int                   `json:"order"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}
