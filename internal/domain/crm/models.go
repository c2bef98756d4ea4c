package crm

import "time"

const (
	ClientStatusActive   = "active"
	ClientStatusArchived = "archived"

	LeadStageNew         = "new"
	LeadStageNegotiation = "negotiation"

	ServiceStatusNotStarted = "not_started"
	ServiceStatusInProgress = "in_progress"

	// UnknownPackage is stored when no main package exists at all.
	UnknownPackage  = "unknown"
	DefaultCurrency = "USD"
)

type Client struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	Company             string     `json:"company,omitempty"`
	Country             string     `json:"country,omitempty"`
	Source              string     `json:"source,omitempty"`
	Status              string     `json:"status"`
	SalesOwnerID        string     `json:"salesOwnerId,omitempty"`
	SalesOwners         []string   `json:"salesOwners"`
	ConvertedFromLeadID string     `json:"convertedFromLeadId,omitempty"`
	LeadCreatedAt       *time.Time `json:"leadCreatedAt,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type Lead struct {
	ID                    string               `json:"id"`
	Name                  string               `json:"name"`
	Email                 string               `json:"email,omitempty"`
	Phone                 string               `json:"phone,omitempty"`
	Company               string               `json:"company,omitempty"`
	Country               string               `json:"country,omitempty"`
	Source                string               `json:"source,omitempty"`
	Stage                 string               `json:"stage"`
	DealValue             float64              `json:"dealValue,omitempty"`
	DealCurrency          string               `json:"dealCurrency,omitempty"`
	Notes                 string               `json:"notes,omitempty"`
	NegotiatorID          string               `json:"negotiatorId,omitempty"`
	WasConfirmedClient    bool                 `json:"wasConfirmedClient"`
	ConvertedFromClientID string               `json:"convertedFromClientId,omitempty"`
	PreservedClientData   *PreservedClientData `json:"preservedClientData,omitempty"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

// PreservedClientData is the snapshot a lead carries when it was produced by
// converting a client back, so the client can be restored later.
type PreservedClientData struct {
	Client   Client          `json:"client"`
	Services []ClientService `json:"services"`
}

type ClientService struct {
	ID                   string        `json:"id"`
	ClientID             string        `json:"clientId"`
	MainPackageID        string        `json:"mainPackageId"`
	SubPackageID         string        `json:"subPackageId,omitempty"`
	ServiceName          string        `json:"serviceName"`
	ServiceNameEn        string        `json:"serviceNameEn,omitempty"`
	StartDate            string        `json:"startDate"`
	EndDate              string        `json:"endDate,omitempty"`
	Status               string        `json:"status"`
	Price                float64       `json:"price"`
	Currency             string        `json:"currency,omitempty"`
	SalesEmployeeID      string        `json:"salesEmployeeId,omitempty"`
	ExecutionEmployeeIDs []string      `json:"executionEmployeeIds"`
	Notes                string        `json:"notes,omitempty"`
	CompletedAt          *time.Time    `json:"completedAt,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
	Deliverables         []Deliverable `json:"deliverables,omitempty"`
}

type Deliverable struct {
	ID        string `json:"id,omitempty"`
	ServiceID string `json:"serviceId,omitempty"`
	Key       string `json:"key"`
	Label     string `json:"label,omitempty"`
	LabelAr   string `json:"labelAr"`
	LabelEn   string `json:"labelEn"`
	Target    int    `json:"target"`
	Completed int    `json:"completed"`
	IsBoolean bool   `json:"isBoolean"`
}

type ActivityLog struct {
	ID            string    `json:"id"`
	ServiceID     string    `json:"serviceId"`
	DeliverableID string    `json:"deliverableId,omitempty"`
	EmployeeID    string    `json:"employeeId,omitempty"`
	Action        string    `json:"action"`
	PreviousValue string    `json:"previousValue,omitempty"`
	NewValue      string    `json:"newValue,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ClientWithService struct {
	Client  Client        `json:"client"`
	Service ClientService `json:"service"`
}
