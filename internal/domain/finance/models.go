package finance

import "time"

const (
	TypeIncome  = "income"
	TypeExpense = "expense"

	CategoryClientPayment = "client_payment"
	CategorySalaries      = "salaries"

	RelatedClientPayment  = "client_payment"
	RelatedPayrollPayment = "payroll_payment"

	StatusCompleted = "completed"

	InvoiceDraft   = "draft"
	InvoiceSent    = "sent"
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"

	DefaultPaymentMethod = "bank_transfer"
	SalaryMonthly        = "monthly"
)

// Transaction is a ledger row. Rows with a RelatedType mirror a payment and
// are only written through that payment.
type Transaction struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	RelatedID   string    `json:"relatedId,omitempty"`
	RelatedType string    `json:"relatedType,omitempty"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	ClientID    string    `json:"clientId,omitempty"`
	ServiceID   string    `json:"serviceId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t Transaction) Mirrored() bool {
	return t.RelatedType != ""
}

type ClientPayment struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"clientId"`
	ServiceID     string    `json:"serviceId,omitempty"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentDate   string    `json:"paymentDate"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PayrollPayment struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employeeId"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	PaymentDate string    `json:"paymentDate"`
	Period      string    `json:"period"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type EmployeeSalary struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employeeId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	EffectiveDate string    `json:"effectiveDate"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"createdAt"`
}

type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	ClientID      string        `json:"clientId"`
	ClientName    string        `json:"clientName"`
	ServiceID     string        `json:"serviceId,omitempty"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Status        string        `json:"status"`
	IssueDate     string        `json:"issueDate"`
	DueDate       string        `json:"dueDate"`
	PaidDate      string        `json:"paidDate,omitempty"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	Items         []InvoiceItem `json:"items"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// ItemsTotal is the sum of quantity times unit price over the items.
func (inv Invoice) ItemsTotal() float64 {
	var total float64
	for _, it := range inv.Items {
		total += it.Quantity * it.UnitPrice
	}
	return total
}

// BillableService is the slice of a client service the overdue calculation
// looks at. BillingType comes from the sub package and is empty when the
// service has none.
type BillableService struct {
	ID          string
	Price       float64
	Currency    string
	Status      string
	EndDate     string
	BillingType string
}

type ExchangeRates struct {
	ID        string             `json:"id"`
	Base      string             `json:"base"`
	Date      string             `json:"date"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

type TransactionFilter struct {
	Type     string
	Month    int
	Year     int
	ClientID string
}

type PaymentFilter struct {
	ClientID  string
	ServiceID string
	Month     int
	Year      int
}

type PayrollFilter struct {
	EmployeeID string
	Month      int
	Year       int
}
