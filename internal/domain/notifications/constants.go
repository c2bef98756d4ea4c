package notifications

const (
	TypeTaskAssigned  = "task_assigned"
	TypeInvoicePaid   = "invoice_paid"
	TypePaymentDue    = "payment_due"
	TypeLeadConverted = "lead_converted"
	TypeSystem        = "system"

	RelatedCalendarEvent = "calendar_event"
	RelatedInvoice       = "invoice"
	RelatedClient        = "client"
)
