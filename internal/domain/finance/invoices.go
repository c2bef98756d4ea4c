package finance

import (
	"context"
	"fmt"
	"strings"
)

var invoiceStatuses = map[string]bool{
	InvoiceDraft:   true,
	InvoiceSent:    true,
	InvoicePaid:    true,
	InvoiceOverdue: true,
	"cancelled":    true,
}

func (s *Service) ListInvoices(ctx context.Context, clientID string) ([]Invoice, error) {
	return s.Store.ListInvoices(ctx, clientID)
}

func (s *Service) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	return s.Store.GetInvoice(ctx, id)
}

func (s *Service) prepareInvoice(inv *Invoice) error {
	if strings.TrimSpace(inv.ClientID) == "" {
		return fmt.Errorf("%w: clientId", ErrMissingField)
	}
	inv.ClientName = strings.TrimSpace(inv.ClientName)
	if inv.Status == "" {
		inv.Status = InvoiceDraft
	}
	if !invoiceStatuses[inv.Status] {
		return ErrInvalidStatus
	}
	if inv.IssueDate == "" {
		inv.IssueDate = s.today()
	}
	for _, value := range []string{inv.IssueDate, inv.DueDate, inv.PaidDate} {
		if value == "" {
			continue
		}
		if _, err := parseDate(value); err != nil {
			return err
		}
	}
	if inv.Items == nil {
		inv.Items = []InvoiceItem{}
	}
	if inv.Amount == 0 && len(inv.Items) > 0 {
		inv.Amount = inv.ItemsTotal()
	}
	if inv.Amount < 0 {
		return ErrInvalidAmount
	}
	inv.Currency = s.currency(inv.Currency)
	return nil
}

// CreateInvoice stores a new invoice. Payments are only recorded when an
// update moves the invoice into paid, so creating it paid records nothing.
func (s *Service) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	if err := s.prepareInvoice(&inv); err != nil {
		return Invoice{}, err
	}
	now := s.now()
	inv.ID = s.newID()
	inv.CreatedAt, inv.UpdatedAt = now, now
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		inv.InvoiceNumber = invoiceNumber(now.Format("20060102"), inv.ID)
	}
	if err := s.Store.CreateInvoice(ctx, inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// UpdateInvoice applies changes under a row lock. Moving the invoice into
// paid from any other status records exactly one client payment and its
// income mirror; saving an invoice that is already paid records nothing.
func (s *Service) UpdateInvoice(ctx context.Context, id string, apply func(*Invoice) error) (Invoice, error) {
	var (
		out        Invoice
		becamePaid bool
	)
	err := s.Store.WithTx(ctx, func(repo Repo) error {
		current, err := repo.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		next := current
		if err := apply(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt, next.UpdatedAt = current.ID, current.CreatedAt, s.now()
		if strings.TrimSpace(next.InvoiceNumber) == "" {
			next.InvoiceNumber = current.InvoiceNumber
		}
		if err := s.prepareInvoice(&next); err != nil {
			return err
		}
		if err := repo.UpdateInvoice(ctx, next); err != nil {
			return err
		}
		out = next
		becamePaid = next.Status == InvoicePaid && current.Status != InvoicePaid
		if !becamePaid {
			return nil
		}
		return s.recordInvoicePayment(ctx, repo, next)
	})
	if becamePaid {
		s.Metrics.Cascade("invoice_paid", err)
	}
	return out, err
}

func (s *Service) recordInvoicePayment(ctx context.Context, repo Repo, inv Invoice) error {
	paidOn := inv.PaidDate
	if paidOn == "" {
		paidOn = s.today()
	}
	date, err := parseDate(paidOn)
	if err != nil {
		return err
	}
	method := inv.PaymentMethod
	if method == "" {
		method = DefaultPaymentMethod
	}
	payment := ClientPayment{
		ClientID:      inv.ClientID,
		ServiceID:     inv.ServiceID,
		Amount:        inv.Amount,
		Currency:      inv.Currency,
		PaymentDate:   paidOn,
		Month:         int(date.Month()),
		Year:          date.Year(),
		PaymentMethod: method,
		Notes:         "Payment for Invoice #" + inv.InvoiceNumber,
	}
	_, err = s.insertClientPayment(ctx, repo, payment, "Invoice Payment #"+inv.InvoiceNumber)
	return err
}

func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	return s.Store.DeleteInvoice(ctx, id)
}

func invoiceNumber(day, id string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return "INV-" + day + "-" + suffix
}
