package portalhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/crm"
	"agencyops/internal/domain/finance"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
)

type ClientReader interface {
	GetClient(ctx context.Context, id string) (crm.Client, error)
	ListServices(ctx context.Context, clientID string) ([]crm.ClientService, error)
}

type InvoiceReader interface {
	ListInvoices(ctx context.Context, clientID string) ([]finance.Invoice, error)
	InvoicePDF(ctx context.Context, id string) (finance.Invoice, []byte, error)
}

// Handler serves the client portal. Every query is scoped to the ClientID of
// the caller's session; path and query parameters never widen it.
type Handler struct {
	Clients  ClientReader
	Invoices InvoiceReader
}

func NewHandler(clients ClientReader, invoices InvoiceReader) *Handler {
	return &Handler{Clients: clients, Invoices: invoices}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portal", func(r chi.Router) {
		r.Use(middleware.RequireClientAuth)
		r.Get("/me", h.handleMe)
		r.Get("/services", h.handleServices)
		r.Get("/invoices", h.handleInvoices)
		r.Get("/invoices/{id}/pdf", h.handleInvoicePDF)
	})
}

func clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, ok := middleware.GetClient(r.Context())
	if !ok || c.ClientID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "Forbidden: Client access required", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return c.ClientID, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, crm.ErrClientNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Client not found", reqID)
	case errors.Is(err, finance.ErrInvoiceNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Invoice not found", reqID)
	default:
		slog.Error("portal request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, reqID)
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}
	c, err := h.Clients.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "Failed to fetch client")
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleServices(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}
	services, err := h.Clients.ListServices(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "Failed to fetch services")
		return
	}
	api.Success(w, services, middleware.GetRequestID(r.Context()))
}

// Drafts stay internal until they are sent.
func (h *Handler) handleInvoices(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}
	invoices, err := h.Invoices.ListInvoices(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "Failed to fetch invoices")
		return
	}
	out := make([]finance.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.ClientID == id && inv.Status != finance.InvoiceDraft {
			out = append(out, inv)
		}
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}
	inv, pdf, err := h.Invoices.InvoicePDF(r.Context(), chi.URLParam(r, "id"))
	if err == nil && (inv.ClientID != id || inv.Status == finance.InvoiceDraft) {
		err = finance.ErrInvoiceNotFound
	}
	if err != nil {
		writeError(w, r, err, "Failed to render invoice")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="invoice-`+inv.InvoiceNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
