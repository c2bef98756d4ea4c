package financehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/finance"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
	"agencyops/internal/transport/http/shared"
)

type Handler struct {
	Service     *finance.Service
	Directory   middleware.StaffDirectory
	Sessions    middleware.SessionStore
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(service *finance.Service, dir middleware.StaffDirectory, sessions middleware.SessionStore, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Directory: dir, Sessions: sessions, Idempotency: idem}
}

func (h *Handler) can(resource, action string) func(http.Handler) http.Handler {
	return middleware.RequirePermission(resource, action, h.Directory, h.Sessions)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	once := middleware.Idempotent(h.Idempotency)

	r.With(h.can("invoices", "view")).Get("/invoices", h.HandleListInvoices)
	r.With(h.can("invoices", "view")).Get("/invoices/{id}", h.HandleGetInvoice)
	r.With(h.can("invoices", "view")).Get("/invoices/{id}/pdf", h.HandleInvoicePDF)
	r.With(h.can("invoices", "create"), once).Post("/invoices", h.HandleCreateInvoice)
	r.With(h.can("invoices", "edit")).Put("/invoices/{id}", h.HandleUpdateInvoice)
	r.With(h.can("invoices", "delete")).Delete("/invoices/{id}", h.HandleDeleteInvoice)

	r.With(h.can("finance", "view")).Get("/client-payments", h.HandleListClientPayments)
	r.With(h.can("finance", "create"), once).Post("/client-payments", h.HandleCreateClientPayment)
	r.With(h.can("finance", "edit")).Put("/client-payments/{id}", h.HandleUpdateClientPayment)
	r.With(h.can("finance", "delete")).Delete("/client-payments/{id}", h.HandleDeleteClientPayment)

	r.With(h.can("finance", "view")).Get("/payroll-payments", h.HandleListPayrollPayments)
	r.With(h.can("finance", "create"), once).Post("/payroll-payments", h.HandleCreatePayrollPayment)
	r.With(h.can("finance", "edit")).Put("/payroll-payments/{id}", h.HandleUpdatePayrollPayment)
	r.With(h.can("finance", "delete")).Delete("/payroll-payments/{id}", h.HandleDeletePayrollPayment)

	r.With(h.can("finance", "view")).Get("/salaries", h.HandleListSalaries)
	r.With(h.can("finance", "edit")).Put("/salaries/{employeeId}", h.HandleUpsertSalary)

	r.With(h.can("finance", "view")).Get("/transactions", h.HandleListTransactions)
	r.With(h.can("finance", "create"), once).Post("/transactions", h.HandleCreateTransaction)
	r.With(h.can("finance", "edit")).Put("/transactions/{id}", h.HandleUpdateTransaction)
	r.With(h.can("finance", "delete")).Delete("/transactions/{id}", h.HandleDeleteTransaction)

	r.With(h.can("finance", "view")).Get("/finance/summary", h.HandleSummary)
	r.With(h.can("finance", "export")).Get("/finance/export", h.HandleExport)

	r.With(h.can("settings", "view")).Get("/exchange-rates", h.HandleGetRates)
	r.With(h.can("settings", "edit")).Put("/exchange-rates", h.HandleSaveRates)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, finance.ErrInvoiceNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Invoice not found", reqID)
	case errors.Is(err, finance.ErrPaymentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Payment not found", reqID)
	case errors.Is(err, finance.ErrTransactionNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Transaction not found", reqID)
	case errors.Is(err, finance.ErrRatesNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "No exchange rates stored", reqID)
	case errors.Is(err, finance.ErrMirroredTransaction):
		api.Fail(w, http.StatusBadRequest, "conflict", "This transaction is managed by its payment", reqID)
	case errors.Is(err, finance.ErrInvoiceNumber):
		api.Fail(w, http.StatusBadRequest, "conflict", "Invoice number already exists", reqID)
	case errors.Is(err, finance.ErrInvalidAmount),
		errors.Is(err, finance.ErrInvalidDate),
		errors.Is(err, finance.ErrInvalidType),
		errors.Is(err, finance.ErrInvalidPeriod),
		errors.Is(err, finance.ErrInvalidStatus),
		errors.Is(err, finance.ErrInvalidRates),
		errors.Is(err, finance.ErrInvalidFormat),
		errors.Is(err, finance.ErrMissingField):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("finance request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, reqID)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func readPatch(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return body, true
}

func overlay[T any](body []byte) func(*T) error {
	return func(dst *T) error {
		return json.Unmarshal(body, dst)
	}
}

func (h *Handler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListInvoices(r.Context(), r.URL.Query().Get("clientId"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch invoices")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch invoice")
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, data, err := h.Service.InvoicePDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to render invoice")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", inv.InvoiceNumber))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) HandleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var payload finance.Invoice
	if !decode(w, r, &payload) {
		return
	}
	inv, err := h.Service.CreateInvoice(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create invoice")
		return
	}
	api.Created(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	inv, err := h.Service.UpdateInvoice(r.Context(), chi.URLParam(r, "id"), overlay[finance.Invoice](body))
	if err != nil {
		writeError(w, r, err, "Failed to update invoice")
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteInvoice(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete invoice")
		return
	}
	api.Success(w, map[string]string{"message": "Invoice deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListClientPayments(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	period := shared.ParsePeriod(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	q := r.URL.Query()
	items, err := h.Service.ListClientPayments(r.Context(), finance.PaymentFilter{
		ClientID:  q.Get("clientId"),
		ServiceID: q.Get("serviceId"),
		Month:     period.Month,
		Year:      period.Year,
	})
	if err != nil {
		writeError(w, r, err, "Failed to fetch payments")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateClientPayment(w http.ResponseWriter, r *http.Request) {
	var payload finance.ClientPayment
	if !decode(w, r, &payload) {
		return
	}
	p, err := h.Service.CreateClientPayment(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create payment")
		return
	}
	api.Created(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateClientPayment(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	p, err := h.Service.UpdateClientPayment(r.Context(), chi.URLParam(r, "id"), overlay[finance.ClientPayment](body))
	if err != nil {
		writeError(w, r, err, "Failed to update payment")
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteClientPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteClientPayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete payment")
		return
	}
	api.Success(w, map[string]string{"message": "Payment deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListPayrollPayments(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	period := shared.ParsePeriod(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	items, err := h.Service.ListPayrollPayments(r.Context(), finance.PayrollFilter{
		EmployeeID: r.URL.Query().Get("employeeId"),
		Month:      period.Month,
		Year:       period.Year,
	})
	if err != nil {
		writeError(w, r, err, "Failed to fetch payroll payments")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreatePayrollPayment(w http.ResponseWriter, r *http.Request) {
	var payload finance.PayrollPayment
	if !decode(w, r, &payload) {
		return
	}
	p, err := h.Service.CreatePayrollPayment(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create payroll payment")
		return
	}
	api.Created(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdatePayrollPayment(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	p, err := h.Service.UpdatePayrollPayment(r.Context(), chi.URLParam(r, "id"), overlay[finance.PayrollPayment](body))
	if err != nil {
		writeError(w, r, err, "Failed to update payroll payment")
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeletePayrollPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePayrollPayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete payroll payment")
		return
	}
	api.Success(w, map[string]string{"message": "Payroll payment deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListSalaries(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListSalaries(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to fetch salaries")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpsertSalary(w http.ResponseWriter, r *http.Request) {
	var payload finance.EmployeeSalary
	if !decode(w, r, &payload) {
		return
	}
	salary, err := h.Service.UpsertSalary(r.Context(), chi.URLParam(r, "employeeId"), payload)
	if err != nil {
		writeError(w, r, err, "Failed to save salary")
		return
	}
	api.Success(w, salary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	period := shared.ParsePeriod(r, v)
	q := r.URL.Query()
	v.Enum("type", q.Get("type"), []string{finance.TypeIncome, finance.TypeExpense}, "must be income or expense")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	items, err := h.Service.ListTransactions(r.Context(), finance.TransactionFilter{
		Type:     q.Get("type"),
		Month:    period.Month,
		Year:     period.Year,
		ClientID: q.Get("clientId"),
	})
	if err != nil {
		writeError(w, r, err, "Failed to fetch transactions")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload finance.Transaction
	if !decode(w, r, &payload) {
		return
	}
	t, err := h.Service.CreateTransaction(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create transaction")
		return
	}
	api.Created(w, t, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	t, err := h.Service.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), overlay[finance.Transaction](body))
	if err != nil {
		writeError(w, r, err, "Failed to update transaction")
		return
	}
	api.Success(w, t, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete transaction")
		return
	}
	api.Success(w, map[string]string{"message": "Transaction deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	period := shared.ParsePeriod(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	summary, err := h.Service.Summary(r.Context(), period.Month, period.Year, r.URL.Query().Get("currency"))
	if err != nil {
		writeError(w, r, err, "Failed to build finance summary")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	period := shared.ParsePeriod(r, v)
	format := r.URL.Query().Get("format")
	v.Enum("format", format, []string{"xlsx", "csv"}, "must be xlsx or csv")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	data, err := h.Service.ExportTransactions(r.Context(), period.Month, period.Year, format)
	if err != nil {
		writeError(w, r, err, "Failed to export transactions")
		return
	}
	name := "transactions"
	if period.Year > 0 {
		name = fmt.Sprintf("transactions-%04d", period.Year)
		if period.Month > 0 {
			name = fmt.Sprintf("%s-%02d", name, period.Month)
		}
	}
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename="+name+".csv")
	} else {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+name+".xlsx")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Service.LatestRates(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to fetch exchange rates")
		return
	}
	api.Success(w, rates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleSaveRates(w http.ResponseWriter, r *http.Request) {
	var payload finance.ExchangeRates
	if !decode(w, r, &payload) {
		return
	}
	rates, err := h.Service.SaveRates(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to save exchange rates")
		return
	}
	api.Success(w, rates, middleware.GetRequestID(r.Context()))
}
