package crmhandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/crm"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
)

type Handler struct {
	Service   *crm.Service
	Directory middleware.StaffDirectory
	Sessions  middleware.SessionStore
}

func NewHandler(service *crm.Service, dir middleware.StaffDirectory, sessions middleware.SessionStore) *Handler {
	return &Handler{Service: service, Directory: dir, Sessions: sessions}
}

func (h *Handler) can(resource, action string) func(http.Handler) http.Handler {
	return middleware.RequirePermission(resource, action, h.Directory, h.Sessions)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(h.can("clients", "view")).Get("/clients", h.HandleListClients)
	r.With(h.can("clients", "view")).Get("/clients/{id}", h.HandleGetClient)
	r.With(h.can("clients", "create")).Post("/clients", h.HandleCreateClient)
	r.With(h.can("clients", "create")).Post("/clients/with-service", h.HandleCreateClientWithService)
	r.With(h.can("clients", "edit")).Put("/clients/{id}", h.HandleUpdateClient)
	r.With(h.can("clients", "archive")).Post("/clients/{id}/archive", h.HandleArchiveClient)
	r.With(h.can("clients", "delete")).Delete("/clients/{id}", h.HandleDeleteClient)
	r.With(h.can("leads", "convert")).Post("/clients/{id}/convert-to-lead", h.HandleConvertClient)

	r.With(h.can("leads", "view")).Get("/leads", h.HandleListLeads)
	r.With(h.can("leads", "view")).Get("/leads/{id}", h.HandleGetLead)
	r.With(h.can("leads", "create")).Post("/leads", h.HandleCreateLead)
	r.With(h.can("leads", "edit")).Put("/leads/{id}", h.HandleUpdateLead)
	r.With(h.can("leads", "delete")).Delete("/leads/{id}", h.HandleDeleteLead)
	r.With(h.can("leads", "convert")).Post("/leads/{id}/convert", h.HandleConvertLead)

	r.With(h.can("clients", "view")).Get("/client-services", h.HandleListServices)
	r.With(h.can("clients", "edit")).Post("/client-services", h.HandleCreateService)
	r.With(h.can("clients", "edit")).Put("/client-services/{id}", h.HandleUpdateService)
	r.With(h.can("clients", "edit")).Delete("/client-services/{id}", h.HandleDeleteService)
	r.With(h.can("work_tracking", "edit")).Put("/client-services/{id}/deliverables", h.HandleUpdateDeliverables)
	r.With(h.can("work_tracking", "view")).Get("/client-services/{id}/activity", h.HandleActivityLogs)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, crm.ErrClientNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Client not found", reqID)
	case errors.Is(err, crm.ErrLeadNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Lead not found", reqID)
	case errors.Is(err, crm.ErrServiceNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Service not found", reqID)
	case errors.Is(err, crm.ErrNameRequired):
		api.Fail(w, http.StatusBadRequest, "validation_error", "Name is required", reqID)
	case errors.Is(err, crm.ErrServiceInvalid):
		api.Fail(w, http.StatusBadRequest, "validation_error", "Service name and start date are required", reqID)
	case errors.Is(err, crm.ErrDeliverableKey):
		api.Fail(w, http.StatusBadRequest, "validation_error", "Every deliverable needs a key", reqID)
	default:
		slog.Error("crm request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
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

// readPatch returns the raw body so it can be decoded over the stored row.
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

func (h *Handler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListClients(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch clients")
		return
	}
	api.Success(w, clients, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.Service.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch client")
		return
	}
	api.Success(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	var payload crm.Client
	if !decode(w, r, &payload) {
		return
	}
	client, err := h.Service.CreateClient(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create client")
		return
	}
	api.Created(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateClientWithService(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Client  crm.Client        `json:"client"`
		Service crm.ClientService `json:"service"`
	}
	if !decode(w, r, &payload) {
		return
	}
	out, err := h.Service.CreateClientWithService(r.Context(), payload.Client, payload.Service)
	if err != nil {
		writeError(w, r, err, "Failed to create client with service")
		return
	}
	api.Created(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateClient(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	client, err := h.Service.UpdateClient(r.Context(), chi.URLParam(r, "id"), overlay[crm.Client](body))
	if err != nil {
		writeError(w, r, err, "Failed to update client")
		return
	}
	api.Success(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleArchiveClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.Service.ArchiveClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to archive client")
		return
	}
	api.Success(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete client")
		return
	}
	api.Success(w, map[string]string{"message": "Client deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleConvertClient(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Service.ConvertClientToLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to convert client to lead")
		return
	}
	api.Success(w, lead, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Service.ListLeads(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to fetch leads")
		return
	}
	api.Success(w, leads, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Service.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch lead")
		return
	}
	api.Success(w, lead, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateLead(w http.ResponseWriter, r *http.Request) {
	var payload crm.Lead
	if !decode(w, r, &payload) {
		return
	}
	lead, err := h.Service.CreateLead(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create lead")
		return
	}
	api.Created(w, lead, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateLead(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	lead, err := h.Service.UpdateLead(r.Context(), chi.URLParam(r, "id"), overlay[crm.Lead](body))
	if err != nil {
		writeError(w, r, err, "Failed to update lead")
		return
	}
	api.Success(w, lead, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete lead")
		return
	}
	api.Success(w, map[string]string{"message": "Lead deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleConvertLead(w http.ResponseWriter, r *http.Request) {
	client, err := h.Service.ConvertLeadToClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to convert lead")
		return
	}
	api.Success(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Service.ListServices(r.Context(), r.URL.Query().Get("clientId"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch client services")
		return
	}
	api.Success(w, services, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateService(w http.ResponseWriter, r *http.Request) {
	var payload crm.ClientService
	if !decode(w, r, &payload) {
		return
	}
	svc, err := h.Service.CreateService(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create client service")
		return
	}
	api.Created(w, svc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateService(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	svc, err := h.Service.UpdateService(r.Context(), chi.URLParam(r, "id"), overlay[crm.ClientService](body))
	if err != nil {
		writeError(w, r, err, "Failed to update client service")
		return
	}
	api.Success(w, svc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete client service")
		return
	}
	api.Success(w, map[string]string{"message": "Service deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateDeliverables(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EmployeeID   string            `json:"employeeId"`
		Deliverables []crm.Deliverable `json:"deliverables"`
	}
	if !decode(w, r, &payload) {
		return
	}
	employeeID := payload.EmployeeID
	if employeeID == "" {
		if staff, ok := middleware.GetStaff(r.Context()); ok {
			employeeID = staff.UserID
		}
	}
	items, err := h.Service.UpdateDeliverables(r.Context(), chi.URLParam(r, "id"), employeeID, payload.Deliverables)
	if err != nil {
		writeError(w, r, err, "Failed to update deliverables")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleActivityLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Service.ListActivityLogs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch activity logs")
		return
	}
	api.Success(w, logs, middleware.GetRequestID(r.Context()))
}
