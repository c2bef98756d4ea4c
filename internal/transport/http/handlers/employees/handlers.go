package employeeshandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/employees"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
)

type Handler struct {
	Service   *employees.Service
	Directory middleware.StaffDirectory
	Sessions  middleware.SessionStore
}

func NewHandler(service *employees.Service, dir middleware.StaffDirectory, sessions middleware.SessionStore) *Handler {
	return &Handler{Service: service, Directory: dir, Sessions: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission("employees", "view", h.Directory, h.Sessions)).Get("/employees", h.HandleList)
	r.With(middleware.RequirePermission("employees", "view", h.Directory, h.Sessions)).Get("/employees/{id}", h.HandleGet)
	r.With(middleware.RequirePermission("employees", "create", h.Directory, h.Sessions)).Post("/employees", h.HandleCreate)
	r.With(middleware.RequirePermission("employees", "edit", h.Directory, h.Sessions)).Put("/employees/{id}", h.HandleUpdate)
	r.With(middleware.RequirePermission("employees", "delete", h.Directory, h.Sessions)).Delete("/employees/{id}", h.HandleDelete)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, employees.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Employee not found", reqID)
	case errors.Is(err, employees.ErrEmailTaken):
		api.Fail(w, http.StatusBadRequest, "conflict", "Employee email already exists", reqID)
	case errors.Is(err, employees.ErrInvalidEmployee), errors.Is(err, employees.ErrInvalidSalary):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("employee request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, reqID)
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		writeError(w, r, err, "Failed to fetch employees")
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch employee")
		return
	}
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var payload employees.Employee
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	e, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create employee")
		return
	}
	api.Created(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	e, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), func(e *employees.Employee) error {
		return json.Unmarshal(body, e)
	})
	if err != nil {
		writeError(w, r, err, "Failed to update employee")
		return
	}
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete employee")
		return
	}
	api.Success(w, map[string]string{"message": "Employee deleted successfully"}, middleware.GetRequestID(r.Context()))
}
