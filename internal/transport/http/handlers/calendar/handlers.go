package calendarhandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/calendar"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
	"agencyops/internal/transport/http/shared"
)

type Handler struct {
	Service   *calendar.Service
	Directory middleware.StaffDirectory
	Sessions  middleware.SessionStore
}

func NewHandler(service *calendar.Service, dir middleware.StaffDirectory, sessions middleware.SessionStore) *Handler {
	return &Handler{Service: service, Directory: dir, Sessions: sessions}
}

func (h *Handler) can(action string) func(http.Handler) http.Handler {
	return middleware.RequirePermission("calendar", action, h.Directory, h.Sessions)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar-events", func(r chi.Router) {
		r.With(h.can("view")).Get("/", h.handleList)
		r.With(h.can("create")).Post("/", h.handleCreate)
		r.With(h.can("view")).Get("/{id}", h.handleGet)
		r.With(h.can("edit")).Put("/{id}", h.handleUpdate)
		r.With(h.can("delete")).Delete("/{id}", h.handleDelete)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, calendar.ErrEventNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Calendar event not found", reqID)
	case errors.Is(err, calendar.ErrTitleRequired), errors.Is(err, calendar.ErrInvalidEvent):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("calendar request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, reqID)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := calendar.Filter{
		StartDate:  strings.TrimSpace(q.Get("startDate")),
		EndDate:    strings.TrimSpace(q.Get("endDate")),
		EventType:  strings.TrimSpace(q.Get("eventType")),
		Status:     strings.TrimSpace(q.Get("status")),
		ClientID:   strings.TrimSpace(q.Get("clientId")),
		EmployeeID: strings.TrimSpace(q.Get("employeeId")),
	}

	v := shared.NewValidator()
	var start, end time.Time
	if f.StartDate != "" {
		start, _ = v.Date("startDate", f.StartDate)
	}
	if f.EndDate != "" {
		end, _ = v.Date("endDate", f.EndDate)
	}
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	events, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err, "Failed to fetch calendar events")
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch calendar event")
		return
	}
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	e, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create calendar event")
		return
	}
	api.Created(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	e, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), func(e *calendar.Event) error {
		return json.Unmarshal(body, e)
	})
	if err != nil {
		writeError(w, r, err, "Failed to update calendar event")
		return
	}
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete calendar event")
		return
	}
	api.Success(w, map[string]string{"message": "Calendar event deleted successfully"}, middleware.GetRequestID(r.Context()))
}
