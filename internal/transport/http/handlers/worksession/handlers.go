package worksessionhandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/access"
	"agencyops/internal/domain/worksession"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
	"agencyops/internal/transport/http/shared"
)

type Handler struct {
	Service   *worksession.Service
	Directory middleware.StaffDirectory
	Sessions  middleware.SessionStore
}

func NewHandler(service *worksession.Service, dir middleware.StaffDirectory, sessions middleware.SessionStore) *Handler {
	return &Handler{Service: service, Directory: dir, Sessions: sessions}
}

func (h *Handler) can(resource, action string) func(http.Handler) http.Handler {
	return middleware.RequirePermission(resource, action, h.Directory, h.Sessions)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(h.can("work_tracking", "view")).Get("/work-sessions", h.HandleList)
	r.With(middleware.RequireAuth).Get("/work-sessions/today", h.HandleToday)
	r.With(h.can("work_tracking", "view")).Get("/work-sessions/{id}", h.HandleGet)
	r.With(middleware.RequireAuth).Post("/work-sessions/start", h.HandleStart)
	r.With(middleware.RequireAuth).Post("/work-sessions/break", h.HandleBreak)
	r.With(middleware.RequireAuth).Post("/work-sessions/resume", h.HandleResume)
	r.With(middleware.RequireAuth).Post("/work-sessions/end", h.HandleEnd)
	r.With(h.can("work_tracking", "edit")).Put("/work-sessions/{id}", h.HandleUpdateNotes)
	r.With(h.can("work_tracking", "edit")).Put("/work-sessions/{id}/segments", h.HandleReplaceSegments)
	r.With(h.can("work_tracking", "edit")).Delete("/work-sessions/{id}", h.HandleDelete)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, worksession.ErrSessionNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Work session not found", reqID)
	case errors.Is(err, worksession.ErrInvalidTransition):
		api.Fail(w, http.StatusBadRequest, "invalid_transition", "This action is not allowed in the current session state", reqID)
	case errors.Is(err, worksession.ErrSessionExists):
		api.Fail(w, http.StatusBadRequest, "conflict", "A work session already exists for this day", reqID)
	case errors.Is(err, worksession.ErrInvalidSegments),
		errors.Is(err, worksession.ErrInvalidBreakType),
		errors.Is(err, worksession.ErrEmployeeRequired):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("work session request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
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

type transitionPayload struct {
	EmployeeID string `json:"employeeId"`
	BreakType  string `json:"breakType"`
	Note       string `json:"note"`
}

// actor resolves whose session a transition touches. Acting for someone
// else needs work_tracking:edit.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	staff, _ := middleware.GetStaff(r.Context())
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == staff.UserID {
		return staff.UserID, true
	}
	subject, err := h.Directory.LoadSubject(r.Context(), staff.UserID)
	if err != nil || !access.Allows(subject.Effective(), "work_tracking", "edit") {
		api.Fail(w, http.StatusForbidden, "forbidden", "Permission denied: "+access.Permission("work_tracking", "edit"), middleware.GetRequestID(r.Context()))
		return "", false
	}
	return requested, true
}

// readTransition accepts an empty body.
func (h *Handler) readTransition(w http.ResponseWriter, r *http.Request) (transitionPayload, string, bool) {
	var payload transitionPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return payload, "", false
		}
	}
	employeeID, ok := h.actor(w, r, payload.EmployeeID)
	return payload, employeeID, ok
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := shared.NewValidator()
	for _, field := range []string{"date", "startDate", "endDate"} {
		if raw := q.Get(field); raw != "" {
			v.Date(field, raw)
		}
	}
	v.Enum("status", q.Get("status"), []string{worksession.StatusNotStarted, worksession.StatusWorking, worksession.StatusOnBreak, worksession.StatusEnded}, "unknown status")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	items, err := h.Service.List(r.Context(), worksession.Filter{
		EmployeeID: q.Get("employeeId"),
		Date:       q.Get("date"),
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
		Status:     q.Get("status"),
	})
	if err != nil {
		writeError(w, r, err, "Failed to fetch work sessions")
		return
	}
	page := shared.ParsePagination(r, 200, 1000)
	api.Success(w, paginate(items, page), middleware.GetRequestID(r.Context()))
}

func paginate(items []worksession.Session, page shared.Pagination) []worksession.Session {
	if page.Offset >= len(items) {
		return []worksession.Session{}
	}
	end := len(items)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return items[page.Offset:end]
}

func (h *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.actor(w, r, r.URL.Query().Get("employeeId"))
	if !ok {
		return
	}
	session, err := h.Service.Today(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err, "Failed to fetch work session")
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch work session")
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	_, employeeID, ok := h.readTransition(w, r)
	if !ok {
		return
	}
	session, err := h.Service.Start(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err, "Failed to start work session")
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleBreak(w http.ResponseWriter, r *http.Request) {
	payload, employeeID, ok := h.readTransition(w, r)
	if !ok {
		return
	}
	session, err := h.Service.StartBreak(r.Context(), employeeID, payload.BreakType, payload.Note)
	if err != nil {
		writeError(w, r, err, "Failed to start break")
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	_, employeeID, ok := h.readTransition(w, r)
	if !ok {
		return
	}
	session, err := h.Service.Resume(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err, "Failed to resume work session")
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	_, employeeID, ok := h.readTransition(w, r)
	if !ok {
		return
	}
	session, err := h.Service.End(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err, "Failed to end work session")
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Notes string `json:"notes"`
	}
	if !decode(w, r, &payload) {
		return
	}
	session, err := h.Service.UpdateNotes(r.Context(), chi.URLParam(r, "id"), payload.Notes)
	if err != nil {
		writeError(w, r, err, "Failed to update work session")
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleReplaceSegments(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Segments []worksession.Segment `json:"segments"`
	}
	if !decode(w, r, &payload) {
		return
	}
	session, err := h.Service.Replace(r.Context(), chi.URLParam(r, "id"), payload.Segments)
	if err != nil {
		writeError(w, r, err, "Failed to update segments")
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete work session")
		return
	}
	api.Success(w, map[string]string{"message": "Work session deleted successfully"}, middleware.GetRequestID(r.Context()))
}
