package notificationshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/notifications"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
	"agencyops/internal/transport/http/shared"
)

type Handler struct {
	Service   *notifications.Service
	Directory middleware.StaffDirectory
	Sessions  middleware.SessionStore
}

func NewHandler(service *notifications.Service, dir middleware.StaffDirectory, sessions middleware.SessionStore) *Handler {
	return &Handler{Service: service, Directory: dir, Sessions: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.With(middleware.RequireAdmin(h.Directory, h.Sessions)).Post("/", h.handleCreate)
		r.Post("/read-all", h.handleMarkAllRead)
		r.Post("/{notificationID}/read", h.handleMarkRead)
		r.Post("/{notificationID}/snooze", h.handleSnooze)
		r.Delete("/{notificationID}", h.handleDelete)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, notifications.ErrNotificationNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Notification not found", reqID)
	case errors.Is(err, notifications.ErrInvalidNotification), errors.Is(err, notifications.ErrInvalidSnooze):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("notification request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, fallback, reqID)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetStaff(r.Context())

	page := shared.ParsePagination(r, 100, 500)
	unread, err := h.Service.CountUnread(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), user.UserID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err, "notification_list_failed", "failed to list notifications")
		return
	}

	w.Header().Set("X-Unread-Count", strconv.Itoa(unread))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload notifications.Notification
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	n, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "notification_create_failed", "failed to create notification")
		return
	}
	api.Created(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetStaff(r.Context())
	if err := h.Service.MarkRead(r.Context(), user.UserID, chi.URLParam(r, "notificationID")); err != nil {
		writeError(w, r, err, "notification_update_failed", "failed to update notification")
		return
	}
	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetStaff(r.Context())
	if err := h.Service.MarkAllRead(r.Context(), user.UserID); err != nil {
		writeError(w, r, err, "notification_update_failed", "failed to update notifications")
		return
	}
	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSnooze(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetStaff(r.Context())
	var payload struct {
		SnoozedUntil time.Time `json:"snoozedUntil"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.Snooze(r.Context(), user.UserID, chi.URLParam(r, "notificationID"), payload.SnoozedUntil); err != nil {
		writeError(w, r, err, "notification_update_failed", "failed to snooze notification")
		return
	}
	api.Success(w, map[string]string{"status": "snoozed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetStaff(r.Context())
	if err := h.Service.Delete(r.Context(), user.UserID, chi.URLParam(r, "notificationID")); err != nil {
		writeError(w, r, err, "notification_delete_failed", "failed to delete notification")
		return
	}
	api.Success(w, map[string]string{"message": "Notification deleted successfully"}, middleware.GetRequestID(r.Context()))
}
