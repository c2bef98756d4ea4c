package authhandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/auth"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
)

type Handler struct {
	Service  *auth.Service
	Sessions middleware.SessionStore
	// LoginLimit wraps the credential endpoints; nil disables limiting.
	LoginLimit func(http.Handler) http.Handler
}

func NewHandler(service *auth.Service, sessions middleware.SessionStore, loginLimit func(http.Handler) http.Handler) *Handler {
	return &Handler{Service: service, Sessions: sessions, LoginLimit: loginLimit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	limited := r
	if h.LoginLimit != nil {
		limited = r.With(h.LoginLimit)
	}
	limited.Post("/auth/login", h.HandleLogin)
	limited.Post("/client/auth/login", h.HandleClientLogin)
	limited.Post("/auth/forgot-password", h.HandleForgotPassword)

	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
	r.With(middleware.RequireAdmin(h.Service, h.Sessions)).Post("/auth/invite", h.HandleInvite)
	r.Get("/auth/invite/{token}", h.HandleCheckInvite)
	r.Post("/auth/set-password", h.HandleSetPassword)
	r.Get("/auth/reset/{token}", h.HandleCheckReset)
	r.Post("/auth/reset-password", h.HandleResetPassword)
	r.With(middleware.RequireAuth).Post("/auth/change-password", h.HandleChangePassword)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type setPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func currentSessionID(r *http.Request) string {
	if sess, ok := middleware.GetSession(r.Context()); ok {
		return sess.ID
	}
	return ""
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !decode(w, r, &payload) {
		return
	}
	res, err := h.Service.Login(r.Context(), currentSessionID(r), payload.Email, payload.Password)
	if err != nil {
		WriteError(w, r, err, "Login failed")
		return
	}
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleClientLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !decode(w, r, &payload) {
		return
	}
	res, err := h.Service.ClientLogin(r.Context(), currentSessionID(r), payload.Email, payload.Password)
	if err != nil {
		WriteError(w, r, err, "Login failed")
		return
	}
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), currentSessionID(r)); err != nil {
		WriteError(w, r, err, "Logout failed")
		return
	}
	api.Success(w, map[string]string{"message": "Logged out successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "Not authenticated", middleware.GetRequestID(r.Context()))
		return
	}
	profile, err := h.Service.Me(r.Context(), sess)
	if err != nil {
		WriteError(w, r, err, "Auth check failed")
		return
	}
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	staff, _ := middleware.GetStaff(r.Context())
	var payload auth.InviteInput
	if !decode(w, r, &payload) {
		return
	}
	res, err := h.Service.Invite(r.Context(), staff.UserID, payload)
	if err != nil {
		WriteError(w, r, err, "Failed to create invitation")
		return
	}
	api.Created(w, map[string]any{
		"message":    "Invitation created",
		"inviteLink": res.InviteLink,
		"expiresAt":  res.ExpiresAt,
		"emailSent":  res.EmailQueue,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCheckInvite(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.CheckInvitation(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		WriteError(w, r, err, "Failed to check invitation")
		return
	}
	api.Success(w, map[string]string{"email": inv.Email, "name": inv.Name, "nameEn": inv.NameEn}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var payload setPasswordRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.AcceptInvitation(r.Context(), currentSessionID(r), payload.Token, payload.Password); err != nil {
		WriteError(w, r, err, "Failed to set password")
		return
	}
	api.Success(w, map[string]string{"message": "Password set successfully. Please login."}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload forgotRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.ForgotPassword(r.Context(), payload.Email); err != nil {
		WriteError(w, r, err, "Failed to process request")
		return
	}
	api.Success(w, map[string]string{"message": "If this email exists, a reset link will be sent"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCheckReset(w http.ResponseWriter, r *http.Request) {
	reset, err := h.Service.CheckReset(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		WriteError(w, r, err, "Failed to check reset link")
		return
	}
	api.Success(w, map[string]string{"email": reset.Email}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload setPasswordRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.ResetPassword(r.Context(), payload.Token, payload.Password); err != nil {
		WriteError(w, r, err, "Failed to reset password")
		return
	}
	api.Success(w, map[string]string{"message": "Password reset successfully. You can now login."}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	staff, _ := middleware.GetStaff(r.Context())
	var payload changePasswordRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), staff.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		WriteError(w, r, err, "Failed to change password")
		return
	}
	api.Success(w, map[string]string{"message": "Password changed successfully"}, middleware.GetRequestID(r.Context()))
}
