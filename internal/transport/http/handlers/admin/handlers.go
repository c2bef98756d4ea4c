package adminhandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/auth"
	"agencyops/internal/transport/http/api"
	authhandler "agencyops/internal/transport/http/handlers/auth"
	"agencyops/internal/transport/http/middleware"
)

// Handler serves role, user and client-portal account administration. Every
// route requires the admin role.
type Handler struct {
	Service  *auth.Service
	Sessions middleware.SessionStore
}

func NewHandler(service *auth.Service, sessions middleware.SessionStore) *Handler {
	return &Handler{Service: service, Sessions: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.Service, h.Sessions))

		r.Get("/roles", h.HandleListRoles)
		r.Post("/roles", h.HandleCreateRole)
		r.Post("/roles/normalize-permissions", h.HandleNormalizeRoles)
		r.Put("/roles/{id}", h.HandleUpdateRole)
		r.Delete("/roles/{id}", h.HandleDeleteRole)

		r.Get("/users", h.HandleListUsers)
		r.Post("/users/normalize-permissions", h.HandleNormalizeUsers)
		r.Patch("/users/{id}/toggle-active", h.HandleToggleUser)
		r.Patch("/users/{id}/permissions", h.HandleUpdateUserAccess)
		r.Get("/users/{id}/permissions", h.HandleUserPermissions)

		r.Get("/client-users", h.HandleListClientUsers)
		r.Post("/client-users", h.HandleCreateClientUser)
		r.Get("/client-users/by-client/{clientId}", h.HandleClientUserByClient)
		r.Patch("/client-users/{id}/toggle-active", h.HandleToggleClientUser)
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to fetch roles")
		return
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	var payload auth.RoleInput
	if !decode(w, r, &payload) {
		return
	}
	role, err := h.Service.CreateRole(r.Context(), payload)
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to create role")
		return
	}
	api.Created(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var payload auth.RoleInput
	if !decode(w, r, &payload) {
		return
	}
	role, err := h.Service.UpdateRole(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to update role")
		return
	}
	api.Success(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		authhandler.WriteError(w, r, err, "Failed to delete role")
		return
	}
	api.Success(w, map[string]string{"message": "Role deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleNormalizeRoles(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.NormalizeRolePermissions(r.Context())
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to normalize roles")
		return
	}
	api.Success(w, map[string]any{"message": "Roles permissions normalized", "count": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to fetch users")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleNormalizeUsers(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.NormalizeUserPermissions(r.Context())
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to normalize users")
		return
	}
	api.Success(w, map[string]any{"message": "Users permissions normalized", "count": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleToggleUser(w http.ResponseWriter, r *http.Request) {
	staff, _ := middleware.GetStaff(r.Context())
	active, err := h.Service.ToggleUserActive(r.Context(), staff.UserID, chi.URLParam(r, "id"))
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to update user status")
		return
	}
	api.Success(w, map[string]any{"message": "User status updated", "isActive": active}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateUserAccess(w http.ResponseWriter, r *http.Request) {
	var payload auth.UserAccessInput
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.UpdateUserAccess(r.Context(), chi.URLParam(r, "id"), payload); err != nil {
		authhandler.WriteError(w, r, err, "Failed to update user permissions")
		return
	}
	api.Success(w, map[string]string{"message": "User permissions updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUserPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.UserPermissions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to get permissions")
		return
	}
	api.Success(w, perms, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListClientUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListClientUsers(r.Context())
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to fetch client users")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateClientUser(w http.ResponseWriter, r *http.Request) {
	var payload auth.ClientUserInput
	if !decode(w, r, &payload) {
		return
	}
	user, err := h.Service.CreateClientUser(r.Context(), payload)
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to create client user")
		return
	}
	api.Created(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleClientUserByClient(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.ClientUserForClient(r.Context(), chi.URLParam(r, "clientId"))
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to fetch client user")
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleToggleClientUser(w http.ResponseWriter, r *http.Request) {
	active, err := h.Service.ToggleClientUserActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		authhandler.WriteError(w, r, err, "Failed to update client user")
		return
	}
	api.Success(w, map[string]any{"message": "Client user status updated", "isActive": active}, middleware.GetRequestID(r.Context()))
}
