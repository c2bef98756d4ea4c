package cataloghandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyops/internal/domain/catalog"
	"agencyops/internal/transport/http/api"
	"agencyops/internal/transport/http/middleware"
)

type Handler struct {
	Service   *catalog.Service
	Directory middleware.StaffDirectory
	Sessions  middleware.SessionStore
}

func NewHandler(service *catalog.Service, dir middleware.StaffDirectory, sessions middleware.SessionStore) *Handler {
	return &Handler{Service: service, Directory: dir, Sessions: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	view := middleware.RequirePermission("packages", "view", h.Directory, h.Sessions)
	create := middleware.RequirePermission("packages", "create", h.Directory, h.Sessions)
	edit := middleware.RequirePermission("packages", "edit", h.Directory, h.Sessions)
	remove := middleware.RequirePermission("packages", "delete", h.Directory, h.Sessions)

	r.With(view).Get("/packages", h.HandleListMain)
	r.With(create).Post("/packages", h.HandleCreateMain)
	r.With(edit).Put("/packages/{id}", h.HandleUpdateMain)
	r.With(remove).Delete("/packages/{id}", h.HandleDeleteMain)

	r.With(view).Get("/sub-packages", h.HandleListSub)
	r.With(create).Post("/sub-packages", h.HandleCreateSub)
	r.With(edit).Put("/sub-packages/{id}", h.HandleUpdateSub)
	r.With(remove).Delete("/sub-packages/{id}", h.HandleDeleteSub)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, catalog.ErrPackageNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Package not found", reqID)
	case errors.Is(err, catalog.ErrSubPackageNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Sub package not found", reqID)
	case errors.Is(err, catalog.ErrNameRequired), errors.Is(err, catalog.ErrInvalidBilling), errors.Is(err, catalog.ErrInvalidPrice):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("catalog request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
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

func (h *Handler) HandleListMain(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Service.ListMainPackages(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to fetch packages")
		return
	}
	api.Success(w, pkgs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateMain(w http.ResponseWriter, r *http.Request) {
	var payload catalog.MainPackage
	if !decode(w, r, &payload) {
		return
	}
	pkg, err := h.Service.CreateMainPackage(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create package")
		return
	}
	api.Created(w, pkg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateMain(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	pkg, err := h.Service.UpdateMainPackage(r.Context(), chi.URLParam(r, "id"), func(p *catalog.MainPackage) error {
		return json.Unmarshal(body, p)
	})
	if err != nil {
		writeError(w, r, err, "Failed to update package")
		return
	}
	api.Success(w, pkg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteMain(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteMainPackage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete package")
		return
	}
	api.Success(w, map[string]string{"message": "Package deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleListSub(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Service.ListSubPackages(r.Context(), r.URL.Query().Get("mainPackageId"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch sub packages")
		return
	}
	api.Success(w, pkgs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateSub(w http.ResponseWriter, r *http.Request) {
	var payload catalog.SubPackage
	if !decode(w, r, &payload) {
		return
	}
	pkg, err := h.Service.CreateSubPackage(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "Failed to create sub package")
		return
	}
	api.Created(w, pkg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateSub(w http.ResponseWriter, r *http.Request) {
	body, ok := readPatch(w, r)
	if !ok {
		return
	}
	pkg, err := h.Service.UpdateSubPackage(r.Context(), chi.URLParam(r, "id"), func(p *catalog.SubPackage) error {
		return json.Unmarshal(body, p)
	})
	if err != nil {
		writeError(w, r, err, "Failed to update sub package")
		return
	}
	api.Success(w, pkg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteSub(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSubPackage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete sub package")
		return
	}
	api.Success(w, map[string]string{"message": "Sub package deleted successfully"}, middleware.GetRequestID(r.Context()))
}
