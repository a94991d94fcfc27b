package profilehandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffportal/internal/domain/profile"
	"staffportal/internal/platform/docstore"
	"staffportal/internal/transport/http/api"
	"staffportal/internal/transport/http/middleware"
)

const maxPhotoSize = 5 << 20

type Handler struct {
	Svc      *profile.Service
	Docs     docstore.Store
	UsersCol string
}

func NewHandler(svc *profile.Service, docs docstore.Store, usersCol string) *Handler {
	return &Handler{Svc: svc, Docs: docs, UsersCol: usersCol}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/profile", h.HandleGet)
		r.Put("/profile", h.HandleUpdate)
		r.Post("/profile/photo", h.HandlePhoto)
	})
}

type updateRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Name        string `json:"name,omitempty"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	ident, _ := middleware.GetIdentity(r.Context())

	p, err := h.Svc.Get(r.Context(), ident)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_load_failed", "Failed to load user profile. Please try again.", reqID)
		return
	}
	api.Success(w, p, reqID)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	ident, _ := middleware.GetIdentity(r.Context())

	var payload updateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	p, err := h.Svc.Save(r.Context(), ident, h.isAdmin(r), profile.SaveInput{
		PhoneNumber: payload.PhoneNumber,
		Address:     payload.Address,
		Name:        payload.Name,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_save_failed", "could not save profile", reqID)
		return
	}
	api.Success(w, p, reqID)
}

// HandlePhoto accepts a multipart upload and stores it under the caller's
// own picture path.
func (h *Handler) HandlePhoto(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	ident, _ := middleware.GetIdentity(r.Context())

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "invalid multipart payload", reqID)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "photo file is required", reqID)
		return
	}
	defer file.Close()

	p, err := h.Svc.Save(r.Context(), ident, h.isAdmin(r), profile.SaveInput{
		PhoneNumber: r.FormValue("phoneNumber"),
		Address:     r.FormValue("address"),
		Photo:       file,
		PhotoName:   header.Filename,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "photo_upload_failed", "could not upload photo", reqID)
		return
	}
	api.Success(w, p, reqID)
}

func (h *Handler) isAdmin(r *http.Request) bool {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		return false
	}
	return middleware.IsAdmin(r.Context(), h.Docs, h.UsersCol, ident.ID)
}
