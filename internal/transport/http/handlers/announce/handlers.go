package announcehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"staffportal/internal/domain/announce"
	"staffportal/internal/platform/docstore"
	"staffportal/internal/transport/http/api"
	"staffportal/internal/transport/http/middleware"
)

type Handler struct {
	Docs       docstore.Store
	Svc        *announce.Service
	Collection string
	UsersCol   string
}

func NewHandler(docs docstore.Store, svc *announce.Service, collection, usersCol string) *Handler {
	return &Handler{Docs: docs, Svc: svc, Collection: collection, UsersCol: usersCol}
}

// RegisterRoutes mounts the read route for everyone signed in and the
// mutation routes behind the admin gate.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/announcements", h.HandleList)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.Docs, h.UsersCol))
		r.Post("/announcements", h.HandleSave)
		r.Put("/announcements/{id}", h.HandleSave)
		r.Delete("/announcements/{id}", h.HandleDelete)
	})
}

type saveRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	docs, err := docstore.Collect(r.Context(), h.Docs, docstore.Query{
		Collection: h.Collection,
		OrderBy:    "createdAt",
		Descending: true,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "could not load announcements", reqID)
		return
	}

	now := time.Now()
	list := make([]announce.Announcement, 0, len(docs))
	for _, doc := range docs {
		list = append(list, announce.FromDocument(doc, now))
	}
	api.Success(w, list, reqID)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload saveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	actor := h.actor(r)
	id, err := h.Svc.Save(r.Context(), actor, payload.Title, payload.Content, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, announce.ErrEmptyFields):
		api.Fail(w, http.StatusUnprocessableEntity, "empty_fields", "Title and content cannot be empty.", reqID)
		return
	case errors.Is(err, docstore.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "announcement not found", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "save_failed", "could not save announcement", reqID)
		return
	}

	if chi.URLParam(r, "id") == "" {
		api.Created(w, map[string]string{"id": id}, reqID)
		return
	}
	api.Success(w, map[string]string{"id": id}, reqID)
}

// HandleDelete requires an explicit confirm flag so a bare DELETE cannot
// remove an announcement by accident.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if r.URL.Query().Get("confirm") != "true" {
		api.Fail(w, http.StatusBadRequest, "confirmation_required", "deletion must be confirmed", reqID)
		return
	}

	err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "announcement not found", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "could not delete announcement", reqID)
		return
	}
	api.Success(w, map[string]string{"id": chi.URLParam(r, "id")}, reqID)
}

// actor stamps mutations with the caller's identity, preferring the profile
// name over the raw email.
func (h *Handler) actor(r *http.Request) announce.Actor {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		return announce.Actor{}
	}
	actor := announce.Actor{UID: ident.ID, Name: ident.Email}
	if doc, err := h.Docs.GetOne(r.Context(), h.UsersCol, ident.ID); err == nil {
		if name := doc.String("name"); name != "" {
			actor.Name = name
		}
	}
	return actor
}
