package directoryhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffportal/internal/domain/directory"
	"staffportal/internal/domain/notice"
	"staffportal/internal/platform/docstore"
	"staffportal/internal/transport/http/api"
	"staffportal/internal/transport/http/middleware"
)

type Handler struct {
	Docs        docstore.Store
	Coordinator *directory.Coordinator
	Collection  string
	Alerts      *notice.Center
}

func NewHandler(docs docstore.Store, coordinator *directory.Coordinator, collection string, alerts *notice.Center) *Handler {
	return &Handler{Docs: docs, Coordinator: coordinator, Collection: collection, Alerts: alerts}
}

// RegisterRoutes mounts the directory behind the admin gate; employees never
// see other employees' records.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.Docs, h.Collection))
		r.Get("/employees", h.HandleList)
		r.Post("/employees", h.HandleCreate)
		r.Put("/employees/{id}", h.HandleUpdate)
		r.Get("/alerts", h.HandleAlerts)
	})
}

type employeeRequest struct {
	Fields   map[string]string `json:"fields"`
	Password string            `json:"password,omitempty"`
	Confirm  bool              `json:"confirm"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	records, err := directory.Load(r.Context(), h.Docs, h.Collection)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "could not load employees", reqID)
		return
	}
	api.Success(w, records, reqID)
}

// HandleCreate runs the two-phase create. Without the confirm flag the draft
// only validates; nothing is written until a confirmed request arrives.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	snapshot, err := directory.Load(r.Context(), h.Docs, h.Collection)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "could not load employees", reqID)
		return
	}

	form := directory.NewForm()
	for name, value := range payload.Fields {
		form.SetField(name, value, snapshot)
	}
	form.SetPassword(payload.Password)

	pending, err := h.Coordinator.StageCreate(form, snapshot)
	if err != nil {
		api.FailFields(w, http.StatusUnprocessableEntity, "validation_failed", "Please fix the highlighted fields.", form.Errors(), reqID)
		return
	}

	if !payload.Confirm {
		pending.Cancel()
		api.Success(w, map[string]any{"requiresConfirmation": true}, reqID)
		return
	}

	id, err := pending.Confirm(r.Context())
	if err != nil {
		h.post(directory.UserMessage(err), notice.LevelError)
		h.failCreate(w, err, reqID)
		return
	}
	h.post("Employee added successfully!", notice.LevelSuccess)
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	id := chi.URLParam(r, "id")
	doc, err := h.Docs.GetOne(r.Context(), h.Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_failed", "could not load employee", reqID)
		return
	}

	snapshot, err := directory.Load(r.Context(), h.Docs, h.Collection)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "could not load employees", reqID)
		return
	}

	form := directory.FormFor(directory.FromDocument(doc))
	for name, value := range payload.Fields {
		form.SetField(name, value, snapshot)
	}

	pending, err := h.Coordinator.StageUpdate(form, snapshot)
	if err != nil {
		api.FailFields(w, http.StatusUnprocessableEntity, "validation_failed", "Please fix the highlighted fields.", form.Errors(), reqID)
		return
	}

	if !payload.Confirm {
		pending.Cancel()
		api.Success(w, map[string]any{"requiresConfirmation": true}, reqID)
		return
	}

	if err := pending.Confirm(r.Context()); err != nil {
		h.post(directory.UserMessage(err), notice.LevelError)
		api.Fail(w, http.StatusInternalServerError, "update_failed", directory.UserMessage(err), reqID)
		return
	}
	h.post("Employee updated successfully!", notice.LevelSuccess)
	api.Success(w, map[string]string{"id": id}, reqID)
}

// HandleAlerts returns the current transient alert, or null once it has
// auto-dismissed.
func (h *Handler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	api.Success(w, h.Alerts.Current(), reqID)
}

func (h *Handler) post(message, level string) {
	if h.Alerts != nil {
		h.Alerts.Post(message, level)
	}
}

func (h *Handler) failCreate(w http.ResponseWriter, err error, reqID string) {
	var partial *directory.PartialFailureError
	switch {
	case errors.Is(err, directory.ErrEmailInUse):
		api.Fail(w, http.StatusConflict, "email_in_use", directory.UserMessage(err), reqID)
	case errors.Is(err, directory.ErrWeakPassword):
		api.Fail(w, http.StatusUnprocessableEntity, "weak_password", directory.UserMessage(err), reqID)
	case errors.As(err, &partial):
		api.Fail(w, http.StatusInternalServerError, "partial_failure", directory.UserMessage(err), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "create_failed", directory.UserMessage(err), reqID)
	}
}
